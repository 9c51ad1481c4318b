package adapters

import (
	"solmeme-pipeline/internal/domain"
)

// ParseWhaleTrades decodes the whale feed's array schema (§4.2) into
// zero or more WhaleTrade events. Each element is parsed independently;
// a bad element is skipped (with its error reported) rather than
// failing the whole batch, per the adapters' never-block contract.
func ParseWhaleTrades(payload []byte) ([]domain.WhaleTrade, []error) {
	var elems []raw
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, []error{decodeErr("whale_feed", err)}
	}

	var trades []domain.WhaleTrade
	var errs []error
	for _, m := range elems {
		t, err := parseWhaleElement(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		trades = append(trades, t)
	}
	return trades, errs
}

func parseWhaleElement(m raw) (domain.WhaleTrade, error) {
	action, ok := str(m, "action")
	if !ok || (action != "buy" && action != "sell") {
		return domain.WhaleTrade{}, missingField("whale_feed", "action")
	}
	wallet, ok := str(m, "wallet")
	if !ok || wallet == "" {
		return domain.WhaleTrade{}, missingField("whale_feed", "wallet")
	}
	txID, ok := str(m, "txId")
	if !ok || txID == "" {
		return domain.WhaleTrade{}, missingField("whale_feed", "txId")
	}

	var address string
	if action == "buy" {
		address, _ = str(m, "toToken")
	} else {
		address, _ = str(m, "fromToken")
	}
	if address == "" {
		return domain.WhaleTrade{}, missingField("whale_feed", "fromToken/toToken")
	}

	symbol, _ := str(m, "symbol")

	var amountUsd, profitUsd float64
	if p := f64Ptr(m, "solAmount"); p != nil {
		amountUsd = *p
	}
	if p := f64Ptr(m, "profitUsd"); p != nil {
		profitUsd = *p
	}

	return domain.WhaleTrade{
		Address:   address,
		Symbol:    symbol,
		Wallet:    wallet,
		TxID:      txID,
		Action:    action,
		AmountUsd: amountUsd,
		ProfitUsd: profitUsd,
		TradeTime: tsOrNow(m, "tradeTime"),
	}, nil
}
