package adapters

import "solmeme-pipeline/internal/domain"

// ParseNewPairs decodes a "new_pairs" room payload into a NewToken.
// address is the only hard requirement; everything else is optional
// per §4.2.
func ParseNewPairs(payload []byte) (domain.NewToken, error) {
	m, err := decodeObject("new_pairs", payload)
	if err != nil {
		return domain.NewToken{}, err
	}
	addr, ok := str(m, "address")
	if !ok || addr == "" {
		return domain.NewToken{}, missingField("new_pairs", "address")
	}
	symbol, _ := str(m, "symbol")
	name, _ := str(m, "name")
	return domain.NewToken{
		Address:      addr,
		Symbol:       symbol,
		Name:         name,
		LiquidityUsd: f64Ptr(m, "liquidityUsd"),
		MarketCapUsd: f64Ptr(m, "marketCapUsd"),
		PriceUsd:     f64Ptr(m, "priceUsd"),
		SourceTag:    domain.SourceNewPairs,
	}, nil
}
