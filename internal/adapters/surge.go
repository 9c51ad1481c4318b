package adapters

import "solmeme-pipeline/internal/domain"

// ParseSurgeUpdate decodes a "surge-updates" room payload. address and
// symbol are required; rank/jump/priceUsd/volume are optional.
func ParseSurgeUpdate(payload []byte) (domain.SurgeUpdate, error) {
	m, err := decodeObject("surge-updates", payload)
	if err != nil {
		return domain.SurgeUpdate{}, err
	}
	addr, ok := str(m, "address")
	if !ok || addr == "" {
		return domain.SurgeUpdate{}, missingField("surge-updates", "address")
	}
	symbol, ok := str(m, "symbol")
	if !ok || symbol == "" {
		return domain.SurgeUpdate{}, missingField("surge-updates", "symbol")
	}
	return domain.SurgeUpdate{
		Address:  addr,
		Symbol:   symbol,
		Rank:     intPtr(m, "rank"),
		Jump:     f64Ptr(m, "jump"),
		PriceUsd: f64Ptr(m, "priceUsd"),
		Volume:   f64Ptr(m, "volume"),
		Ts:       tsOrNow(m, "ts"),
	}, nil
}
