package adapters

import (
	"time"

	"github.com/mr-tron/base58"

	"solmeme-pipeline/internal/domain"
)

// ParseFeeUpdate decodes a jito-bribe-fee / sol-priority-fee room
// payload; kind is supplied by the caller since it is determined by
// which room the message arrived on, not by payload content.
func ParseFeeUpdate(payload []byte, kind domain.FeeKind) (domain.FeeUpdate, error) {
	m, err := decodeObject(string(kind), payload)
	if err != nil {
		return domain.FeeUpdate{}, err
	}
	v := f64Ptr(m, "valueSol")
	if v == nil {
		return domain.FeeUpdate{}, missingField(string(kind), "valueSol")
	}
	return domain.FeeUpdate{
		Kind:     kind,
		ValueSol: *v,
		Ts:       tsOrNow(m, "ts"),
	}, nil
}

// ParseBlockHash decodes a block_hash room payload, validating that the
// hash field is well-formed base58 of the expected byte length before
// constructing a BlockHash (§4.2's address-handling rule).
func ParseBlockHash(payload []byte) (domain.BlockHash, error) {
	m, err := decodeObject("block_hash", payload)
	if err != nil {
		return domain.BlockHash{}, err
	}
	hash, ok := str(m, "hash")
	if !ok || hash == "" {
		return domain.BlockHash{}, missingField("block_hash", "hash")
	}
	decoded, err := base58.Decode(hash)
	if err != nil {
		return domain.BlockHash{}, decodeErr("block_hash", err)
	}
	if len(decoded) != expectedBlockHashBytes {
		return domain.BlockHash{}, decodeErr("block_hash", errWrongHashLength(len(decoded)))
	}
	return domain.BlockHash{Hash: hash, Ts: tsOrNow(m, "ts")}, nil
}

type wrongHashLengthError struct{ got int }

func (e wrongHashLengthError) Error() string {
	return "decoded hash has wrong byte length"
}

func errWrongHashLength(got int) error { return wrongHashLengthError{got: got} }

// ParseMarketTick decodes a "b-<address>" room payload into a MarketTick
// for the given address (the address is carried in the room name, not
// the payload, so it is supplied by the caller). The room content is a
// bare decimal price, not an object; an object form with a "priceUsd"
// field is also accepted for providers that wrap it.
func ParseMarketTick(address string, payload []byte) (domain.MarketTick, error) {
	room := "b-" + address

	var bare float64
	if err := json.Unmarshal(payload, &bare); err == nil {
		return domain.MarketTick{
			Address:  address,
			PriceUsd: decimalFromFloat(bare),
			Ts:       time.Now(),
		}, nil
	}

	m, err := decodeObject(room, payload)
	if err != nil {
		return domain.MarketTick{}, err
	}
	price := f64Ptr(m, "priceUsd")
	if price == nil {
		return domain.MarketTick{}, missingField(room, "priceUsd")
	}
	return domain.MarketTick{
		Address:  address,
		PriceUsd: decimalFromFloat(*price),
		Ts:       tsOrNow(m, "ts"),
	}, nil
}
