package utils

// validator.go - input validation for the pipeline's domain values.

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

var (
	ErrEmptyAddress     = errors.New("address cannot be empty")
	ErrInvalidAddress   = errors.New("address is not valid base58")
	ErrAddressTooShort  = errors.New("address decodes shorter than the minimum Solana pubkey length")
	ErrAddressTooLong   = errors.New("address decodes longer than the maximum Solana pubkey length")
	ErrNonPositiveValue = errors.New("value must be greater than zero")
	ErrNegativeValue    = errors.New("value must not be negative")
)

const (
	minPubkeyBytes = 1
	maxPubkeyBytes = 64
)

// ValidateAddress checks that addr is non-empty base58 decoding to a
// plausible Solana account/mint length. It does not verify the address
// is on the ed25519 curve; that distinction does not matter for a token
// mint address used only as a dedup/lookup key.
func ValidateAddress(addr string) error {
	if addr == "" {
		return ErrEmptyAddress
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) < minPubkeyBytes {
		return ErrAddressTooShort
	}
	if len(decoded) > maxPubkeyBytes {
		return ErrAddressTooLong
	}
	return nil
}

// ValidatePositive returns ErrNonPositiveValue if v <= 0.
func ValidatePositive(v float64) error {
	if v <= 0 {
		return ErrNonPositiveValue
	}
	return nil
}

// ValidateNonNegative returns ErrNegativeValue if v < 0.
func ValidateNonNegative(v float64) error {
	if v < 0 {
		return ErrNegativeValue
	}
	return nil
}

// ValidatePercent checks that v is within [0, 1], the convention used
// for every *Pct configuration field in the pipeline.
func ValidatePercent(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("percent value %v out of range [0,1]", v)
	}
	return nil
}
