package crypto

// hash.go - dedup key hashing.
//
// The Token Intake & Deduper keys its sliding-window dedup table by the
// SHA-256 digest of a canonicalized address rather than the raw string,
// bounding memory per tracked address regardless of how long the
// upstream feed's address encoding happens to be.

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrEmptyAddress = errors.New("address cannot be empty")

// CanonicalAddress lower-cases and trims an address for use as a dedup
// key. Solana addresses are case-sensitive base58 for on-chain lookups,
// but the dedup window only needs a stable key, so case-folding here is
// deliberate: it catches adapters that forward the same address with
// inconsistent casing from different upstream rooms. Two distinct
// addresses that differ only in case map to the same key.
func CanonicalAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// DedupKey returns the hex-encoded SHA-256 digest of the canonicalized
// address, used as the key in the Token Intake & Deduper's sliding
// window table.
func DedupKey(addr string) (string, error) {
	canon := CanonicalAddress(addr)
	if canon == "" {
		return "", ErrEmptyAddress
	}
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:]), nil
}
