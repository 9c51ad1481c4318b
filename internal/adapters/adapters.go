// Package adapters converts source-specific upstream message shapes
// (§4.2) into the typed events in internal/domain, grounded on the
// teacher's internal/websocket/messages.go envelope-decoding style.
package adapters

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MissingFieldError reports which required field a room's payload lacked.
type MissingFieldError struct {
	Room  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Room, e.Field)
}

func missingField(room, field string) error {
	return pipeline.New(pipeline.KindDecode, "adapters", &MissingFieldError{Room: room, Field: field})
}

func decodeErr(room string, cause error) error {
	return pipeline.New(pipeline.KindDecode, "adapters", fmt.Errorf("%s: %w", room, cause))
}

// expectedBlockHashBytes is the byte length of a base58-decoded Solana
// blockhash (32-byte public-key-sized hash).
const expectedBlockHashBytes = 32

// raw is the generic decoded-JSON-object shape every parser starts from.
type raw map[string]interface{}

func decodeObject(room string, payload []byte) (raw, error) {
	var m raw
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, decodeErr(room, err)
	}
	return m, nil
}

func str(m raw, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func f64Ptr(m raw, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

func intPtr(m raw, key string) *int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if f, ok := v.(float64); ok {
		i := int(f)
		return &i
	}
	return nil
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func tsOrNow(m raw, key string) time.Time {
	v, ok := m[key]
	if !ok || v == nil {
		return time.Now()
	}
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t))
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Now()
}
