// Package hashing implements the canonical-hashing half of C1: SHA-256
// hex digests, the idempotency scope hash, and canonical-JSON payload
// hashing used both for idempotency conflict detection and for the
// tamper-evident journal chain.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ScopeHash fingerprints (initiator, txn_type, idempotency_key) so that
// different initiators or transaction types can never collide on the same
// idempotency key.
func ScopeHash(initiatorActorID, txnType, idempotencyKey string) string {
	input := initiatorActorID + "\x1f" + txnType + "\x1f" + idempotencyKey
	return SHA256Hex([]byte(input))
}

// PayloadHash returns the SHA-256 hex digest of the canonical JSON
// encoding of v (object keys sorted lexicographically and recursively,
// numbers emitted without scientific notation, no extraneous whitespace).
func PayloadHash(v any) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}

	return SHA256Hex(canonical), nil
}

// Canonicalize marshals v into the canonical JSON form described above.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("hashing: marshal: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("hashing: unmarshal: %w", err)
	}

	var buf []byte

	buf, err = appendCanonical(buf, decoded)
	if err != nil {
		return nil, err
	}

	return buf, nil
}

func appendCanonical(buf []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if val {
			return append(buf, "true"...), nil
		}

		return append(buf, "false"...), nil
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}

		return append(buf, encoded...), nil
	case float64:
		return append(buf, canonicalNumber(val)...), nil
	case []any:
		buf = append(buf, '[')

		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}

			var err error

			buf, err = appendCanonical(buf, item)
			if err != nil {
				return nil, err
			}
		}

		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		buf = append(buf, '{')

		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}

			keyEncoded, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}

			buf = append(buf, keyEncoded...)
			buf = append(buf, ':')

			buf, err = appendCanonical(buf, val[k])
			if err != nil {
				return nil, err
			}
		}

		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("hashing: unsupported type %T", v)
	}
}

// canonicalNumber formats a float64 decoded from JSON without scientific
// notation. Since every monetary value in this core is already an int64
// minor-unit amount by the time it reaches the wire, this path only needs
// to handle integral and small fractional values faithfully.
func canonicalNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
