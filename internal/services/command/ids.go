package command

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func newID() string {
	return uuid.NewString()
}

var ulidEntropy = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // entropy source only, not security-sensitive

// newULID mints a lexicographically sortable event id per §6's outbox
// wire format, falling back to fresh crypto/rand entropy if ulid.New
// fails with the shared monotonic entropy source.
func newULID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulidEntropy)
	if err != nil {
		var buf [10]byte
		_, _ = rand.Read(buf[:])

		id, _ = ulid.New(ulid.Timestamp(time.Now()), bytesReader(buf[:]))
	}

	return id.String()
}

type bytesReader []byte

func (b bytesReader) Read(p []byte) (int, error) {
	n := copy(p, b)
	return n, nil
}

func decodeReceipt(resultJSON string) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal([]byte(resultJSON), &r); err != nil {
		return nil, fmt.Errorf("command: decode stored receipt: %w", err)
	}

	return &r, nil
}
