package mmodel

import "time"

// IdempotencyRecord is the stored result of a previously-processed
// command, keyed on (ScopeHash, IdempotencyKey) so replays with an
// identical payload return the original receipt instead of re-executing.
type IdempotencyRecord struct {
	ScopeHash      string
	IdempotencyKey string
	PayloadHash    string
	ResultJSON     string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Expired reports whether the record's TTL has elapsed as of now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
