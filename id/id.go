// Package id issues run identifiers: monotonic ULIDs, so runs sort by the
// time they started.
package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is shared by every ID and guarded by mu; Monotonic is not safe
// for concurrent use.
var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID stamped with the current time.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. IDs from the same millisecond still
// increase.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), entropy)
	if err != nil {
		// only on clock overflow or exhausted entropy
		panic(err)
	}
	return id.String()
}

// Time extracts the timestamp of a run ID.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run id %q: %w", s, err)
	}
	return ulid.Time(id.Time()).UTC(), nil
}
