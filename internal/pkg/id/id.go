package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort lexicographically by creation
// time, so using them as the face-record sort key preserves insertion order
// within a user partition.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
