package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID stamped with the current wall time.
func New() string {
	return At(time.Now())
}

// At returns a ULID whose timestamp part is t, so ids sort by the time the
// caller's clock reports rather than the host clock.
func At(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
