package common

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// MaxRequestIDLen bounds inbound X-Request-ID values and the stored request_id column.
const MaxRequestIDLen = 128

// NewULID returns a 26-char, time-sortable id.
func NewULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
