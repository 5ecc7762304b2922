package domain

import (
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a unique identifier of the form "<prefix>_<ulid>".
func NewID(prefix string) string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return prefix + "_" + ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewShortID returns a compact identifier of the form "<prefix>_<8 chars>",
// used for agent and workflow ids where readability matters.
func NewShortID(prefix string) string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	id := ulid.MustNew(ulid.Timestamp(t), entropy).String()
	return prefix + "_" + strings.ToLower(id[len(id)-8:])
}
