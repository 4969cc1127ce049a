package storage

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const VerificationPrefix = "verification"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewVerificationKey returns a fresh, lexicographically sortable key for a
// verification document with the given extension.
func NewVerificationKey(extension string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	entropyMu.Unlock()

	extension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extension)), ".")
	if extension == "" {
		return VerificationPrefix + "/" + id
	}
	return VerificationPrefix + "/" + id + "." + extension
}

// IsVerificationKey reports whether key has the shape NewVerificationKey
// produces.
func IsVerificationKey(key string) bool {
	rest, found := strings.CutPrefix(key, VerificationPrefix+"/")
	if !found {
		return false
	}
	id, _, _ := strings.Cut(rest, ".")
	_, err := ulid.ParseStrict(id)
	return err == nil
}
