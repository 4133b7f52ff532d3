package ulid

import (
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	mu        sync.RWMutex
	generator = DefaultGenerator
)

// DefaultEntropy returns a reader that generates ULID entropy.
// It is monotonic and safe for concurrent use.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// Crockford's Base32 (no I, L, O, U), 10 chars of timestamp and 16 of randomness.
var ulidRe = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

// ValidID checks if id is a canonical ULID.
func ValidID(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil && ulidRe.MatchString(id)
}

// GenerateID returns a new identifier for a slide or a block.
// Identifiers are never reused within a process.
func GenerateID() string {
	mu.RLock()
	gen := generator
	mu.RUnlock()
	return gen()
}

func DefaultGenerator() string {
	entropy := DefaultEntropy()
	ts := ulid.Timestamp(time.Now())
	return ulid.MustNew(ts, entropy).String()
}

func setGenerator(fn func() string) {
	mu.Lock()
	generator = fn
	mu.Unlock()
}

func ResetGenerator() {
	setGenerator(DefaultGenerator)
}

// MockSequence makes GenerateID return "<prefix>-1", "<prefix>-2", ...
// It is meant for tests that need predictable but distinct ids.
func MockSequence(prefix string) {
	var n atomic.Uint64
	setGenerator(func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	})
}
