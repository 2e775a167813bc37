package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/kangaroo/record"
)

// DefaultFields is the field set used by the random generators.
var DefaultFields = []string{"animal", "color", "number", "flag"}

var (
	animals = []string{"kangaroo", "lion", "wombat", "koala", "emu"}
	colors  = []string{"red", "green", "blue"}
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bool returns a pseudo-random bool.
func (r *RNG) Bool() bool {
	return r.Intn(2) == 1
}

// Pick returns a random element of s.
func Pick[T any](r *RNG, s []T) T {
	return s[r.Intn(len(s))]
}

// Value returns a random value for one of the DefaultFields. Unknown fields
// get a small random int.
func (r *RNG) Value(field string) record.Value {
	switch field {
	case "animal":
		return record.String(Pick(r, animals))
	case "color":
		return record.String(Pick(r, colors))
	case "number":
		// Mix ints and integral floats; both land in the same bucket.
		n := r.Intn(5)
		if r.Intn(4) == 0 {
			return record.Float(float64(n))
		}
		return record.Int(int64(n))
	case "flag":
		return record.Bool(r.Bool())
	default:
		return record.Int(int64(r.Intn(5)))
	}
}

// Document returns a document that defines a random subset of fields.
// Each field is present with probability 3/4.
func (r *RNG) Document(fields []string) record.Document {
	doc := make(record.Document, len(fields))
	for _, f := range fields {
		if r.Intn(4) == 0 {
			continue
		}
		doc[f] = r.Value(f)
	}
	return doc
}

// Documents returns n random documents.
func (r *RNG) Documents(n int, fields []string) []record.Document {
	docs := make([]record.Document, n)
	for i := range docs {
		docs[i] = r.Document(fields)
	}
	return docs
}

// Name returns a random identifier with the given prefix.
func (r *RNG) Name(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, r.Intn(1_000_000))
}
