package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocuments(t *testing.T) {
	rng := NewRNG(4711)

	docs := rng.Documents(50, DefaultFields)

	assert.Len(t, docs, 50)
	for _, doc := range docs {
		assert.LessOrEqual(t, len(doc), len(DefaultFields))
		for k := range doc {
			assert.Contains(t, DefaultFields, k)
		}
	}
}

func TestValueDomain(t *testing.T) {
	rng := NewRNG(4711)

	for range 100 {
		n, ok := rng.Value("number").AsFloat64()
		assert.True(t, ok)
		assert.GreaterOrEqual(t, n, 0.0)
		assert.Less(t, n, 5.0)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	d1 := rng.Documents(5, DefaultFields)

	rng.Reset()
	d2 := rng.Documents(5, DefaultFields)

	for i := range d1 {
		assert.True(t, d1[i].Equal(d2[i]))
	}
	assert.Equal(t, int64(4711), rng.Seed())
}
