package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	t.Run("Scalars", func(t *testing.T) {
		tests := []struct {
			name     string
			input    any
			expected Value
		}{
			{"nil", nil, Null()},
			{"Value", Int(1), Int(1)},
			{"bool true", true, Bool(true)},
			{"bool false", false, Bool(false)},
			{"string", "hello", String("hello")},
			{"float64", 3.14, Float(3.14)},
			{"float32", float32(1.5), Float(1.5)},
			{"int", int(1), Int(1)},
			{"int8", int8(1), Int(1)},
			{"int16", int16(1), Int(1)},
			{"int32", int32(1), Int(1)},
			{"int64", int64(1), Int(1)},
			{"uint", uint(1), Int(1)},
			{"uint8", uint8(1), Int(1)},
			{"uint16", uint16(1), Int(1)},
			{"uint32 max", uint32(math.MaxUint32), Int(int64(math.MaxUint32))},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				v, err := FromAny(tc.input)
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, v)
			})
		}
	})

	t.Run("Uint64 Range", func(t *testing.T) {
		v, err := FromAny(uint64(math.MaxInt64))
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), v.I64)

		_, err = FromAny(uint64(math.MaxInt64) + 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("Slices", func(t *testing.T) {
		v, err := FromAny([]any{1, "a", true})
		require.NoError(t, err)
		require.Equal(t, KindArray, v.Kind)
		assert.True(t, v.Equal(Array([]Value{Int(1), String("a"), Bool(true)})))

		v, err = FromAny([]string{"x", "y"})
		require.NoError(t, err)
		assert.True(t, v.Equal(Strings("x", "y")))

		v, err = FromAny([]int{1, 2})
		require.NoError(t, err)
		assert.True(t, v.Equal(Ints(1, 2)))
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := FromAny(struct{}{})
		assert.Error(t, err)

		_, err = FromAny([]any{map[string]any{}})
		assert.Error(t, err)
	})
}

func TestDocumentFromAny(t *testing.T) {
	doc, err := DocumentFromAny(map[string]any{"animal": "lion", "number": 2})
	require.NoError(t, err)
	assert.True(t, doc.Equal(Document{"animal": String("lion"), "number": Int(2)}))

	_, err = DocumentFromAny(map[string]any{"bad": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "bad"`)
}

func TestValueAny(t *testing.T) {
	assert.Equal(t, int64(2), Int(2).Any())
	assert.Equal(t, "lion", String("lion").Any())
	assert.Equal(t, []any{int64(1), "a"}, Array([]Value{Int(1), String("a")}).Any())
	assert.Nil(t, Null().Any())
}
