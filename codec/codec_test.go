package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/table"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreInterchangeable(t *testing.T) {
	snap := table.Snapshot{
		Name:    "animals",
		Indexes: []string{"number"},
		Rows: []record.Document{
			{"animal": record.String("lion"), "number": record.Int(2), "weight": record.Float(190.5)},
			{"tags": record.Strings("a", "b"), "flag": record.Bool(true)},
		},
	}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		data := MustMarshal(enc, snap)
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			var got table.Snapshot
			require.NoError(t, dec.Unmarshal(data, &got), "%s -> %s", enc.Name(), dec.Name())
			assert.Equal(t, snap.Name, got.Name)
			assert.Equal(t, snap.Indexes, got.Indexes)
			require.Len(t, got.Rows, len(snap.Rows))
			for i := range snap.Rows {
				assert.True(t, snap.Rows[i].Equal(got.Rows[i]), "%s -> %s row %d", enc.Name(), dec.Name(), i)
			}
		}
	}
}

type upperJSON struct{ JSON }

func (upperJSON) Name() string { return "test-upper" }

func TestRegister(t *testing.T) {
	assert.Subset(t, Names(), []string{"go-json", "json"})

	if _, ok := ByName("test-upper"); !ok {
		Register(upperJSON{})
	}
	c, ok := ByName("test-upper")
	require.True(t, ok)
	assert.Equal(t, "test-upper", c.Name())
	assert.Contains(t, Names(), "test-upper")

	assert.Panics(t, func() { Register(upperJSON{}) })
	assert.Panics(t, func() { Register(JSON{}) })
}

func TestMustMarshal(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(MustMarshal(nil, map[string]int{"a": 1})))
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
