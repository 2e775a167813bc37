// Package codec encodes snapshot payloads.
//
// Every snapshot envelope records the name of the codec that wrote its
// payload, and loading looks the codec up by that name. Snapshots written
// with one codec therefore stay readable after the configured codec changes.
package codec

import (
	"fmt"
	"slices"
	"sync"
)

// Codec encodes and decodes snapshot payloads. Implementations must be safe
// for concurrent use and must not change their Name, which is persisted.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for new snapshots.
var Default Codec = GoJSON{}

var (
	registryMu sync.RWMutex
	registry   = map[string]Codec{}
)

func init() {
	Register(JSON{})
	Register(GoJSON{})
}

// Register makes c available to ByName. It panics if the name is empty or
// already taken.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := c.Name()
	if name == "" {
		panic("codec: Register with empty name")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("codec: %q registered twice", name))
	}
	registry[name] = c
}

// ByName returns the registered codec with the given name.
func ByName(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := registry[name]
	return c, ok
}

// Names returns the sorted names of all registered codecs.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MustMarshal encodes v with c (Default if nil) and panics on error.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s: %w", c.Name(), err))
	}
	return b
}
