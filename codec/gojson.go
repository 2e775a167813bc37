package codec

import gojson "github.com/goccy/go-json"

// GoJSON encodes payloads with github.com/goccy/go-json. The output is plain
// JSON, so JSON can decode it and vice versa.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

func (GoJSON) Name() string { return "go-json" }
