package codec

import "encoding/json"

// JSON encodes payloads with encoding/json. Snapshots written with it can be
// decoded by any JSON tool once decompressed.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }
