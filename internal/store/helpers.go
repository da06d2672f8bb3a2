package store

import "encoding/json"

// marshalMetadata converts a metadata map to JSON text for storage.
func marshalMetadata(meta map[string]string) string {
	if len(meta) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(meta)
	return string(b)
}

// unmarshalMetadata converts JSON text back to a metadata map.
func unmarshalMetadata(s string) map[string]string {
	if s == "" || s == "null" || s == "{}" {
		return nil
	}
	var meta map[string]string
	_ = json.Unmarshal([]byte(s), &meta)
	return meta
}
