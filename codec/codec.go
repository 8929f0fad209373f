// Package codec centralizes the binary record format and JSON encoding.
//
// Records (token sequences and labels) use a length-prefixed array of
// little-endian uint32 values. The format is a breaking-change boundary:
// caches written with one layout do not decode with another.
//
// JSON serializes configuration files, publish manifests and CLI output.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the JSON codec used for manifests and configuration.
var Default Codec = GoJSON{}
