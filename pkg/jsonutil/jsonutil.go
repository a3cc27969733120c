// Package jsonutil wraps github.com/go-json-experiment/json behind the
// small slice of the encoding/json API the reporting layer needs.
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the JSON encoding of v indented with indent.
// go-json-experiment expresses indentation as a jsontext option.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndent(indent))
}

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Encode writes the JSON encoding of v to w.
func Encode(w io.Writer, v any) error {
	return json.MarshalWrite(w, v)
}

// EncodeIndent writes the indented JSON encoding of v to w.
func EncodeIndent(w io.Writer, v any, indent string) error {
	return json.MarshalWrite(w, v, jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}
