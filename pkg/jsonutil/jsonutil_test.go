package jsonutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sample{Name: "headers", Score: 0.85}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(sample{Name: "x"}, "  ")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  \"name\""))
}

func TestEncodeIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeIndent(&buf, sample{Name: "x", Score: 1}, "\t"))
	assert.Contains(t, buf.String(), "\t\"score\"")
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"ok":true}`)))
	assert.False(t, Valid([]byte(`{"ok":`)))
}
