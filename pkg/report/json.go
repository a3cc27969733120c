package report

import (
	"io"

	"github.com/trustlens/trustlens/pkg/audit"
	"github.com/trustlens/trustlens/pkg/jsonutil"
)

// Compile-time interface check.
var _ Writer = (*JSONWriter)(nil)

// JSONWriter renders the full audit result as a JSON document.
type JSONWriter struct {
	// Indent is the indentation string; empty produces compact output.
	Indent string
}

// Write encodes the result to w.
func (jw *JSONWriter) Write(w io.Writer, res *audit.Result) error {
	if jw.Indent == "" {
		return jsonutil.Encode(w, res)
	}
	return jsonutil.EncodeIndent(w, res, jw.Indent)
}
