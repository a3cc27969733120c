// Package report renders audit results in JSON, table, HTML and PDF formats.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/trustlens/trustlens/pkg/audit"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/validator"
)

// Format identifies an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatHTML  Format = "html"
	FormatPDF   Format = "pdf"
)

// Writer renders a completed audit result to a stream.
type Writer interface {
	Write(w io.Writer, res *audit.Result) error
}

// New returns a writer for the named format with default options.
func New(format Format) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return &JSONWriter{Indent: "  "}, nil
	case FormatTable:
		return &TableWriter{}, nil
	case FormatHTML:
		return NewHTMLWriter(HTMLConfig{ShowEvidence: true}), nil
	case FormatPDF:
		return &PDFWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// summary holds the derived numbers every writer renders.
type summary struct {
	SeverityCounts map[finding.Severity]int
	StatusCounts   map[validator.Status]int
	Highest        finding.Severity
}

func summarize(res *audit.Result) summary {
	s := summary{
		SeverityCounts: make(map[finding.Severity]int),
		StatusCounts:   make(map[validator.Status]int),
		Highest:        finding.Info,
	}
	for _, adj := range res.Adjudicated {
		s.SeverityCounts[adj.Severity]++
		s.StatusCounts[adj.Status]++
		if adj.Severity.Rank() > s.Highest.Rank() {
			s.Highest = adj.Severity
		}
	}
	return s
}

// severityOrder is the display order, most severe first.
var severityOrder = []finding.Severity{
	finding.Critical,
	finding.High,
	finding.Medium,
	finding.Low,
	finding.Info,
}

// statusOrder is the display order, strongest confirmation first.
var statusOrder = []validator.Status{
	validator.StatusVerified,
	validator.StatusConfirmed,
	validator.StatusConflicting,
	validator.StatusUnconfirmed,
}

// sortedForDisplay returns the adjudicated findings ordered by severity
// (most severe first), then final confidence descending, then category.
func sortedForDisplay(res *audit.Result) []validator.AdjudicatedFinding {
	out := make([]validator.AdjudicatedFinding, len(res.Adjudicated))
	copy(out, res.Adjudicated)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		if out[i].FinalConfidence != out[j].FinalConfidence {
			return out[i].FinalConfidence > out[j].FinalConfidence
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func joinSources(sources []string) string {
	return strings.Join(sources, ", ")
}
