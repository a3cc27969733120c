package report

import (
	"fmt"
	"io"
	"time"

	gofpdf "github.com/go-pdf/fpdf"
	"github.com/trustlens/trustlens/pkg/audit"
	"github.com/trustlens/trustlens/pkg/finding"
)

// Compile-time interface check.
var _ Writer = (*PDFWriter)(nil)

// PDFWriter renders the audit result as a PDF document.
type PDFWriter struct {
	// Title is the document title (default: "TrustLens Audit Report").
	Title string
}

// Write renders the result to w.
func (pw *PDFWriter) Write(w io.Writer, res *audit.Result) error {
	title := pw.Title
	if title == "" {
		title = "TrustLens Audit Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pw.addHeader(pdf, title, res)
	pw.addScoreSummary(pdf, res)
	pw.addSeverityBreakdown(pdf, res)
	pw.addFindingsTable(pdf, res)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (pw *PDFWriter) addHeader(pdf *gofpdf.Fpdf, title string, res *audit.Result) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(0, 5, "Target: "+res.Target, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Audit: "+res.AuditID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Generated: "+time.Now().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (pw *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func (pw *PDFWriter) addScoreSummary(pdf *gofpdf.Fpdf, res *audit.Result) {
	if res.Security == nil {
		return
	}
	pw.addSectionHeader(pdf, "Trust Score")

	pdf.SetFont("Helvetica", "B", 24)
	switch {
	case res.Security.Score >= 0.8:
		pdf.SetTextColor(22, 163, 74)
	case res.Security.Score >= 0.5:
		pdf.SetTextColor(202, 138, 4)
	default:
		pdf.SetTextColor(220, 38, 38)
	}
	pdf.CellFormat(0, 12, fmt.Sprintf("%.0f / 100", res.Security.Score*100), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 116, 139)
	line := fmt.Sprintf("Mode: %s  |  Modules run: %d  |  Failed: %d  |  Analysis: %dms",
		res.Security.Mode, len(res.Security.ModulesRun), len(res.Security.ModulesFailed),
		res.Security.AnalysisTimeMs)
	pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (pw *PDFWriter) addSeverityBreakdown(pdf *gofpdf.Fpdf, res *audit.Result) {
	sum := summarize(res)
	pw.addSectionHeader(pdf, "Findings by Severity")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(40, 7, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Count", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, sev := range severityOrder {
		n := sum.SeverityCounts[sev]
		if n == 0 {
			continue
		}
		r, g, b := severityRGB(sev)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(40, 6, string(sev), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", n), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
}

func (pw *PDFWriter) addFindingsTable(pdf *gofpdf.Fpdf, res *audit.Result) {
	findings := sortedForDisplay(res)
	pw.addSectionHeader(pdf, fmt.Sprintf("Adjudicated Findings (%d)", len(findings)))

	if len(findings) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 6, "No findings.", "", 1, "L", false, 0, "")
		return
	}

	headers := []struct {
		label string
		width float64
	}{
		{"Severity", 20},
		{"Status", 24},
		{"Category", 38},
		{"CWE", 18},
		{"Conf", 14},
		{"Description", 76},
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	for _, h := range headers {
		pdf.CellFormat(h.width, 7, h.label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, adj := range findings {
		r, g, b := severityRGB(adj.Severity)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(20, 6, string(adj.Severity), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(24, 6, string(adj.Status), "1", 0, "L", false, 0, "")
		pdf.CellFormat(38, 6, truncate(adj.Category, 26), "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, adj.WeaknessID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(14, 6, fmt.Sprintf("%.0f%%", adj.FinalConfidence), "1", 0, "C", false, 0, "")
		pdf.CellFormat(76, 6, truncate(adj.Description, 56), "1", 1, "L", false, 0, "")
	}
}

func severityRGB(sev finding.Severity) (int, int, int) {
	switch sev {
	case finding.Critical:
		return 185, 28, 28
	case finding.High:
		return 234, 88, 12
	case finding.Medium:
		return 202, 138, 4
	case finding.Low:
		return 22, 163, 74
	default:
		return 37, 99, 235
	}
}
