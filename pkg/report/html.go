package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/trustlens/trustlens/pkg/audit"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/validator"
)

// Compile-time interface check.
var _ Writer = (*HTMLWriter)(nil)

// HTMLConfig configures the HTML report writer.
type HTMLConfig struct {
	// Title is the report title (default: "TrustLens Audit Report").
	Title string

	// ShowEvidence includes per-finding evidence tables.
	ShowEvidence bool

	// GeneratedAt overrides the report timestamp; zero uses time.Now.
	GeneratedAt time.Time
}

// HTMLWriter renders a self-contained HTML report.
type HTMLWriter struct {
	config HTMLConfig
	tmpl   *template.Template
}

// NewHTMLWriter creates an HTML writer, applying config defaults.
func NewHTMLWriter(config HTMLConfig) *HTMLWriter {
	if config.Title == "" {
		config.Title = "TrustLens Audit Report"
	}
	return &HTMLWriter{config: config}
}

// htmlData is the template context.
type htmlData struct {
	Config      HTMLConfig
	Result      *audit.Result
	Findings    []validator.AdjudicatedFinding
	Severities  []finding.Severity
	Summary     summary
	GeneratedAt time.Time
}

// Write renders the report to w.
func (hw *HTMLWriter) Write(w io.Writer, res *audit.Result) error {
	if hw.tmpl == nil {
		t, err := template.New("report").
			Funcs(sprig.HtmlFuncMap()).
			Funcs(template.FuncMap{
				"severityClass": severityClass,
				"statusClass":   statusClass,
				"scorePercent": func(score float64) string {
					return fmt.Sprintf("%.0f%%", score*100)
				},
			}).
			Parse(htmlTemplate)
		if err != nil {
			return fmt.Errorf("parse report template: %w", err)
		}
		hw.tmpl = t
	}

	generated := hw.config.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	data := htmlData{
		Config:      hw.config,
		Result:      res,
		Findings:    sortedForDisplay(res),
		Severities:  severityOrder,
		Summary:     summarize(res),
		GeneratedAt: generated,
	}
	if err := hw.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func severityClass(sev finding.Severity) string {
	switch sev {
	case finding.Critical, finding.High, finding.Medium, finding.Low:
		return "sev-" + string(sev)
	default:
		return "sev-info"
	}
}

func statusClass(status validator.Status) string {
	return "status-" + string(status)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Config.Title }}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #0f172a; color: #e2e8f0; }
  .container { max-width: 960px; margin: 0 auto; padding: 2rem; }
  h1 { font-size: 1.5rem; } h2 { font-size: 1.1rem; margin-top: 2rem; }
  .meta { color: #94a3b8; font-size: 0.85rem; }
  .score { font-size: 2.5rem; font-weight: 700; }
  table { width: 100%; border-collapse: collapse; margin-top: 0.75rem; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #1e293b; font-size: 0.85rem; }
  th { color: #94a3b8; text-transform: uppercase; font-size: 0.7rem; letter-spacing: 0.05em; }
  .badge { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 0.25rem; font-size: 0.75rem; font-weight: 600; }
  .sev-critical { background: #7f1d1d; color: #fecaca; }
  .sev-high { background: #9a3412; color: #fed7aa; }
  .sev-medium { background: #854d0e; color: #fef08a; }
  .sev-low { background: #14532d; color: #bbf7d0; }
  .sev-info { background: #1e3a8a; color: #bfdbfe; }
  .status-verified { background: #14532d; color: #bbf7d0; }
  .status-confirmed { background: #164e63; color: #a5f3fc; }
  .status-conflicting { background: #854d0e; color: #fef08a; }
  .status-unconfirmed { background: #334155; color: #cbd5e1; }
  .evidence { color: #94a3b8; font-size: 0.75rem; }
  .failed { color: #fca5a5; }
</style>
</head>
<body>
<div class="container">
  <h1>{{ .Config.Title }}</h1>
  <p class="meta">
    Target: {{ .Result.Target }} &middot;
    Audit {{ .Result.AuditID }} &middot;
    Generated {{ .GeneratedAt.Format "2006-01-02 15:04:05 MST" }}
  </p>

  {{ with .Result.Security }}
  <h2>Trust Score</h2>
  <div class="score">{{ scorePercent .Score }}</div>
  <p class="meta">
    Mode: {{ .Mode }} &middot;
    {{ len .ModulesRun }} modules run &middot;
    {{ .AnalysisTimeMs }}ms analysis
    {{ if .ModulesFailed }}<span class="failed">&middot; failed: {{ join ", " .ModulesFailed }}</span>{{ end }}
  </p>
  {{ end }}

  <h2>Findings by Severity</h2>
  <table>
    <tr><th>Severity</th><th>Count</th></tr>
    {{ $sum := .Summary }}
    {{ range .Severities }}
    {{ $n := index $sum.SeverityCounts . }}
    {{ if $n }}
    <tr><td><span class="badge {{ severityClass . }}">{{ . }}</span></td><td>{{ $n }}</td></tr>
    {{ end }}
    {{ end }}
  </table>

  <h2>Adjudicated Findings ({{ len .Findings }})</h2>
  <table>
    <tr><th>Severity</th><th>Status</th><th>Category</th><th>CWE</th><th>Confidence</th><th>Agents</th><th>Description</th></tr>
    {{ range .Findings }}
    <tr>
      <td><span class="badge {{ severityClass .Severity }}">{{ .Severity }}</span></td>
      <td><span class="badge {{ statusClass .Status }}">{{ .Status }}</span></td>
      <td>{{ .Category }}{{ if .SubType }} / {{ .SubType }}{{ end }}</td>
      <td>{{ default "-" .WeaknessID }}</td>
      <td>{{ printf "%.0f%%" .FinalConfidence }}</td>
      <td>{{ join ", " .AgentSources }}</td>
      <td>{{ .Description }}{{ if .Notes }}<div class="evidence">{{ .Notes }}</div>{{ end }}</td>
    </tr>
    {{ if and $.Config.ShowEvidence .Evidence }}
    <tr><td colspan="7" class="evidence">
      {{ range $k, $v := .Evidence }}{{ $k }}: {{ $v }}<br>{{ end }}
    </td></tr>
    {{ end }}
    {{ end }}
  </table>
</div>
</body>
</html>
`
