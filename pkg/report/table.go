package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/trustlens/trustlens/pkg/audit"
	"github.com/trustlens/trustlens/pkg/ui"
)

// Compile-time interface check.
var _ Writer = (*TableWriter)(nil)

// TableWriter renders a terminal summary of the audit.
type TableWriter struct {
	// Verbose includes evidence pairs under each finding.
	Verbose bool
}

// Write renders the result to w.
func (tw *TableWriter) Write(w io.Writer, res *audit.Result) error {
	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render(" Audit Report "))
	b.WriteString("\n\n")

	printRow := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", ui.LabelStyle.Render(label), value))
	}

	printRow("Target:", ui.ValueStyle.Render(res.Target))
	printRow("Audit ID:", ui.SubtitleStyle.Render(res.AuditID))
	if res.Security != nil {
		printRow("Mode:", ui.CategoryStyle.Render(res.Security.Mode))
		printRow("Score:", ui.ScoreBar(res.Security.Score))
		printRow("Modules:", fmt.Sprintf("%s run, %s failed",
			ui.ValueStyle.Render(fmt.Sprintf("%d", len(res.Security.ModulesRun))),
			ui.ErrorStyle.Render(fmt.Sprintf("%d", len(res.Security.ModulesFailed)))))
		if len(res.Security.ModulesFailed) > 0 {
			printRow("Failed:", ui.ErrorStyle.Render(strings.Join(res.Security.ModulesFailed, ", ")))
		}
	}
	printRow("Duration:", fmt.Sprintf("%dms", res.DurationMs))

	sum := summarize(res)
	b.WriteString("\n")
	b.WriteString(ui.SectionStyle.Render("  Findings by severity"))
	b.WriteString("\n")
	for _, sev := range severityOrder {
		n := sum.SeverityCounts[sev]
		if n == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("    %s %d\n",
			ui.SeverityStyle(string(sev)).Render(fmt.Sprintf("%-8s", sev)), n))
	}
	if len(res.Adjudicated) == 0 {
		b.WriteString(ui.SuccessStyle.Render("    no findings"))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %s %s, highest severity %s\n",
			ui.LabelStyle.Render("Adjudication:"),
			statusSummary(sum),
			ui.SeverityStyle(string(sum.Highest)).Render(string(sum.Highest))))
	}

	if len(res.Adjudicated) > 0 {
		b.WriteString("\n")
		b.WriteString(ui.SectionStyle.Render("  Adjudicated findings"))
		b.WriteString("\n")
		for _, adj := range sortedForDisplay(res) {
			line := fmt.Sprintf("    %s %s %s %s %s",
				bracket(ui.SeverityStyle(string(adj.Severity)).Render(string(adj.Severity))),
				bracket(ui.StatusStyle(string(adj.Status)).Render(string(adj.Status))),
				ui.CategoryStyle.Render(adj.Category),
				ui.ValueStyle.Render(fmt.Sprintf("%.0f%%", adj.FinalConfidence)),
				ui.SubtitleStyle.Render(truncate(adj.Description, 70)),
			)
			b.WriteString(line)
			b.WriteString("\n")
			if adj.WeaknessID != "" || len(adj.AgentSources) > 0 {
				b.WriteString(fmt.Sprintf("      %s",
					ui.LabelStyle.Render(detailLine(adj.WeaknessID, adj.AgentSources))))
				b.WriteString("\n")
			}
			if tw.Verbose {
				for k, v := range adj.Evidence {
					b.WriteString(fmt.Sprintf("      %s %s\n",
						ui.LabelStyle.Render(k+":"),
						ui.SubtitleStyle.Render(truncate(v, 80))))
				}
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func statusSummary(sum summary) string {
	parts := make([]string, 0, len(statusOrder))
	for _, st := range statusOrder {
		if n := sum.StatusCounts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, ui.StatusStyle(string(st)).Render(string(st))))
		}
	}
	return strings.Join(parts, ", ")
}

func bracket(inner string) string {
	return ui.BracketStyle.Render("[") + inner + ui.BracketStyle.Render("]")
}

func detailLine(weaknessID string, sources []string) string {
	parts := make([]string, 0, 2)
	if weaknessID != "" {
		parts = append(parts, weaknessID)
	}
	if len(sources) > 0 {
		parts = append(parts, "agents: "+joinSources(sources))
	}
	return strings.Join(parts, "  ")
}
