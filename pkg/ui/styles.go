// Package ui holds terminal styling for the CLI.
package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetNoColor disables colored output for the whole process.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor reports whether color output is disabled.
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// Color palette.
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	// Severity colors (matching OWASP/Nuclei standards)
	Critical = lipgloss.Color("#FF0000")
	High     = lipgloss.Color("#FF6B6B")
	Medium   = lipgloss.Color("#FFD93D")
	Low      = lipgloss.Color("#6BCB77")
	Info     = lipgloss.Color("#4D96FF")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
)

// Pre-configured styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	BracketStyle = lipgloss.NewStyle().
			Foreground(Muted)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	CategoryStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// SeverityStyle returns the style for a severity label.
func SeverityStyle(severity string) lipgloss.Style {
	var color lipgloss.Color
	switch strings.ToLower(severity) {
	case "critical":
		color = Critical
	case "high":
		color = High
	case "medium":
		color = Medium
	case "low":
		color = Low
	default:
		color = Info
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

// StatusStyle returns the style for an adjudication status.
func StatusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "verified":
		return SuccessStyle
	case "confirmed":
		return lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	case "conflicting":
		return WarnStyle
	default:
		return LabelStyle
	}
}

// ScoreStyle returns the style for a composite score in [0,1].
func ScoreStyle(score float64) lipgloss.Style {
	var color lipgloss.Color
	switch {
	case score >= 0.8:
		color = Success
	case score >= 0.5:
		color = Medium
	default:
		color = Error
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
