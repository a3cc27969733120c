package ui

import (
	"fmt"
	"strings"
)

const bannerArt = `
  __                  __  __
 / /________  _______/ /_/ /__  ____  _____
/ __/ ___/ / / / ___/ __/ / _ \/ __ \/ ___/
\ /_/ /  / /_/ (__  ) /_/ /  __/ / / (__  )
 \__/_/   \__,_/____/\__/_/\___/_/ /_/____/
`

// Banner renders the startup banner with the given version.
func Banner(version string) string {
	var b strings.Builder
	b.WriteString(lipglossRender(bannerArt))
	b.WriteString("\n  ")
	b.WriteString(SubtitleStyle.Render("trust & safety page auditor"))
	b.WriteString(" ")
	b.WriteString(ValueStyle.Render(version))
	b.WriteString("\n")
	return b.String()
}

func lipglossRender(s string) string {
	style := SectionStyle.Foreground(Primary)
	return style.Render(s)
}

// ScoreBar renders a 20-cell bar for a composite score in [0,1].
func ScoreBar(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score*20 + 0.5)
	var bar strings.Builder
	style := ScoreStyle(score)
	for i := 0; i < 20; i++ {
		if i < filled {
			bar.WriteString(style.Render("#"))
		} else {
			bar.WriteString(LabelStyle.Render("-"))
		}
	}
	return fmt.Sprintf("%s %s", bar.String(), style.Render(fmt.Sprintf("%.2f", score)))
}
