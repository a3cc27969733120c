// Package validator adjudicates findings reported by multiple agents
// into a single consensus finding list. Agreement across agents raises
// confidence, disagreement on severity neutralizes it, and single-source
// findings survive as unconfirmed rather than being discarded.
package validator

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/finding"
)

// Status is the cross-agent confirmation level of an adjudicated finding.
type Status string

const (
	StatusUnconfirmed Status = "unconfirmed" // one agent
	StatusConfirmed   Status = "confirmed"   // exactly two agents
	StatusVerified    Status = "verified"    // three or more agents
	StatusConflicting Status = "conflicting" // agents disagree on severity
)

// AdjudicatedFinding is a finding after cross-agent agreement analysis.
// The embedded Finding carries the representative fields taken from the
// highest-confidence member of the group.
type AdjudicatedFinding struct {
	finding.Finding

	GroupKey        string   `json:"group_key"`
	AgentSources    []string `json:"agent_sources"`
	Status          Status   `json:"status"`
	FinalConfidence float64  `json:"final_confidence"` // 0-100
	Notes           string   `json:"notes,omitempty"`
}

type member struct {
	agent string
	f     finding.Finding
}

type group struct {
	key     string
	members []member // in encounter order
}

// Validator groups findings from all agents by category and coarse
// location, then derives a confirmation status per group.
type Validator struct {
	logger *slog.Logger
}

// New creates a validator. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Validate adjudicates the findings reported by each agent. Malformed
// findings are skipped and logged; they never abort validation. Output
// is sorted by group key for deterministic downstream consumption.
func (v *Validator) Validate(findingsByAgent map[string][]finding.Finding) []AdjudicatedFinding {
	groups := v.buildGroups(findingsByAgent)

	out := make([]AdjudicatedFinding, 0, len(groups))
	for _, g := range groups {
		out = append(out, v.adjudicate(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupKey < out[j].GroupKey })
	return out
}

// buildGroups bins every valid finding into its group. Agents are
// iterated in sorted name order so "first encountered" is stable across
// runs despite Go's randomized map iteration.
func (v *Validator) buildGroups(findingsByAgent map[string][]finding.Finding) []*group {
	agents := make([]string, 0, len(findingsByAgent))
	for a := range findingsByAgent {
		agents = append(agents, a)
	}
	sort.Strings(agents)

	byKey := make(map[string]*group)
	var order []*group
	for _, agent := range agents {
		for _, f := range findingsByAgent[agent] {
			if err := f.Validate(); err != nil {
				v.logger.Warn("skipping malformed finding",
					"agent", agent,
					"category", f.Category,
					"error", err)
				continue
			}
			key := f.GroupKey()
			g, ok := byKey[key]
			if !ok {
				g = &group{key: key}
				byKey[key] = g
				order = append(order, g)
			}
			g.members = append(g.members, member{agent: agent, f: f})
		}
	}
	return order
}

func (v *Validator) adjudicate(g *group) AdjudicatedFinding {
	agentSet := make(map[string]bool)
	severitySet := make(map[finding.Severity]bool)
	rep := g.members[0]
	for _, m := range g.members {
		agentSet[m.agent] = true
		severitySet[m.f.Severity] = true
		if m.f.Confidence > rep.f.Confidence {
			rep = m
		}
	}

	agents := make([]string, 0, len(agentSet))
	for a := range agentSet {
		agents = append(agents, a)
	}
	sort.Strings(agents)

	status := countStatus(len(agents))
	if len(severitySet) > 1 {
		status = StatusConflicting
	}

	adj := AdjudicatedFinding{
		Finding:         rep.f,
		GroupKey:        g.key,
		AgentSources:    agents,
		Status:          status,
		FinalConfidence: finalConfidence(rep.f.Confidence, status),
	}
	adj.Source = rep.agent
	if status == StatusConflicting {
		adj.Notes = conflictNote(g)
	}
	return adj
}

func countStatus(agents int) Status {
	switch {
	case agents >= 3:
		return StatusVerified
	case agents == 2:
		return StatusConfirmed
	default:
		return StatusUnconfirmed
	}
}

// finalConfidence maps the representative's 0-1 confidence onto a
// 0-100 scale and applies the status adjustment.
func finalConfidence(base float64, status Status) float64 {
	v := base * 100
	switch status {
	case StatusVerified:
		v += defaults.VerifiedBonus
	case StatusConfirmed:
		v += defaults.ConfirmedBonus
	case StatusUnconfirmed:
		v -= defaults.UnconfirmedPenalty
	case StatusConflicting:
		v = defaults.ConflictNeutral
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func conflictNote(g *group) string {
	parts := make([]string, 0, len(g.members))
	for _, m := range g.members {
		parts = append(parts, fmt.Sprintf("%s=%s", m.agent, m.f.Severity))
	}
	return "severity disagreement: " + strings.Join(parts, ", ")
}
