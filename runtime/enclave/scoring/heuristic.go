package scoring

import (
	"context"
	"strings"
)

// suspiciousTerm contributes a fixed score whenever it appears (case
// insensitively) in the candidate source. These are heuristics, not a
// substitute for AST validation — the Scoring Gate runs after the AST
// Validator and is meant to catch intent in source that already passed the
// allow-list, not to enforce the allow-list itself.
var suspiciousTerms = []struct {
	term  string
	score float64
	why   string
}{
	{"password", 0.15, "references credential-shaped data"},
	{"secret", 0.15, "references credential-shaped data"},
	{"token", 0.1, "references credential-shaped data"},
	{"eval", 0.3, "attempts dynamic code evaluation"},
	{"child_process", 0.4, "references process execution"},
	{"fetch(", 0.2, "attempts network access outside callTool"},
	{"xmlhttprequest", 0.2, "attempts network access outside callTool"},
	{"process.env", 0.3, "attempts to read host environment"},
	{"require(", 0.25, "attempts module loading"},
	{"import(", 0.25, "attempts dynamic module loading"},
}

// HeuristicConfig tunes the Heuristic Gate's thresholds.
type HeuristicConfig struct {
	// BlockThreshold is the TotalScore at or above which Allowed is false.
	BlockThreshold float64
	// GlobalsPenaltyPerName is added to the score for each global exposed
	// beyond BaseGlobalsAllowance.
	GlobalsPenaltyPerName float64
	// BaseGlobalsAllowance is the number of globals that incur no penalty.
	BaseGlobalsAllowance int
}

// DefaultHeuristicConfig returns the Heuristic Gate's default tuning.
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		BlockThreshold:        0.75,
		GlobalsPenaltyPerName: 0.02,
		BaseGlobalsAllowance:  5,
	}
}

// Heuristic is a dependency-free Gate that scores source text against a
// fixed list of suspicious terms plus the breadth of exposed globals. It is
// meant as a cheap first line of defense, or as a local stand-in when no
// external scoring service is configured.
type Heuristic struct {
	cfg HeuristicConfig
}

// NewHeuristic constructs a Heuristic Gate with the given tuning.
func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	return &Heuristic{cfg: cfg}
}

// Score implements Gate.
func (h *Heuristic) Score(_ context.Context, req Request) (*Result, error) {
	lower := strings.ToLower(req.Source)
	var signals []Signal
	var total float64

	for _, st := range suspiciousTerms {
		if strings.Contains(lower, st.term) {
			signals = append(signals, Signal{Name: st.term, Score: st.score, Description: st.why})
			total += st.score
		}
	}

	if extra := len(req.Globals) - h.cfg.BaseGlobalsAllowance; extra > 0 {
		score := float64(extra) * h.cfg.GlobalsPenaltyPerName
		signals = append(signals, Signal{
			Name:        "globals_breadth",
			Score:       score,
			Description: "exposes more globals than the base allowance",
		})
		total += score
	}

	if req.SecurityLevel == "strict" {
		total *= 1.5
	}
	if total > 1 {
		total = 1
	}

	return &Result{
		Allowed:    total < h.cfg.BlockThreshold,
		TotalScore: total,
		RiskLevel:  riskLevel(total),
		Signals:    signals,
	}, nil
}

func riskLevel(score float64) string {
	switch {
	case score >= 0.75:
		return RiskCritical
	case score >= 0.5:
		return RiskHigh
	case score >= 0.25:
		return RiskMedium
	default:
		return RiskLow
	}
}
