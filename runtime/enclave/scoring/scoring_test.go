package scoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/goa-ai/runtime/enclave/scoring"
)

func TestNoop_AlwaysAllows(t *testing.T) {
	result, err := scoring.Noop{}.Score(context.Background(), scoring.Request{Source: "anything"})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, scoring.RiskLow, result.RiskLevel)
}

func TestHeuristic_AllowsCleanSource(t *testing.T) {
	h := scoring.NewHeuristic(scoring.DefaultHeuristicConfig())
	result, err := h.Score(context.Background(), scoring.Request{
		Source:        "const total = callTool('add', {a:1,b:2}); return total;",
		SecurityLevel: "standard",
	})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Empty(t, result.Signals)
}

func TestHeuristic_BlocksSourceLoadedWithSuspiciousTerms(t *testing.T) {
	h := scoring.NewHeuristic(scoring.DefaultHeuristicConfig())
	result, err := h.Score(context.Background(), scoring.Request{
		Source:        "const p = process.env; const s = 'secret'; const t = 'token'; child_process.exec('x');",
		SecurityLevel: "standard",
	})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, scoring.RiskCritical, result.RiskLevel)
	assert.NotEmpty(t, result.Signals)
}

func TestHeuristic_StrictLevelAmplifiesScore(t *testing.T) {
	h := scoring.NewHeuristic(scoring.DefaultHeuristicConfig())
	source := "const s = 'secret';"

	standard, err := h.Score(context.Background(), scoring.Request{Source: source, SecurityLevel: "standard"})
	require.NoError(t, err)
	strict, err := h.Score(context.Background(), scoring.Request{Source: source, SecurityLevel: "strict"})
	require.NoError(t, err)

	assert.Greater(t, strict.TotalScore, standard.TotalScore)
}

func TestHeuristic_GlobalsBreadthPenalty(t *testing.T) {
	cfg := scoring.DefaultHeuristicConfig()
	h := scoring.NewHeuristic(cfg)

	result, err := h.Score(context.Background(), scoring.Request{
		Source:  "return 1;",
		Globals: []string{"a", "b", "c", "d", "e", "f", "g"},
	})
	require.NoError(t, err)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "globals_breadth", result.Signals[0].Name)
}

func TestCached_ReturnsSameResultWithoutCallingUpstreamTwice(t *testing.T) {
	calls := 0
	upstream := scoring.GateFunc(func(context.Context, scoring.Request) (*scoring.Result, error) {
		calls++
		return &scoring.Result{Allowed: true, TotalScore: 0.1, RiskLevel: scoring.RiskLow}, nil
	})

	cached, err := scoring.NewCached(upstream, 16)
	require.NoError(t, err)

	req := scoring.Request{Source: "const a = 1;", SecurityLevel: "standard"}
	first, err := cached.Score(context.Background(), req)
	require.NoError(t, err)
	second, err := cached.Score(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCached_DistinguishesDifferentRequests(t *testing.T) {
	calls := 0
	upstream := scoring.GateFunc(func(_ context.Context, req scoring.Request) (*scoring.Result, error) {
		calls++
		return &scoring.Result{Allowed: true, TotalScore: float64(len(req.Source))}, nil
	})

	cached, err := scoring.NewCached(upstream, 16)
	require.NoError(t, err)

	_, err = cached.Score(context.Background(), scoring.Request{Source: "a"})
	require.NoError(t, err)
	_, err = cached.Score(context.Background(), scoring.Request{Source: "ab"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
