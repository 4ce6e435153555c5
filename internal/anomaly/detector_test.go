package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCleanPlayer(t *testing.T) {
	d := NewDetector()

	result := d.Evaluate(map[string]float64{
		"actions_per_minute": 180,
		"kill_death_ratio":   1.4,
		"headshot_ratio":     0.3,
		"accuracy":           0.45,
		"reaction_time_ms":   240,
		"suspicious_reports": 0,
		"speed_multiplier":   1.0,
	})

	assert.False(t, result.IsSuspicious)
	assert.Zero(t, result.RiskScore)
	assert.Empty(t, result.Reasons)
}

func TestEvaluateSingleRules(t *testing.T) {
	d := NewDetector()

	cases := []struct {
		name    string
		metrics map[string]float64
		weight  float64
		reason  string
	}{
		{
			"apm at threshold",
			map[string]float64{"actions_per_minute": 280},
			0.3, "Abnormally high actions per minute.",
		},
		{
			"kdr at threshold",
			map[string]float64{"kill_death_ratio": 6.0},
			0.25, "Exceptionally high kill/death ratio.",
		},
		{
			"aim combo",
			map[string]float64{"headshot_ratio": 0.9, "accuracy": 0.96},
			0.2, "Unrealistic accuracy and headshot ratio.",
		},
		{
			"reaction at threshold",
			map[string]float64{"reaction_time_ms": 120},
			0.1, "Abnormally low reaction time.",
		},
		{
			"reports at threshold",
			map[string]float64{"suspicious_reports": 3},
			0.15, "Multiple suspicious player reports received.",
		},
		{
			"speed at threshold",
			map[string]float64{"speed_multiplier": 1.6},
			0.15, "Movement speed inconsistent with game rules.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := d.Evaluate(tc.metrics)
			require.True(t, result.IsSuspicious)
			assert.InDelta(t, tc.weight, result.RiskScore, 1e-9)
			require.Len(t, result.Reasons, 1)
			assert.Equal(t, tc.reason, result.Reasons[0])
		})
	}
}

func TestEvaluateBelowThresholds(t *testing.T) {
	d := NewDetector()

	result := d.Evaluate(map[string]float64{
		"actions_per_minute": 279.9,
		"kill_death_ratio":   5.99,
		"reaction_time_ms":   120.1,
		"suspicious_reports": 2,
		"speed_multiplier":   1.59,
	})
	assert.False(t, result.IsSuspicious)
	assert.Empty(t, result.Reasons)
}

func TestEvaluateAimComboNeedsBothMetrics(t *testing.T) {
	d := NewDetector()

	result := d.Evaluate(map[string]float64{"headshot_ratio": 0.95})
	assert.False(t, result.IsSuspicious)

	result = d.Evaluate(map[string]float64{"accuracy": 0.99})
	assert.False(t, result.IsSuspicious)
}

func TestEvaluateMissingMetricsTripNothing(t *testing.T) {
	d := NewDetector()

	// In particular the reaction-time fallback must not read as superhuman
	// and the speed fallback must stay below the threshold.
	result := d.Evaluate(map[string]float64{})
	assert.False(t, result.IsSuspicious)
	assert.Zero(t, result.RiskScore)
}

func TestEvaluateScoreIsCapped(t *testing.T) {
	d := NewDetector()

	result := d.Evaluate(map[string]float64{
		"actions_per_minute": 500,
		"kill_death_ratio":   20,
		"headshot_ratio":     1.0,
		"accuracy":           1.0,
		"reaction_time_ms":   40,
		"suspicious_reports": 10,
		"speed_multiplier":   3.0,
	})
	require.True(t, result.IsSuspicious)
	assert.Equal(t, 1.0, result.RiskScore)
	assert.Len(t, result.Reasons, 6)
}

func TestEvaluateReasonOrderIsStable(t *testing.T) {
	d := NewDetector()

	result := d.Evaluate(map[string]float64{
		"speed_multiplier":   2.0,
		"actions_per_minute": 300,
	})
	require.Len(t, result.Reasons, 2)
	assert.Equal(t, "Abnormally high actions per minute.", result.Reasons[0])
	assert.Equal(t, "Movement speed inconsistent with game rules.", result.Reasons[1])
}
