// Package anomaly implements the rule-based anti-cheat evaluator. It is
// stateless and shares nothing with the auth subsystem.
package anomaly

// Result is the outcome of one evaluation. Reasons are ordered by rule.
type Result struct {
	IsSuspicious bool
	RiskScore    float64
	Reasons      []string
}

// Detector scores player metrics against fixed thresholds. Each tripped rule
// contributes its weight to the risk score, capped at 1.0.
type Detector struct {
	thresholds map[string]float64
}

// NewDetector constructs a Detector with the default thresholds.
func NewDetector() *Detector {
	return &Detector{
		thresholds: map[string]float64{
			"actions_per_minute": 280.0,
			"kill_death_ratio":   6.0,
			"headshot_ratio":     0.9,
			"accuracy":           0.96,
			"reaction_time_ms":   120.0,
			"suspicious_reports": 3.0,
			"speed_multiplier":   1.6,
		},
	}
}

// Evaluate scores the given metrics. Missing metrics default to values that
// trip no rule.
func (d *Detector) Evaluate(metrics map[string]float64) Result {
	reasons := make([]string, 0, 6)
	score := 0.0

	register := func(condition bool, message string, weight float64) {
		if condition {
			reasons = append(reasons, message)
			score += weight
		}
	}

	register(metric(metrics, "actions_per_minute", 0) >= d.thresholds["actions_per_minute"],
		"Abnormally high actions per minute.", 0.3)

	register(metric(metrics, "kill_death_ratio", 0) >= d.thresholds["kill_death_ratio"],
		"Exceptionally high kill/death ratio.", 0.25)

	register(metric(metrics, "headshot_ratio", 0) >= d.thresholds["headshot_ratio"] &&
		metric(metrics, "accuracy", 0) >= d.thresholds["accuracy"],
		"Unrealistic accuracy and headshot ratio.", 0.2)

	register(metric(metrics, "reaction_time_ms", 9999) <= d.thresholds["reaction_time_ms"],
		"Abnormally low reaction time.", 0.1)

	register(metric(metrics, "suspicious_reports", 0) >= d.thresholds["suspicious_reports"],
		"Multiple suspicious player reports received.", 0.15)

	register(metric(metrics, "speed_multiplier", 1.0) >= d.thresholds["speed_multiplier"],
		"Movement speed inconsistent with game rules.", 0.15)

	if score > 1.0 {
		score = 1.0
	}
	return Result{IsSuspicious: len(reasons) > 0, RiskScore: score, Reasons: reasons}
}

func metric(metrics map[string]float64, key string, fallback float64) float64 {
	if v, ok := metrics[key]; ok {
		return v
	}
	return fallback
}
