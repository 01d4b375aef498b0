package config

import (
	"fmt"
	"math"
)

// ValidationError reports an invalid configuration value. Construction of a
// simulation fails fast on the first one; no partial state is exposed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks all parameter ranges. It returns the first violation found.
func (c Config) Validate() error {
	if c.N <= 0 {
		return invalid("n", "population size must be positive, got %d", c.N)
	}
	if c.Horizon <= 0 {
		return invalid("horizon", "must be positive, got %d", c.Horizon)
	}
	if err := unitInterval("advisor_fraction", c.AdvisorFraction); err != nil {
		return err
	}

	sum := c.Categories.Micro + c.Categories.Small + c.Categories.Medium
	if c.Categories.Micro < 0 || c.Categories.Small < 0 || c.Categories.Medium < 0 {
		return invalid("category_distribution", "shares must be non-negative")
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return invalid("category_distribution", "shares must sum to 1, got %.4f", sum)
	}

	for _, t := range []struct {
		name string
		tr   Trait
	}{
		{"traits.morale", c.Traits.Morale},
		{"traits.trust", c.Traits.Trust},
		{"traits.perceived_risk", c.Traits.PerceivedRisk},
		{"traits.risk_aversion", c.Traits.RiskAversion},
	} {
		if err := unitInterval(t.name+".mean", t.tr.Mean); err != nil {
			return err
		}
		if t.tr.Std < 0 {
			return invalid(t.name+".std", "must be non-negative, got %g", t.tr.Std)
		}
	}

	if err := c.Profit.validate(); err != nil {
		return err
	}
	if err := c.Decision.validate(); err != nil {
		return err
	}
	if err := c.Network.validate(); err != nil {
		return err
	}
	return c.Authority.validate()
}

func (p Profit) validate() error {
	switch p.Mode {
	case "redraw", "drift":
	default:
		return invalid("profit.mode", "must be \"redraw\" or \"drift\", got %q", p.Mode)
	}
	for _, r := range []struct {
		name string
		rng  Range
	}{
		{"profit.margin", p.Margin},
		{"profit.turnover_micro", p.TurnoverMicro},
		{"profit.turnover_small", p.TurnoverSmall},
		{"profit.turnover_medium", p.TurnoverMedium},
	} {
		if r.rng.Min < 0 || r.rng.Max < r.rng.Min {
			return invalid(r.name, "requires 0 <= min <= max, got [%g, %g]", r.rng.Min, r.rng.Max)
		}
	}
	if err := unitInterval("profit.drift_amplitude", p.DriftAmplitude); err != nil {
		return err
	}
	if p.Mode == "drift" && p.DriftScale <= 0 {
		return invalid("profit.drift_scale", "must be positive in drift mode, got %g", p.DriftScale)
	}
	return nil
}

func (d Decision) validate() error {
	if d.MoraleWeight < 0 || d.TrustWeight < 0 {
		return invalid("decision", "morale/trust weights must be non-negative")
	}
	if d.MoraleWeight+d.TrustWeight <= 0 {
		return invalid("decision", "morale and trust weights must not both be zero")
	}
	if err := unitInterval("decision.intention_weight", d.IntentionWeight); err != nil {
		return err
	}
	if d.NoiseStd < 0 {
		return invalid("decision.noise_std", "must be non-negative, got %g", d.NoiseStd)
	}
	if err := unitInterval("decision.advisor_noise_factor", d.AdvisorNoiseFactor); err != nil {
		return err
	}
	return unitInterval("decision.advisor_correction", d.AdvisorCorrection)
}

func (n Network) validate() error {
	switch n.Topology {
	case "none", "random", "smallworld", "scalefree", "lognormal":
	default:
		return invalid("network.topology", "unknown topology %q", n.Topology)
	}
	if err := unitInterval("network.influence_weight", n.InfluenceWeight); err != nil {
		return err
	}
	switch n.Topology {
	case "random":
		if err := unitInterval("network.edge_prob", n.EdgeProb); err != nil {
			return err
		}
	case "smallworld":
		if n.MeanDegree < 2 || n.MeanDegree%2 != 0 {
			return invalid("network.mean_degree", "must be an even number >= 2, got %d", n.MeanDegree)
		}
		if err := unitInterval("network.rewire", n.Rewire); err != nil {
			return err
		}
	case "scalefree":
		if n.Attach < 1 {
			return invalid("network.attach", "must be >= 1, got %d", n.Attach)
		}
	case "lognormal":
		if n.DegreeMean <= 0 || n.DegreeStd < 0 {
			return invalid("network.degree_mean", "requires mean > 0 and std >= 0")
		}
		if n.DegreeMin < 0 || n.DegreeMax < n.DegreeMin {
			return invalid("network.degree_min", "requires 0 <= min <= max")
		}
		if err := unitInterval("network.homophily", n.Homophily); err != nil {
			return err
		}
	}
	return nil
}

func (a Authority) validate() error {
	if err := unitInterval("authority.audit_rate", a.AuditRate); err != nil {
		return err
	}
	if a.PenaltyMultiplier < 0 {
		return invalid("authority.penalty_multiplier", "must be non-negative, got %g", a.PenaltyMultiplier)
	}
	if err := unitInterval("authority.tax_rate", a.TaxRate); err != nil {
		return err
	}
	switch a.Selection {
	case "uniform", "risk":
	default:
		return invalid("authority.selection", "must be \"uniform\" or \"risk\", got %q", a.Selection)
	}
	if a.Covenant.Enabled {
		if a.Covenant.StreakThreshold < 1 {
			return invalid("authority.covenant.streak_threshold", "must be >= 1, got %d", a.Covenant.StreakThreshold)
		}
		if err := unitInterval("authority.covenant.audit_relief", a.Covenant.AuditRelief); err != nil {
			return err
		}
		if err := unitInterval("authority.covenant.breach_tolerance", a.Covenant.BreachTolerance); err != nil {
			return err
		}
	}
	if a.Guidance.Enabled {
		if a.Guidance.Every < 1 {
			return invalid("authority.guidance.every", "must be >= 1, got %d", a.Guidance.Every)
		}
		if err := unitInterval("authority.guidance.fraction", a.Guidance.Fraction); err != nil {
			return err
		}
		if err := unitInterval("authority.guidance.risk_correction", a.Guidance.RiskCorrection); err != nil {
			return err
		}
	}
	if err := unitInterval("authority.belief.target_effect_prob", a.Belief.TargetEffectProb); err != nil {
		return err
	}
	if err := unitInterval("authority.belief.audit_shift", a.Belief.AuditShift); err != nil {
		return err
	}
	if err := unitInterval("authority.belief.drift_rate", a.Belief.DriftRate); err != nil {
		return err
	}
	if err := unitInterval("authority.belief.neighbor_signal", a.Belief.NeighborSignal); err != nil {
		return err
	}
	switch a.Reaction.Policy {
	case "deterrence", "resentment":
	default:
		return invalid("authority.reaction.policy", "must be \"deterrence\" or \"resentment\", got %q", a.Reaction.Policy)
	}
	if err := unitInterval("authority.reaction.unfair_prob", a.Reaction.UnfairProb); err != nil {
		return err
	}
	return nil
}

func unitInterval(field string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return invalid(field, "must be in [0,1], got %g", v)
	}
	return nil
}
