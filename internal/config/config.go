// Package config holds the run configuration for a tax-compliance simulation.
// Everything the engine needs is read once at construction; nothing is
// re-read mid-run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive numeric interval used for uniform draws.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Trait describes the initial distribution of an agent trait,
// sampled normal and clamped to [0,1].
type Trait struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
}

// CategoryDist gives the share of each SME size category in the population.
// Shares must sum to 1.
type CategoryDist struct {
	Micro  float64 `yaml:"micro"`
	Small  float64 `yaml:"small"`
	Medium float64 `yaml:"medium"`
}

// Profit controls how true profit evolves per period.
type Profit struct {
	// Mode is "redraw" (resample each period) or "drift" (initial draw
	// modulated by smooth noise over the period axis).
	Mode string `yaml:"mode"`

	// Margin is the profit margin applied to turnover.
	Margin Range `yaml:"margin"`

	// Turnover ranges per size category.
	TurnoverMicro  Range `yaml:"turnover_micro"`
	TurnoverSmall  Range `yaml:"turnover_small"`
	TurnoverMedium Range `yaml:"turnover_medium"`

	// Drift mode: relative amplitude of the noise modulation (0–1) and the
	// noise coordinate step per period.
	DriftAmplitude float64 `yaml:"drift_amplitude"`
	DriftScale     float64 `yaml:"drift_scale"`
}

// Decision parameterizes the reporting decision pipeline.
type Decision struct {
	// Normative filter weights. Compliance intention is the weighted mean
	// of morale and trust; IntentionWeight scales how strongly intention
	// suppresses the evasion willingness.
	MoraleWeight    float64 `yaml:"morale_weight"`
	TrustWeight     float64 `yaml:"trust_weight"`
	IntentionWeight float64 `yaml:"intention_weight"`

	// NoiseStd is the std of the multiplicative noise on the evasion
	// fraction. Advisors scale it by AdvisorNoiseFactor.
	NoiseStd           float64 `yaml:"noise_std"`
	AdvisorNoiseFactor float64 `yaml:"advisor_noise_factor"`

	// AdvisorCorrection pulls an advised agent's perceived audit risk
	// toward the authority's true rate before the decision runs.
	AdvisorCorrection float64 `yaml:"advisor_correction"`
}

// Network describes the peer-influence graph.
type Network struct {
	// Topology: "none", "random", "smallworld", "scalefree" or "lognormal".
	Topology string `yaml:"topology"`

	// InfluenceWeight is the morale diffusion weight w.
	InfluenceWeight float64 `yaml:"influence_weight"`

	// Topology parameters. EdgeProb drives "random"; MeanDegree and Rewire
	// drive "smallworld"; Attach drives "scalefree"; the degree/homophily
	// block drives "lognormal".
	EdgeProb   float64 `yaml:"edge_prob"`
	MeanDegree int     `yaml:"mean_degree"`
	Rewire     float64 `yaml:"rewire"`
	Attach     int     `yaml:"attach"`

	DegreeMean float64 `yaml:"degree_mean"`
	DegreeStd  float64 `yaml:"degree_std"`
	DegreeMin  int     `yaml:"degree_min"`
	DegreeMax  int     `yaml:"degree_max"`
	Homophily  float64 `yaml:"homophily"`
}

// Covenant controls compliance agreements.
type Covenant struct {
	Enabled bool `yaml:"enabled"`

	// StreakThreshold is the number of consecutive compliant periods
	// before a covenant is offered.
	StreakThreshold int `yaml:"streak_threshold"`

	// AuditRelief multiplies the audit selection weight of covenant
	// holders (0 = never audited, 1 = no relief).
	AuditRelief float64 `yaml:"audit_relief"`

	// BreachTolerance is the relative evasion gap tolerated before a
	// covenant counts as breached.
	BreachTolerance float64 `yaml:"breach_tolerance"`
}

// Guidance controls information campaigns.
type Guidance struct {
	Enabled bool `yaml:"enabled"`

	// Every is the campaign cadence in periods.
	Every int `yaml:"every"`

	// Fraction of the population reached per campaign.
	Fraction float64 `yaml:"fraction"`

	MoraleBoost    float64 `yaml:"morale_boost"`
	TrustBoost     float64 `yaml:"trust_boost"`
	RiskCorrection float64 `yaml:"risk_correction"`
}

// Belief parameterizes how perceived audit risk reacts to enforcement.
type Belief struct {
	// Audited agents: with TargetEffectProb the audit raises perceived
	// risk by AuditShift (target effect), otherwise lowers it
	// (bomb-crater effect).
	TargetEffectProb float64 `yaml:"target_effect_prob"`
	AuditShift       float64 `yaml:"audit_shift"`

	// Unaudited agents drift back toward their initial perception and
	// pick up a signal from the fraction of audited neighbors.
	DriftRate      float64 `yaml:"drift_rate"`
	NeighborSignal float64 `yaml:"neighbor_signal"`
}

// Reaction parameterizes trust/morale feedback after an audit.
type Reaction struct {
	// Policy is "deterrence" or "resentment".
	Policy string `yaml:"policy"`

	// TrustGain applies to audited agents found compliant. TrustLoss
	// applies with probability UnfairProb to caught agents under the
	// resentment policy.
	TrustGain  float64 `yaml:"trust_gain"`
	TrustLoss  float64 `yaml:"trust_loss"`
	UnfairProb float64 `yaml:"unfair_prob"`

	// MoraleShift is the morale delta for caught agents: applied upward
	// under deterrence, downward under resentment.
	MoraleShift float64 `yaml:"morale_shift"`
}

// Authority holds the enforcement policy parameters.
type Authority struct {
	AuditRate         float64 `yaml:"audit_rate"`
	PenaltyMultiplier float64 `yaml:"penalty_multiplier"`
	TaxRate           float64 `yaml:"tax_rate"`

	// Selection: "uniform" or "risk".
	Selection string `yaml:"selection"`

	Covenant Covenant `yaml:"covenant"`
	Guidance Guidance `yaml:"guidance"`
	Belief   Belief   `yaml:"belief"`
	Reaction Reaction `yaml:"reaction"`
}

// Traits holds the initial trait distributions.
type Traits struct {
	Morale        Trait `yaml:"morale"`
	Trust         Trait `yaml:"trust"`
	PerceivedRisk Trait `yaml:"perceived_risk"`
	RiskAversion  Trait `yaml:"risk_aversion"`
}

// Config is the full run configuration.
type Config struct {
	N       int   `yaml:"n"`
	Horizon int   `yaml:"horizon"`
	Seed    int64 `yaml:"seed"`

	AdvisorFraction float64      `yaml:"advisor_fraction"`
	Categories      CategoryDist `yaml:"category_distribution"`
	Traits          Traits       `yaml:"traits"`

	Profit    Profit    `yaml:"profit"`
	Decision  Decision  `yaml:"decision"`
	Network   Network   `yaml:"network"`
	Authority Authority `yaml:"authority"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		N:               500,
		Horizon:         50,
		Seed:            42,
		AdvisorFraction: 0.45,
		Categories:      CategoryDist{Micro: 0.7, Small: 0.22, Medium: 0.08},
		Traits: Traits{
			Morale:        Trait{Mean: 0.6, Std: 0.15},
			Trust:         Trait{Mean: 0.55, Std: 0.15},
			PerceivedRisk: Trait{Mean: 0.12, Std: 0.06},
			RiskAversion:  Trait{Mean: 0.5, Std: 0.2},
		},
		Profit: Profit{
			Mode:           "redraw",
			Margin:         Range{Min: 0.05, Max: 0.20},
			TurnoverMicro:  Range{Min: 30_000, Max: 250_000},
			TurnoverSmall:  Range{Min: 250_000, Max: 2_000_000},
			TurnoverMedium: Range{Min: 2_000_000, Max: 10_000_000},
			DriftAmplitude: 0.25,
			DriftScale:     0.15,
		},
		Decision: Decision{
			MoraleWeight:       0.6,
			TrustWeight:        0.4,
			IntentionWeight:    0.8,
			NoiseStd:           0.08,
			AdvisorNoiseFactor: 0.4,
			AdvisorCorrection:  0.5,
		},
		Network: Network{
			Topology:        "smallworld",
			InfluenceWeight: 0.1,
			EdgeProb:        0.02,
			MeanDegree:      6,
			Rewire:          0.1,
			Attach:          3,
			DegreeMean:      6,
			DegreeStd:       4,
			DegreeMin:       1,
			DegreeMax:       30,
			Homophily:       0.7,
		},
		Authority: Authority{
			AuditRate:         0.05,
			PenaltyMultiplier: 1.5,
			TaxRate:           0.25,
			Selection:         "uniform",
			Covenant: Covenant{
				Enabled:         true,
				StreakThreshold: 5,
				AuditRelief:     0.25,
				BreachTolerance: 0.01,
			},
			Guidance: Guidance{
				Enabled:        false,
				Every:          10,
				Fraction:       0.3,
				MoraleBoost:    0.05,
				TrustBoost:     0.05,
				RiskCorrection: 0.5,
			},
			Belief: Belief{
				TargetEffectProb: 0.5,
				AuditShift:       0.25,
				DriftRate:        0.1,
				NeighborSignal:   0.3,
			},
			Reaction: Reaction{
				Policy:      "deterrence",
				TrustGain:   0.05,
				TrustLoss:   0.1,
				UnfairProb:  0.3,
				MoraleShift: 0.05,
			},
		},
	}
}

// Load reads a YAML config file layered over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
