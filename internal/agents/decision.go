// Reporting decision — opportunity, normative filter, rational choice.
// Each period an agent passes its willingness to evade through three
// stages: how much it could conceal, how much its norms let it want to,
// and whether the expected payoff makes it worth the risk.
package agents

import (
	"math"
	"math/rand"

	"github.com/malakkhan/taxforce/internal/config"
)

// Environment carries the authority's publicly known policy parameters,
// as visible to an agent making its reporting decision.
type Environment struct {
	TrueAuditRate     float64
	PenaltyMultiplier float64
}

// NormativePolicy maps an agent's traits to a compliance intention in
// [0,1]. Pluggable so alternative blends can be swapped in without
// touching the decision pipeline.
type NormativePolicy func(a *Agent, d config.Decision) float64

// WeightedIntention is the default normative policy: the weighted mean of
// morale and trust.
func WeightedIntention(a *Agent, d config.Decision) float64 {
	total := d.MoraleWeight + d.TrustWeight
	if total <= 0 {
		return 0
	}
	return clamp01((d.MoraleWeight*a.Morale + d.TrustWeight*a.Trust) / total)
}

// Opportunity returns the fraction of true profit the agent could conceal
// without detection outside an audit, from its firm profile.
func Opportunity(a *Agent) float64 {
	phi := 0.35
	if a.CashIntensive {
		phi += 0.20
	}
	switch a.Digitalization {
	case DigiLow:
		phi += 0.10
	case DigiHigh:
		phi -= 0.15
	}
	switch a.Category {
	case CategoryMicro:
		phi += 0.10
	case CategoryMedium:
		phi -= 0.10
	}
	if sectorProfiles[a.Sector].highRisk {
		phi += 0.05
	}
	return clamp(phi, 0.05, 0.85)
}

// DecideReport produces the agent's declared profit for the period and
// stores it on the agent. Advisors first correct the agent's perceived
// audit risk toward the true rate and damp the decision noise.
func DecideReport(a *Agent, d config.Decision, env Environment, intent NormativePolicy, rng *rand.Rand) float64 {
	if a.HasAdvisor {
		a.PerceivedRisk = clamp01(a.PerceivedRisk + d.AdvisorCorrection*(env.TrueAuditRate-a.PerceivedRisk))
	}

	// Noise is drawn unconditionally so the generator stream does not
	// depend on which branch an agent takes.
	noiseStd := d.NoiseStd
	if a.HasAdvisor {
		noiseStd *= d.AdvisorNoiseFactor
	}
	noise := rng.NormFloat64() * noiseStd

	maxConcealable := Opportunity(a) * a.TrueProfit
	if maxConcealable <= 0 {
		a.ReportedProfit = a.TrueProfit
		return a.ReportedProfit
	}

	intention := clamp01(intent(a, d))
	willingness := maxConcealable * (1 - d.IntentionWeight*intention)

	fraction := evasionFraction(a.PerceivedRisk, env.PenaltyMultiplier, a.RiskAversion)
	fraction = clamp01(fraction * (1 + noise))

	declared := a.TrueProfit - fraction*willingness
	a.ReportedProfit = clamp(declared, 0, a.TrueProfit)
	return a.ReportedProfit
}

// evasionFraction computes the rational-choice evasion fraction. Evasion
// stops paying once perceived detection probability reaches the threshold
// p* = 1/(1+f); below it the fraction scales continuously with the margin,
// tempered by risk aversion.
func evasionFraction(perceived, penalty, riskAversion float64) float64 {
	threshold := 1.0 / (1.0 + penalty)
	if perceived >= threshold {
		return 0
	}
	margin := (threshold - perceived) / threshold
	return math.Pow(margin, 1+riskAversion)
}
