// Guidance campaigns — periodic awareness-raising that lifts morale and
// trust and corrects misperceived audit risk toward the true rate.
package authority

import (
	"math/rand"

	"github.com/malakkhan/taxforce/internal/agents"
)

// runGuidance runs a campaign if one is due this period. Each agent is
// reached independently with the configured fraction as probability.
// Returns the number of agents reached.
func (t *Authority) runGuidance(population []*agents.Agent, period int, rng *rand.Rand) int {
	g := t.cfg.Guidance
	if !g.Enabled || period%g.Every != 0 {
		return 0
	}
	reached := 0
	for _, a := range population {
		if rng.Float64() >= g.Fraction {
			continue
		}
		a.Morale = clamp01(a.Morale + g.MoraleBoost)
		a.Trust = clamp01(a.Trust + g.TrustBoost)
		a.PerceivedRisk = clamp01(a.PerceivedRisk + g.RiskCorrection*(t.cfg.AuditRate-a.PerceivedRisk))
		reached++
	}
	return reached
}
