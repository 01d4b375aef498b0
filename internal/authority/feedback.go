// Post-audit feedback — how enforcement events move trust, morale and
// perceived audit risk.
package authority

import (
	"math/rand"

	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/config"
	"github.com/malakkhan/taxforce/internal/network"
)

// ReactionPolicy applies the trust/morale response of an audited agent.
// Two documented policies ship; the type stays exported so a caller can
// substitute its own rule.
type ReactionPolicy func(a *agents.Agent, caught bool, cfg config.Reaction, rng *rand.Rand)

// Deterrence: a fair audit builds trust; being caught pushes morale up
// (the agent resolves to comply).
func Deterrence(a *agents.Agent, caught bool, cfg config.Reaction, rng *rand.Rand) {
	if caught {
		a.Morale = clamp01(a.Morale + cfg.MoraleShift)
		return
	}
	a.Trust = clamp01(a.Trust + cfg.TrustGain)
}

// Resentment: being caught lowers morale, and with the configured
// probability the agent perceives the audit as unfair and loses trust.
func Resentment(a *agents.Agent, caught bool, cfg config.Reaction, rng *rand.Rand) {
	if caught {
		a.Morale = clamp01(a.Morale - cfg.MoraleShift)
		if rng.Float64() < cfg.UnfairProb {
			a.Trust = clamp01(a.Trust - cfg.TrustLoss)
		}
		return
	}
	a.Trust = clamp01(a.Trust + cfg.TrustGain)
}

// updateAuditedBelief applies the audit's effect on perceived risk: with
// the configured probability the audit confirms the agent is on the radar
// (target effect), otherwise the agent assumes lightning won't strike
// twice (bomb-crater effect).
func (t *Authority) updateAuditedBelief(a *agents.Agent, rng *rand.Rand) {
	shift := t.cfg.Belief.AuditShift
	if rng.Float64() < t.cfg.Belief.TargetEffectProb {
		a.PerceivedRisk = clamp01(a.PerceivedRisk + shift)
	} else {
		a.PerceivedRisk = clamp01(a.PerceivedRisk - shift)
	}
}

// updateBystanderBeliefs updates perceived risk for everyone not audited
// this period: a drift back toward the initial perception plus an upward
// signal from the fraction of audited neighbors.
func (t *Authority) updateBystanderBeliefs(population []*agents.Agent, net *network.Network, audited map[agents.AgentID]bool, rng *rand.Rand) {
	cfg := t.cfg.Belief
	for _, a := range population {
		if audited[a.ID] {
			continue
		}
		p := a.PerceivedRisk
		p += cfg.DriftRate * (a.InitialPerception - p)

		neighbors := net.Neighbors(a.ID)
		if len(neighbors) > 0 {
			auditedNeighbors := 0
			for _, id := range neighbors {
				if audited[id] {
					auditedNeighbors++
				}
			}
			fraction := float64(auditedNeighbors) / float64(len(neighbors))
			p += cfg.NeighborSignal * fraction * (1 - p)
		}
		a.PerceivedRisk = clamp01(p)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
