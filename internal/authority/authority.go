// Package authority implements the enforcement side of the simulation:
// audit selection, penalty assessment, covenant management, guidance
// campaigns and the belief/trust feedback they produce.
package authority

import (
	"math/rand"

	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/config"
	"github.com/malakkhan/taxforce/internal/network"
)

// Record is the authority's memory of one agent. Keeping history explicit
// per agent (rather than in global counters) keeps enforcement fully
// inspectable and runs reproducible.
type Record struct {
	TimesAudited     int     `json:"times_audited"`
	TimesCaught      int     `json:"times_caught"`
	ComplianceStreak int     `json:"compliance_streak"`
	LastGap          float64 `json:"last_gap"`
	LastAuditPeriod  int     `json:"last_audit_period"`
	CovenantSince    int     `json:"covenant_since"`
	TargetedNext     bool    `json:"targeted_next"`
}

// Outcome summarizes one period of enforcement.
type Outcome struct {
	Audited           []agents.AgentID
	PenaltiesAssessed float64
	BackTaxes         float64
	CovenantsGranted  int
	CovenantsRevoked  int
	GuidanceReached   int
}

// Authority holds the enforcement policy and its per-agent records.
type Authority struct {
	cfg      config.Authority
	records  map[agents.AgentID]*Record
	reaction ReactionPolicy
}

// New creates an authority with the configured policies. The reaction
// policy is resolved here; config validation has already rejected unknown
// names.
func New(cfg config.Authority) *Authority {
	reaction := Deterrence
	if cfg.Reaction.Policy == "resentment" {
		reaction = Resentment
	}
	return &Authority{
		cfg:      cfg,
		records:  make(map[agents.AgentID]*Record),
		reaction: reaction,
	}
}

// Record returns the authority's record for an agent, creating it on
// first touch.
func (t *Authority) Record(id agents.AgentID) *Record {
	r, ok := t.records[id]
	if !ok {
		r = &Record{LastAuditPeriod: -1, CovenantSince: -1}
		t.records[id] = r
	}
	return r
}

// AuditRate returns the true audit rate, the publicly known policy signal.
func (t *Authority) AuditRate() float64 { return t.cfg.AuditRate }

// PenaltyMultiplier returns the publicly known penalty multiplier.
func (t *Authority) PenaltyMultiplier() float64 { return t.cfg.PenaltyMultiplier }

// TaxRate returns the flat profit tax rate.
func (t *Authority) TaxRate() float64 { return t.cfg.TaxRate }

// Enforce runs one period of enforcement over the population snapshot.
// Phases run in a fixed order, each iterating the population in stable
// id order, so a replayed seed reproduces the same draws:
// covenant breach checks, audit selection, audit application,
// belief updates for the unaudited, covenant grants, guidance.
func (t *Authority) Enforce(population []*agents.Agent, net *network.Network, period int, rng *rand.Rand) Outcome {
	out := Outcome{}

	out.CovenantsRevoked = t.evaluateBreaches(population, period)

	selected := t.selectAudits(population, rng)
	audited := make(map[agents.AgentID]bool, len(selected))
	for _, a := range selected {
		audited[a.ID] = true
	}

	for _, a := range selected {
		penalty, backTax := t.applyAudit(a, period, rng)
		out.PenaltiesAssessed += penalty
		out.BackTaxes += backTax
		out.Audited = append(out.Audited, a.ID)
	}

	t.updateBystanderBeliefs(population, net, audited, rng)
	t.updateStreaks(population)
	out.CovenantsGranted = t.grantCovenants(population, period)
	out.GuidanceReached = t.runGuidance(population, period, rng)

	return out
}

// applyAudit assesses one audited agent: penalty and back taxes if a gap
// is found, then the trust/morale reaction and the belief response.
func (t *Authority) applyAudit(a *agents.Agent, period int, rng *rand.Rand) (penalty, backTax float64) {
	rec := t.Record(a.ID)
	rec.TimesAudited++
	rec.LastAuditPeriod = period

	gap := a.EvadedProfit()
	caught := !a.IsCompliant()
	if caught {
		rec.TimesCaught++
		rec.LastGap = gap
		backTax = gap * t.cfg.TaxRate
		penalty = backTax * t.cfg.PenaltyMultiplier
	} else {
		rec.LastGap = 0
	}

	t.reaction(a, caught, t.cfg.Reaction, rng)
	t.updateAuditedBelief(a, rng)
	return penalty, backTax
}

// updateStreaks advances each agent's compliance streak from the current
// period's reported-vs-true snapshot.
func (t *Authority) updateStreaks(population []*agents.Agent) {
	for _, a := range population {
		rec := t.Record(a.ID)
		if a.IsCompliant() {
			rec.ComplianceStreak++
		} else {
			rec.ComplianceStreak = 0
		}
	}
}
