// Audit target selection — uniform or risk-weighted, with covenant relief
// and priority for agents flagged by a covenant breach.
package authority

import (
	"math"
	"math/rand"
	"sort"

	"github.com/malakkhan/taxforce/internal/agents"
)

// selectAudits picks this period's audit targets. The expected subset size
// is auditRate × N. Agents flagged for a targeted audit are taken first;
// remaining slots are filled per the configured selection strategy.
func (t *Authority) selectAudits(population []*agents.Agent, rng *rand.Rand) []*agents.Agent {
	slots := int(math.Round(t.cfg.AuditRate * float64(len(population))))

	var selected []*agents.Agent
	chosen := make(map[agents.AgentID]bool)

	// Targeted audits fire regardless of the sampled slot count.
	for _, a := range population {
		rec := t.Record(a.ID)
		if rec.TargetedNext {
			rec.TargetedNext = false
			selected = append(selected, a)
			chosen[a.ID] = true
		}
	}

	remaining := slots - len(selected)
	if remaining <= 0 {
		return selected
	}

	var pool []*agents.Agent
	for _, a := range population {
		if !chosen[a.ID] {
			pool = append(pool, a)
		}
	}

	if t.cfg.Selection == "risk" {
		selected = append(selected, t.pickByRisk(pool, remaining)...)
	} else {
		selected = append(selected, t.pickUniform(pool, remaining, rng)...)
	}
	return selected
}

// pickUniform samples without replacement with per-agent weights: 1 for
// ordinary agents, the covenant relief factor for covenant holders.
func (t *Authority) pickUniform(pool []*agents.Agent, count int, rng *rand.Rand) []*agents.Agent {
	if count >= len(pool) {
		return pool
	}
	weights := make([]float64, len(pool))
	total := 0.0
	for i, a := range pool {
		w := 1.0
		if a.UnderCovenant {
			w = t.cfg.Covenant.AuditRelief
		}
		weights[i] = w
		total += w
	}

	picked := make([]*agents.Agent, 0, count)
	for len(picked) < count && total > 1e-12 {
		r := rng.Float64() * total
		acc := 0.0
		hit := -1
		for i, w := range weights {
			if w == 0 {
				continue
			}
			acc += w
			hit = i
			if r < acc {
				break
			}
		}
		if hit < 0 {
			break
		}
		picked = append(picked, pool[hit])
		total -= weights[hit]
		weights[hit] = 0
	}
	return picked
}

// pickByRisk takes the highest-risk agents. Risk combines the structural
// firm score with observed history; covenant holders are discounted by
// the relief factor. Ties resolve by ascending agent id so selection is
// reproducible.
func (t *Authority) pickByRisk(pool []*agents.Agent, count int) []*agents.Agent {
	type scored struct {
		agent *agents.Agent
		score float64
	}
	ranked := make([]scored, 0, len(pool))
	for _, a := range pool {
		ranked = append(ranked, scored{agent: a, score: t.riskScore(a)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].agent.ID < ranked[j].agent.ID
	})
	if count > len(ranked) {
		count = len(ranked)
	}
	picked := make([]*agents.Agent, 0, count)
	for _, s := range ranked[:count] {
		picked = append(picked, s.agent)
	}
	return picked
}

// riskScore blends the structural base risk with the agent's enforcement
// history: prior catches and the size of the last observed gap raise it.
func (t *Authority) riskScore(a *agents.Agent) float64 {
	rec := t.Record(a.ID)
	score := a.BaseRisk
	if rec.TimesAudited > 0 {
		score += 0.2 * float64(rec.TimesCaught) / float64(rec.TimesAudited)
	}
	if rec.LastGap > 0 && a.TrueProfit > 0 {
		score += 0.3 * math.Min(rec.LastGap/a.TrueProfit, 1)
	}
	if a.UnderCovenant {
		score *= t.cfg.Covenant.AuditRelief
	}
	return score
}
