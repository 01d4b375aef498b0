// Covenants — formal compliance agreements. Sustained compliance earns
// relaxed audit pressure; a breach revokes the covenant and flags the
// agent for a targeted audit next period.
package authority

import "github.com/malakkhan/taxforce/internal/agents"

// evaluateBreaches checks every covenant holder against the current
// reported-vs-true snapshot. Evasion beyond the relative tolerance is a
// breach. Returns the number of covenants revoked.
func (t *Authority) evaluateBreaches(population []*agents.Agent, period int) int {
	if !t.cfg.Covenant.Enabled {
		return 0
	}
	revoked := 0
	for _, a := range population {
		if !a.UnderCovenant {
			continue
		}
		if a.TrueProfit <= 0 {
			continue
		}
		if a.EvadedProfit() <= t.cfg.Covenant.BreachTolerance*a.TrueProfit {
			continue
		}
		rec := t.Record(a.ID)
		a.UnderCovenant = false
		rec.CovenantSince = -1
		rec.ComplianceStreak = 0
		rec.TargetedNext = true
		revoked++
	}
	return revoked
}

// grantCovenants places agents whose compliance streak has reached the
// threshold under a covenant. Returns the number granted.
func (t *Authority) grantCovenants(population []*agents.Agent, period int) int {
	if !t.cfg.Covenant.Enabled {
		return 0
	}
	granted := 0
	for _, a := range population {
		if a.UnderCovenant {
			continue
		}
		rec := t.Record(a.ID)
		if rec.ComplianceStreak < t.cfg.Covenant.StreakThreshold {
			continue
		}
		a.UnderCovenant = true
		rec.CovenantSince = period
		granted++
	}
	return granted
}
