package authority

import (
	"math"
	"math/rand"
	"testing"

	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/config"
	"github.com/malakkhan/taxforce/internal/network"
)

func emptyNetwork() *network.Network {
	net, err := network.Build(config.Default().Network, nil, rand.New(rand.NewSource(1)))
	if err != nil {
		panic(err)
	}
	return net
}

// flatPopulation builds n identical agents with the given reported share
// of a 100k true profit.
func flatPopulation(n int, reportedShare float64) []*agents.Agent {
	pop := make([]*agents.Agent, n)
	for i := 0; i < n; i++ {
		pop[i] = &agents.Agent{
			ID:             agents.AgentID(i + 1),
			TrueProfit:     100_000,
			ReportedProfit: 100_000 * reportedShare,
			Morale:         0.5,
			Trust:          0.5,
			PerceivedRisk:  0.1,
		}
	}
	return pop
}

// --- Audit selection tests ---

func TestSelectAuditsMatchesRate(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0.1
	auth := New(cfg)
	pop := flatPopulation(200, 1)

	selected := auth.selectAudits(pop, rand.New(rand.NewSource(5)))
	if len(selected) != 20 {
		t.Errorf("expected 20 audits at rate 0.1 over 200 agents, got %d", len(selected))
	}
	seen := make(map[agents.AgentID]bool)
	for _, a := range selected {
		if seen[a.ID] {
			t.Fatalf("agent %d selected twice", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestSelectAuditsZeroRate(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0
	auth := New(cfg)
	if got := auth.selectAudits(flatPopulation(100, 1), rand.New(rand.NewSource(1))); len(got) != 0 {
		t.Errorf("expected no audits at rate 0, got %d", len(got))
	}
}

func TestTargetedAgentsAuditedEvenAtZeroRate(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0
	auth := New(cfg)
	pop := flatPopulation(50, 1)
	auth.Record(pop[7].ID).TargetedNext = true

	selected := auth.selectAudits(pop, rand.New(rand.NewSource(1)))
	if len(selected) != 1 || selected[0].ID != pop[7].ID {
		t.Fatalf("expected exactly the targeted agent, got %d selections", len(selected))
	}
	if auth.Record(pop[7].ID).TargetedNext {
		t.Error("targeted flag not cleared after selection")
	}
}

func TestRiskSelectionPrefersHigherRisk(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0.1
	cfg.Selection = "risk"
	auth := New(cfg)

	pop := flatPopulation(100, 1)
	for i, a := range pop {
		a.BaseRisk = 0.1
		if i < 10 {
			a.BaseRisk = 0.9
		}
	}

	selected := auth.selectAudits(pop, rand.New(rand.NewSource(1)))
	if len(selected) != 10 {
		t.Fatalf("expected 10 selections, got %d", len(selected))
	}
	for _, a := range selected {
		if a.BaseRisk != 0.9 {
			t.Errorf("agent %d with base risk %f selected over high-risk pool", a.ID, a.BaseRisk)
		}
	}
}

func TestRiskSelectionTieBreaksByID(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Selection = "risk"
	auth := New(cfg)

	pop := flatPopulation(10, 1)
	for _, a := range pop {
		a.BaseRisk = 0.5
	}
	picked := auth.pickByRisk(pop, 3)
	for i, a := range picked {
		if a.ID != agents.AgentID(i+1) {
			t.Fatalf("tied scores should resolve by ascending id, got %d at rank %d", a.ID, i)
		}
	}
}

func TestCovenantReliefLowersSelectionWeight(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Covenant.AuditRelief = 0
	auth := New(cfg)

	pop := flatPopulation(40, 1)
	for i, a := range pop {
		a.UnderCovenant = i%2 == 0
	}
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		for _, a := range auth.pickUniform(pop, 10, rng) {
			if a.UnderCovenant {
				t.Fatal("covenant holder selected despite zero relief weight")
			}
		}
	}
}

func TestRiskScoreGrowsWithHistory(t *testing.T) {
	auth := New(config.Default().Authority)
	a := &agents.Agent{ID: 1, BaseRisk: 0.3, TrueProfit: 100_000}

	clean := auth.riskScore(a)
	rec := auth.Record(a.ID)
	rec.TimesAudited = 2
	rec.TimesCaught = 2
	rec.LastGap = 50_000
	dirty := auth.riskScore(a)

	if dirty <= clean {
		t.Errorf("risk score should rise with catch history: %f vs %f", dirty, clean)
	}
	// 0.3 + 0.2*1 + 0.3*0.5
	if math.Abs(dirty-0.65) > 1e-12 {
		t.Errorf("risk score = %f, want 0.65", dirty)
	}
}

// --- Enforcement tests ---

func TestApplyAuditAssessesPenaltyOnGap(t *testing.T) {
	cfg := config.Default().Authority
	cfg.TaxRate = 0.25
	cfg.PenaltyMultiplier = 1.5
	auth := New(cfg)

	a := &agents.Agent{ID: 1, TrueProfit: 100_000, ReportedProfit: 60_000, Morale: 0.5, Trust: 0.5}
	penalty, backTax := auth.applyAudit(a, 3, rand.New(rand.NewSource(1)))

	if math.Abs(backTax-10_000) > 1e-9 {
		t.Errorf("back tax = %f, want 10000 (25%% of the 40k gap)", backTax)
	}
	if math.Abs(penalty-15_000) > 1e-9 {
		t.Errorf("penalty = %f, want 15000", penalty)
	}
	rec := auth.Record(a.ID)
	if rec.TimesAudited != 1 || rec.TimesCaught != 1 {
		t.Errorf("record = %+v, want one audit and one catch", rec)
	}
	if rec.LastAuditPeriod != 3 {
		t.Errorf("last audit period = %d, want 3", rec.LastAuditPeriod)
	}
}

func TestApplyAuditCompliantAgentPaysNothing(t *testing.T) {
	auth := New(config.Default().Authority)
	a := &agents.Agent{ID: 1, TrueProfit: 100_000, ReportedProfit: 100_000, Morale: 0.5, Trust: 0.5}
	penalty, backTax := auth.applyAudit(a, 1, rand.New(rand.NewSource(1)))
	if penalty != 0 || backTax != 0 {
		t.Errorf("compliant audit assessed penalty=%f backTax=%f", penalty, backTax)
	}
	if auth.Record(a.ID).TimesCaught != 0 {
		t.Error("compliant audit counted as a catch")
	}
}

func TestEnforceAggregatesOutcome(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0.2
	cfg.Covenant.Enabled = false
	auth := New(cfg)
	pop := flatPopulation(50, 0.5)

	out := auth.Enforce(pop, emptyNetwork(), 1, rand.New(rand.NewSource(3)))
	if len(out.Audited) != 10 {
		t.Fatalf("expected 10 audits, got %d", len(out.Audited))
	}
	// Every agent hides 50k: back tax 12.5k and penalty 18.75k each.
	if math.Abs(out.BackTaxes-10*12_500) > 1e-6 {
		t.Errorf("back taxes = %f, want 125000", out.BackTaxes)
	}
	if math.Abs(out.PenaltiesAssessed-10*18_750) > 1e-6 {
		t.Errorf("penalties = %f, want 187500", out.PenaltiesAssessed)
	}
}

// --- Covenant tests ---

func TestCovenantGrantedAfterStreak(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0
	cfg.Covenant.StreakThreshold = 3
	auth := New(cfg)
	pop := flatPopulation(5, 1)

	net := emptyNetwork()
	rng := rand.New(rand.NewSource(1))
	for period := 1; period <= 2; period++ {
		if out := auth.Enforce(pop, net, period, rng); out.CovenantsGranted != 0 {
			t.Fatalf("period %d: covenant granted before streak threshold", period)
		}
	}
	out := auth.Enforce(pop, net, 3, rng)
	if out.CovenantsGranted != 5 {
		t.Fatalf("expected all 5 covenants granted at streak 3, got %d", out.CovenantsGranted)
	}
	for _, a := range pop {
		if !a.UnderCovenant {
			t.Fatalf("agent %d not under covenant", a.ID)
		}
		if auth.Record(a.ID).CovenantSince != 3 {
			t.Fatalf("agent %d covenant since %d, want 3", a.ID, auth.Record(a.ID).CovenantSince)
		}
	}
}

func TestCovenantBreachRevokesAndTargets(t *testing.T) {
	cfg := config.Default().Authority
	cfg.AuditRate = 0
	cfg.Covenant.StreakThreshold = 2
	auth := New(cfg)
	pop := flatPopulation(3, 1)

	net := emptyNetwork()
	rng := rand.New(rand.NewSource(1))
	auth.Enforce(pop, net, 1, rng)
	auth.Enforce(pop, net, 2, rng)
	if !pop[0].UnderCovenant {
		t.Fatal("covenant not granted after streak")
	}

	// Agent 1 now hides well beyond the tolerance.
	pop[0].ReportedProfit = 50_000
	out := auth.Enforce(pop, net, 3, rng)
	if out.CovenantsRevoked != 1 {
		t.Fatalf("expected 1 revocation, got %d", out.CovenantsRevoked)
	}
	if pop[0].UnderCovenant {
		t.Error("breached agent still under covenant")
	}
	rec := auth.Record(pop[0].ID)
	if rec.ComplianceStreak != 0 {
		t.Errorf("streak after breach = %d, want 0", rec.ComplianceStreak)
	}
	if !rec.TargetedNext {
		t.Fatal("breached agent not flagged for a targeted audit")
	}

	// The flag fires next period even with a zero audit rate.
	pop[0].ReportedProfit = 100_000
	out = auth.Enforce(pop, net, 4, rng)
	if len(out.Audited) != 1 || out.Audited[0] != pop[0].ID {
		t.Fatalf("expected a targeted audit of agent 1, got %v", out.Audited)
	}
}

func TestCovenantWithinToleranceNotBreached(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Covenant.BreachTolerance = 0.05
	auth := New(cfg)
	a := flatPopulation(1, 1)[0]
	a.UnderCovenant = true
	auth.Record(a.ID).CovenantSince = 1

	a.ReportedProfit = 96_000 // 4% gap, inside the 5% tolerance
	if revoked := auth.evaluateBreaches([]*agents.Agent{a}, 2); revoked != 0 {
		t.Errorf("gap within tolerance revoked %d covenants", revoked)
	}
	if !a.UnderCovenant {
		t.Error("covenant dropped without a breach")
	}
}

// --- Feedback tests ---

func TestDeterrenceRaisesMoraleWhenCaught(t *testing.T) {
	cfg := config.Default().Authority.Reaction
	a := &agents.Agent{Morale: 0.5, Trust: 0.5}
	Deterrence(a, true, cfg, rand.New(rand.NewSource(1)))
	if a.Morale != 0.55 {
		t.Errorf("morale = %f, want 0.55", a.Morale)
	}
	if a.Trust != 0.5 {
		t.Errorf("trust moved on a catch under deterrence: %f", a.Trust)
	}
}

func TestDeterrenceRewardsCompliantAudit(t *testing.T) {
	cfg := config.Default().Authority.Reaction
	a := &agents.Agent{Morale: 0.5, Trust: 0.5}
	Deterrence(a, false, cfg, rand.New(rand.NewSource(1)))
	if a.Trust != 0.55 {
		t.Errorf("trust = %f, want 0.55", a.Trust)
	}
}

func TestResentmentLowersMoraleWhenCaught(t *testing.T) {
	cfg := config.Default().Authority.Reaction
	cfg.UnfairProb = 0
	a := &agents.Agent{Morale: 0.5, Trust: 0.5}
	Resentment(a, true, cfg, rand.New(rand.NewSource(1)))
	if a.Morale != 0.45 {
		t.Errorf("morale = %f, want 0.45", a.Morale)
	}
	if a.Trust != 0.5 {
		t.Errorf("trust lost despite zero unfairness probability: %f", a.Trust)
	}
}

func TestResentmentUnfairAuditErodesTrust(t *testing.T) {
	cfg := config.Default().Authority.Reaction
	cfg.UnfairProb = 1
	a := &agents.Agent{Morale: 0.5, Trust: 0.5}
	Resentment(a, true, cfg, rand.New(rand.NewSource(1)))
	if a.Trust != 0.4 {
		t.Errorf("trust = %f, want 0.4", a.Trust)
	}
}

func TestTargetEffectRaisesPerceivedRisk(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Belief.TargetEffectProb = 1
	auth := New(cfg)
	a := &agents.Agent{PerceivedRisk: 0.1}
	auth.updateAuditedBelief(a, rand.New(rand.NewSource(1)))
	if math.Abs(a.PerceivedRisk-0.35) > 1e-12 {
		t.Errorf("perceived risk = %f, want 0.35", a.PerceivedRisk)
	}
}

func TestBombCraterLowersPerceivedRisk(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Belief.TargetEffectProb = 0
	auth := New(cfg)
	a := &agents.Agent{PerceivedRisk: 0.5}
	auth.updateAuditedBelief(a, rand.New(rand.NewSource(1)))
	if math.Abs(a.PerceivedRisk-0.25) > 1e-12 {
		t.Errorf("perceived risk = %f, want 0.25", a.PerceivedRisk)
	}
}

func TestBystanderBeliefDriftsTowardInitial(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Belief.DriftRate = 0.5
	cfg.Belief.NeighborSignal = 0
	auth := New(cfg)
	a := &agents.Agent{ID: 1, PerceivedRisk: 0.8, InitialPerception: 0.2}

	auth.updateBystanderBeliefs([]*agents.Agent{a}, emptyNetwork(), nil, rand.New(rand.NewSource(1)))
	if math.Abs(a.PerceivedRisk-0.5) > 1e-12 {
		t.Errorf("perceived risk = %f, want 0.5 (halfway back to 0.2)", a.PerceivedRisk)
	}
}

// --- Guidance tests ---

func TestGuidanceReachesFractionAndBoosts(t *testing.T) {
	cfg := config.Default().Authority
	cfg.Guidance.Enabled = true
	cfg.Guidance.Every = 2
	cfg.Guidance.Fraction = 1
	auth := New(cfg)
	pop := flatPopulation(20, 1)
	for _, a := range pop {
		a.PerceivedRisk = 0.5
	}

	if reached := auth.runGuidance(pop, 3, rand.New(rand.NewSource(1))); reached != 0 {
		t.Fatalf("campaign ran off cadence, reached %d", reached)
	}
	reached := auth.runGuidance(pop, 4, rand.New(rand.NewSource(1)))
	if reached != 20 {
		t.Fatalf("expected full reach, got %d", reached)
	}
	for _, a := range pop {
		if a.Morale != 0.55 || a.Trust != 0.55 {
			t.Fatalf("agent %d morale/trust = %f/%f, want 0.55/0.55", a.ID, a.Morale, a.Trust)
		}
		// Perceived risk corrected halfway toward the true 0.05 rate.
		if math.Abs(a.PerceivedRisk-0.275) > 1e-12 {
			t.Fatalf("agent %d perceived risk = %f, want 0.275", a.ID, a.PerceivedRisk)
		}
	}
}

func TestGuidanceDisabled(t *testing.T) {
	auth := New(config.Default().Authority) // guidance off by default
	if reached := auth.runGuidance(flatPopulation(10, 1), 10, rand.New(rand.NewSource(1))); reached != 0 {
		t.Errorf("disabled campaign reached %d agents", reached)
	}
}
