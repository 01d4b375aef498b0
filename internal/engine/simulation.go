// Package engine drives the simulation: it owns all state, sequences the
// components each period and is the only writer. Agents, the network and
// the authority receive inputs and return outputs; none of them calls
// another.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/authority"
	"github.com/malakkhan/taxforce/internal/config"
	"github.com/malakkhan/taxforce/internal/metrics"
	"github.com/malakkhan/taxforce/internal/network"
)

// State is the engine lifecycle state.
type State uint8

const (
	StateUninitialized State = iota
	StateRunning
	StateCompleted
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Simulation holds the full run state: population, network, authority,
// period index and the single seeded generator every stochastic draw
// routes through.
type Simulation struct {
	cfg   config.Config
	state State

	period     int
	rng        *rand.Rand
	population []*agents.Agent
	net        *network.Network
	auth       *authority.Authority
	profits    agents.ProfitModel
	normative  agents.NormativePolicy
	collector  *metrics.Collector
}

// Result is returned to the caller once a run completes: the full time
// series of aggregate metrics.
type Result struct {
	Seed    int64                 `json:"seed"`
	Periods int                   `json:"periods"`
	Series  []metrics.StepMetrics `json:"series"`
}

// Final returns the last period's metrics.
func (r Result) Final() metrics.StepMetrics {
	if len(r.Series) == 0 {
		return metrics.StepMetrics{}
	}
	return r.Series[len(r.Series)-1]
}

// New validates the configuration and constructs the population, network
// and authority. An invalid configuration aborts here: no partial state
// is ever exposed.
func New(cfg config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	spawner := agents.NewSpawner(cfg, rng)
	population := spawner.SpawnPopulation()
	for _, a := range population {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("spawn: %w", err)
		}
	}

	net, err := network.Build(cfg.Network, population, rng)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		cfg:        cfg,
		state:      StateRunning,
		rng:        rng,
		population: population,
		net:        net,
		auth:       authority.New(cfg.Authority),
		profits:    agents.NewProfitModel(cfg.Profit, cfg.Seed),
		normative:  agents.WeightedIntention,
		collector:  metrics.NewCollector(cfg.Horizon),
	}

	slog.Info("simulation constructed",
		"agents", len(population),
		"edges", net.EdgeCount(),
		"topology", cfg.Network.Topology,
		"horizon", cfg.Horizon,
		"seed", cfg.Seed,
	)
	return sim, nil
}

// State returns the engine lifecycle state.
func (s *Simulation) State() State { return s.state }

// Period returns the most recently completed period (0 before any step).
func (s *Simulation) Period() int { return s.period }

// Step advances the simulation by one period: profit draws, morale
// diffusion, reporting decisions, enforcement, metrics. The phases run in
// this fixed order every period so that replaying a seed reproduces the
// trajectory exactly.
func (s *Simulation) Step() (metrics.StepMetrics, error) {
	if s.state != StateRunning {
		return metrics.StepMetrics{}, fmt.Errorf("engine: step in state %s", s.state)
	}
	s.period++

	// Profit draws.
	for _, a := range s.population {
		a.TrueProfit = s.profits.TrueProfit(a, s.period, s.rng)
		if a.TrueProfit < 0 {
			return s.abort("agent %d drew negative profit %g", a.ID, a.TrueProfit)
		}
	}

	// Morale diffusion over the previous period's snapshot.
	s.net.Diffuse(s.population, s.cfg.Network.InfluenceWeight)

	// Reporting decisions.
	env := agents.Environment{
		TrueAuditRate:     s.auth.AuditRate(),
		PenaltyMultiplier: s.auth.PenaltyMultiplier(),
	}
	for _, a := range s.population {
		agents.DecideReport(a, s.cfg.Decision, env, s.normative, s.rng)
	}

	// Invariant sweep before enforcement reads the snapshot.
	for _, a := range s.population {
		if err := a.Validate(); err != nil {
			return s.abort("post-decision: %v", err)
		}
	}

	// Enforcement.
	out := s.auth.Enforce(s.population, s.net, s.period, s.rng)

	for _, a := range s.population {
		if err := a.Validate(); err != nil {
			return s.abort("post-enforcement: %v", err)
		}
	}

	m := s.collector.Collect(s.period, s.population, out, s.auth.TaxRate())

	slog.Debug("period complete",
		"period", s.period,
		"compliance", fmt.Sprintf("%.3f", m.ComplianceRate),
		"revenue", fmt.Sprintf("%.0f", m.TotalRevenue),
		"audits", m.AuditsPerformed,
		"covenants", m.CovenantsActive,
	)

	if s.period >= s.cfg.Horizon {
		s.state = StateCompleted
	}
	return m, nil
}

// Run steps the simulation to its horizon and returns the metrics series.
func (s *Simulation) Run() (Result, error) {
	for s.state == StateRunning {
		if _, err := s.Step(); err != nil {
			return Result{}, err
		}
	}
	res := Result{
		Seed:    s.cfg.Seed,
		Periods: s.period,
		Series:  s.collector.Series(),
	}
	final := res.Final()
	slog.Info("simulation completed",
		"periods", res.Periods,
		"compliance", fmt.Sprintf("%.3f", final.ComplianceRate),
		"mean_morale", fmt.Sprintf("%.3f", final.MeanMorale),
		"mean_trust", fmt.Sprintf("%.3f", final.MeanTrust),
	)
	return res, nil
}

func (s *Simulation) abort(format string, args ...any) (metrics.StepMetrics, error) {
	s.state = StateAborted
	return metrics.StepMetrics{}, &InvariantError{Period: s.period, Detail: fmt.Sprintf(format, args...)}
}
