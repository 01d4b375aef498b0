// Agent spawning — creates the initial SME population with firm profiles,
// profit draws and trait distributions.
package agents

import (
	"math/rand"

	"github.com/malakkhan/taxforce/internal/config"
)

// sectorProfile holds the fixed sampling parameters for a sector.
type sectorProfile struct {
	weight   float64    // share of the population
	highRisk bool       // structurally elevated evasion risk
	cashProb float64    // chance of cash-intensive operations
	digital  [3]float64 // weights for Low/Medium/High digitalization
}

var sectorProfiles = [NumSectors]sectorProfile{
	SectorRetail:        {weight: 0.26, highRisk: false, cashProb: 0.45, digital: [3]float64{0.25, 0.45, 0.30}},
	SectorHospitality:   {weight: 0.18, highRisk: true, cashProb: 0.75, digital: [3]float64{0.40, 0.40, 0.20}},
	SectorConstruction:  {weight: 0.16, highRisk: true, cashProb: 0.50, digital: [3]float64{0.35, 0.45, 0.20}},
	SectorServices:      {weight: 0.28, highRisk: false, cashProb: 0.20, digital: [3]float64{0.15, 0.40, 0.45}},
	SectorManufacturing: {weight: 0.12, highRisk: false, cashProb: 0.10, digital: [3]float64{0.20, 0.50, 0.30}},
}

// Spawner creates the agent population for a run.
type Spawner struct {
	rng    *rand.Rand
	cfg    config.Config
	nextID AgentID
}

// NewSpawner creates a spawner drawing from the given generator.
func NewSpawner(cfg config.Config, rng *rand.Rand) *Spawner {
	return &Spawner{rng: rng, cfg: cfg, nextID: 1}
}

// SpawnPopulation creates the full population of cfg.N agents.
func (s *Spawner) SpawnPopulation() []*Agent {
	population := make([]*Agent, 0, s.cfg.N)
	for i := 0; i < s.cfg.N; i++ {
		population = append(population, s.spawnOne())
	}
	return population
}

func (s *Spawner) spawnOne() *Agent {
	id := s.nextID
	s.nextID++

	category := s.sampleCategory()
	sector := s.sampleSector()
	profile := sectorProfiles[sector]

	cash := profile.highRisk && s.rng.Float64() < 0.5
	if !cash {
		cash = s.rng.Float64() < profile.cashProb
	}
	digital := s.sampleDigitalization(profile)
	advisor := s.sampleAdvisor(category, digital)

	turnover := s.sampleTurnover(category)
	margin := uniformIn(s.rng, s.cfg.Profit.Margin)
	profit := turnover * margin

	perception := s.sampleTrait(s.cfg.Traits.PerceivedRisk)

	a := &Agent{
		ID:                id,
		Category:          category,
		Sector:            sector,
		CashIntensive:     cash,
		Digitalization:    digital,
		HasAdvisor:        advisor,
		Turnover:          turnover,
		TrueProfit:        profit,
		ReportedProfit:    profit, // everyone starts compliant
		BaseProfit:        profit,
		Morale:            s.sampleTrait(s.cfg.Traits.Morale),
		Trust:             s.sampleTrait(s.cfg.Traits.Trust),
		PerceivedRisk:     perception,
		InitialPerception: perception,
		RiskAversion:      s.sampleTrait(s.cfg.Traits.RiskAversion),
	}
	a.BaseRisk = baseRisk(a)
	return a
}

func (s *Spawner) sampleCategory() Category {
	r := s.rng.Float64()
	dist := s.cfg.Categories
	switch {
	case r < dist.Micro:
		return CategoryMicro
	case r < dist.Micro+dist.Small:
		return CategorySmall
	default:
		return CategoryMedium
	}
}

func (s *Spawner) sampleSector() Sector {
	r := s.rng.Float64()
	acc := 0.0
	for i, p := range sectorProfiles {
		acc += p.weight
		if r < acc {
			return Sector(i)
		}
	}
	return SectorServices
}

func (s *Spawner) sampleDigitalization(p sectorProfile) Digitalization {
	r := s.rng.Float64()
	switch {
	case r < p.digital[0]:
		return DigiLow
	case r < p.digital[0]+p.digital[1]:
		return DigiMedium
	default:
		return DigiHigh
	}
}

// sampleAdvisor draws advisor status. Larger and more digitalized firms are
// more likely to retain one.
func (s *Spawner) sampleAdvisor(c Category, d Digitalization) bool {
	prob := s.cfg.AdvisorFraction
	if c != CategoryMicro {
		prob += 0.15
	}
	if d == DigiHigh {
		prob += 0.10
	}
	if prob > 0.95 {
		prob = 0.95
	}
	return s.rng.Float64() < prob
}

func (s *Spawner) sampleTurnover(c Category) float64 {
	switch c {
	case CategorySmall:
		return uniformIn(s.rng, s.cfg.Profit.TurnoverSmall)
	case CategoryMedium:
		return uniformIn(s.rng, s.cfg.Profit.TurnoverMedium)
	default:
		return uniformIn(s.rng, s.cfg.Profit.TurnoverMicro)
	}
}

// sampleTrait draws a trait value from a clamped normal distribution.
func (s *Spawner) sampleTrait(t config.Trait) float64 {
	return clamp01(t.Mean + s.rng.NormFloat64()*t.Std)
}

// baseRisk scores the structural audit risk of a firm profile.
func baseRisk(a *Agent) float64 {
	r := 0.30
	if sectorProfiles[a.Sector].highRisk {
		r += 0.15
	}
	switch a.Category {
	case CategoryMicro:
		r += 0.05
	case CategoryMedium:
		r -= 0.05
	}
	if a.CashIntensive {
		r += 0.10
	}
	switch a.Digitalization {
	case DigiLow:
		r += 0.05
	case DigiHigh:
		r -= 0.05
	}
	if a.HasAdvisor {
		r -= 0.05
	} else {
		r += 0.05
	}
	return clamp(r, 0.05, 0.90)
}

func uniformIn(rng *rand.Rand, r config.Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
