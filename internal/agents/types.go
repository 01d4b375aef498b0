// Package agents provides the SME agent data model, population spawner,
// per-period profit models and the reporting decision pipeline.
package agents

import "fmt"

// AgentID is a unique identifier for an agent, stable for its lifetime.
type AgentID uint64

// Category is the SME size class. Immutable after creation; drives the
// profit distribution and audit risk weighting.
type Category uint8

const (
	CategoryMicro Category = iota
	CategorySmall
	CategoryMedium
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMicro:
		return "micro"
	case CategorySmall:
		return "small"
	case CategoryMedium:
		return "medium"
	}
	return "unknown"
}

// Sector is the agent's line of business.
type Sector uint8

const (
	SectorRetail Sector = iota
	SectorHospitality
	SectorConstruction
	SectorServices
	SectorManufacturing
)

// NumSectors is the total number of sectors.
const NumSectors = 5

// String returns the sector name.
func (s Sector) String() string {
	switch s {
	case SectorRetail:
		return "retail"
	case SectorHospitality:
		return "hospitality"
	case SectorConstruction:
		return "construction"
	case SectorServices:
		return "services"
	case SectorManufacturing:
		return "manufacturing"
	}
	return "unknown"
}

// Digitalization is the agent's administrative digitalization level.
type Digitalization uint8

const (
	DigiLow Digitalization = iota
	DigiMedium
	DigiHigh
)

// Agent is one SME in the simulated population.
type Agent struct {
	ID       AgentID  `json:"id"`
	Category Category `json:"category"`

	// Firm profile — fixed at creation.
	Sector         Sector         `json:"sector"`
	CashIntensive  bool           `json:"cash_intensive"`
	Digitalization Digitalization `json:"digitalization"`
	HasAdvisor     bool           `json:"has_advisor"`
	Turnover       float64        `json:"turnover"`

	// Per-period economics. 0 <= ReportedProfit <= TrueProfit always.
	TrueProfit     float64 `json:"true_profit"`
	ReportedProfit float64 `json:"reported_profit"`

	// Traits, all in [0,1].
	Morale        float64 `json:"tax_morale"`
	Trust         float64 `json:"trust"`
	PerceivedRisk float64 `json:"subjective_audit_prob"`
	RiskAversion  float64 `json:"risk_aversion"`

	// Enforcement status.
	UnderCovenant bool `json:"under_covenant"`

	// Anchors held for the run: the initial profit draw (drift mode) and
	// the initial risk perception (belief drift target).
	BaseProfit        float64 `json:"-"`
	InitialPerception float64 `json:"-"`

	// BaseRisk is the structural audit risk score from the firm profile.
	BaseRisk float64 `json:"-"`
}

// complianceTolerance absorbs floating point residue when comparing
// reported against true profit.
const complianceTolerance = 0.01

// EvadedProfit returns the undeclared profit for the current period.
func (a *Agent) EvadedProfit() float64 {
	return a.TrueProfit - a.ReportedProfit
}

// IsCompliant reports whether the agent declared (effectively) everything.
func (a *Agent) IsCompliant() bool {
	return a.ReportedProfit >= a.TrueProfit-complianceTolerance
}

// Validate checks the agent invariants. Decision logic assumes a validated
// agent, so violations here are construction defects.
func (a *Agent) Validate() error {
	if a.TrueProfit < 0 {
		return fmt.Errorf("agent %d: negative true profit %g", a.ID, a.TrueProfit)
	}
	if a.ReportedProfit < 0 || a.ReportedProfit > a.TrueProfit {
		return fmt.Errorf("agent %d: reported profit %g outside [0, %g]", a.ID, a.ReportedProfit, a.TrueProfit)
	}
	for _, t := range []struct {
		name string
		v    float64
	}{
		{"tax_morale", a.Morale},
		{"trust", a.Trust},
		{"subjective_audit_prob", a.PerceivedRisk},
		{"risk_aversion", a.RiskAversion},
	} {
		if t.v < 0 || t.v > 1 {
			return fmt.Errorf("agent %d: %s %g outside [0,1]", a.ID, t.name, t.v)
		}
	}
	return nil
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

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
