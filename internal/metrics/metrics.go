// Package metrics aggregates per-period statistics for external
// consumers: the dashboard boundary described by the engine contract.
package metrics

import (
	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/authority"
)

// StepMetrics is the aggregate snapshot of one simulation period.
type StepMetrics struct {
	Period            int     `json:"period"`
	ComplianceRate    float64 `json:"compliance_rate"`
	TotalRevenue      float64 `json:"total_revenue"`
	TaxGap            float64 `json:"tax_gap"`
	MeanMorale        float64 `json:"mean_morale"`
	MeanTrust         float64 `json:"mean_trust"`
	MeanPerceivedRisk float64 `json:"mean_perceived_risk"`
	AuditsPerformed   int     `json:"audits_performed"`
	PenaltiesAssessed float64 `json:"penalties_assessed"`
	CovenantsActive   int     `json:"covenants_active"`
	GuidanceReached   int     `json:"guidance_reached"`
}

// Collector accumulates the per-period series across a run.
type Collector struct {
	series []StepMetrics
}

// NewCollector creates a collector sized for the run horizon.
func NewCollector(horizon int) *Collector {
	return &Collector{series: make([]StepMetrics, 0, horizon)}
}

// Collect computes and stores the aggregates for one period. Revenue is
// tax on declared profit plus back taxes and penalties recovered by
// audits; the tax gap is the tax on profit that stayed undeclared.
func (c *Collector) Collect(period int, population []*agents.Agent, out authority.Outcome, taxRate float64) StepMetrics {
	m := StepMetrics{
		Period:            period,
		AuditsPerformed:   len(out.Audited),
		PenaltiesAssessed: out.PenaltiesAssessed,
		GuidanceReached:   out.GuidanceReached,
	}

	compliant := 0
	declaredTax := 0.0
	for _, a := range population {
		if a.IsCompliant() {
			compliant++
		}
		declaredTax += a.ReportedProfit * taxRate
		m.TaxGap += a.EvadedProfit() * taxRate
		m.MeanMorale += a.Morale
		m.MeanTrust += a.Trust
		m.MeanPerceivedRisk += a.PerceivedRisk
		if a.UnderCovenant {
			m.CovenantsActive++
		}
	}

	n := float64(len(population))
	if n > 0 {
		m.ComplianceRate = float64(compliant) / n
		m.MeanMorale /= n
		m.MeanTrust /= n
		m.MeanPerceivedRisk /= n
	}
	m.TotalRevenue = declaredTax + out.BackTaxes + out.PenaltiesAssessed

	c.series = append(c.series, m)
	return m
}

// Series returns the collected per-period metrics in order.
func (c *Collector) Series() []StepMetrics {
	return c.series
}

// Last returns the most recent period's metrics, or a zero value if
// nothing has been collected yet.
func (c *Collector) Last() StepMetrics {
	if len(c.series) == 0 {
		return StepMetrics{}
	}
	return c.series[len(c.series)-1]
}
