// Snapshots — the read-only view handed to external consumers (CLI,
// history store, HTTP API). Agents are copied by value so a consumer can
// never mutate live simulation state.
package engine

import (
	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/metrics"
)

// Snapshot is the per-step view of the full simulation state.
type Snapshot struct {
	Period  int                 `json:"period"`
	State   string              `json:"state"`
	Agents  []agents.Agent      `json:"agents"`
	Metrics metrics.StepMetrics `json:"metrics"`
}

// Snapshot captures the current population and the latest period
// aggregates.
func (s *Simulation) Snapshot() Snapshot {
	copied := make([]agents.Agent, len(s.population))
	for i, a := range s.population {
		copied[i] = *a
	}
	return Snapshot{
		Period:  s.period,
		State:   s.state.String(),
		Agents:  copied,
		Metrics: s.collector.Last(),
	}
}

// Series returns the metrics collected so far, in period order.
func (s *Simulation) Series() []metrics.StepMetrics {
	return s.collector.Series()
}
