// Per-period profit models. "redraw" resamples the profit margin every
// period; "drift" holds the initial draw and modulates it with smooth
// simplex noise over the period axis, so trajectories are continuous and
// fully determined by the seed.
package agents

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/malakkhan/taxforce/internal/config"
)

// ProfitModel yields an agent's true profit for a period.
type ProfitModel interface {
	TrueProfit(a *Agent, period int, rng *rand.Rand) float64
}

// NewProfitModel builds the model selected by the configuration.
func NewProfitModel(cfg config.Profit, seed int64) ProfitModel {
	if cfg.Mode == "drift" {
		return &driftModel{
			noise:     opensimplex.NewNormalized(seed),
			amplitude: cfg.DriftAmplitude,
			scale:     cfg.DriftScale,
		}
	}
	return &redrawModel{margin: cfg.Margin}
}

// redrawModel resamples the profit margin on the fixed turnover each period.
type redrawModel struct {
	margin config.Range
}

func (m *redrawModel) TrueProfit(a *Agent, period int, rng *rand.Rand) float64 {
	return a.Turnover * uniformIn(rng, m.margin)
}

// driftModel modulates the initial profit draw with normalized simplex
// noise. The agent id offsets the noise plane so trajectories differ per
// agent; the period axis is scaled so consecutive periods stay correlated.
type driftModel struct {
	noise     opensimplex.Noise
	amplitude float64
	scale     float64
}

func (m *driftModel) TrueProfit(a *Agent, period int, _ *rand.Rand) float64 {
	n := m.noise.Eval2(float64(a.ID)*7.13, float64(period)*m.scale)
	factor := 1 - m.amplitude + 2*m.amplitude*n
	return a.BaseProfit * factor
}
