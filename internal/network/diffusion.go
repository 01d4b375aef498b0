// Morale diffusion — each agent's morale moves toward the mean of its
// neighbors' morale from the previous period. All reads come from a
// snapshot taken before any write, so the result is independent of agent
// iteration order.
package network

import "github.com/malakkhan/taxforce/internal/agents"

// Diffuse runs one synchronous diffusion step over the population with
// the given social-influence weight. Isolated agents are unaffected.
func (n *Network) Diffuse(population []*agents.Agent, weight float64) {
	if weight == 0 {
		return
	}

	snapshot := make(map[agents.AgentID]float64, len(population))
	for _, a := range population {
		snapshot[a.ID] = a.Morale
	}

	for _, a := range population {
		neighbors := n.adjacency[a.ID]
		if len(neighbors) == 0 {
			continue
		}
		sum := 0.0
		for _, id := range neighbors {
			sum += snapshot[id]
		}
		mean := sum / float64(len(neighbors))
		updated := snapshot[a.ID] + weight*(mean-snapshot[a.ID])
		if updated < 0 {
			updated = 0
		}
		if updated > 1 {
			updated = 1
		}
		a.Morale = updated
	}
}
