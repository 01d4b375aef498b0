// Package network builds the peer-influence graph over the agent
// population and runs morale diffusion across it. The graph is a
// standalone adjacency structure keyed by agent id; no agent owns
// another, and the topology is fixed for a run.
package network

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/config"
)

// Network is an undirected peer-influence graph keyed by agent id.
type Network struct {
	adjacency map[agents.AgentID][]agents.AgentID
}

// Neighbors returns the ids adjacent to the given agent, in ascending
// order. The returned slice must not be modified.
func (n *Network) Neighbors(id agents.AgentID) []agents.AgentID {
	return n.adjacency[id]
}

// Degree returns the number of neighbors of the given agent.
func (n *Network) Degree(id agents.AgentID) int {
	return len(n.adjacency[id])
}

// EdgeCount returns the total number of undirected edges.
func (n *Network) EdgeCount() int {
	total := 0
	for _, nb := range n.adjacency {
		total += len(nb)
	}
	return total / 2
}

// Build constructs the graph for the configured topology. The same seed
// and population produce the same graph.
func Build(cfg config.Network, population []*agents.Agent, rng *rand.Rand) (*Network, error) {
	b := newBuilder(population)
	switch cfg.Topology {
	case "none":
		// No edges: diffusion is a no-op.
	case "random":
		b.buildRandom(cfg.EdgeProb, rng)
	case "smallworld":
		b.buildSmallWorld(cfg.MeanDegree, cfg.Rewire, rng)
	case "scalefree":
		b.buildScaleFree(cfg.Attach, rng)
	case "lognormal":
		b.buildLognormal(cfg, rng)
	default:
		return nil, fmt.Errorf("network: unknown topology %q", cfg.Topology)
	}
	return b.finish(), nil
}

// builder accumulates edges over population indices, then freezes them
// into sorted per-id adjacency lists.
type builder struct {
	population []*agents.Agent
	edges      []map[int]struct{} // index → set of neighbor indices
}

func newBuilder(population []*agents.Agent) *builder {
	edges := make([]map[int]struct{}, len(population))
	for i := range edges {
		edges[i] = make(map[int]struct{})
	}
	return &builder{population: population, edges: edges}
}

func (b *builder) addEdge(i, j int) {
	if i == j {
		return
	}
	b.edges[i][j] = struct{}{}
	b.edges[j][i] = struct{}{}
}

func (b *builder) hasEdge(i, j int) bool {
	_, ok := b.edges[i][j]
	return ok
}

func (b *builder) degree(i int) int {
	return len(b.edges[i])
}

// finish converts index sets into id-keyed sorted adjacency lists.
func (b *builder) finish() *Network {
	adjacency := make(map[agents.AgentID][]agents.AgentID, len(b.population))
	for i, a := range b.population {
		neighbors := make([]agents.AgentID, 0, len(b.edges[i]))
		for j := range b.edges[i] {
			neighbors = append(neighbors, b.population[j].ID)
		}
		sort.Slice(neighbors, func(x, y int) bool { return neighbors[x] < neighbors[y] })
		adjacency[a.ID] = neighbors
	}
	return &Network{adjacency: adjacency}
}

// buildRandom wires each pair independently with probability p
// (Erdős–Rényi).
func (b *builder) buildRandom(p float64, rng *rand.Rand) {
	n := len(b.population)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				b.addEdge(i, j)
			}
		}
	}
}

// buildSmallWorld builds a Watts–Strogatz ring lattice of even degree k,
// then rewires each clockwise edge with probability beta.
func (b *builder) buildSmallWorld(k int, beta float64, rng *rand.Rand) {
	n := len(b.population)
	if n < 2 {
		return
	}
	half := k / 2
	if half > (n-1)/2 {
		half = (n - 1) / 2
	}
	for i := 0; i < n; i++ {
		for j := 1; j <= half; j++ {
			b.addEdge(i, (i+j)%n)
		}
	}
	for i := 0; i < n; i++ {
		for j := 1; j <= half; j++ {
			if rng.Float64() >= beta {
				continue
			}
			old := (i + j) % n
			// Pick a fresh target; give up after a few collisions so
			// dense graphs cannot loop forever.
			for attempt := 0; attempt < 8; attempt++ {
				target := rng.Intn(n)
				if target == i || target == old || b.hasEdge(i, target) {
					continue
				}
				delete(b.edges[i], old)
				delete(b.edges[old], i)
				b.addEdge(i, target)
				break
			}
		}
	}
}

// buildScaleFree grows a Barabási–Albert graph: each new node attaches to
// m existing nodes with probability proportional to their degree.
func (b *builder) buildScaleFree(m int, rng *rand.Rand) {
	n := len(b.population)
	if n < 2 {
		return
	}
	if m > n-1 {
		m = n - 1
	}
	// Seed clique of m+1 nodes.
	seedSize := m + 1
	if seedSize > n {
		seedSize = n
	}
	// repeated holds one entry per edge endpoint, so uniform draws from it
	// are degree-proportional.
	var repeated []int
	for i := 0; i < seedSize; i++ {
		for j := i + 1; j < seedSize; j++ {
			b.addEdge(i, j)
			repeated = append(repeated, i, j)
		}
	}
	for i := seedSize; i < n; i++ {
		attached := make(map[int]struct{}, m)
		for len(attached) < m && len(attached) < i {
			target := repeated[rng.Intn(len(repeated))]
			if target == i {
				continue
			}
			if _, ok := attached[target]; ok {
				continue
			}
			attached[target] = struct{}{}
		}
		// Apply in sorted order to keep the endpoint list, and therefore
		// later draws, independent of map iteration.
		targets := make([]int, 0, len(attached))
		for t := range attached {
			targets = append(targets, t)
		}
		sort.Ints(targets)
		for _, t := range targets {
			b.addEdge(i, t)
			repeated = append(repeated, i, t)
		}
	}
}

// buildLognormal samples a lognormal target degree per agent and fills it
// with a homophily split: a configured share of each agent's new edges go
// to same-sector peers.
func (b *builder) buildLognormal(cfg config.Network, rng *rand.Rand) {
	n := len(b.population)
	sameSector := make([][]int, agents.NumSectors)
	for i, a := range b.population {
		sameSector[a.Sector] = append(sameSector[a.Sector], i)
	}

	for i, a := range b.population {
		needed := b.sampleDegree(cfg, rng) - b.degree(i)
		if needed <= 0 {
			continue
		}
		nSame := int(float64(needed) * cfg.Homophily)

		var same, other []int
		for j := 0; j < n; j++ {
			if j == i || b.hasEdge(i, j) {
				continue
			}
			if b.population[j].Sector == a.Sector {
				same = append(same, j)
			} else {
				other = append(other, j)
			}
		}
		b.attachRandom(i, same, nSame, rng)
		b.attachRandom(i, other, needed-nSame, rng)
	}
}

// attachRandom wires agent i to count members of candidates, chosen
// uniformly without replacement.
func (b *builder) attachRandom(i int, candidates []int, count int, rng *rand.Rand) {
	if count > len(candidates) {
		count = len(candidates)
	}
	for k := 0; k < count; k++ {
		pick := k + rng.Intn(len(candidates)-k)
		candidates[k], candidates[pick] = candidates[pick], candidates[k]
		b.addEdge(i, candidates[k])
	}
}

// sampleDegree draws a clamped lognormal degree.
func (b *builder) sampleDegree(cfg config.Network, rng *rand.Rand) int {
	mean, std := cfg.DegreeMean, cfg.DegreeStd
	mu := math.Log(mean * mean / math.Sqrt(std*std+mean*mean))
	sigma := math.Sqrt(math.Log(1 + std*std/(mean*mean)))
	degree := int(math.Exp(mu + sigma*rng.NormFloat64()))
	if degree < cfg.DegreeMin {
		degree = cfg.DegreeMin
	}
	if degree > cfg.DegreeMax {
		degree = cfg.DegreeMax
	}
	return degree
}
