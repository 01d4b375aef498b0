package network

import (
	"math/rand"
	"testing"

	"github.com/malakkhan/taxforce/internal/agents"
	"github.com/malakkhan/taxforce/internal/config"
)

func makePopulation(n int) []*agents.Agent {
	pop := make([]*agents.Agent, n)
	for i := 0; i < n; i++ {
		pop[i] = &agents.Agent{
			ID:     agents.AgentID(i + 1),
			Sector: agents.Sector(i % agents.NumSectors),
			Morale: 0.5,
		}
	}
	return pop
}

func netConfig(topology string) config.Network {
	cfg := config.Default().Network
	cfg.Topology = topology
	return cfg
}

func TestNoneTopologyHasNoEdges(t *testing.T) {
	pop := makePopulation(50)
	net, err := Build(netConfig("none"), pop, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if net.EdgeCount() != 0 {
		t.Errorf("expected 0 edges, got %d", net.EdgeCount())
	}
}

func TestRandomTopologyCompleteAtProbOne(t *testing.T) {
	pop := makePopulation(20)
	cfg := netConfig("random")
	cfg.EdgeProb = 1.0
	net, err := Build(cfg, pop, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	want := 20 * 19 / 2
	if net.EdgeCount() != want {
		t.Errorf("expected complete graph with %d edges, got %d", want, net.EdgeCount())
	}
}

func TestSmallWorldDegreeWithoutRewiring(t *testing.T) {
	pop := makePopulation(30)
	cfg := netConfig("smallworld")
	cfg.MeanDegree = 4
	cfg.Rewire = 0
	net, err := Build(cfg, pop, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range pop {
		if d := net.Degree(a.ID); d != 4 {
			t.Fatalf("agent %d: expected ring degree 4, got %d", a.ID, d)
		}
	}
}

func TestScaleFreeEdgeBudget(t *testing.T) {
	pop := makePopulation(100)
	cfg := netConfig("scalefree")
	cfg.Attach = 3
	net, err := Build(cfg, pop, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	// Seed clique of 4 plus 3 edges per later node.
	want := 4*3/2 + (100-4)*3
	if net.EdgeCount() != want {
		t.Errorf("expected %d edges, got %d", want, net.EdgeCount())
	}
	// Every node should be connected.
	for _, a := range pop {
		if net.Degree(a.ID) == 0 {
			t.Fatalf("agent %d isolated in scale-free graph", a.ID)
		}
	}
}

func TestLognormalDegreesWithinBounds(t *testing.T) {
	pop := makePopulation(200)
	cfg := netConfig("lognormal")
	cfg.DegreeMax = 30
	net, err := Build(cfg, pop, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatal(err)
	}
	if net.EdgeCount() == 0 {
		t.Fatal("expected edges in lognormal graph")
	}
}

func TestAdjacencySymmetric(t *testing.T) {
	pop := makePopulation(60)
	cfg := netConfig("random")
	cfg.EdgeProb = 0.1
	net, err := Build(cfg, pop, rand.New(rand.NewSource(6)))
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range pop {
		for _, nb := range net.Neighbors(a.ID) {
			found := false
			for _, back := range net.Neighbors(nb) {
				if back == a.ID {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("edge %d-%d not symmetric", a.ID, nb)
			}
		}
	}
}

func TestBuildDeterministicForSeed(t *testing.T) {
	for _, topology := range []string{"random", "smallworld", "scalefree", "lognormal"} {
		a, err := Build(netConfig(topology), makePopulation(80), rand.New(rand.NewSource(12)))
		if err != nil {
			t.Fatal(err)
		}
		b, err := Build(netConfig(topology), makePopulation(80), rand.New(rand.NewSource(12)))
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i <= 80; i++ {
			id := agents.AgentID(i)
			na, nb := a.Neighbors(id), b.Neighbors(id)
			if len(na) != len(nb) {
				t.Fatalf("%s: agent %d degree differs between seeded builds", topology, id)
			}
			for j := range na {
				if na[j] != nb[j] {
					t.Fatalf("%s: agent %d adjacency differs between seeded builds", topology, id)
				}
			}
		}
	}
}

func TestBuildUnknownTopology(t *testing.T) {
	if _, err := Build(netConfig("mesh"), makePopulation(5), rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for unknown topology")
	}
}
