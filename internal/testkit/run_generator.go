package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
)

// Profile describes how a synthetic framework behaves
type Profile struct {
	Framework core.Framework `json:"framework"`
	// Recall is the probability that each planted item of a kind is reported
	Recall map[benchmark.Kind]float64 `json:"recall"`
	// FalsePositives is the expected number of spurious findings per run
	FalsePositives float64 `json:"false_positives"`
}

// GeneratorConfig configures the synthetic run generator
type GeneratorConfig struct {
	Seed         int64       `json:"seed"`
	Branch       core.Branch `json:"branch"`
	Runs         int         `json:"runs"`
	ItemsPerKind int         `json:"items_per_kind"`
	Profiles     []Profile   `json:"profiles"`
}

// DefaultGeneratorConfig returns two frameworks with opposite strengths on baseline_balanced
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:         42,
		Branch:       "baseline_balanced",
		Runs:         5,
		ItemsPerKind: 6,
		Profiles: []Profile{
			{
				Framework:      "cursor",
				Recall:         map[benchmark.Kind]float64{benchmark.KindMissing: 0.9, benchmark.KindIncorrect: 0.4, benchmark.KindExtraneous: 0.8},
				FalsePositives: 1.5,
			},
			{
				Framework:      "claude-code",
				Recall:         map[benchmark.Kind]float64{benchmark.KindMissing: 0.5, benchmark.KindIncorrect: 0.85, benchmark.KindExtraneous: 0.5},
				FalsePositives: 0.3,
			},
		},
	}
}

// RunGenerator produces deterministic ground truth and reports from a seed
type RunGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewRunGenerator creates a generator; equal configs produce equal output
func NewRunGenerator(config GeneratorConfig) *RunGenerator {
	return &RunGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GroundTruth returns the planted items of every kind.
// Keys are section numbers; incorrect and extraneous items name one source file each.
func (g *RunGenerator) GroundTruth() map[benchmark.Kind][]benchmark.GroundTruthItem {
	out := make(map[benchmark.Kind][]benchmark.GroundTruthItem, 3)
	for ki, kind := range benchmark.Kinds() {
		items := make([]benchmark.GroundTruthItem, g.config.ItemsPerKind)
		for i := range items {
			items[i] = benchmark.GroundTruthItem{Key: fmt.Sprintf("%d.%d", ki+2, i+1)}
			if kind != benchmark.KindMissing {
				items[i].Files = []string{fmt.Sprintf("src/%s/module_%d.ts", kind, i+1)}
			}
		}
		out[kind] = items
	}
	return out
}

// Populate stores the ground truth and every profile's reports, returning the generated run keys
func (g *RunGenerator) Populate(groundTruth *InMemoryGroundTruth, reports *InMemoryReports) []benchmark.RunKey {
	planted := g.GroundTruth()
	for _, kind := range benchmark.Kinds() {
		groundTruth.Put(g.config.Branch, kind, planted[kind]...)
	}

	var keys []benchmark.RunKey
	for _, p := range g.config.Profiles {
		for _, kind := range benchmark.Kinds() {
			for n := 1; n <= g.config.Runs; n++ {
				key := benchmark.RunKey{Framework: p.Framework, Branch: g.config.Branch, Kind: kind, Run: n}
				reports.Put(key, g.report(p, kind, planted[kind])...)
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func (g *RunGenerator) report(p Profile, kind benchmark.Kind, planted []benchmark.GroundTruthItem) []benchmark.ReportedItem {
	items := []benchmark.ReportedItem{}
	for _, gt := range planted {
		if g.rng.Float64() < p.Recall[kind] {
			items = append(items, benchmark.ReportedItem{Key: gt.Key, Files: gt.Files})
		}
	}
	spurious := int(math.Floor(p.FalsePositives))
	if g.rng.Float64() < p.FalsePositives-float64(spurious) {
		spurious++
	}
	for i := 0; i < spurious; i++ {
		it := benchmark.ReportedItem{Key: fmt.Sprintf("9.%d", g.rng.Intn(1000))}
		if kind != benchmark.KindMissing {
			it.Files = []string{"src/unrelated.ts"}
		}
		items = append(items, it)
	}
	return items
}
