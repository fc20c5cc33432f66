// Package gen provides the genealogical relationship graph consumed by the
// layout pipeline.
//
// # Overview
//
// A [Graph] holds individuals plus the parent/child and spouse links between
// them, and derives sibling relationships on demand. The layout engine never
// walks the graph directly; it consumes the read-only [Traverser] capability,
// which makes the positioning algorithms testable against hand-built fixtures
// and keeps the adjacency representation swappable.
//
// # Basic Usage
//
// Create a graph with [NewGraph], add individuals with [Graph.AddIndividual],
// then link them:
//
//	g := gen.NewGraph()
//	g.AddIndividual(gen.Individual{ID: "I1", Name: "Ada", Generation: 0})
//	g.AddIndividual(gen.Individual{ID: "I2", Name: "Ben", Generation: 1})
//	g.AddChild("I1", "I2")
//
// Use [Graph.Validate] before handing the graph to the pipeline; structural
// problems (duplicate or empty IDs are rejected at Add time) fail fast there
// rather than mid-run.
//
// # Data Quality
//
// Links that reference unknown individuals are rejected with
// [ErrUnknownIndividual]; loaders are expected to log and skip them rather
// than abort, since a single dangling record should not cost the whole chart.
package gen

import (
	"errors"
	"slices"
)

var (
	// ErrEmptyID is returned by [Graph.AddIndividual] when the individual
	// has no identifier. All individuals must have non-empty IDs.
	ErrEmptyID = errors.New("individual ID must not be empty")

	// ErrDuplicateID is returned by [Graph.AddIndividual] when an individual
	// with the same ID already exists. IDs must be unique.
	ErrDuplicateID = errors.New("duplicate individual ID")

	// ErrUnknownIndividual is returned by [Graph.AddChild] and
	// [Graph.AddSpouse] when either endpoint does not exist in the graph.
	ErrUnknownIndividual = errors.New("unknown individual")

	// ErrSelfLink is returned when a link would connect an individual
	// to itself.
	ErrSelfLink = errors.New("individual cannot be linked to itself")

	// ErrEmptyGraph is returned by [Graph.Validate] for a graph with no
	// individuals. There is nothing to lay out.
	ErrEmptyGraph = errors.New("graph contains no individuals")
)

// Gender is an optional attribute used only as a deterministic tie-breaker
// when ordering spouses; it has no other layout meaning.
type Gender string

// Recognized gender values. Anything else is treated as unknown.
const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = ""
)

// Individual is one person record. The zero value is not usable - ID must
// be set before adding to a Graph. Generation defaults to 0 when absent
// from source data.
type Individual struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Gender     Gender         `json:"gender,omitempty"`
	Generation int            `json:"generation,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Traverser is the read-only graph capability consumed by the layout
// engine. Implementations must be pure for the duration of a pipeline run:
// repeated calls with the same ID return the same records in the same order.
type Traverser interface {
	// ChildrenOf returns the children of the individual, in record order.
	ChildrenOf(id string) []*Individual

	// SpousesOf returns the spouses of the individual, in record order.
	SpousesOf(id string) []*Individual

	// ParentsOf returns the parents of the individual, in record order.
	ParentsOf(id string) []*Individual

	// SiblingsOf returns individuals sharing at least one parent with the
	// individual, excluding the individual itself.
	SiblingsOf(id string) []*Individual
}

// Graph is the concrete relationship graph built from flat records.
// Individuals are kept in insertion order so that every traversal is
// deterministic. Graph is not safe for concurrent mutation; once built it
// is safe for concurrent reads.
type Graph struct {
	individuals map[string]*Individual
	order       []string

	children map[string][]string // parent ID -> ordered child IDs
	parents  map[string][]string // child ID -> ordered parent IDs
	spouses  map[string][]string // ID -> ordered spouse IDs (symmetric)
}

// NewGraph creates an empty relationship graph.
func NewGraph() *Graph {
	return &Graph{
		individuals: make(map[string]*Individual),
		children:    make(map[string][]string),
		parents:     make(map[string][]string),
		spouses:     make(map[string][]string),
	}
}

// AddIndividual adds a person record to the graph.
// Returns ErrEmptyID if the ID is empty or ErrDuplicateID if an individual
// with the same ID already exists.
func (g *Graph) AddIndividual(ind Individual) error {
	if ind.ID == "" {
		return ErrEmptyID
	}
	if _, exists := g.individuals[ind.ID]; exists {
		return ErrDuplicateID
	}
	rec := &ind
	g.individuals[rec.ID] = rec
	g.order = append(g.order, rec.ID)
	return nil
}

// AddChild records a parent→child link between two existing individuals.
// Returns ErrUnknownIndividual if either endpoint is missing, or ErrSelfLink
// if parent == child. Adding the same link twice is a no-op.
func (g *Graph) AddChild(parent, child string) error {
	if parent == child {
		return ErrSelfLink
	}
	if _, ok := g.individuals[parent]; !ok {
		return ErrUnknownIndividual
	}
	if _, ok := g.individuals[child]; !ok {
		return ErrUnknownIndividual
	}
	if slices.Contains(g.children[parent], child) {
		return nil
	}
	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
	return nil
}

// AddSpouse records a symmetric spouse link between two existing individuals.
// Returns ErrUnknownIndividual if either endpoint is missing, or ErrSelfLink
// if a == b. Adding the same link twice is a no-op.
func (g *Graph) AddSpouse(a, b string) error {
	if a == b {
		return ErrSelfLink
	}
	if _, ok := g.individuals[a]; !ok {
		return ErrUnknownIndividual
	}
	if _, ok := g.individuals[b]; !ok {
		return ErrUnknownIndividual
	}
	if slices.Contains(g.spouses[a], b) {
		return nil
	}
	g.spouses[a] = append(g.spouses[a], b)
	g.spouses[b] = append(g.spouses[b], a)
	return nil
}

// Individual returns the record with the given ID and true, or nil and
// false if not found.
func (g *Graph) Individual(id string) (*Individual, bool) {
	ind, ok := g.individuals[id]
	return ind, ok
}

// Individuals returns all records in insertion order.
// The returned slice contains pointers to the actual records.
func (g *Graph) Individuals() []*Individual {
	out := make([]*Individual, len(g.order))
	for i, id := range g.order {
		out[i] = g.individuals[id]
	}
	return out
}

// Count returns the number of individuals in the graph.
func (g *Graph) Count() int { return len(g.individuals) }

// ChildrenOf implements [Traverser].
func (g *Graph) ChildrenOf(id string) []*Individual { return g.resolve(g.children[id]) }

// SpousesOf implements [Traverser].
func (g *Graph) SpousesOf(id string) []*Individual { return g.resolve(g.spouses[id]) }

// ParentsOf implements [Traverser].
func (g *Graph) ParentsOf(id string) []*Individual { return g.resolve(g.parents[id]) }

// SiblingsOf implements [Traverser]. Siblings are individuals that share
// at least one parent, in the parents' child order, deduplicated.
func (g *Graph) SiblingsOf(id string) []*Individual {
	var sibs []*Individual
	seen := map[string]bool{id: true}
	for _, parent := range g.parents[id] {
		for _, child := range g.children[parent] {
			if seen[child] {
				continue
			}
			seen[child] = true
			sibs = append(sibs, g.individuals[child])
		}
	}
	return sibs
}

// Validate checks the graph is usable as pipeline input and returns nil if
// so. Add-time checks already guarantee unique non-empty IDs and resolved
// link endpoints; Validate additionally rejects empty graphs and verifies
// the parent/child indices stayed symmetric.
//
// This runs before any pipeline stage executes: a failure here fails the
// whole run, per the fail-fast contract.
func (g *Graph) Validate() error {
	if len(g.individuals) == 0 {
		return ErrEmptyGraph
	}
	for parent, kids := range g.children {
		for _, child := range kids {
			if !slices.Contains(g.parents[child], parent) {
				return ErrUnknownIndividual
			}
		}
	}
	for a, partners := range g.spouses {
		for _, b := range partners {
			if !slices.Contains(g.spouses[b], a) {
				return ErrUnknownIndividual
			}
		}
	}
	return nil
}

// resolve maps IDs to records, skipping any that are missing.
func (g *Graph) resolve(ids []string) []*Individual {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Individual, 0, len(ids))
	for _, id := range ids {
		if ind, ok := g.individuals[id]; ok {
			out = append(out, ind)
		}
	}
	return out
}

// Ensure Graph implements Traverser.
var _ Traverser = (*Graph)(nil)
