package gen

import (
	"bytes"
	"errors"
	"testing"
)

func buildFamily(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	people := []Individual{
		{ID: "I1", Name: "Arthur", Gender: GenderMale, Generation: 0},
		{ID: "I2", Name: "Beth", Gender: GenderFemale, Generation: 0},
		{ID: "I3", Name: "Cora", Gender: GenderFemale, Generation: 1},
		{ID: "I4", Name: "Dan", Gender: GenderMale, Generation: 1},
	}
	for _, p := range people {
		if err := g.AddIndividual(p); err != nil {
			t.Fatalf("AddIndividual(%s): %v", p.ID, err)
		}
	}
	for _, link := range [][2]string{{"I1", "I3"}, {"I1", "I4"}, {"I2", "I3"}, {"I2", "I4"}} {
		if err := g.AddChild(link[0], link[1]); err != nil {
			t.Fatalf("AddChild(%v): %v", link, err)
		}
	}
	if err := g.AddSpouse("I1", "I2"); err != nil {
		t.Fatalf("AddSpouse: %v", err)
	}
	return g
}

func TestAddIndividual(t *testing.T) {
	g := NewGraph()

	if err := g.AddIndividual(Individual{ID: "I1"}); err != nil {
		t.Fatalf("AddIndividual: %v", err)
	}

	if err := g.AddIndividual(Individual{}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("empty ID error = %v, want ErrEmptyID", err)
	}

	if err := g.AddIndividual(Individual{ID: "I1"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate ID error = %v, want ErrDuplicateID", err)
	}
}

func TestAddChild(t *testing.T) {
	g := NewGraph()
	_ = g.AddIndividual(Individual{ID: "I1"})
	_ = g.AddIndividual(Individual{ID: "I2"})

	if err := g.AddChild("I1", "I2"); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	// Duplicate links are no-ops
	if err := g.AddChild("I1", "I2"); err != nil {
		t.Fatalf("duplicate AddChild: %v", err)
	}
	if n := len(g.ChildrenOf("I1")); n != 1 {
		t.Errorf("children = %d, want 1", n)
	}

	if err := g.AddChild("I1", "missing"); !errors.Is(err, ErrUnknownIndividual) {
		t.Errorf("dangling link error = %v, want ErrUnknownIndividual", err)
	}

	if err := g.AddChild("I1", "I1"); !errors.Is(err, ErrSelfLink) {
		t.Errorf("self link error = %v, want ErrSelfLink", err)
	}
}

func TestTraversal(t *testing.T) {
	g := buildFamily(t)

	kids := g.ChildrenOf("I1")
	if len(kids) != 2 || kids[0].ID != "I3" || kids[1].ID != "I4" {
		t.Errorf("ChildrenOf(I1) = %v, want [I3 I4]", ids(kids))
	}

	parents := g.ParentsOf("I3")
	if len(parents) != 2 || parents[0].ID != "I1" || parents[1].ID != "I2" {
		t.Errorf("ParentsOf(I3) = %v, want [I1 I2]", ids(parents))
	}

	spouses := g.SpousesOf("I2")
	if len(spouses) != 1 || spouses[0].ID != "I1" {
		t.Errorf("SpousesOf(I2) = %v, want [I1]", ids(spouses))
	}

	sibs := g.SiblingsOf("I3")
	if len(sibs) != 1 || sibs[0].ID != "I4" {
		t.Errorf("SiblingsOf(I3) = %v, want [I4]", ids(sibs))
	}
}

func TestValidate(t *testing.T) {
	if err := NewGraph().Validate(); !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("empty graph error = %v, want ErrEmptyGraph", err)
	}

	if err := buildFamily(t).Validate(); err != nil {
		t.Errorf("valid graph error = %v, want nil", err)
	}
}

func TestIndividualsOrder(t *testing.T) {
	g := buildFamily(t)
	got := ids(g.Individuals())
	want := []string{"I1", "I2", "I3", "I4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Individuals() order = %v, want %v", got, want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	g := buildFamily(t)

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	g2, err := Read(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if g2.Count() != g.Count() {
		t.Errorf("Count = %d, want %d", g2.Count(), g.Count())
	}
	if len(g2.ChildrenOf("I1")) != 2 {
		t.Errorf("ChildrenOf(I1) = %d, want 2", len(g2.ChildrenOf("I1")))
	}
	if len(g2.SpousesOf("I1")) != 1 {
		t.Errorf("SpousesOf(I1) = %d, want 1", len(g2.SpousesOf("I1")))
	}
}

func TestBuildSkipsDanglingLinks(t *testing.T) {
	f := File{
		Individuals: []Individual{{ID: "I1"}, {ID: "I2"}},
		Children:    []Link{{From: "I1", To: "I2"}, {From: "I1", To: "ghost"}},
		Spouses:     []Link{{From: "ghost", To: "I2"}},
	}

	g, err := Build(f, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if n := len(g.ChildrenOf("I1")); n != 1 {
		t.Errorf("children = %d, want 1 (dangling link skipped)", n)
	}
	if n := len(g.SpousesOf("I2")); n != 0 {
		t.Errorf("spouses = %d, want 0 (dangling link skipped)", n)
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	f := File{Individuals: []Individual{{ID: "I1"}, {ID: "I1"}}}
	if _, err := Build(f, nil); err == nil {
		t.Error("duplicate individuals should fail the build")
	}
}

func ids(people []*Individual) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}
