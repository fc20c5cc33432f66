package gen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
)

// File is the canonical serialization format for relationship graphs.
// The format is human-readable and designed for round-trip fidelity:
// import → layout → export → re-import produces identical structure.
type File struct {
	Individuals []Individual `json:"individuals"`
	Children    []Link       `json:"children,omitempty"`
	Spouses     []Link       `json:"spouses,omitempty"`
}

// Link is one directed relationship record. For child links From is the
// parent; for spouse links the direction carries no meaning.
type Link struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Export converts a Graph to its serialization format.
// Individuals keep insertion order; links are sorted for deterministic
// output. Spouse links are emitted once per pair (From < To).
func Export(g *Graph) File {
	f := File{Individuals: make([]Individual, 0, g.Count())}

	for _, ind := range g.Individuals() {
		f.Individuals = append(f.Individuals, *ind)
	}

	for _, parent := range g.order {
		for _, child := range g.children[parent] {
			f.Children = append(f.Children, Link{From: parent, To: child})
		}
	}

	for _, a := range g.order {
		for _, b := range g.spouses[a] {
			if a < b {
				f.Spouses = append(f.Spouses, Link{From: a, To: b})
			}
		}
	}

	slices.SortFunc(f.Children, compareLinks)
	slices.SortFunc(f.Spouses, compareLinks)
	return f
}

// Build converts a File to a Graph.
//
// Structural problems with individuals (empty or duplicate IDs) are fatal
// and abort the build. Links referencing unknown individuals are data
// quality problems: they are logged at warn level and skipped, never
// returned as errors. Pass nil to discard the warnings.
func Build(f File, logger *log.Logger) (*Graph, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	g := NewGraph()
	for _, ind := range f.Individuals {
		if err := errors.ValidateIndividualID(ind.ID); err != nil {
			return nil, err
		}
		if err := g.AddIndividual(ind); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "individual %q", ind.ID)
		}
	}

	for _, l := range f.Children {
		if err := g.AddChild(l.From, l.To); err != nil {
			logger.Warn("skipping child link", "from", l.From, "to", l.To, "reason", err)
		}
	}

	for _, l := range f.Spouses {
		if err := g.AddSpouse(l.From, l.To); err != nil {
			logger.Warn("skipping spouse link", "from", l.From, "to", l.To, "reason", err)
		}
	}

	return g, nil
}

// Marshal serializes a Graph to pretty-printed JSON bytes.
func Marshal(g *Graph) ([]byte, error) {
	return json.MarshalIndent(Export(g), "", "  ")
}

// Read deserializes a Graph from JSON. Link problems are logged to logger
// and skipped; see Build.
func Read(r io.Reader, logger *log.Logger) (*Graph, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode relationship data")
	}
	return Build(f, logger)
}

// ReadFile reads a Graph from a JSON file.
func ReadFile(path string, logger *log.Logger) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer file.Close()
	return Read(file, logger)
}

func compareLinks(a, b Link) int {
	if a.From != b.From {
		if a.From < b.From {
			return -1
		}
		return 1
	}
	if a.To < b.To {
		return -1
	}
	if a.To > b.To {
		return 1
	}
	return 0
}
