package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	gencache "github.com/kevinmaes/generation-art-sub002/pkg/cache"
	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
	"github.com/kevinmaes/generation-art-sub002/pkg/pipeline"
	"github.com/kevinmaes/generation-art-sub002/pkg/visual"
	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

const familyJSON = `{
  "individuals": [
    {"id": "I1", "name": "Ada", "gender": "F", "generation": 0},
    {"id": "I2", "name": "Ben", "gender": "M", "generation": 0},
    {"id": "I3", "name": "Cleo", "generation": 1}
  ],
  "children": [
    {"from": "I1", "to": "I3"},
    {"from": "I2", "to": "I3"}
  ],
  "spouses": [
    {"from": "I1", "to": "I2"}
  ]
}`

func testCLI() *CLI {
	return New(io.Discard, log.ErrorLevel)
}

func testCtx() context.Context {
	return withLogger(context.Background(), log.New(io.Discard))
}

func writeFamily(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "family.json")
	if err := os.WriteFile(path, []byte(familyJSON), 0o644); err != nil {
		t.Fatalf("write family: %v", err)
	}
	return path
}

func TestRunLayoutWritesDocument(t *testing.T) {
	c := testCLI()
	input := writeFamily(t)

	err := c.runLayout(testCtx(), input, "", walker.Config{}, nil, true, true)
	if err != nil {
		t.Fatalf("runLayout() error = %v", err)
	}

	output := filepath.Join(filepath.Dir(input), "family.layout.json")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	doc, err := visual.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}

	if len(doc.Individuals) != 3 {
		t.Errorf("document has %d individuals, want 3", len(doc.Individuals))
	}
	for _, id := range []string{"I1", "I2", "I3"} {
		attrs, ok := doc.Individuals[id]
		if !ok {
			t.Fatalf("document missing individual %s", id)
		}
		if _, ok := attrs.Float(visual.AttrX); !ok {
			t.Errorf("individual %s has no x attribute", id)
		}
	}
}

func TestRunLayoutExplicitOutput(t *testing.T) {
	c := testCLI()
	input := writeFamily(t)
	output := filepath.Join(t.TempDir(), "custom.json")

	if err := c.runLayout(testCtx(), input, output, walker.Config{}, nil, true, true); err != nil {
		t.Fatalf("runLayout() error = %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunLayoutMissingInput(t *testing.T) {
	c := testCLI()
	err := c.runLayout(testCtx(), filepath.Join(t.TempDir(), "nope.json"), "", walker.Config{}, nil, true, true)
	if err == nil {
		t.Error("runLayout() error = nil for missing input, want error")
	}
}

func TestDocumentKeyStableAndSensitive(t *testing.T) {
	g := mustTestGraph(t)
	stages, err := pipeline.ParseStages(nil)
	if err != nil {
		t.Fatalf("ParseStages(nil) error = %v", err)
	}

	k1, ok := documentKey(gencache.NewDefaultKeyer(), g, stages, walker.Config{})
	if !ok {
		t.Fatal("documentKey() not ok")
	}
	k2, _ := documentKey(gencache.NewDefaultKeyer(), g, stages, walker.Config{})
	if k1 != k2 {
		t.Errorf("documentKey() not deterministic: %q vs %q", k1, k2)
	}

	k3, _ := documentKey(gencache.NewDefaultKeyer(), g, stages, walker.Config{CanvasWidth: 1920})
	if k1 == k3 {
		t.Error("documentKey() ignored canvas width change")
	}

	short, err := pipeline.ParseStages([]string{"tree-layout"})
	if err != nil {
		t.Fatalf("ParseStages() error = %v", err)
	}
	k4, _ := documentKey(gencache.NewDefaultKeyer(), g, short, walker.Config{})
	if k1 == k4 {
		t.Error("documentKey() ignored stage list change")
	}
}

func mustTestGraph(t *testing.T) *gen.Graph {
	t.Helper()
	f := gen.File{
		Individuals: []gen.Individual{
			{ID: "I1", Generation: 0},
			{ID: "I2", Generation: 1},
		},
		Children: []gen.Link{{From: "I1", To: "I2"}},
	}
	g, err := gen.Build(f, log.New(io.Discard))
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

// recordingCache is an in-memory cache that tracks hits, writes and the
// keys and TTLs used.
type recordingCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	hits int
	sets int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (r *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := r.data[key]
	if ok {
		r.hits++
	}
	return data, ok, nil
}

func (r *recordingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	r.data[key] = data
	r.ttls[key] = ttl
	r.sets++
	return nil
}

func (r *recordingCache) Delete(ctx context.Context, key string) error {
	delete(r.data, key)
	return nil
}

func (r *recordingCache) Close() error { return nil }

func TestLoadGraphCachesNormalizedForm(t *testing.T) {
	c := testCLI()
	input := writeFamily(t)
	store := newRecordingCache()
	keyer := gencache.NewDefaultKeyer()

	g1, err := c.loadGraph(testCtx(), store, keyer, input)
	if err != nil {
		t.Fatalf("loadGraph() error = %v", err)
	}
	if store.sets != 1 {
		t.Fatalf("first load wrote %d cache entries, want 1", store.sets)
	}
	for key, ttl := range store.ttls {
		if !strings.HasPrefix(key, "graph:") {
			t.Errorf("cache key = %q, want graph: prefix", key)
		}
		if ttl != gencache.TTLGraph {
			t.Errorf("cache TTL = %v, want %v", ttl, gencache.TTLGraph)
		}
	}

	g2, err := c.loadGraph(testCtx(), store, keyer, input)
	if err != nil {
		t.Fatalf("second loadGraph() error = %v", err)
	}
	if store.hits != 1 {
		t.Errorf("second load hit the cache %d times, want 1", store.hits)
	}
	if store.sets != 1 {
		t.Errorf("second load wrote %d more cache entries, want 0", store.sets-1)
	}
	if g1.Count() != g2.Count() {
		t.Errorf("cached graph has %d individuals, want %d", g2.Count(), g1.Count())
	}
}

func TestLoadGraphChangedFileMisses(t *testing.T) {
	c := testCLI()
	input := writeFamily(t)
	store := newRecordingCache()
	keyer := gencache.NewDefaultKeyer()

	if _, err := c.loadGraph(testCtx(), store, keyer, input); err != nil {
		t.Fatalf("loadGraph() error = %v", err)
	}

	grown := strings.Replace(familyJSON, `{"id": "I3", "name": "Cleo", "generation": 1}`,
		`{"id": "I3", "name": "Cleo", "generation": 1}, {"id": "I4", "generation": 1}`, 1)
	if err := os.WriteFile(input, []byte(grown), 0o644); err != nil {
		t.Fatalf("rewrite family: %v", err)
	}

	g, err := c.loadGraph(testCtx(), store, keyer, input)
	if err != nil {
		t.Fatalf("loadGraph() after change error = %v", err)
	}
	if store.hits != 0 {
		t.Errorf("changed file hit the cache %d times, want 0", store.hits)
	}
	if g.Count() != 4 {
		t.Errorf("reloaded graph has %d individuals, want 4", g.Count())
	}
}
