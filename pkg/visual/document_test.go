package visual

import (
	"reflect"
	"testing"
)

func TestMergeOverlay(t *testing.T) {
	base := NewDocument()
	base.Individuals["I1"] = AttrMap{"x": 10.0, "y": 20.0, "color": "red"}
	base.Tree["scale"] = 1.0

	partial := &Document{
		Individuals: map[string]AttrMap{
			"I1": {"x": 15.0},
			"I2": {"y": 5.0},
		},
		Tree: AttrMap{"bounds": map[string]any{"w": 100.0}},
	}

	out := Merge(base, partial)

	// Overlaid key updated
	if x, _ := out.Individuals["I1"].Float("x"); x != 15.0 {
		t.Errorf("I1.x = %v, want 15", x)
	}
	// Keys absent from the partial survive
	if y, _ := out.Individuals["I1"].Float("y"); y != 20.0 {
		t.Errorf("I1.y = %v, want 20 (must not be removed)", y)
	}
	if out.Individuals["I1"]["color"] != "red" {
		t.Error("I1.color removed by merge")
	}
	// New entities appear
	if _, ok := out.Individuals["I2"]; !ok {
		t.Error("I2 missing after merge")
	}
	// Tree section overlaid alongside existing keys
	if out.Tree["scale"] != 1.0 {
		t.Error("tree.scale removed by merge")
	}
	if _, ok := out.Tree["bounds"]; !ok {
		t.Error("tree.bounds missing after merge")
	}

	// Inputs unchanged
	if x, _ := base.Individuals["I1"].Float("x"); x != 10.0 {
		t.Errorf("base mutated: I1.x = %v", x)
	}
}

func TestMergeEmptyPartialIsIdentity(t *testing.T) {
	base := NewDocument()
	base.Individuals["I1"] = AttrMap{"x": 1.0}
	base.Edges["E1"] = AttrMap{"kind": "parent"}
	base.Global["canvas"] = "a4"

	for _, partial := range []*Document{nil, {}, NewDocument()} {
		out := Merge(base, partial)
		if !reflect.DeepEqual(out, base.Clone()) {
			t.Errorf("Merge(base, %+v) changed the document", partial)
		}
	}
}

func TestMergeNestedMaps(t *testing.T) {
	base := NewDocument()
	base.Tree["bounds"] = map[string]any{"minX": 0.0, "maxX": 50.0}

	partial := &Document{Tree: AttrMap{"bounds": map[string]any{"maxX": 80.0}}}
	out := Merge(base, partial)

	bounds, ok := out.Tree["bounds"].(map[string]any)
	if !ok {
		t.Fatalf("tree.bounds = %T, want map", out.Tree["bounds"])
	}
	if bounds["minX"] != 0.0 {
		t.Errorf("bounds.minX = %v, want 0 (deep merge keeps sibling keys)", bounds["minX"])
	}
	if bounds["maxX"] != 80.0 {
		t.Errorf("bounds.maxX = %v, want 80", bounds["maxX"])
	}
}

func TestCloneIsolation(t *testing.T) {
	base := NewDocument()
	base.Individuals["I1"] = AttrMap{"x": 1.0}

	clone := base.Clone()
	clone.Individuals["I1"]["x"] = 99.0
	clone.Individuals["I2"] = AttrMap{}

	if x, _ := base.Individuals["I1"].Float("x"); x != 1.0 {
		t.Errorf("clone mutation leaked into base: x = %v", x)
	}
	if _, ok := base.Individuals["I2"]; ok {
		t.Error("clone entity leaked into base")
	}
}

func TestAttrMapFloat(t *testing.T) {
	a := AttrMap{"f": 2.5, "i": 3, "s": "nope"}

	if v, ok := a.Float("f"); !ok || v != 2.5 {
		t.Errorf("Float(f) = %v, %v", v, ok)
	}
	if v, ok := a.Float("i"); !ok || v != 3.0 {
		t.Errorf("Float(i) = %v, %v", v, ok)
	}
	if _, ok := a.Float("s"); ok {
		t.Error("Float(s) should not be ok")
	}
	if _, ok := a.Float("missing"); ok {
		t.Error("Float(missing) should not be ok")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	d := NewDocument()
	d.Individuals["I1"] = AttrMap{"x": 12.5, "label": "Ada"}
	d.Tree["treeCount"] = 2.0

	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	d2, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if x, _ := d2.Individuals["I1"].Float("x"); x != 12.5 {
		t.Errorf("round-trip x = %v, want 12.5", x)
	}
	if d2.Individuals["I1"]["label"] != "Ada" {
		t.Errorf("round-trip label = %v", d2.Individuals["I1"]["label"])
	}
}
