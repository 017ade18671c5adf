package graph

import "testing"

func TestNewSceneGraph(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.Grid.Units != "mm" {
		t.Errorf("default units = %q, want %q", g.Grid.Units, "mm")
	}
	if g.Grid.Cell != 0 {
		t.Errorf("undeclared cell = %f, want 0", g.Grid.Cell)
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()

	id := NewNodeID("defshape/block")
	node := &Node{
		ID:   id,
		Kind: NodePrimitive,
		Name: "block",
		Data: BoxData{Size: Vec3{4, 3, 2}},
	}
	g.AddNode(node)
	g.AddRoot(id)

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}

	found := g.Lookup("block")
	if found == nil {
		t.Fatal("Lookup('block') returned nil")
	}
	if found.ID != id {
		t.Errorf("lookup returned wrong node")
	}

	if must := g.MustLookup("block"); must.ID != id {
		t.Errorf("MustLookup returned wrong node")
	}

	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}

	got := g.Get(id)
	if got == nil || got.Name != "block" {
		t.Errorf("Get by ID failed")
	}

	if len(g.Roots) != 1 || g.Roots[0] != id {
		t.Errorf("roots = %v, want [%s]", g.Roots, id.Short())
	}
}

func TestMustLookupPanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic for missing name")
		}
	}()
	g.MustLookup("missing")
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("defshape/ball")
	b := NewNodeID("defshape/ball")
	c := NewNodeID("defshape/rod")

	if a != b {
		t.Error("same path should produce same ID")
	}
	if a == c {
		t.Error("different paths should produce different IDs")
	}
	if a.IsZero() {
		t.Error("derived ID should not be zero")
	}
	if !ZeroID.IsZero() {
		t.Error("ZeroID should be zero")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Short() length = %d, want 12", len(a.Short()))
	}
	if len(a.String()) != 64 {
		t.Errorf("String() length = %d, want 64", len(a.String()))
	}
}

func TestPrimitives(t *testing.T) {
	g := New()
	boxID := NewNodeID("box/0")
	ballID := NewNodeID("sphere/0")
	unionID := NewNodeID("union/0")

	g.AddNode(&Node{ID: boxID, Kind: NodePrimitive, Data: BoxData{Size: Vec3{1, 1, 1}}})
	g.AddNode(&Node{ID: ballID, Kind: NodePrimitive, Data: SphereData{Radius: 2}})
	g.AddNode(&Node{
		ID: unionID, Kind: NodeCSG,
		Children: []NodeID{boxID, ballID},
		Data:     CSGData{Op: CSGUnion},
	})

	if n := len(g.Primitives()); n != 2 {
		t.Errorf("Primitives() = %d nodes, want 2", n)
	}
}

func TestChildrenSkipsDangling(t *testing.T) {
	g := New()
	boxID := NewNodeID("box/0")
	groupID := NewNodeID("scene/0")

	g.AddNode(&Node{ID: boxID, Kind: NodePrimitive, Data: BoxData{Size: Vec3{1, 1, 1}}})
	g.AddNode(&Node{
		ID: groupID, Kind: NodeGroup,
		Children: []NodeID{boxID, NewNodeID("ghost")},
		Data:     GroupData{},
	})

	kids := g.Children(g.Get(groupID))
	if len(kids) != 1 || kids[0].ID != boxID {
		t.Errorf("Children() = %v, want only the box", kids)
	}
}

func TestKindStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{NodePrimitive.String(), "primitive"},
		{NodeTransform.String(), "transform"},
		{NodeGroup.String(), "group"},
		{NodeCSG.String(), "csg"},
		{NodeKind(99).String(), "unknown"},
		{PrimBox.String(), "box"},
		{PrimSphere.String(), "sphere"},
		{PrimCylinder.String(), "cylinder"},
		{CSGUnion.String(), "union"},
		{CSGDifference.String(), "difference"},
		{CSGIntersection.String(), "intersection"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPrimitiveOf(t *testing.T) {
	tests := []struct {
		data NodeData
		kind PrimitiveKind
		ok   bool
	}{
		{BoxData{}, PrimBox, true},
		{SphereData{}, PrimSphere, true},
		{CylinderData{}, PrimCylinder, true},
		{GroupData{}, 0, false},
		{CSGData{}, 0, false},
	}
	for _, tt := range tests {
		kind, ok := PrimitiveOf(tt.data)
		if ok != tt.ok || kind != tt.kind {
			t.Errorf("PrimitiveOf(%T) = (%v, %v), want (%v, %v)", tt.data, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestMinChildren(t *testing.T) {
	if CSGUnion.MinChildren() != 1 {
		t.Errorf("union MinChildren = %d, want 1", CSGUnion.MinChildren())
	}
	if CSGDifference.MinChildren() != 2 {
		t.Errorf("difference MinChildren = %d, want 2", CSGDifference.MinChildren())
	}
	if CSGIntersection.MinChildren() != 2 {
		t.Errorf("intersection MinChildren = %d, want 2", CSGIntersection.MinChildren())
	}
}

func TestVec3(t *testing.T) {
	v := Vec3{1, 2, 3}.Add(Vec3{1, 1, 1}).Scale(2)
	if v != (Vec3{4, 6, 8}) {
		t.Errorf("Add/Scale = %v, want (4, 6, 8)", v)
	}
	if !(Vec3{}).IsZero() || v.IsZero() {
		t.Error("IsZero mismatch")
	}
	if s := (Vec3{1, 2.5, 3}).String(); s != "(1, 2.5, 3)" {
		t.Errorf("String() = %q", s)
	}
}
