package voxelize

import (
	"errors"
	"fmt"

	"github.com/chazu/voxfield/pkg/graph"
	"github.com/chazu/voxfield/pkg/kernel"
)

var (
	// ErrEmptyScene is returned when a graph has no roots to build.
	ErrEmptyScene = errors.New("voxelize: scene has no roots")

	// ErrCycle is returned when a node is reachable from itself.
	ErrCycle = errors.New("voxelize: cycle in scene graph")
)

// builder walks the scene graph bottom-up. Shared subgraphs are built once.
type builder struct {
	g      *graph.SceneGraph
	k      kernel.Kernel
	cache  map[graph.NodeID]kernel.Solid
	// active holds the nodes on the current walk path.
	active map[graph.NodeID]bool
}

// BuildSolid folds every root of g into a single kernel solid: roots and
// groups are unioned, CSG nodes apply their operation to their children in
// order, and transforms rotate then translate their child. The graph is
// read-only and never mutated.
func BuildSolid(g *graph.SceneGraph, k kernel.Kernel) (kernel.Solid, error) {
	if g == nil || len(g.Roots) == 0 {
		return nil, ErrEmptyScene
	}

	b := &builder{
		g:      g,
		k:      k,
		cache:  make(map[graph.NodeID]kernel.Solid),
		active: make(map[graph.NodeID]bool),
	}
	roots := make([]kernel.Solid, 0, len(g.Roots))
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			return nil, fmt.Errorf("voxelize: root %s does not exist", rootID.Short())
		}
		s, err := b.walkNode(root)
		if err != nil {
			return nil, fmt.Errorf("voxelize: error walking root %s: %w", rootID.Short(), err)
		}
		roots = append(roots, s)
	}
	return kernel.Fold(roots, k.Union)
}

// walkNode returns the solid for n, building it on first use.
func (b *builder) walkNode(n *graph.Node) (kernel.Solid, error) {
	if s, ok := b.cache[n.ID]; ok {
		return s, nil
	}
	if b.active[n.ID] {
		return nil, fmt.Errorf("%w through %s", ErrCycle, label(n))
	}
	b.active[n.ID] = true
	defer delete(b.active, n.ID)

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = b.handlePrimitive(n)
	case graph.NodeTransform:
		s, err = b.handleTransform(n)
	case graph.NodeGroup:
		s, err = b.handleGroup(n)
	case graph.NodeCSG:
		s, err = b.handleCSG(n)
	default:
		err = fmt.Errorf("unknown node kind: %v", n.Kind)
	}
	if err != nil {
		return nil, err
	}

	b.cache[n.ID] = s
	return s, nil
}

// handlePrimitive creates geometry for a primitive node.
func (b *builder) handlePrimitive(n *graph.Node) (kernel.Solid, error) {
	var (
		s   kernel.Solid
		err error
	)
	switch data := n.Data.(type) {
	case graph.BoxData:
		s, err = b.k.Box(data.Size.X, data.Size.Y, data.Size.Z)
	case graph.SphereData:
		s, err = b.k.Sphere(data.Radius)
	case graph.CylinderData:
		s, err = b.k.Cylinder(data.Height, data.Radius)
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("primitive node %s: %w", label(n), err)
	}
	return s, nil
}

// handleTransform builds the child and applies rotation first, then
// translation.
func (b *builder) handleTransform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	s, err := b.unionChildren(n)
	if err != nil {
		return nil, err
	}

	if rot := td.Rotation; rot != nil && !rot.IsZero() {
		s = b.k.Rotate(s, rot.X, rot.Y, rot.Z)
	}
	if tr := td.Translation; tr != nil && !tr.IsZero() {
		s = b.k.Translate(s, tr.X, tr.Y, tr.Z)
	}
	return s, nil
}

// handleGroup unions its children.
func (b *builder) handleGroup(n *graph.Node) (kernel.Solid, error) {
	return b.unionChildren(n)
}

// handleCSG combines its children in order with the node's operation.
func (b *builder) handleCSG(n *graph.Node) (kernel.Solid, error) {
	cd, ok := n.Data.(graph.CSGData)
	if !ok {
		return nil, fmt.Errorf("csg node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	var op func(a, c kernel.Solid) kernel.Solid
	switch cd.Op {
	case graph.CSGUnion:
		op = b.k.Union
	case graph.CSGDifference:
		op = b.k.Difference
	case graph.CSGIntersection:
		op = b.k.Intersection
	default:
		return nil, fmt.Errorf("csg node %s has unknown op %v", n.ID.Short(), cd.Op)
	}

	kids, err := b.children(n)
	if err != nil {
		return nil, err
	}
	if len(kids) < cd.Op.MinChildren() {
		return nil, fmt.Errorf("%s node %s has %d operands, needs %d", cd.Op, label(n), len(kids), cd.Op.MinChildren())
	}
	return kernel.Fold(kids, op)
}

func (b *builder) unionChildren(n *graph.Node) (kernel.Solid, error) {
	kids, err := b.children(n)
	if err != nil {
		return nil, err
	}
	s, err := kernel.Fold(kids, b.k.Union)
	if err != nil {
		return nil, fmt.Errorf("%s node %s: %w", n.Kind, label(n), err)
	}
	return s, nil
}

func (b *builder) children(n *graph.Node) ([]kernel.Solid, error) {
	kids := make([]kernel.Solid, 0, len(n.Children))
	for _, cid := range n.Children {
		child := b.g.Get(cid)
		if child == nil {
			return nil, fmt.Errorf("node %s: child %s does not exist", label(n), cid.Short())
		}
		s, err := b.walkNode(child)
		if err != nil {
			return nil, err
		}
		kids = append(kids, s)
	}
	return kids, nil
}

// label prefers the node's name and falls back to its short ID.
func label(n *graph.Node) string {
	if n.Name != "" {
		return fmt.Sprintf("%q", n.Name)
	}
	return n.ID.Short()
}
