package graph

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // axis-aligned box, min corner at origin
	PrimSphere                        // sphere centred on the origin
	PrimCylinder                      // cylinder along Z centred on the origin
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimSphere:
		return "sphere"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// BoxData is a rectangular solid.
type BoxData struct {
	Size Vec3 `json:"size"`
}

func (BoxData) nodeData() {}

// SphereData is a sphere.
type SphereData struct {
	Radius float64 `json:"radius"`
}

func (SphereData) nodeData() {}

// CylinderData is a cylinder whose axis is Z.
type CylinderData struct {
	Height float64 `json:"height"`
	Radius float64 `json:"radius"`
}

func (CylinderData) nodeData() {}

// PrimitiveOf returns the kind of a primitive payload and false for any
// other payload.
func PrimitiveOf(d NodeData) (PrimitiveKind, bool) {
	switch d.(type) {
	case BoxData:
		return PrimBox, true
	case SphereData:
		return PrimSphere, true
	case CylinderData:
		return PrimCylinder, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Created by the (place ...) Lisp form. Rotation is applied before
// translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a named collection whose occupancy is the union of
// its children. Created by the (scene ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}

// ---------------------------------------------------------------------------
// CSG
// ---------------------------------------------------------------------------

// CSGOp enumerates boolean operations.
type CSGOp int

const (
	CSGUnion        CSGOp = iota // any child
	CSGDifference                // first child minus all others
	CSGIntersection              // every child
)

func (op CSGOp) String() string {
	switch op {
	case CSGUnion:
		return "union"
	case CSGDifference:
		return "difference"
	case CSGIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// MinChildren is the smallest number of operands op accepts.
func (op CSGOp) MinChildren() int {
	if op == CSGUnion {
		return 1
	}
	return 2
}

// CSGData combines the node's children in order.
type CSGData struct {
	Op CSGOp `json:"op"`
}

func (CSGData) nodeData() {}
