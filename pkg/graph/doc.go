// Package graph defines the scene graph for voxfield.
// The scene graph is an immutable DAG of primitives, transforms, groups
// and CSG operations that describes which space is occupied.
package graph
