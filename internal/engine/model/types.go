// Package model imports skinned and static meshes from scene documents and
// binds their skeleton and animation clip for playback.
package model

import (
	gomath "math"

	"github.com/Faultbox/marionette/pkg/dae"
	"github.com/Faultbox/marionette/pkg/math"
)

// Vertex represents a mesh vertex with position, normal, texture coordinates,
// color and up to three bone influences.
type Vertex struct {
	Position    [3]float32
	Normal      [3]float32
	TexCoord    [2]float32
	Color       [3]float32
	BoneIDs     [3]float32
	BoneWeights [3]float32
}

// Mesh holds the complete mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
	UpAxis   dae.UpAxis
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Radius returns half the box diagonal.
func (b Bounds) Radius() float32 {
	d := [3]float32{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
	return sqrtf(d[0]*d[0]+d[1]*d[1]+d[2]*d[2]) / 2
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

// UpAxisCorrection returns the model matrix that turns a document authored
// with the given up axis into the engine's Y-up frame.
func UpAxisCorrection(axis dae.UpAxis) math.Mat4 {
	switch axis {
	case dae.ZUp:
		return math.RotateX(-gomath.Pi / 2)
	case dae.XUp:
		return math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2).ToMat4()
	default:
		return math.Identity()
	}
}

// LoadOptions contains options for animated mesh import.
type LoadOptions struct {
	// LenientJoints maps joints missing from the skin's bone table to bone 0
	// instead of failing the load.
	LenientJoints bool
	// BindPoseFallback poses joints missing from a keyframe with their bind
	// transform instead of failing the frame.
	BindPoseFallback bool
	// Speed is the playback speed multiplier; zero means 1.
	Speed float32
	// StartPaused creates the player in the Paused state.
	StartPaused bool
}
