package model

import (
	gomath "math"

	"github.com/Faultbox/marionette/pkg/math"
)

// Cross computes the cross product of two 3D vectors.
func Cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Normalize returns a unit vector in the same direction as v.
func Normalize(v [3]float32) [3]float32 {
	length := sqrtf(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}

// SkinPosition applies linear blend skinning to a vertex on the CPU. palette
// is indexed by bone ID. Weights that sum to zero leave the vertex in place.
func SkinPosition(v *Vertex, palette []math.Mat4) [3]float32 {
	var out [3]float32
	var total float32
	for i := range v.BoneIDs {
		w := v.BoneWeights[i]
		id := int(v.BoneIDs[i])
		if w == 0 || id < 0 || id >= len(palette) {
			continue
		}
		p := palette[id].TransformPoint(v.Position)
		out[0] += p[0] * w
		out[1] += p[1] * w
		out[2] += p[2] * w
		total += w
	}
	if total == 0 {
		return v.Position
	}
	return out
}

func sqrtf(x float32) float32 {
	return float32(gomath.Sqrt(float64(x)))
}
