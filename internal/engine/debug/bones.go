package debug

import "github.com/Faultbox/marionette/internal/engine/skeleton"

// SkeletonLines returns one line segment per bone, from each joint's parent
// to the joint, in the currently published pose. Format: [x, y, z] per vertex.
func SkeletonLines(skel *skeleton.Skeleton) []float32 {
	palette := skel.GlobalTransformMatrices()

	// Posed joint origins: the skinning matrix times the global bind.
	origins := make([][3]float32, len(palette))
	for i := range palette {
		origins[i] = palette[i].Mul(skel.GlobalBind(i)).TransformPoint([3]float32{})
	}

	lines := make([]float32, 0, 6*(len(palette)-1))
	for i := range origins {
		parent := skel.Joint(i).Parent
		if parent < 0 {
			continue
		}
		p, c := origins[parent], origins[i]
		lines = append(lines, p[0], p[1], p[2], c[0], c[1], c[2])
	}
	return lines
}
