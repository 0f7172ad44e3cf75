package model

import (
	"errors"
	"fmt"

	"github.com/Faultbox/marionette/pkg/dae"
)

// Mesh import errors.
var (
	ErrNoMesh           = errors.New("document has no mesh")
	ErrStreamLength     = errors.New("vertex stream length differs from position count")
	ErrIndexCount       = errors.New("index count is not a multiple of 3")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrInfluenceCount   = errors.New("influence count differs from vertex count")
	ErrBoneIDOutOfRange = errors.New("vertex bone id out of range")
	ErrOrphanBone       = errors.New("vertex bound to a bone with no joint")
	ErrNilDocument      = errors.New("nil document")
	ErrNoSkin           = errors.New("document has no skin")
	ErrNoAnimation      = errors.New("document has no animation channels")
)

// BuildMesh converts the document's mesh streams to vertices. Missing normals
// are generated from the triangles; missing colors default to white.
func BuildMesh(src *dae.Mesh, up dae.UpAxis) (*Mesh, error) {
	if src == nil || len(src.Positions) == 0 {
		return nil, ErrNoMesh
	}

	n := len(src.Positions)
	streams := []struct {
		name  string
		count int
	}{
		{"normals", len(src.Normals)},
		{"texcoords", len(src.TexCoords)},
		{"colors", len(src.Colors)},
	}
	for _, st := range streams {
		if st.count != 0 && st.count != n {
			return nil, fmt.Errorf("%w: %d %s for %d positions", ErrStreamLength, st.count, st.name, n)
		}
	}

	if len(src.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrIndexCount, len(src.Indices))
	}
	for i, idx := range src.Indices {
		if int(idx) >= n {
			return nil, fmt.Errorf("%w: index %d is %d, have %d vertices", ErrIndexOutOfRange, i, idx, n)
		}
	}

	bounds := emptyBounds()
	vertices := make([]Vertex, n)
	for i := range vertices {
		v := &vertices[i]
		v.Position = src.Positions[i]
		v.Color = [3]float32{1, 1, 1}
		if len(src.Normals) > 0 {
			v.Normal = src.Normals[i]
		}
		if len(src.TexCoords) > 0 {
			v.TexCoord = src.TexCoords[i]
		}
		if len(src.Colors) > 0 {
			v.Color = src.Colors[i]
		}
		updateBounds(&bounds, v.Position)
	}

	indices := append([]uint32(nil), src.Indices...)
	if len(src.Normals) == 0 {
		GenerateNormals(vertices, indices)
	}

	if up == "" {
		up = dae.YUp
	}
	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
		UpAxis:   up,
	}, nil
}

// GenerateNormals sets each vertex normal to the normalized sum of the face
// normals of the triangles sharing it. Degenerate triangles are skipped.
func GenerateNormals(vertices []Vertex, indices []uint32) {
	sums := make([][3]float32, len(vertices))

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		v0, v1, v2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		e1 := [3]float32{v1[0] - v0[0], v1[1] - v0[1], v1[2] - v0[2]}
		e2 := [3]float32{v2[0] - v0[0], v2[1] - v0[1], v2[2] - v0[2]}
		normal := Cross(e1, e2)

		// Degenerate triangle detection
		if sqrtf(normal[0]*normal[0]+normal[1]*normal[1]+normal[2]*normal[2]) < 1e-5 {
			continue
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			sums[idx][0] += normal[0]
			sums[idx][1] += normal[1]
			sums[idx][2] += normal[2]
		}
	}

	for i := range vertices {
		vertices[i].Normal = Normalize(sums[i])
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	if p[0] < b.Min[0] {
		b.Min[0] = p[0]
	}
	if p[1] < b.Min[1] {
		b.Min[1] = p[1]
	}
	if p[2] < b.Min[2] {
		b.Min[2] = p[2]
	}
	if p[0] > b.Max[0] {
		b.Max[0] = p[0]
	}
	if p[1] > b.Max[1] {
		b.Max[1] = p[1]
	}
	if p[2] > b.Max[2] {
		b.Max[2] = p[2]
	}
}
