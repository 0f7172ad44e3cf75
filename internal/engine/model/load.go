package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/engine/animation"
	"github.com/Faultbox/marionette/internal/engine/skeleton"
	"github.com/Faultbox/marionette/internal/engine/skin"
	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
	"github.com/Faultbox/marionette/pkg/math"
)

// AnimatedMesh is a skinned mesh bound to its skeleton and playing clip.
// Static meshes loaded through Load have a nil Skeleton and Player.
type AnimatedMesh struct {
	*Mesh
	Skeleton *skeleton.Skeleton
	Player   *animation.Player

	// byID is set when bone IDs differ from the skeleton's pre-order, so the
	// palette has to be reindexed for the vertex bone IDs.
	byID bool
}

// Animated reports whether the mesh has a skeleton and clip.
func (m *AnimatedMesh) Animated() bool {
	return m.Player != nil
}

// Update advances playback by a wall-clock delta.
func (m *AnimatedMesh) Update(dt float32) error {
	if m.Player == nil {
		return nil
	}
	return m.Player.Update(dt)
}

// Palette returns the skinning matrices of the last published pose, indexed
// the same way as the vertex bone IDs. Static meshes return nil.
func (m *AnimatedMesh) Palette() []math.Mat4 {
	if m.Skeleton == nil {
		return nil
	}
	if m.byID {
		return m.Skeleton.PaletteByID()
	}
	return m.Skeleton.GlobalTransformMatrices()
}

// SkinnedBounds returns the bounds of the mesh in its current pose, skinned
// on the CPU.
func (m *AnimatedMesh) SkinnedBounds() Bounds {
	palette := m.Palette()
	if palette == nil {
		return m.Bounds
	}
	b := emptyBounds()
	for i := range m.Vertices {
		updateBounds(&b, SkinPosition(&m.Vertices[i], palette))
	}
	return b
}

// Load imports the document as an animated mesh when it carries both a skin
// and animation channels, and as a static mesh otherwise.
func Load(doc *dae.Document, opts LoadOptions) (*AnimatedMesh, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.HasSkin() && doc.HasAnimation() {
		return LoadAnimated(doc, opts)
	}

	mesh, err := LoadStatic(doc)
	if err != nil {
		return nil, err
	}
	return &AnimatedMesh{Mesh: mesh}, nil
}

// LoadStatic imports only the document's mesh.
func LoadStatic(doc *dae.Document) (*Mesh, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	mesh, err := BuildMesh(doc.Mesh, doc.UpAxis)
	if err != nil {
		return nil, fmt.Errorf("building mesh: %w", err)
	}
	logger.Debug("static mesh loaded",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", len(mesh.Indices)/3))
	return mesh, nil
}

// LoadAnimated imports a skinned mesh: vertex streams, per-vertex bone
// influences, the skeleton with its bind pose, and the clip bound to a
// player at time 0. Any failure aborts the whole load.
func LoadAnimated(doc *dae.Document, opts LoadOptions) (*AnimatedMesh, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if !doc.HasSkin() {
		return nil, ErrNoSkin
	}
	if !doc.HasAnimation() {
		return nil, ErrNoAnimation
	}

	mesh, err := BuildMesh(doc.Mesh, doc.UpAxis)
	if err != nil {
		return nil, fmt.Errorf("building mesh: %w", err)
	}

	influences, err := skin.Extract(*doc.Skin, len(mesh.Vertices))
	if err != nil {
		return nil, fmt.Errorf("extracting skin weights: %w", err)
	}
	if err := ApplyInfluences(mesh.Vertices, influences, len(doc.Skin.BoneNames)); err != nil {
		return nil, err
	}

	skel, err := buildSkeleton(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("building skeleton: %w", err)
	}
	if err := CheckBoneJoints(mesh.Vertices, skel); err != nil {
		return nil, err
	}

	clip, err := animation.Assemble(doc.Channels, animation.NewNameResolver(skel.Names()))
	if err != nil {
		return nil, fmt.Errorf("assembling clip: %w", err)
	}

	var playerOpts []animation.PlayerOption
	if opts.BindPoseFallback {
		playerOpts = append(playerOpts, animation.WithBindPoseFallback())
	}
	if opts.Speed != 0 {
		playerOpts = append(playerOpts, animation.WithSpeed(opts.Speed))
	}
	if opts.StartPaused {
		playerOpts = append(playerOpts, animation.WithPaused())
	}
	player, err := animation.NewPlayer(skel, clip, playerOpts...)
	if err != nil {
		return nil, fmt.Errorf("binding clip: %w", err)
	}

	m := &AnimatedMesh{
		Mesh:     mesh,
		Skeleton: skel,
		Player:   player,
		byID:     !skel.IDsMatchOrder(),
	}
	if m.byID {
		logger.Warn("bone ids differ from joint order, palette will be reindexed by bone id")
	}

	logger.Info("animated mesh loaded",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("joints", skel.Len()),
		zap.Int("keyframes", clip.Len()),
		zap.Float32("duration", clip.Duration()),
		zap.String("up_axis", string(mesh.UpAxis)))
	return m, nil
}

func buildSkeleton(doc *dae.Document, opts LoadOptions) (*skeleton.Skeleton, error) {
	root, err := doc.SkeletonRoot()
	if err != nil {
		return nil, err
	}
	bones, err := skeleton.NewBoneTable(doc.Skin.BoneNames)
	if err != nil {
		return nil, err
	}
	return skeleton.Build(root, bones, skeleton.WithLenientLookup(opts.LenientJoints))
}

// ApplyInfluences writes per-vertex bone influences into the vertex records.
func ApplyInfluences(vertices []Vertex, influences []skin.Influence, boneCount int) error {
	if len(influences) != len(vertices) {
		return fmt.Errorf("%w: %d influences for %d vertices", ErrInfluenceCount, len(influences), len(vertices))
	}
	for i := range vertices {
		in := influences[i]
		for s := range in.BoneIDs {
			if in.Weights[s] != 0 && (in.BoneIDs[s] < 0 || int(in.BoneIDs[s]) >= boneCount) {
				return fmt.Errorf("%w: vertex %d slot %d bone %v", ErrBoneIDOutOfRange, i, s, in.BoneIDs[s])
			}
		}
		vertices[i].BoneIDs = in.BoneIDs
		vertices[i].BoneWeights = in.Weights
	}
	return nil
}

// CheckBoneJoints rejects vertices weighted to a bone that no joint of skel
// drives. Such a bone never gets a palette entry.
func CheckBoneJoints(vertices []Vertex, skel *skeleton.Skeleton) error {
	driven := make(map[int]bool)
	for i := range vertices {
		v := &vertices[i]
		for s := range v.BoneIDs {
			if v.BoneWeights[s] == 0 {
				continue
			}
			id := int(v.BoneIDs[s])
			ok, seen := driven[id]
			if !seen {
				ok = skel.HasBone(id)
				driven[id] = ok
			}
			if !ok {
				return fmt.Errorf("%w: vertex %d slot %d bone %d", ErrOrphanBone, i, s, id)
			}
		}
	}
	return nil
}
