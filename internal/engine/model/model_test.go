package model

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/marionette/internal/engine/animation"
	"github.com/Faultbox/marionette/internal/engine/skeleton"
	"github.com/Faultbox/marionette/internal/engine/skin"
	"github.com/Faultbox/marionette/pkg/dae"
	"github.com/Faultbox/marionette/pkg/math"
)

func loadChain(t *testing.T) *dae.Document {
	t.Helper()
	doc, err := dae.LoadFile("../../../pkg/dae/testdata/chain.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return doc
}

func near(a, b [3]float32, eps float64) bool {
	for i := range a {
		if gomath.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestLoadAnimated(t *testing.T) {
	m, err := LoadAnimated(loadChain(t), LoadOptions{})
	if err != nil {
		t.Fatalf("LoadAnimated() error = %v", err)
	}

	if !m.Animated() {
		t.Error("Animated() = false")
	}
	if len(m.Vertices) != 3 || len(m.Indices) != 3 {
		t.Fatalf("got %d vertices, %d indices; want 3, 3", len(m.Vertices), len(m.Indices))
	}
	if m.UpAxis != dae.YUp {
		t.Errorf("UpAxis = %s, want %s", m.UpAxis, dae.YUp)
	}

	v := m.Vertices[1]
	if v.BoneIDs != [3]float32{0, 1, 0} || v.BoneWeights != [3]float32{0.5, 0.5, 0} {
		t.Errorf("vertex 1 bones = %v weights %v", v.BoneIDs, v.BoneWeights)
	}
	if v.Normal != [3]float32{0, 0, 1} {
		t.Errorf("vertex 1 normal = %v, want document normal", v.Normal)
	}
	if v.Color != [3]float32{1, 1, 1} {
		t.Errorf("vertex 1 color = %v, want white", v.Color)
	}

	if m.Skeleton.Len() != 2 {
		t.Errorf("skeleton has %d joints, want 2", m.Skeleton.Len())
	}
	palette := m.Palette()
	if len(palette) != 2 {
		t.Fatalf("len(Palette()) = %d, want 2", len(palette))
	}
	for i := range palette {
		if !palette[i].ApproxEqual(math.Identity(), 1e-6) {
			t.Errorf("palette[%d] at time 0 = %v, want identity", i, palette[i])
		}
	}

	if err := m.Update(0.25); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if m.Player.Time() != 0.25 {
		t.Errorf("Time() = %f, want 0.25", m.Player.Time())
	}
}

func TestLoadAnimatedSkinsVertex(t *testing.T) {
	doc := loadChain(t)
	// Add a vertex offset from Child's origin and bound to Child alone.
	doc.Mesh.Positions = append(doc.Mesh.Positions, [3]float32{1, 1, 0})
	doc.Mesh.Normals = append(doc.Mesh.Normals, [3]float32{0, 0, 1})
	doc.Skin.VCount = append(doc.Skin.VCount, 1)
	doc.Skin.V = append(doc.Skin.V, 1, 0)

	m, err := LoadAnimated(doc, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadAnimated() error = %v", err)
	}
	if err := m.Player.PauseToPose(0.5); err != nil {
		t.Fatalf("PauseToPose() error = %v", err)
	}

	// Child turned 90 degrees about Y: +X swings to -Z.
	got := SkinPosition(&m.Vertices[3], m.Palette())
	if !near(got, [3]float32{0, 1, -1}, 1e-4) {
		t.Errorf("skinned position = %v, want (0, 1, -1)", got)
	}
	// Root-bound vertex does not move.
	if got := SkinPosition(&m.Vertices[0], m.Palette()); !near(got, [3]float32{0, 0, 0}, 1e-6) {
		t.Errorf("root vertex moved to %v", got)
	}

	b := m.SkinnedBounds()
	if !near(b.Min, [3]float32{0, 0, -1}, 1e-4) || !near(b.Max, [3]float32{0, 2, 0}, 1e-4) {
		t.Errorf("SkinnedBounds() = %+v", b)
	}
}

func TestLoadStatic(t *testing.T) {
	doc := loadChain(t)
	doc.Skin = nil
	doc.Channels = nil

	m, err := Load(doc, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Animated() {
		t.Error("Animated() = true for a static document")
	}
	if m.Palette() != nil {
		t.Error("static mesh should have no palette")
	}
	if err := m.Update(1); err != nil {
		t.Errorf("Update() error = %v", err)
	}
	if m.SkinnedBounds() != m.Bounds {
		t.Error("SkinnedBounds() should equal Bounds for a static mesh")
	}
}

func TestLoadChoosesAnimated(t *testing.T) {
	m, err := Load(loadChain(t), LoadOptions{Speed: 2, StartPaused: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !m.Animated() {
		t.Fatal("Animated() = false")
	}
	if !m.Player.Paused() || m.Player.Speed() != 2 {
		t.Errorf("player paused=%v speed=%f, want paused at speed 2", m.Player.Paused(), m.Player.Speed())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dae.Document)
		want   error
	}{
		{"no skin", func(d *dae.Document) { d.Skin = nil }, ErrNoSkin},
		{"no animation", func(d *dae.Document) { d.Channels = nil }, ErrNoAnimation},
		{"no mesh", func(d *dae.Document) { d.Mesh = nil }, ErrNoMesh},
		{"index out of range", func(d *dae.Document) { d.Mesh.Indices[2] = 9 }, ErrIndexOutOfRange},
		{"index count", func(d *dae.Document) { d.Mesh.Indices = d.Mesh.Indices[:2] }, ErrIndexCount},
		{"normals length", func(d *dae.Document) { d.Mesh.Normals = d.Mesh.Normals[:1] }, ErrStreamLength},
		{"weight index", func(d *dae.Document) { d.Skin.V[1] = 7 }, skin.ErrWeightIndexOutOfRange},
		{"unknown joint", func(d *dae.Document) { d.Skin.BoneNames = []string{"Root", "Elbow"} }, skeleton.ErrUnknownJoint},
		{"orphan bone", func(d *dae.Document) {
			d.Skin.BoneNames = []string{"Root", "Child", "Tail"}
			d.Skin.V[6] = 2
		}, ErrOrphanBone},
		{"unresolved channel", func(d *dae.Document) { d.Channels[1].Target = "Camera/transform" }, animation.ErrUnresolvedChannel},
		{"missing joint pose", func(d *dae.Document) { d.Channels = d.Channels[:1] }, animation.ErrMissingJointPose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadChain(t)
			tt.mutate(doc)
			m, err := LoadAnimated(doc, LoadOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadAnimated() error = %v, want %v", err, tt.want)
			}
			if m != nil {
				t.Error("LoadAnimated() returned a partial result")
			}
		})
	}

	if _, err := Load(nil, LoadOptions{}); !errors.Is(err, ErrNilDocument) {
		t.Errorf("Load(nil) error = %v, want %v", err, ErrNilDocument)
	}
}

func TestLoadOptionsRelaxErrors(t *testing.T) {
	doc := loadChain(t)
	doc.Skin.BoneNames = []string{"Root", "Elbow"}
	// Elbow has no joint, so every vertex binds to bone 0.
	doc.Skin.VCount = []int{1, 1, 1}
	doc.Skin.V = []int{0, 0, 0, 0, 0, 0}
	doc.Channels = doc.Channels[:1]

	m, err := LoadAnimated(doc, LoadOptions{LenientJoints: true, BindPoseFallback: true})
	if err != nil {
		t.Fatalf("LoadAnimated() error = %v", err)
	}
	child, ok := m.Skeleton.IndexOf("Child")
	if !ok {
		t.Fatal("Child joint missing")
	}
	if id := m.Skeleton.Joint(child).ID; id != 0 {
		t.Errorf("Child ID = %d, want fallback 0", id)
	}
	if err := m.Update(0.5); err != nil {
		t.Errorf("Update() error = %v", err)
	}
}

func TestApplyInfluences(t *testing.T) {
	vertices := make([]Vertex, 2)
	influences := []skin.Influence{
		{BoneIDs: [3]float32{1, 0, 0}, Weights: [3]float32{1, 0, 0}},
		{BoneIDs: [3]float32{0, 4, 0}, Weights: [3]float32{0.5, 0.5, 0}},
	}

	if err := ApplyInfluences(vertices, influences[:1], 5); !errors.Is(err, ErrInfluenceCount) {
		t.Errorf("ApplyInfluences() error = %v, want %v", err, ErrInfluenceCount)
	}
	if err := ApplyInfluences(vertices, influences, 4); !errors.Is(err, ErrBoneIDOutOfRange) {
		t.Errorf("ApplyInfluences() error = %v, want %v", err, ErrBoneIDOutOfRange)
	}
	if err := ApplyInfluences(vertices, influences, 5); err != nil {
		t.Fatalf("ApplyInfluences() error = %v", err)
	}
	if vertices[1].BoneIDs != influences[1].BoneIDs || vertices[1].BoneWeights != influences[1].Weights {
		t.Errorf("vertex 1 = %+v", vertices[1])
	}
}

func TestCheckBoneJoints(t *testing.T) {
	doc := loadChain(t)
	root, err := doc.SkeletonRoot()
	if err != nil {
		t.Fatalf("SkeletonRoot() error = %v", err)
	}
	bones, err := skeleton.NewBoneTable([]string{"Root", "Child", "Tail"})
	if err != nil {
		t.Fatalf("NewBoneTable() error = %v", err)
	}
	skel, err := skeleton.Build(root, bones)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tests := []struct {
		name    string
		vertex  Vertex
		wantErr error
	}{
		{"driven bones", Vertex{BoneIDs: [3]float32{0, 1, 0}, BoneWeights: [3]float32{0.5, 0.5, 0}}, nil},
		{"zero weight on orphan", Vertex{BoneIDs: [3]float32{1, 2, 0}, BoneWeights: [3]float32{1, 0, 0}}, nil},
		{"weighted orphan", Vertex{BoneIDs: [3]float32{0, 2, 0}, BoneWeights: [3]float32{0.75, 0.25, 0}}, ErrOrphanBone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBoneJoints([]Vertex{{}, tt.vertex}, skel)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckBoneJoints() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateNormals(t *testing.T) {
	mesh, err := BuildMesh(&dae.Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}},
		Indices:   []uint32{0, 1, 2},
	}, "")
	if err != nil {
		t.Fatalf("BuildMesh() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if !near(mesh.Vertices[i].Normal, [3]float32{0, 0, 1}, 1e-6) {
			t.Errorf("vertex %d normal = %v, want (0, 0, 1)", i, mesh.Vertices[i].Normal)
		}
	}
	// Unreferenced vertex falls back to +Y.
	if mesh.Vertices[3].Normal != [3]float32{0, 1, 0} {
		t.Errorf("unreferenced vertex normal = %v", mesh.Vertices[3].Normal)
	}
	if mesh.UpAxis != dae.YUp {
		t.Errorf("UpAxis = %q, want default %s", mesh.UpAxis, dae.YUp)
	}
}

func TestBounds(t *testing.T) {
	mesh, err := BuildMesh(&dae.Mesh{
		Positions: [][3]float32{{-1, 0, -2}, {3, 4, 2}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
	}, dae.ZUp)
	if err != nil {
		t.Fatalf("BuildMesh() error = %v", err)
	}
	b := mesh.Bounds
	if b.Min != [3]float32{-1, 0, -2} || b.Max != [3]float32{3, 4, 2} {
		t.Errorf("Bounds = %+v", b)
	}
	if c := b.Center(); c != [3]float32{1, 2, 0} {
		t.Errorf("Center() = %v, want (1, 2, 0)", c)
	}
	if r := b.Radius(); gomath.Abs(float64(r)-gomath.Sqrt(48)/2) > 1e-6 {
		t.Errorf("Radius() = %f, want sqrt(48)/2", r)
	}
}

func TestUpAxisCorrection(t *testing.T) {
	tests := []struct {
		axis dae.UpAxis
		in   [3]float32
	}{
		{dae.YUp, [3]float32{0, 1, 0}},
		{dae.ZUp, [3]float32{0, 0, 1}},
		{dae.XUp, [3]float32{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.axis), func(t *testing.T) {
			got := UpAxisCorrection(tt.axis).TransformPoint(tt.in)
			if !near(got, [3]float32{0, 1, 0}, 1e-6) {
				t.Errorf("up vector maps to %v, want (0, 1, 0)", got)
			}
		})
	}
}
