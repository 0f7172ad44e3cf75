package animation

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/marionette/internal/engine/skeleton"
	"github.com/Faultbox/marionette/pkg/dae"
	"github.com/Faultbox/marionette/pkg/math"
)

var (
	identityRot = math.QuatIdentity()
	halfTurnY   = math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi)
	quarterY    = math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi/2)
	childOffset = math.Vec3{Y: 1}
)

// chainSkeleton builds Root (identity) -> Child (offset by (0, 1, 0)).
func chainSkeleton(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	offset := math.Translate(0, 1, 0).RowMajor()
	root := dae.Node{
		Name: "Root",
		Type: dae.NodeJoint,
		Children: []dae.Node{
			{Name: "Child", Type: dae.NodeJoint, Matrix: &offset},
		},
	}
	bones, err := skeleton.NewBoneTable([]string{"Root", "Child"})
	if err != nil {
		t.Fatalf("NewBoneTable() error = %v", err)
	}
	s, err := skeleton.Build(root, bones)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func chainFrame(time float32, childRot math.Quat) KeyFrame {
	return KeyFrame{Time: time, Poses: []JointTransform{
		pose("Root", math.Vec3{}, identityRot),
		pose("Child", childOffset, childRot),
	}}
}

func mustClip(t *testing.T, frames ...KeyFrame) *Clip {
	t.Helper()
	clip, err := NewClip(frames)
	if err != nil {
		t.Fatalf("NewClip() error = %v", err)
	}
	return clip
}

func mustPlayer(t *testing.T, clip *Clip, opts ...PlayerOption) *Player {
	t.Helper()
	p, err := NewPlayer(chainSkeleton(t), clip, opts...)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	return p
}

func palettesEqual(a, b []math.Mat4) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fourFrames is a 4-keyframe clip lasting 2 seconds.
func fourFrames(t *testing.T) *Clip {
	return mustClip(t,
		chainFrame(0, identityRot),
		chainFrame(0.5, quarterY),
		chainFrame(1, halfTurnY),
		chainFrame(2, identityRot),
	)
}

func TestChainScenario(t *testing.T) {
	p := mustPlayer(t, mustClip(t,
		chainFrame(0, identityRot),
		chainFrame(1, halfTurnY),
	))

	// Two keyframes over one second: scaled = time.
	if err := p.Animate(0.5, 1); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}

	s := p.Skeleton()
	child, _ := s.IndexOf("Child")

	rot := p.Pose()[child].Rotation
	if a := rot.AngleTo(quarterY); a > 1e-4 {
		t.Errorf("child rotation = %+v, off 90 deg about Y by %f rad", rot, a)
	}

	// global = palette * globalBind since palette = global * inverse(globalBind).
	palette := s.GlobalTransformMatrices()
	global := palette[child].Mul(s.GlobalBind(child))
	parentGlobal := palette[0].Mul(s.GlobalBind(0))
	want := parentGlobal.Mul(math.Translate(0, 1, 0)).Mul(math.RotateY(gomath.Pi / 2))
	if !global.ApproxEqual(want, 1e-5) {
		t.Errorf("child global = %v, want %v", global, want)
	}
}

func TestInitialState(t *testing.T) {
	p := mustPlayer(t, fourFrames(t))

	if p.State() != Playing || p.Paused() {
		t.Errorf("State() = %v, want playing", p.State())
	}
	if p.Time() != 0 {
		t.Errorf("Time() = %f, want 0", p.Time())
	}
	// Frame 0 is the bind pose, so the palette is identity.
	for i, m := range p.Skeleton().GlobalTransformMatrices() {
		if !m.ApproxEqual(math.Identity(), 1e-6) {
			t.Errorf("palette[%d] = %v, want identity", i, m)
		}
	}
}

func TestLoopSeamless(t *testing.T) {
	p := mustPlayer(t, fourFrames(t))
	start := p.Skeleton().GlobalTransformMatrices()
	startPose := p.Pose()

	for i := 0; i < 5; i++ {
		if err := p.Animate(2.0, 2.0); err != nil {
			t.Fatalf("Animate() error = %v", err)
		}
		if p.Time() != 0 {
			t.Fatalf("loop %d: Time() = %f, want 0", i, p.Time())
		}
		if !palettesEqual(p.Skeleton().GlobalTransformMatrices(), start) {
			t.Fatalf("loop %d: palette differs from time 0", i)
		}
		for j, jt := range p.Pose() {
			if jt != startPose[j] {
				t.Fatalf("loop %d: pose of %s differs from time 0", i, jt.Joint)
			}
		}
	}
}

func TestInterpolationBoundary(t *testing.T) {
	clip := fourFrames(t)

	// Four keyframes over three seconds: scaled = time, so whole seconds land
	// exactly on keyframes.
	for k := 0; k < 3; k++ {
		p := mustPlayer(t, clip)
		if err := p.Animate(float32(k), 3); err != nil {
			t.Fatalf("Animate() error = %v", err)
		}
		kf := clip.Frame(k)
		for _, got := range p.Pose() {
			want, _ := kf.Pose(got.Joint)
			if got != want {
				t.Errorf("scaled=%d: %s pose = %+v, want keyframe pose %+v", k, got.Joint, got, want)
			}
		}
	}
}

func TestInterpolationMidpoint(t *testing.T) {
	clip := mustClip(t,
		KeyFrame{Time: 0, Poses: []JointTransform{
			pose("Root", math.Vec3{}, identityRot),
			pose("Child", math.Vec3{Y: 1}, identityRot),
		}},
		KeyFrame{Time: 2, Poses: []JointTransform{
			pose("Root", math.Vec3{X: 4}, identityRot),
			pose("Child", math.Vec3{Y: 3}, identityRot),
		}},
	)
	p := mustPlayer(t, clip)
	if err := p.Update(0.5); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got := p.Pose()
	if !got[0].Position.ApproxEqual(math.Vec3{X: 1}, 1e-6) {
		t.Errorf("root position = %+v, want (1, 0, 0)", got[0].Position)
	}
	if !got[1].Position.ApproxEqual(math.Vec3{Y: 1.5}, 1e-6) {
		t.Errorf("child position = %+v, want (0, 1.5, 0)", got[1].Position)
	}
}

func TestModuloWrap(t *testing.T) {
	p := mustPlayer(t, fourFrames(t))
	if err := p.Animate(5.5, 2); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}
	if gomath.Abs(float64(p.Time()-1.5)) > 1e-6 {
		t.Errorf("Time() = %f, want 1.5", p.Time())
	}
}

func TestPauseFreezes(t *testing.T) {
	p := mustPlayer(t, fourFrames(t))
	if err := p.Animate(0.3, 2); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}

	p.TogglePause()
	if !p.Paused() {
		t.Fatal("TogglePause() did not pause")
	}
	time := p.Time()
	palette := p.Skeleton().GlobalTransformMatrices()

	for i := 0; i < 10; i++ {
		if err := p.Animate(0.7, 2); err != nil {
			t.Fatalf("Animate() error = %v", err)
		}
	}
	if p.Time() != time {
		t.Errorf("Time() = %f while paused, want %f", p.Time(), time)
	}
	if !palettesEqual(p.Skeleton().GlobalTransformMatrices(), palette) {
		t.Error("palette changed while paused")
	}

	p.TogglePause()
	if p.State() != Playing {
		t.Fatalf("State() = %v, want playing", p.State())
	}
	if err := p.Animate(0.2, 2); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}
	if gomath.Abs(float64(p.Time()-0.5)) > 1e-6 {
		t.Errorf("Time() = %f, want 0.5", p.Time())
	}
}

func TestPauseToPose(t *testing.T) {
	clip := fourFrames(t)
	p := mustPlayer(t, clip)

	if err := p.PauseToPose(1); err != nil {
		t.Fatalf("PauseToPose() error = %v", err)
	}
	if !p.Paused() || p.Time() != 1 {
		t.Errorf("state = %v at %f, want paused at 1", p.State(), p.Time())
	}

	// Time 1 of 2 with four keyframes is scaled 1.5, between frames 1 and 2.
	child, _ := p.Skeleton().IndexOf("Child")
	want := quarterY.Slerp(halfTurnY, 0.5)
	if a := p.Pose()[child].Rotation.AngleTo(want); a > 1e-4 {
		t.Errorf("child rotation off by %f rad", a)
	}

	if err := p.PauseToPose(-1); !errors.Is(err, ErrNegativeTime) {
		t.Errorf("PauseToPose(-1) error = %v, want %v", err, ErrNegativeTime)
	}
	if err := p.PauseToPose(4.5); err != nil {
		t.Fatalf("PauseToPose(4.5) error = %v", err)
	}
	if gomath.Abs(float64(p.Time()-0.5)) > 1e-6 {
		t.Errorf("Time() = %f, want wrapped 0.5", p.Time())
	}
}

func TestReset(t *testing.T) {
	p := mustPlayer(t, fourFrames(t))
	start := p.Skeleton().GlobalTransformMatrices()

	tests := []struct {
		name   string
		paused bool
	}{
		{"playing", false},
		{"paused", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Animate(0.9, 2); err != nil {
				t.Fatalf("Animate() error = %v", err)
			}
			if p.Paused() != tt.paused {
				p.TogglePause()
			}
			if err := p.Reset(); err != nil {
				t.Fatalf("Reset() error = %v", err)
			}
			if p.Time() != 0 {
				t.Errorf("Time() = %f, want 0", p.Time())
			}
			if p.Paused() != tt.paused {
				t.Errorf("Paused() = %v, want %v", p.Paused(), tt.paused)
			}
			if !palettesEqual(p.Skeleton().GlobalTransformMatrices(), start) {
				t.Error("palette after Reset() differs from time 0")
			}
			if p.Paused() {
				p.TogglePause()
			}
		})
	}
}

func TestAnimateNegativeDelta(t *testing.T) {
	p := mustPlayer(t, fourFrames(t))
	for _, d := range []float32{-0.1, float32(gomath.NaN())} {
		if err := p.Animate(d, 2); !errors.Is(err, ErrNegativeDelta) {
			t.Errorf("Animate(%f) error = %v, want %v", d, err, ErrNegativeDelta)
		}
	}
	if p.Time() != 0 {
		t.Errorf("Time() = %f, want 0", p.Time())
	}
}

func TestMissingJointPose(t *testing.T) {
	clip := mustClip(t,
		chainFrame(0, identityRot),
		chainFrame(1, quarterY),
		KeyFrame{Time: 2, Poses: []JointTransform{pose("Root", math.Vec3{}, identityRot)}},
	)

	p := mustPlayer(t, clip)
	if err := p.Animate(0.5, 2); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}
	before := p.Skeleton().GlobalTransformMatrices()

	err := p.Animate(1, 2)
	if !errors.Is(err, ErrMissingJointPose) {
		t.Fatalf("Animate() error = %v, want %v", err, ErrMissingJointPose)
	}
	if !palettesEqual(p.Skeleton().GlobalTransformMatrices(), before) {
		t.Error("failed frame changed the published palette")
	}
}

func TestCheckFrames(t *testing.T) {
	rootOnly := KeyFrame{Time: 2, Poses: []JointTransform{pose("Root", math.Vec3{}, identityRot)}}
	tests := []struct {
		name    string
		frames  []KeyFrame
		opts    []PlayerOption
		wantErr error
	}{
		{
			name:   "complete",
			frames: []KeyFrame{chainFrame(0, identityRot), chainFrame(1, quarterY)},
		},
		{
			name:   "single keyframe",
			frames: []KeyFrame{chainFrame(0.5, quarterY)},
		},
		{
			name: "gap in last keyframe with uneven times",
			frames: []KeyFrame{
				chainFrame(0, identityRot),
				chainFrame(0.1, quarterY),
				chainFrame(0.2, identityRot),
				rootOnly,
			},
			wantErr: ErrMissingJointPose,
		},
		{
			name: "gap covered by bind pose",
			frames: []KeyFrame{
				chainFrame(0, identityRot),
				chainFrame(0.1, quarterY),
				rootOnly,
			},
			opts: []PlayerOption{WithBindPoseFallback()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPlayer(t, mustClip(t, tt.frames...), tt.opts...)
			before := p.Skeleton().GlobalTransformMatrices()

			err := p.CheckFrames()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckFrames() error = %v, want %v", err, tt.wantErr)
			}
			if !palettesEqual(p.Skeleton().GlobalTransformMatrices(), before) {
				t.Error("CheckFrames() changed the published palette")
			}
			if tt.wantErr == nil {
				return
			}
			// Playback hits the same gap late in the clip.
			if err := p.Animate(1.9, p.Clip().Duration()); !errors.Is(err, tt.wantErr) {
				t.Errorf("Animate(1.9) error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBindPoseFallback(t *testing.T) {
	clip := mustClip(t,
		chainFrame(0, quarterY),
		KeyFrame{Time: 1, Poses: []JointTransform{pose("Root", math.Vec3{}, identityRot)}},
	)

	p := mustPlayer(t, clip, WithBindPoseFallback())
	if err := p.Animate(0.5, 1); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}

	child, _ := p.Skeleton().IndexOf("Child")
	got := p.Pose()[child]
	if !got.Position.ApproxEqual(childOffset, 1e-6) || got.Rotation.AngleTo(identityRot) > 1e-4 {
		t.Errorf("child pose = %+v, want bind pose", got)
	}
}

func TestSingleKeyFrame(t *testing.T) {
	clip := mustClip(t, chainFrame(0.5, quarterY))
	p := mustPlayer(t, clip)
	first := p.Skeleton().GlobalTransformMatrices()

	for _, d := range []float32{0.1, 0.3, 2} {
		if err := p.Animate(d, clip.Duration()); err != nil {
			t.Fatalf("Animate() error = %v", err)
		}
		if !palettesEqual(p.Skeleton().GlobalTransformMatrices(), first) {
			t.Errorf("static clip palette changed after delta %f", d)
		}
	}
}

func TestNewPlayerErrors(t *testing.T) {
	clip := mustClip(t,
		chainFrame(0, identityRot),
		KeyFrame{Time: 1, Poses: []JointTransform{pose("Tail", math.Vec3{}, identityRot)}},
	)
	if _, err := NewPlayer(chainSkeleton(t), clip); !errors.Is(err, ErrUnknownJoint) {
		t.Errorf("NewPlayer() error = %v, want %v", err, ErrUnknownJoint)
	}
	if _, err := NewPlayer(nil, clip); !errors.Is(err, ErrNilInput) {
		t.Errorf("NewPlayer(nil) error = %v, want %v", err, ErrNilInput)
	}
	if _, err := NewPlayer(chainSkeleton(t), fourFrames(t), WithSpeed(0)); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("NewPlayer(speed 0) error = %v, want %v", err, ErrInvalidSpeed)
	}
}

func TestSpeed(t *testing.T) {
	p := mustPlayer(t, fourFrames(t), WithSpeed(2), WithPaused())
	if !p.Paused() {
		t.Fatal("WithPaused() did not pause")
	}
	p.TogglePause()

	if err := p.Update(0.25); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if gomath.Abs(float64(p.Time()-0.5)) > 1e-6 {
		t.Errorf("Time() = %f, want 0.5", p.Time())
	}

	if err := p.SetSpeed(-1); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("SetSpeed(-1) error = %v, want %v", err, ErrInvalidSpeed)
	}
	if err := p.SetSpeed(0.5); err != nil || p.Speed() != 0.5 {
		t.Errorf("SetSpeed(0.5) = %v, speed %f", err, p.Speed())
	}
}

func TestPlaySceneDump(t *testing.T) {
	doc, err := dae.LoadFile("../../../pkg/dae/testdata/chain.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	root, err := doc.SkeletonRoot()
	if err != nil {
		t.Fatalf("SkeletonRoot() error = %v", err)
	}
	bones, err := skeleton.NewBoneTable(doc.Skin.BoneNames)
	if err != nil {
		t.Fatalf("NewBoneTable() error = %v", err)
	}
	skel, err := skeleton.Build(root, bones)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	clip, err := Assemble(doc.Channels, NewNameResolver(skel.Names()))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	p, err := NewPlayer(skel, clip)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}

	if err := p.Animate(0.5, clip.Duration()); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}
	child, _ := skel.IndexOf("Child")
	if a := p.Pose()[child].Rotation.AngleTo(quarterY); a > 1e-3 {
		t.Errorf("child rotation off 90 deg about Y by %f rad", a)
	}
}
