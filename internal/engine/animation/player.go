package animation

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/engine/skeleton"
	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/math"
)

// Player errors.
var (
	ErrNilInput         = errors.New("player needs a skeleton and a clip")
	ErrUnknownJoint     = errors.New("clip poses a joint not in the skeleton")
	ErrMissingJointPose = errors.New("keyframe has no pose for joint")
	ErrNegativeDelta    = errors.New("negative time delta")
	ErrInvalidSpeed     = errors.New("playback speed must be positive")
)

// State is the playback state.
type State int

// Playback states.
const (
	Playing State = iota
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PlayerOption configures NewPlayer.
type PlayerOption func(*Player)

// WithBindPoseFallback uses a joint's local bind transform when a keyframe
// has no pose for it, instead of failing the frame.
func WithBindPoseFallback() PlayerOption {
	return func(p *Player) {
		p.bindFallback = true
	}
}

// WithSpeed sets the multiplier Update applies to wall-clock deltas.
func WithSpeed(speed float32) PlayerOption {
	return func(p *Player) {
		p.speed = speed
	}
}

// WithPaused starts the player in the Paused state.
func WithPaused() PlayerOption {
	return func(p *Player) {
		p.state = Paused
	}
}

// framePose is one joint's pose in one keyframe; ok is false when the
// keyframe does not pose the joint.
type framePose struct {
	pose JointTransform
	ok   bool
}

// Player plays one clip on one skeleton. It takes ownership of the skeleton:
// every successful frame publishes a new palette on it.
type Player struct {
	skel  *skeleton.Skeleton
	clip  *Clip
	state State
	time  float32
	speed float32

	bindFallback bool

	joints []skeleton.Joint
	// frames[k][i] is the pose of arena joint i in keyframe k.
	frames [][]framePose
	locals []JointTransform
}

// NewPlayer binds clip to skel and applies the pose at time 0. Joint names
// are resolved to arena indices once here; playback works on indices only.
func NewPlayer(skel *skeleton.Skeleton, clip *Clip, opts ...PlayerOption) (*Player, error) {
	if skel == nil || clip == nil {
		return nil, ErrNilInput
	}

	p := &Player{
		skel:   skel,
		clip:   clip,
		state:  Playing,
		speed:  1,
		joints: skel.Flatten(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !(p.speed > 0) || gomath.IsInf(float64(p.speed), 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSpeed, p.speed)
	}

	p.frames = make([][]framePose, clip.Len())
	for k := range clip.frames {
		row := make([]framePose, len(p.joints))
		for _, pose := range clip.frames[k].Poses {
			idx, ok := skel.IndexOf(pose.Joint)
			if !ok {
				return nil, fmt.Errorf("%w: %q in keyframe %d", ErrUnknownJoint, pose.Joint, k)
			}
			row[idx] = framePose{pose: pose, ok: true}
		}
		p.frames[k] = row
	}

	if err := p.apply(0, clip.Duration()); err != nil {
		return nil, err
	}

	logger.Debug("animation player bound",
		zap.Int("joints", len(p.joints)),
		zap.Int("keyframes", clip.Len()),
		zap.Float32("duration", clip.Duration()),
		zap.Stringer("state", p.state))
	return p, nil
}

// State returns the playback state.
func (p *Player) State() State {
	return p.state
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	return p.state == Paused
}

// Time returns the clip-local playback time in seconds.
func (p *Player) Time() float32 {
	return p.time
}

// Speed returns the playback speed multiplier.
func (p *Player) Speed() float32 {
	return p.speed
}

// SetSpeed changes the multiplier used by Update.
func (p *Player) SetSpeed(speed float32) error {
	if !(speed > 0) || gomath.IsInf(float64(speed), 0) {
		return fmt.Errorf("%w: %g", ErrInvalidSpeed, speed)
	}
	p.speed = speed
	return nil
}

// Skeleton returns the skeleton the player drives.
func (p *Player) Skeleton() *skeleton.Skeleton {
	return p.skel
}

// Clip returns the clip being played.
func (p *Player) Clip() *Clip {
	return p.clip
}

// Pose returns the local joint poses of the last applied frame, in pre-order.
func (p *Player) Pose() []JointTransform {
	return append([]JointTransform(nil), p.locals...)
}

// TogglePause flips between Playing and Paused. Time is frozen while paused.
func (p *Player) TogglePause() {
	if p.state == Paused {
		p.state = Playing
	} else {
		p.state = Paused
	}
}

// PauseToPose jumps to time t, applies that pose and pauses. Times past the
// clip's end wrap around.
func (p *Player) PauseToPose(t float32) error {
	if !(t >= 0) {
		return fmt.Errorf("%w: %g", ErrNegativeTime, t)
	}
	p.state = Paused
	p.time = wrap(t, p.clip.Duration())
	return p.apply(p.time, p.clip.Duration())
}

// CheckFrames reports the first bracketing keyframe pair that playback
// could not pose. It visits pairs in keyframe-index space, the same way
// Animate does, and publishes nothing.
func (p *Player) CheckFrames() error {
	n := p.clip.Len()
	last := n - 2
	if n == 1 {
		last = 0
	}
	for lo := 0; lo <= last; lo++ {
		hi := lo + 1
		if n == 1 {
			hi = 0
		}
		for i := range p.joints {
			if _, err := p.localPose(i, lo, hi, 0.5); err != nil {
				return fmt.Errorf("keyframes %d-%d: %w", lo, hi, err)
			}
		}
	}
	return nil
}

// Reset rewinds to time 0 and applies that pose. The pause state is kept.
func (p *Player) Reset() error {
	p.time = 0
	return p.apply(0, p.clip.Duration())
}

// Update advances playback by a wall-clock delta scaled by the player speed.
func (p *Player) Update(delta float32) error {
	return p.Animate(delta*p.speed, p.clip.Duration())
}

// Animate advances playback by delta seconds and publishes the new palette.
// It does nothing while paused. Time wraps modulo duration, so a delta
// spanning several loops lands where continuous playback would.
//
// If a bracketing keyframe lacks a pose for some joint the frame is
// abandoned and the previously published palette stays in place.
func (p *Player) Animate(delta, duration float32) error {
	if !(delta >= 0) || gomath.IsInf(float64(delta), 0) {
		return fmt.Errorf("%w: %g", ErrNegativeDelta, delta)
	}
	if p.state == Paused {
		return nil
	}

	p.time = wrap(p.time+delta, duration)
	return p.apply(p.time, duration)
}

func wrap(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	if t >= duration {
		t = float32(gomath.Mod(float64(t), float64(duration)))
	}
	return t
}

// brackets maps playback time to keyframe-index space, treating keyframes as
// evenly spaced over duration, and returns the two bracketing keyframes and
// the blend factor between them.
func (p *Player) brackets(t, duration float32) (lo, hi int, frac float32) {
	n := p.clip.Len()
	if n == 1 || duration <= 0 {
		return 0, 0, 0
	}

	scaled := t / duration * float32(n-1)
	lo = int(gomath.Floor(float64(scaled)))
	if lo < 0 {
		lo = 0
	}
	if lo > n-1 {
		lo = n - 1
	}
	frac = scaled - float32(lo)
	return lo, (lo + 1) % n, frac
}

// apply computes the full palette for time t into fresh buffers and
// publishes it only if every joint could be posed.
func (p *Player) apply(t, duration float32) error {
	lo, hi, frac := p.brackets(t, duration)

	n := len(p.joints)
	global := make([]math.Mat4, n)
	palette := make([]math.Mat4, n)
	locals := make([]JointTransform, n)

	// Pre-order: a parent's global transform is final before its children read it.
	for i := range p.joints {
		j := &p.joints[i]

		local, err := p.localPose(i, lo, hi, frac)
		if err != nil {
			return err
		}
		locals[i] = local

		parent := math.Identity()
		if j.Parent >= 0 {
			parent = global[j.Parent]
		}
		global[i] = parent.Mul(local.Local())
		palette[i] = global[i].Mul(j.InverseBind)
	}

	p.locals = locals
	return p.skel.Publish(palette)
}

func (p *Player) localPose(i, lo, hi int, frac float32) (JointTransform, error) {
	a, b := p.frames[lo][i], p.frames[hi][i]
	if !a.ok || !b.ok {
		j := &p.joints[i]
		if !p.bindFallback {
			missing := lo
			if a.ok {
				missing = hi
			}
			return JointTransform{}, fmt.Errorf("%w: %q in keyframe %d", ErrMissingJointPose, j.Name, missing)
		}
		pos, _, rot, _ := j.LocalBind.Decompose()
		return JointTransform{Joint: j.Name, Position: pos, Rotation: rot}, nil
	}

	if frac == 0 || lo == hi {
		return a.pose, nil
	}
	return JointTransform{
		Joint:    a.pose.Joint,
		Position: a.pose.Position.Lerp(b.pose.Position, frac),
		Rotation: a.pose.Rotation.Slerp(b.pose.Rotation, frac),
	}, nil
}
