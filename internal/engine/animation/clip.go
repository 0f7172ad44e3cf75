// Package animation assembles keyframe clips from sampled joint transforms
// and plays them back on a skeleton.
package animation

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/math"
)

// Clip errors.
var (
	ErrEmptyClip      = errors.New("clip has no keyframes")
	ErrKeyFrameOrder  = errors.New("keyframe times not strictly increasing")
	ErrNegativeTime   = errors.New("negative keyframe time")
	ErrDuplicatePose  = errors.New("joint posed twice in one keyframe")
	ErrUnnamedJoint   = errors.New("joint pose without joint name")
	ErrInvalidQuat    = errors.New("rotation is not a valid quaternion")
	ErrNonFiniteValue = errors.New("non-finite value in keyframe")
)

// JointTransform is a joint's local pose at one instant. Scale is not
// animated.
type JointTransform struct {
	Joint    string
	Position math.Vec3
	Rotation math.Quat
}

// Local returns translation(Position) * rotation(Rotation).
func (jt JointTransform) Local() math.Mat4 {
	return math.TranslationRotation(jt.Position, jt.Rotation)
}

// KeyFrame holds the poses of every joint sampled at Time.
type KeyFrame struct {
	Time  float32
	Poses []JointTransform
}

// Pose returns the pose of the named joint.
func (kf *KeyFrame) Pose(joint string) (JointTransform, bool) {
	for _, p := range kf.Poses {
		if p.Joint == joint {
			return p, true
		}
	}
	return JointTransform{}, false
}

// Clip is an ordered list of keyframes that loops from the last keyframe
// back to the first.
type Clip struct {
	frames []KeyFrame
}

// NewClip validates frames and wraps them in a clip. A single keyframe is
// accepted and plays as a static pose.
func NewClip(frames []KeyFrame) (*Clip, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyClip
	}

	for i := range frames {
		kf := &frames[i]
		if !finite(kf.Time) {
			return nil, fmt.Errorf("%w: keyframe %d time", ErrNonFiniteValue, i)
		}
		if kf.Time < 0 {
			return nil, fmt.Errorf("%w: keyframe %d at %g", ErrNegativeTime, i, kf.Time)
		}
		if i > 0 && kf.Time <= frames[i-1].Time {
			return nil, fmt.Errorf("%w: keyframe %d at %g follows %g",
				ErrKeyFrameOrder, i, kf.Time, frames[i-1].Time)
		}
		if err := validatePoses(kf); err != nil {
			return nil, fmt.Errorf("keyframe %d: %w", i, err)
		}
	}

	if len(frames) == 1 {
		logger.Named("animation").Warn("clip has a single keyframe, playing as static pose",
			zap.Float32("time", frames[0].Time))
	}
	return &Clip{frames: frames}, nil
}

func validatePoses(kf *KeyFrame) error {
	seen := make(map[string]struct{}, len(kf.Poses))
	for _, p := range kf.Poses {
		if p.Joint == "" {
			return ErrUnnamedJoint
		}
		if _, dup := seen[p.Joint]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePose, p.Joint)
		}
		seen[p.Joint] = struct{}{}

		if !finite(p.Position.X) || !finite(p.Position.Y) || !finite(p.Position.Z) {
			return fmt.Errorf("%w: %q position", ErrNonFiniteValue, p.Joint)
		}
		if l := p.Rotation.Length(); !finite(l) || l < 1e-4 {
			return fmt.Errorf("%w: %q", ErrInvalidQuat, p.Joint)
		}
	}
	return nil
}

// Len returns the number of keyframes.
func (c *Clip) Len() int {
	return len(c.frames)
}

// Duration returns the time of the last keyframe.
func (c *Clip) Duration() float32 {
	return c.frames[len(c.frames)-1].Time
}

// Frame returns the i-th keyframe.
func (c *Clip) Frame(i int) KeyFrame {
	return c.frames[i]
}

// KeyFrames returns the keyframes in time order.
func (c *Clip) KeyFrames() []KeyFrame {
	return append([]KeyFrame(nil), c.frames...)
}

// Joints returns the distinct joint names posed anywhere in the clip, in
// first-seen order.
func (c *Clip) Joints() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, kf := range c.frames {
		for _, p := range kf.Poses {
			if _, ok := seen[p.Joint]; !ok {
				seen[p.Joint] = struct{}{}
				names = append(names, p.Joint)
			}
		}
	}
	return names
}

func finite(f float32) bool {
	return !gomath.IsNaN(float64(f)) && !gomath.IsInf(float64(f), 0)
}
