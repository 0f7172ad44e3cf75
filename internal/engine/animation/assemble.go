package animation

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

// Assembly errors.
var (
	ErrUnresolvedChannel = errors.New("channel target does not name a joint")
	ErrChannelLength     = errors.New("channel times and samples differ in length")
	ErrDegenerateSample  = errors.New("channel sample has a zero-length axis")
)

// JointResolver maps an animation channel target to a joint name.
type JointResolver interface {
	ResolveJoint(target string) (string, bool)
}

// NameResolver resolves channel targets against a fixed set of joint names.
type NameResolver struct {
	names []string
	set   map[string]struct{}
}

// NewNameResolver indexes joint names for target resolution.
func NewNameResolver(names []string) *NameResolver {
	r := &NameResolver{
		names: append([]string(nil), names...),
		set:   make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		r.set[n] = struct{}{}
	}
	// Longest names first so "Arm_L" is preferred over "Arm".
	slices.SortStableFunc(r.names, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return r
}

// ResolveJoint takes the target path's first element (targets look like
// "Hips/transform") and matches it exactly. Failing that it returns the
// longest joint name contained in the target.
func (r *NameResolver) ResolveJoint(target string) (string, bool) {
	head, _, _ := strings.Cut(target, "/")
	if _, ok := r.set[head]; ok {
		return head, true
	}
	for _, n := range r.names {
		if n != "" && strings.Contains(target, n) {
			return n, true
		}
	}
	return "", false
}

type sample struct {
	time float32
	pose JointTransform
}

// Assemble decomposes every channel sample into a joint pose, merges all
// channels by time and groups samples with identical time stamps into one
// keyframe. Per-joint scale in the samples is dropped.
func Assemble(channels []dae.Channel, resolve JointResolver) (*Clip, error) {
	var samples []sample

	for ci := range channels {
		ch := &channels[ci]
		if len(ch.Times) != len(ch.Matrices) {
			return nil, fmt.Errorf("%w: %q has %d times and %d samples",
				ErrChannelLength, ch.Target, len(ch.Times), len(ch.Matrices))
		}

		joint, ok := resolve.ResolveJoint(ch.Target)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnresolvedChannel, ch.Target)
		}

		for i, t := range ch.Times {
			if t < 0 {
				return nil, fmt.Errorf("%w: %q sample %d at %g", ErrNegativeTime, ch.Target, i, t)
			}
			pos, _, rot, ok := ch.Sample(i).Decompose()
			if !ok {
				return nil, fmt.Errorf("%w: %q sample %d", ErrDegenerateSample, ch.Target, i)
			}
			samples = append(samples, sample{
				time: t,
				pose: JointTransform{Joint: joint, Position: pos, Rotation: rot},
			})
		}
	}

	slices.SortStableFunc(samples, func(a, b sample) int {
		return cmp.Compare(a.time, b.time)
	})

	var frames []KeyFrame
	for _, s := range samples {
		if n := len(frames); n == 0 || frames[n-1].Time != s.time {
			frames = append(frames, KeyFrame{Time: s.time})
		}
		kf := &frames[len(frames)-1]

		if i := slices.IndexFunc(kf.Poses, func(p JointTransform) bool { return p.Joint == s.pose.Joint }); i >= 0 {
			logger.Named("animation").Warn("joint sampled twice at one time, keeping later channel",
				zap.String("joint", s.pose.Joint), zap.Float32("time", s.time))
			kf.Poses[i] = s.pose
			continue
		}
		kf.Poses = append(kf.Poses, s.pose)
	}

	return NewClip(frames)
}
