// Package skeleton holds the joint hierarchy of a skinned mesh: bind pose,
// inverse bind transforms and the per-frame skinning palette.
//
// Joints live in a flat arena in pre-order (every parent precedes its
// descendants). The arena index is assigned once at build time and is the
// index the renderer sees in the skinning matrix array.
package skeleton

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/marionette/pkg/math"
)

// Skeleton errors.
var (
	ErrNoJoints        = errors.New("skeleton has no joints")
	ErrUnknownJoint    = errors.New("joint not in bone table")
	ErrDuplicateJoint  = errors.New("duplicate joint")
	ErrDuplicateBone   = errors.New("duplicate bone name")
	ErrMultipleRoots   = errors.New("skeleton has more than one root joint")
	ErrSingularBind    = errors.New("bind transform is not invertible")
	ErrPaletteSize     = errors.New("palette size does not match joint count")
	ErrJointOutOfRange = errors.New("joint index out of range")
)

// Joint is a node of the skeleton tree.
type Joint struct {
	// ID is the joint's bone index in the skin's bone-name table.
	ID   int
	Name string
	// Fallback marks a joint missing from the bone table that borrows bone 0.
	Fallback bool

	// Parent is the arena index of the parent joint, -1 for the root.
	Parent int
	// Children are arena indices in authored order.
	Children []int

	// LocalBind is the authored transform relative to the parent joint.
	LocalBind math.Mat4
	// InverseBind is inverse(parent global bind * LocalBind).
	InverseBind math.Mat4
	// Animated is the skinning matrix of the last published pose.
	Animated math.Mat4
}

// Skeleton is an arena of joints in pre-order.
type Skeleton struct {
	joints     []Joint
	globalBind []math.Mat4
	index      map[string]int
	palette    []math.Mat4
}

// BoneTable maps bone names to their index in the skin's bone-name source.
type BoneTable map[string]int

// NewBoneTable indexes a bone-name list.
func NewBoneTable(names []string) (BoneTable, error) {
	table := make(BoneTable, len(names))
	for i, name := range names {
		if _, dup := table[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBone, name)
		}
		table[name] = i
	}
	return table, nil
}

// newSkeleton wraps built joints, indexes them by name and derives the bind pose.
func newSkeleton(joints []Joint) (*Skeleton, error) {
	if len(joints) == 0 {
		return nil, ErrNoJoints
	}

	s := &Skeleton{
		joints: joints,
		index:  make(map[string]int, len(joints)),
	}
	for i := range joints {
		if _, dup := s.index[joints[i].Name]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateJoint, joints[i].Name)
		}
		s.index[joints[i].Name] = i
	}

	if err := s.propagateInverseBind(); err != nil {
		return nil, err
	}

	s.palette = make([]math.Mat4, len(joints))
	for i := range s.palette {
		s.palette[i] = math.Identity()
		s.joints[i].Animated = s.palette[i]
	}
	return s, nil
}

// propagateInverseBind computes global bind transforms top-down and stores
// their inverses. Pre-order guarantees a parent's global transform is ready
// before any child reads it.
func (s *Skeleton) propagateInverseBind() error {
	s.globalBind = make([]math.Mat4, len(s.joints))
	for i := range s.joints {
		j := &s.joints[i]

		parentGlobal := math.Identity()
		if j.Parent >= 0 {
			parentGlobal = s.globalBind[j.Parent]
		}
		global := parentGlobal.Mul(j.LocalBind)

		inv, ok := global.Inverse()
		if !ok {
			return fmt.Errorf("%w: joint %q", ErrSingularBind, j.Name)
		}
		s.globalBind[i] = global
		j.InverseBind = inv
	}
	return nil
}

// Len returns the number of joints.
func (s *Skeleton) Len() int {
	return len(s.joints)
}

// Root returns the root joint.
func (s *Skeleton) Root() Joint {
	return s.Joint(0)
}

// Joint returns a copy of the joint at arena index i.
func (s *Skeleton) Joint(i int) Joint {
	j := s.joints[i]
	j.Children = append([]int(nil), j.Children...)
	return j
}

// IndexOf returns the arena index of the named joint.
func (s *Skeleton) IndexOf(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns joint names in pre-order.
func (s *Skeleton) Names() []string {
	names := make([]string, len(s.joints))
	for i := range s.joints {
		names[i] = s.joints[i].Name
	}
	return names
}

// GlobalBind returns the model-space bind transform of joint i.
func (s *Skeleton) GlobalBind(i int) math.Mat4 {
	return s.globalBind[i]
}

// Flatten returns the joints in pre-order. The order is fixed at build time
// and is the index order of the skinning palette.
func (s *Skeleton) Flatten() []Joint {
	out := make([]Joint, len(s.joints))
	for i := range s.joints {
		out[i] = s.Joint(i)
	}
	return out
}

// GlobalTransformMatrices returns a copy of the current skinning palette, one
// matrix per joint in pre-order.
func (s *Skeleton) GlobalTransformMatrices() []math.Mat4 {
	return append([]math.Mat4(nil), s.palette...)
}

// PaletteByID returns the current palette indexed by bone ID rather than by
// arena index. Bone IDs with no joint get the identity matrix. A joint that
// owns its bone wins over fallback joints sharing it; among fallbacks the
// first in pre-order wins.
func (s *Skeleton) PaletteByID() []math.Mat4 {
	maxID := 0
	for i := range s.joints {
		if s.joints[i].ID > maxID {
			maxID = s.joints[i].ID
		}
	}
	out := make([]math.Mat4, maxID+1)
	set := make([]bool, maxID+1)
	for i := range out {
		out[i] = math.Identity()
	}
	for i := range s.joints {
		if !s.joints[i].Fallback {
			out[s.joints[i].ID] = s.palette[i]
			set[s.joints[i].ID] = true
		}
	}
	for i := range s.joints {
		if id := s.joints[i].ID; s.joints[i].Fallback && !set[id] {
			out[id] = s.palette[i]
			set[id] = true
		}
	}
	return out
}

// HasBone reports whether some joint drives bone id.
func (s *Skeleton) HasBone(id int) bool {
	for i := range s.joints {
		if s.joints[i].ID == id {
			return true
		}
	}
	return false
}

// IDsMatchOrder reports whether every joint's bone ID equals its arena index,
// i.e. the pre-order palette can be indexed directly by vertex bone IDs.
func (s *Skeleton) IDsMatchOrder() bool {
	for i := range s.joints {
		if s.joints[i].ID != i {
			return false
		}
	}
	return true
}

// Publish installs a fully computed palette. The palette is taken over by the
// skeleton; callers must not modify it afterwards.
func (s *Skeleton) Publish(palette []math.Mat4) error {
	if len(palette) != len(s.joints) {
		return fmt.Errorf("%w: got %d, want %d", ErrPaletteSize, len(palette), len(s.joints))
	}
	for i := range s.joints {
		s.joints[i].Animated = palette[i]
	}
	s.palette = palette
	return nil
}

// Clone returns a deep copy so that each animation player owns its own tree.
func (s *Skeleton) Clone() *Skeleton {
	c := &Skeleton{
		joints:     s.Flatten(),
		globalBind: append([]math.Mat4(nil), s.globalBind...),
		index:      make(map[string]int, len(s.index)),
		palette:    append([]math.Mat4(nil), s.palette...),
	}
	for name, i := range s.index {
		c.index[name] = i
	}
	return c
}

// Dump writes an indented tree of joints, one per line.
func (s *Skeleton) Dump(w io.Writer) error {
	return s.dump(w, 0, 0)
}

func (s *Skeleton) dump(w io.Writer, i, depth int) error {
	j := &s.joints[i]
	if _, err := fmt.Fprintf(w, "%sJoint[%d]: %s\n", strings.Repeat("  ", depth), j.ID, j.Name); err != nil {
		return err
	}
	for _, c := range j.Children {
		if err := s.dump(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
