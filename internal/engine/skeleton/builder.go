package skeleton

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

// BuildOption configures Build.
type BuildOption func(*builder)

// WithLenientLookup maps joint nodes missing from the bone table to bone 0
// instead of failing the build.
func WithLenientLookup(lenient bool) BuildOption {
	return func(b *builder) {
		b.lenient = lenient
	}
}

type builder struct {
	bones   BoneTable
	lenient bool
	joints  []Joint
	seenIDs map[int]string
	// fallbacks are names of joints that borrowed bone 0.
	fallbacks []string
}

// Build assembles a skeleton from a scene node hierarchy. root is either the
// root joint itself or a wrapping node (such as an armature) whose direct
// children contain exactly one joint. Non-joint nodes below a joint are
// skipped along with their subtrees.
//
// Joint identities come from the bone table by exact name. The bind pose is
// derived once the whole tree exists.
func Build(root dae.Node, bones BoneTable, opts ...BuildOption) (*Skeleton, error) {
	b := &builder{
		bones:   bones,
		seenIDs: make(map[int]string),
	}
	for _, opt := range opts {
		opt(b)
	}

	top := &root
	if !root.IsJoint() {
		top = nil
		for i := range root.Children {
			if !root.Children[i].IsJoint() {
				continue
			}
			if top != nil {
				return nil, fmt.Errorf("%w: %q and %q under %q",
					ErrMultipleRoots, top.Name, root.Children[i].Name, root.Name)
			}
			top = &root.Children[i]
		}
		if top == nil {
			return nil, fmt.Errorf("%w: under %q", ErrNoJoints, root.Name)
		}
	}

	if err := b.visit(top, -1); err != nil {
		return nil, err
	}
	if owner, ok := b.seenIDs[0]; ok && len(b.fallbacks) > 0 {
		logger.Warn("fallback joints share bone 0 with its owner, owner drives the bone",
			zap.String("owner", owner), zap.Strings("fallbacks", b.fallbacks))
	}
	return newSkeleton(b.joints)
}

// visit appends node and its joint descendants in pre-order.
func (b *builder) visit(node *dae.Node, parent int) error {
	id, fallback, err := b.identify(node.Name)
	if err != nil {
		return err
	}

	idx := len(b.joints)
	b.joints = append(b.joints, Joint{
		ID:        id,
		Name:      node.Name,
		Fallback:  fallback,
		Parent:    parent,
		LocalBind: node.Transform(),
	})
	if parent >= 0 {
		b.joints[parent].Children = append(b.joints[parent].Children, idx)
	}

	for i := range node.Children {
		child := &node.Children[i]
		if !child.IsJoint() {
			logger.Debug("skipping non-joint node in skeleton",
				zap.String("node", child.Name), zap.String("parent", node.Name))
			continue
		}
		if err := b.visit(child, idx); err != nil {
			return err
		}
	}
	return nil
}

// identify resolves a joint name to its bone ID. Fallback joints skip the
// duplicate check: they share bone 0 and are reported once the tree is built.
func (b *builder) identify(name string) (id int, fallback bool, err error) {
	id, ok := b.bones[name]
	if !ok {
		if !b.lenient {
			return 0, false, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
		}
		logger.Warn("joint not in bone table, using bone 0", zap.String("joint", name))
		b.fallbacks = append(b.fallbacks, name)
		return 0, true, nil
	}

	if other, dup := b.seenIDs[id]; dup {
		return 0, false, fmt.Errorf("%w: %q and %q share bone %d", ErrDuplicateJoint, other, name, id)
	}
	b.seenIDs[id] = name
	return id, false, nil
}
