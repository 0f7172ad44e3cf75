// Package dae describes the scene data the animation core consumes from a
// COLLADA-style interchange document: the node hierarchy, the skin controller,
// the mesh streams and the animation channels.
//
// Matrices are kept in the document's row-major order; use
// math.FromRowMajor to convert them for the engine.
package dae

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/marionette/pkg/math"
)

// Scene dump errors.
var (
	ErrEmptyDocument  = errors.New("document has no nodes")
	ErrNoSkeletonRoot = errors.New("document has no joint nodes")
)

// UpAxis is the document's up axis.
type UpAxis string

// Supported up axes.
const (
	YUp UpAxis = "Y_UP"
	ZUp UpAxis = "Z_UP"
	XUp UpAxis = "X_UP"
)

// NodeType distinguishes skeleton joints from ordinary scene nodes.
type NodeType string

// Node types.
const (
	NodeNode  NodeType = "NODE"
	NodeJoint NodeType = "JOINT"
)

// Document is the subset of a parsed scene that the engine imports.
type Document struct {
	UpAxis   UpAxis    `yaml:"up_axis"`
	Nodes    []Node    `yaml:"nodes"`
	Mesh     *Mesh     `yaml:"mesh,omitempty"`
	Skin     *Skin     `yaml:"skin,omitempty"`
	Channels []Channel `yaml:"channels,omitempty"`
}

// Node is a visual scene node.
type Node struct {
	Name string   `yaml:"name"`
	Type NodeType `yaml:"type"`
	// Matrix is the authored local transform, row-major. Nil means identity.
	Matrix   *[16]float32 `yaml:"matrix,omitempty"`
	Children []Node       `yaml:"children,omitempty"`
}

// IsJoint reports whether the node is flagged as a skeletal joint.
func (n *Node) IsJoint() bool {
	return n.Type == NodeJoint
}

// Transform returns the node's local transform in engine (column-major) order.
func (n *Node) Transform() math.Mat4 {
	if n.Matrix == nil {
		return math.Identity()
	}
	return math.FromRowMajor(*n.Matrix)
}

// Mesh holds per-position vertex streams and the triangle index list.
// Normals, TexCoords and Colors are either empty or parallel to Positions.
type Mesh struct {
	Positions [][3]float32 `yaml:"positions"`
	Normals   [][3]float32 `yaml:"normals,omitempty"`
	TexCoords [][2]float32 `yaml:"texcoords,omitempty"`
	Colors    [][3]float32 `yaml:"colors,omitempty"`
	Indices   []uint32     `yaml:"indices"`
}

// Skin is a skin controller: the bone-name table and the variable-length
// per-vertex influence lists.
type Skin struct {
	// BoneNames is indexed by bone index.
	BoneNames []string `yaml:"bone_names"`
	// Weights is the shared weight source referenced by V.
	Weights []float32 `yaml:"weights"`
	// VCount holds the number of influences of each vertex.
	VCount []int `yaml:"vcount"`
	// V holds (bone index, weight index) pairs for every influence, in vertex order.
	V []int `yaml:"v"`
}

// Channel is one animation channel targeting a single joint's transform.
type Channel struct {
	Target string    `yaml:"target"`
	Times  []float32 `yaml:"times"`
	// Matrices holds one row-major local transform per entry of Times.
	Matrices [][16]float32 `yaml:"matrices"`
}

// Sample returns the i-th channel sample as an engine matrix.
func (c *Channel) Sample(i int) math.Mat4 {
	return math.FromRowMajor(c.Matrices[i])
}

// HasSkin reports whether the document carries skinning data.
func (d *Document) HasSkin() bool {
	return d.Skin != nil && len(d.Skin.BoneNames) > 0
}

// HasAnimation reports whether the document carries animation channels.
func (d *Document) HasAnimation() bool {
	return len(d.Channels) > 0
}

// SkeletonRoot returns the outermost node that contains joints, walking the
// visual scene depth-first. It returns the joint itself when a joint sits at
// the top of the scene, or the wrapping node (an "Armature") otherwise.
func (d *Document) SkeletonRoot() (Node, error) {
	if len(d.Nodes) == 0 {
		return Node{}, ErrEmptyDocument
	}
	for i := range d.Nodes {
		if n, ok := findJointContainer(&d.Nodes[i]); ok {
			return *n, nil
		}
	}
	return Node{}, ErrNoSkeletonRoot
}

func findJointContainer(n *Node) (*Node, bool) {
	if n.IsJoint() {
		return n, true
	}
	for i := range n.Children {
		if n.Children[i].IsJoint() {
			return n, true
		}
	}
	for i := range n.Children {
		if found, ok := findJointContainer(&n.Children[i]); ok {
			return found, true
		}
	}
	return nil, false
}

// Parse decodes a YAML scene dump.
func Parse(data []byte) (*Document, error) {
	doc := &Document{UpAxis: YUp}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding scene dump: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// LoadFile reads and decodes a YAML scene dump from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes the document as a YAML scene dump.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// SaveTo writes the document as a YAML scene dump.
func (d *Document) SaveTo(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
