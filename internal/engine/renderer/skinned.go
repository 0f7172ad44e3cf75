package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/engine/lighting"
	"github.com/Faultbox/marionette/internal/engine/model"
	"github.com/Faultbox/marionette/internal/engine/renderer/shaders"
	"github.com/Faultbox/marionette/internal/engine/shader"
	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/math"
)

// SkinnedMesh is a mesh uploaded to the GPU with its bone attributes.
type SkinnedMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	joints     int
}

// Joints returns the palette size the mesh was validated against.
func (m *SkinnedMesh) Joints() int {
	return m.joints
}

// Delete releases the mesh's GPU buffers.
func (m *SkinnedMesh) Delete() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	*m = SkinnedMesh{}
}

// SkinnedRenderer draws meshes deformed by a joint palette.
type SkinnedRenderer struct {
	program   uint32
	maxJoints int

	// Uniform locations
	locViewProj int32
	locModel    int32
	locJoints   int32
	locLightDir int32
	locAmbient  int32

	identity []math.Mat4
	lightDir [3]float32
	ambient  [3]float32
}

// NewSkinnedRenderer compiles the skinning shader with a palette of
// maxJoints matrices.
func NewSkinnedRenderer(maxJoints int) (*SkinnedRenderer, error) {
	if err := ValidatePalette(1, maxJoints); err != nil {
		return nil, err
	}

	defines := shader.Defines{"MAX_JOINTS": maxJoints}
	program, err := shader.CompileProgram(
		defines.Expand(shaders.SkinnedVertexShader),
		shaders.SkinnedFragmentShader,
	)
	if err != nil {
		return nil, fmt.Errorf("skinned shader: %w", err)
	}

	r := &SkinnedRenderer{
		program:   program,
		maxJoints: maxJoints,
		identity:  []math.Mat4{math.Identity()},
	}
	r.SetLight(lighting.Sun{Azimuth: 35, Elevation: 55, Ambient: [3]float32{0.3, 0.3, 0.35}})
	r.locViewProj = shader.GetUniform(program, "uViewProj")
	r.locModel = shader.GetUniform(program, "uModel")
	r.locJoints = shader.GetUniform(program, "uJoints")
	r.locLightDir = shader.GetUniform(program, "uLightDir")
	r.locAmbient = shader.GetUniform(program, "uAmbient")

	logger.Debug("skinned renderer ready", zap.Int("max_joints", maxJoints))
	return r, nil
}

// SetLight changes the directional light used by Draw.
func (r *SkinnedRenderer) SetLight(sun lighting.Sun) {
	r.lightDir = sun.LightDir()
	r.ambient = sun.Ambient
}

// MaxJoints returns the palette capacity.
func (r *SkinnedRenderer) MaxJoints() int {
	return r.maxJoints
}

// Close deletes the shader program.
func (r *SkinnedRenderer) Close() {
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
}

// Upload validates the mesh's skeleton against the palette capacity and
// creates its vertex array. Static meshes are drawn with a one-entry
// identity palette.
func (r *SkinnedRenderer) Upload(m *model.AnimatedMesh) (*SkinnedMesh, error) {
	joints := 1
	if m.Skeleton != nil {
		joints = len(m.Palette())
	}
	if err := ValidatePalette(joints, r.maxJoints); err != nil {
		return nil, err
	}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil, model.ErrNoMesh
	}

	sm := &SkinnedMesh{joints: joints}

	gl.GenVertexArrays(1, &sm.vao)
	gl.BindVertexArray(sm.vao)

	gl.GenBuffers(1, &sm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, sm.vbo)
	vertexSize := int(unsafe.Sizeof(model.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*vertexSize, unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	stride := int32(vertexSize)
	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.Position))
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.Normal))
	gl.EnableVertexAttribArray(1)
	// TexCoord
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.TexCoord))
	gl.EnableVertexAttribArray(2)
	// Bone IDs
	gl.VertexAttribPointerWithOffset(3, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.BoneIDs))
	gl.EnableVertexAttribArray(3)
	// Bone weights
	gl.VertexAttribPointerWithOffset(4, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.BoneWeights))
	gl.EnableVertexAttribArray(4)
	// Color
	gl.VertexAttribPointerWithOffset(5, 3, gl.FLOAT, false, stride, unsafe.Offsetof(model.Vertex{}.Color))
	gl.EnableVertexAttribArray(5)

	gl.GenBuffers(1, &sm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, sm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	sm.indexCount = int32(len(m.Indices))
	gl.BindVertexArray(0)

	logger.Debug("skinned mesh uploaded",
		zap.Uint32("vao", sm.vao),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("joints", joints))
	return sm, nil
}

// Draw renders the mesh with the given palette. A nil palette draws the
// mesh in bind space.
func (r *SkinnedRenderer) Draw(sm *SkinnedMesh, viewProj, modelMatrix math.Mat4, palette []math.Mat4) error {
	if palette == nil {
		palette = r.identity
	}
	if err := ValidatePalette(len(palette), r.maxJoints); err != nil {
		return err
	}

	gl.UseProgram(r.program)
	shader.SetMat4(r.locViewProj, viewProj)
	shader.SetMat4(r.locModel, modelMatrix)
	shader.UploadMat4Array(r.locJoints, palette)
	gl.Uniform3fv(r.locLightDir, 1, &r.lightDir[0])
	gl.Uniform3fv(r.locAmbient, 1, &r.ambient[0])

	gl.BindVertexArray(sm.vao)
	gl.DrawElements(gl.TRIANGLES, sm.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	return nil
}
