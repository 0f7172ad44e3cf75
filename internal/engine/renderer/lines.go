package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/marionette/internal/engine/renderer/shaders"
	"github.com/Faultbox/marionette/internal/engine/shader"
	"github.com/Faultbox/marionette/pkg/math"
)

// LineRenderer draws flat-colored line lists, streamed every frame.
type LineRenderer struct {
	program uint32
	vao     uint32
	vbo     uint32

	// capacity of vbo in floats
	capacity int

	locViewProj int32
	locModel    int32
	locColor    int32
}

// NewLineRenderer compiles the line shader and creates a streaming buffer.
func NewLineRenderer() (*LineRenderer, error) {
	program, err := shader.CompileProgram(shaders.LineVertexShader, shaders.LineFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("line shader: %w", err)
	}

	r := &LineRenderer{program: program}
	r.locViewProj = shader.GetUniform(program, "uViewProj")
	r.locModel = shader.GetUniform(program, "uModel")
	r.locColor = shader.GetUniform(program, "uColor")

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	return r, nil
}

// Draw renders vertices, three floats per vertex, as GL_LINES. Lines are
// drawn over the scene without depth testing.
func (r *LineRenderer) Draw(viewProj, modelMatrix math.Mat4, vertices []float32, color [3]float32) {
	if len(vertices) < 6 {
		return
	}

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	size := len(vertices) * 4
	if len(vertices) > r.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, unsafe.Pointer(&vertices[0]), gl.DYNAMIC_DRAW)
		r.capacity = len(vertices)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&vertices[0]))
	}

	gl.UseProgram(r.program)
	shader.SetMat4(r.locViewProj, viewProj)
	shader.SetMat4(r.locModel, modelMatrix)
	gl.Uniform3f(r.locColor, color[0], color[1], color[2])

	gl.Disable(gl.DEPTH_TEST)
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/3))
	gl.Enable(gl.DEPTH_TEST)
	gl.BindVertexArray(0)
}

// Close deletes the buffers and shader program.
func (r *LineRenderer) Close() {
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
}
