// Package renderer provides OpenGL rendering of skinned meshes.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// MaxJoints is the size of the skinning palette uniform.
	MaxJoints int
}

// Renderer owns the GL frame state and the skinned mesh pipeline.
type Renderer struct {
	config Config

	Skinned *SkinnedRenderer
	Lines   *LineRenderer
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := ValidatePalette(1, cfg.MaxJoints); err != nil {
		return nil, fmt.Errorf("renderer config: %w", err)
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0) // Dark blue-gray background

	skinned, err := NewSkinnedRenderer(cfg.MaxJoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create skinned renderer: %w", err)
	}

	lines, err := NewLineRenderer()
	if err != nil {
		skinned.Close()
		return nil, fmt.Errorf("failed to create line renderer: %w", err)
	}

	r := &Renderer{
		config:  cfg,
		Skinned: skinned,
		Lines:   lines,
	}
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.Skinned != nil {
		r.Skinned.Close()
	}
	if r.Lines != nil {
		r.Lines.Close()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Size returns the viewport size in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.config.Width, r.config.Height
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() []byte {
	pixels := make([]byte, r.config.Width*r.config.Height*4)
	gl.ReadPixels(0, 0, int32(r.config.Width), int32(r.config.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}
