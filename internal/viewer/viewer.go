// Package viewer implements the interactive skinned mesh viewer loop.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/assets"
	"github.com/Faultbox/marionette/internal/config"
	"github.com/Faultbox/marionette/internal/engine/camera"
	"github.com/Faultbox/marionette/internal/engine/debug"
	"github.com/Faultbox/marionette/internal/engine/lighting"
	"github.com/Faultbox/marionette/internal/engine/model"
	"github.com/Faultbox/marionette/internal/engine/renderer"
	"github.com/Faultbox/marionette/internal/engine/window"
	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

// Viewer shows one scene dump and plays its clip.
type Viewer struct {
	cfg   *config.Config
	scene string

	assets   *assets.Manager
	reloads  <-chan assets.Reload
	window   *window.Window
	renderer *renderer.Renderer

	mesh     *model.AnimatedMesh
	gpu      *renderer.SkinnedMesh
	controls Controls

	overlay     bool
	screenshots *debug.ScreenshotCapture
	pendingShot bool
}

// Overlay colors.
var (
	boneColor   = [3]float32{1.0, 0.8, 0.2}
	boundsColor = [3]float32{0.3, 0.8, 1.0}
)

// New opens the window, creates the renderer and loads the scene.
func New(cfg *config.Config, scene string) (*Viewer, error) {
	v := &Viewer{
		cfg:         cfg,
		scene:       scene,
		assets:      assets.NewManager(cfg.Assets.Paths...),
		screenshots: debug.NewScreenshotCapture("screenshots", "marionette"),
	}

	doc, path, err := v.assets.LoadDocument(scene)
	if err != nil {
		return nil, err
	}
	mesh, err := model.Load(doc, LoadOptions(cfg.Animation))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	// Create window (this also creates OpenGL context)
	v.window, err = window.New(window.Config{
		Title:      "marionette - " + filepath.Base(path),
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	v.renderer, err = renderer.New(renderer.Config{
		Width:     cfg.Graphics.Width,
		Height:    cfg.Graphics.Height,
		MaxJoints: cfg.Animation.MaxJoints,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.Resize(v.window.DrawableSize())
	v.renderer.Skinned.SetLight(lighting.Sun{
		Azimuth:   cfg.Lighting.Azimuth,
		Elevation: cfg.Lighting.Elevation,
		Ambient:   cfg.Lighting.Ambient,
	})

	cam := camera.NewOrbitCamera()
	v.controls.Camera = cam
	if err := v.setMesh(mesh); err != nil {
		v.Close()
		return nil, err
	}
	b := mesh.SkinnedBounds()
	cam.FitSphere(b.Center(), b.Radius())

	if cfg.Assets.Watch {
		v.reloads, err = v.assets.Watch(path)
		if err != nil {
			logger.Warn("hot reload disabled", zap.Error(err))
		}
	}

	logger.Info("viewer initialized", zap.String("scene", path))
	return v, nil
}

// setMesh uploads a mesh and swaps it in. The current mesh stays when the
// upload fails.
func (v *Viewer) setMesh(mesh *model.AnimatedMesh) error {
	gpu, err := v.renderer.Skinned.Upload(mesh)
	if err != nil {
		return fmt.Errorf("uploading mesh: %w", err)
	}
	if v.gpu != nil {
		v.gpu.Delete()
	}
	v.mesh, v.gpu = mesh, gpu
	v.controls.Mesh = mesh
	return nil
}

// Run starts the main loop. It returns when the window is closed or a
// frame fails.
func (v *Viewer) Run() error {
	running := true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if v.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	}

	logger.Info("starting viewer loop")

	for running {
		frameStart := time.Now()
		dt := frameStart.Sub(lastTime).Seconds()
		lastTime = frameStart

		// 1. Process input
		for _, a := range v.window.PollActions() {
			switch a {
			case window.ActionResize:
				v.renderer.Resize(v.window.DrawableSize())
				continue
			case window.ActionToggleOverlay:
				v.overlay = !v.overlay
				continue
			case window.ActionScreenshot:
				v.pendingShot = true
				continue
			}
			quit, err := v.controls.Apply(a)
			if err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			if quit {
				running = false
			}
		}

		// 2. Swap in reloaded scenes
		v.drainReloads()

		// 3. Advance playback
		if err := v.mesh.Update(float32(dt)); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		// 4. Render
		if err := v.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		if v.pendingShot {
			v.pendingShot = false
			v.screenshot()
		}

		// 5. Present (swap buffers)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.updateTitle(frameCount)
			logger.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if rest := frameBudget - time.Since(frameStart); rest > 0 {
				time.Sleep(rest)
			}
		}
	}

	return nil
}

func (v *Viewer) drainReloads() {
	for {
		select {
		case r, ok := <-v.reloads:
			if !ok {
				v.reloads = nil
				return
			}
			v.reload(r)
		default:
			return
		}
	}
}

func (v *Viewer) reload(r assets.Reload) {
	if r.Err != nil {
		logger.Warn("scene reload failed, keeping current scene", zap.String("path", r.Path), zap.Error(r.Err))
		return
	}
	mesh, err := model.Load(r.Doc, LoadOptions(v.cfg.Animation))
	if err != nil {
		logger.Warn("scene reload failed, keeping current scene", zap.String("path", r.Path), zap.Error(err))
		return
	}
	prev := v.mesh.Player
	if err := v.setMesh(mesh); err != nil {
		logger.Warn("scene reload failed, keeping current scene", zap.String("path", r.Path), zap.Error(err))
		return
	}
	if err := keepPlayback(prev, mesh); err != nil {
		logger.Warn("could not restore playback state", zap.Error(err))
	}
	logger.Info("scene reloaded", zap.String("path", r.Path))
}

func (v *Viewer) render() error {
	v.renderer.Begin()

	viewProj := v.controls.Camera.ViewProj(v.renderer.Aspect())
	modelMatrix := model.UpAxisCorrection(v.mesh.UpAxis)
	if err := v.renderer.Skinned.Draw(v.gpu, viewProj, modelMatrix, v.mesh.Palette()); err != nil {
		return err
	}

	if v.overlay {
		v.renderer.Lines.Draw(viewProj, modelMatrix, debug.BoundsLines(v.mesh.SkinnedBounds(), 0), boundsColor)
		if v.mesh.Skeleton != nil {
			v.renderer.Lines.Draw(viewProj, modelMatrix, debug.SkeletonLines(v.mesh.Skeleton), boneColor)
		}
	}
	return nil
}

func (v *Viewer) screenshot() {
	width, height := v.renderer.Size()
	path, err := v.screenshots.CaptureFromPixels(v.renderer.ReadPixels(), width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) updateTitle(fps int) {
	title := fmt.Sprintf("marionette - %s - %d fps", filepath.Base(v.scene), fps)
	if p := v.mesh.Player; p != nil {
		title += fmt.Sprintf(" - %s %.2fs x%.3g", p.State(), p.Time(), p.Speed())
	}
	v.window.SetTitle(title)
}

// Close releases GPU resources, the window and the file watcher.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if err := v.assets.Close(); err != nil {
		logger.Warn("closing asset watcher", zap.Error(err))
	}
	if v.gpu != nil {
		v.gpu.Delete()
		v.gpu = nil
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// Document loads a scene dump through the configured search paths without
// opening a window.
func Document(cfg *config.Config, scene string) (*dae.Document, string, error) {
	m := assets.NewManager(cfg.Assets.Paths...)
	defer m.Close()
	return m.LoadDocument(scene)
}
