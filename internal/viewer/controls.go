package viewer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/config"
	"github.com/Faultbox/marionette/internal/engine/animation"
	"github.com/Faultbox/marionette/internal/engine/camera"
	"github.com/Faultbox/marionette/internal/engine/model"
	"github.com/Faultbox/marionette/internal/engine/window"
	"github.com/Faultbox/marionette/internal/logger"
)

// Playback speed limits reachable from the keyboard.
const (
	MinSpeed    = 0.125
	MaxSpeed    = 8
	speedFactor = 2
)

// LoadOptions converts animation settings to model import options.
func LoadOptions(cfg config.AnimationConfig) model.LoadOptions {
	return model.LoadOptions{
		LenientJoints:    !cfg.StrictJoints,
		BindPoseFallback: cfg.BindPoseFallback,
		Speed:            cfg.PlaybackSpeed,
		StartPaused:      cfg.StartPaused,
	}
}

// Controls applies viewer actions to the playing mesh and the camera.
type Controls struct {
	Mesh   *model.AnimatedMesh
	Camera *camera.OrbitCamera
}

// Apply executes one action. It reports whether the viewer should quit.
// Resize is left to the caller, which owns the GL viewport.
func (c *Controls) Apply(a window.Action) (quit bool, err error) {
	switch a {
	case window.ActionQuit:
		return true, nil
	case window.ActionOrbitLeft:
		c.Camera.Orbit(-1, 0)
	case window.ActionOrbitRight:
		c.Camera.Orbit(1, 0)
	case window.ActionOrbitUp:
		c.Camera.Orbit(0, 1)
	case window.ActionOrbitDown:
		c.Camera.Orbit(0, -1)
	case window.ActionZoomIn:
		c.Camera.HandleZoom(1)
	case window.ActionZoomOut:
		c.Camera.HandleZoom(-1)
	}

	if c.Mesh == nil || !c.Mesh.Animated() {
		return false, nil
	}
	p := c.Mesh.Player

	switch a {
	case window.ActionTogglePause:
		p.TogglePause()
		logger.Debug("playback toggled", zap.Stringer("state", p.State()))
	case window.ActionReset:
		if err := p.Reset(); err != nil {
			return false, err
		}
		logger.Debug("playback reset")
	case window.ActionSpeedUp:
		return false, c.setSpeed(p.Speed() * speedFactor)
	case window.ActionSlowDown:
		return false, c.setSpeed(p.Speed() / speedFactor)
	}
	return false, nil
}

func (c *Controls) setSpeed(speed float32) error {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	if err := c.Mesh.Player.SetSpeed(speed); err != nil {
		return err
	}
	logger.Debug("playback speed", zap.Float32("speed", speed))
	return nil
}

// keepPlayback carries speed, pause state and time from a replaced player
// over to a freshly loaded mesh.
func keepPlayback(prev *animation.Player, next *model.AnimatedMesh) error {
	if prev == nil || !next.Animated() {
		return nil
	}
	p := next.Player
	if err := p.SetSpeed(prev.Speed()); err != nil {
		return err
	}
	if prev.Paused() {
		return p.PauseToPose(prev.Time())
	}
	if p.Paused() {
		p.TogglePause()
	}
	// Advance from 0 to the old time; Animate wraps into the new clip.
	return p.Animate(prev.Time(), p.Clip().Duration())
}
