package window

import "github.com/veandco/go-sdl2/sdl"

// Action is a viewer command produced from input events.
type Action int

// Viewer actions.
const (
	ActionNone Action = iota
	ActionQuit
	ActionTogglePause
	ActionReset
	ActionSpeedUp
	ActionSlowDown
	ActionResize
	ActionOrbitLeft
	ActionOrbitRight
	ActionOrbitUp
	ActionOrbitDown
	ActionZoomIn
	ActionZoomOut
	ActionToggleOverlay
	ActionScreenshot
)

// Repeats reports whether key auto-repeat should re-trigger the action.
func (a Action) Repeats() bool {
	switch a {
	case ActionOrbitLeft, ActionOrbitRight, ActionOrbitUp, ActionOrbitDown:
		return true
	}
	return false
}

// KeyAction maps a key to its viewer action.
func KeyAction(key sdl.Keycode) Action {
	switch key {
	case sdl.K_ESCAPE, sdl.K_q:
		return ActionQuit
	case sdl.K_SPACE:
		return ActionTogglePause
	case sdl.K_r:
		return ActionReset
	case sdl.K_EQUALS, sdl.K_KP_PLUS, sdl.K_RIGHTBRACKET:
		return ActionSpeedUp
	case sdl.K_MINUS, sdl.K_KP_MINUS, sdl.K_LEFTBRACKET:
		return ActionSlowDown
	case sdl.K_b:
		return ActionToggleOverlay
	case sdl.K_F12:
		return ActionScreenshot
	case sdl.K_LEFT:
		return ActionOrbitLeft
	case sdl.K_RIGHT:
		return ActionOrbitRight
	case sdl.K_UP:
		return ActionOrbitUp
	case sdl.K_DOWN:
		return ActionOrbitDown
	default:
		return ActionNone
	}
}

// PollActions drains the SDL event queue and returns the actions it
// produced, in order.
func (w *Window) PollActions() []Action {
	var actions []Action
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			actions = append(actions, ActionQuit)
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN {
				continue
			}
			// Held arrows keep orbiting; everything else fires once per press.
			a := KeyAction(e.Keysym.Sym)
			if e.Repeat != 0 && !a.Repeats() {
				continue
			}
			if a != ActionNone {
				actions = append(actions, a)
			}
		case *sdl.MouseWheelEvent:
			if e.Y > 0 {
				actions = append(actions, ActionZoomIn)
			} else if e.Y < 0 {
				actions = append(actions, ActionZoomOut)
			}
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				actions = append(actions, ActionResize)
			}
		}
	}
	return actions
}
