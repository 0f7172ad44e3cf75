package window

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  sdl.Keycode
		want Action
	}{
		{sdl.K_SPACE, ActionTogglePause},
		{sdl.K_r, ActionReset},
		{sdl.K_ESCAPE, ActionQuit},
		{sdl.K_q, ActionQuit},
		{sdl.K_EQUALS, ActionSpeedUp},
		{sdl.K_MINUS, ActionSlowDown},
		{sdl.K_LEFT, ActionOrbitLeft},
		{sdl.K_DOWN, ActionOrbitDown},
		{sdl.K_b, ActionToggleOverlay},
		{sdl.K_F12, ActionScreenshot},
		{sdl.K_a, ActionNone},
	}

	for _, tt := range tests {
		if got := KeyAction(tt.key); got != tt.want {
			t.Errorf("KeyAction(%d) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestActionRepeats(t *testing.T) {
	if !ActionOrbitLeft.Repeats() {
		t.Error("orbiting should repeat while the key is held")
	}
	if ActionTogglePause.Repeats() {
		t.Error("pause toggles once per press")
	}
}
