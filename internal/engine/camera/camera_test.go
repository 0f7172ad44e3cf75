package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/marionette/pkg/math"
)

func TestPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Distance = 10
	c.Pitch = 0
	c.Yaw = 0

	want := math.Vec3{X: 1, Y: 2, Z: 13}
	if got := c.Position(); !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Position() = %+v, want %+v", got, want)
	}

	c.Yaw = gomath.Pi / 2
	want = math.Vec3{X: 11, Y: 2, Z: 3}
	if got := c.Position(); !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Position() after yaw = %+v, want %+v", got, want)
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.Orbit(0, 100)
	if c.Pitch != c.MaxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.Orbit(0, -100)
	if c.Pitch != c.MinPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
	c.Orbit(2, 0)
	if gomath.Abs(float64(c.Yaw-2*c.OrbitStep)) > 1e-6 {
		t.Errorf("Yaw = %v, want %v", c.Yaw, 2*c.OrbitStep)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.MinDistance, c.MaxDistance = 1, 10
	c.Distance = 5

	c.HandleZoom(100)
	if c.Distance != 1 {
		t.Errorf("Distance = %v, want 1", c.Distance)
	}
	c.HandleZoom(-1000)
	if c.Distance != 10 {
		t.Errorf("Distance = %v, want 10", c.Distance)
	}
}

func TestFitSphere(t *testing.T) {
	c := NewOrbitCamera()
	c.FitSphere([3]float32{0, 1, 0}, 2)

	if c.Center != (math.Vec3{Y: 1}) {
		t.Errorf("Center = %+v", c.Center)
	}
	want := 2 / float32(gomath.Sin(gomath.Pi/8))
	if gomath.Abs(float64(c.Distance-want)) > 1e-4 {
		t.Errorf("Distance = %v, want %v", c.Distance, want)
	}

	// The sphere center lands in the middle of the viewport.
	p := c.ViewProj(1)
	ndc := p.TransformPoint([3]float32{0, 1, 0})
	if gomath.Abs(float64(ndc[0])) > 1e-4 || gomath.Abs(float64(ndc[1])) > 1e-4 {
		t.Errorf("center projects to %v, want origin", ndc)
	}
}
