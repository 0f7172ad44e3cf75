// Package camera provides the orbit camera used to inspect a posed mesh.
package camera

import (
	gomath "math"

	"github.com/Faultbox/marionette/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around +Y

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// FovY is the vertical field of view in radians.
	FovY float32

	OrbitStep       float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		Pitch:           0.3,
		MinDistance:     0.1,
		MaxDistance:     1000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FovY:            gomath.Pi / 4,
		OrbitStep:       0.1,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	x := c.Distance * float32(cp*gomath.Sin(float64(c.Yaw)))
	y := c.Distance * float32(gomath.Sin(float64(c.Pitch)))
	z := c.Distance * float32(cp*gomath.Cos(float64(c.Yaw)))

	return math.Vec3{X: c.Center.X + x, Y: c.Center.Y + y, Z: c.Center.Z + z}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ViewProj returns projection * view for a viewport aspect ratio. The clip
// planes follow the orbit distance so small and large rigs both fit.
func (c *OrbitCamera) ViewProj(aspect float32) math.Mat4 {
	near := c.Distance * 0.01
	far := c.Distance * 100
	return math.Perspective(c.FovY, aspect, near, far).Mul(c.ViewMatrix())
}

// Orbit rotates the camera by a number of orbit steps.
func (c *OrbitCamera) Orbit(yawSteps, pitchSteps float32) {
	c.Yaw += yawSteps * c.OrbitStep
	c.Pitch += pitchSteps * c.OrbitStep
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// FitSphere centers the camera on a bounding sphere and backs off until the
// sphere fills the vertical field of view.
func (c *OrbitCamera) FitSphere(center [3]float32, radius float32) {
	c.Center = math.Vec3{X: center[0], Y: center[1], Z: center[2]}
	if radius <= 0 {
		radius = 1
	}
	c.Distance = radius / float32(gomath.Sin(float64(c.FovY/2)))
	c.MinDistance = radius * 0.1
	c.MaxDistance = c.Distance * 20
}
