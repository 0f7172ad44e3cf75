// Package lighting provides the directional light used to shade meshes.
package lighting

import "math"

// Sun is a directional light with an ambient term.
type Sun struct {
	// Azimuth is the rotation around +Y in degrees; 0 places the sun on +Z.
	Azimuth float32
	// Elevation is the angle above the horizon in degrees.
	Elevation float32
	Ambient   [3]float32
}

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the sun.
func SunDirection(azimuth, elevation float32) [3]float32 {
	az := float64(azimuth) * math.Pi / 180.0
	el := float64(elevation) * math.Pi / 180.0

	x := float32(math.Cos(el) * math.Sin(az))
	y := float32(math.Sin(el))
	z := float32(math.Cos(el) * math.Cos(az))

	return [3]float32{x, y, z}
}

// LightDir returns the direction the light travels, away from the sun.
func (s Sun) LightDir() [3]float32 {
	d := SunDirection(s.Azimuth, s.Elevation)
	return [3]float32{-d[0], -d[1], -d[2]}
}
