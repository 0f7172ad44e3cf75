package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// singularDet is the determinant magnitude under which a matrix is treated as
// non-invertible.
const singularDet = 1e-12

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4(mgl32.Ident4())
}

// FromRowMajor builds a Mat4 from 16 values listed row by row, the order used
// by COLLADA <matrix> elements.
func FromRowMajor(v [16]float32) Mat4 {
	var m Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[col*4+row] = v[row*4+col]
		}
	}
	return m
}

// RowMajor returns the matrix values row by row.
func (m Mat4) RowMajor() [16]float32 {
	var v [16]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v[row*4+col] = m[col*4+row]
		}
	}
	return v
}

// Perspective returns a perspective projection matrix.
// fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(fovY, aspect, near, far))
}

// LookAt returns a view matrix looking from eye to center with up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(
		mgl32.Vec3{eye.X, eye.Y, eye.Z},
		mgl32.Vec3{center.X, center.Y, center.Z},
		mgl32.Vec3{up.X, up.Y, up.Z},
	))
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// TranslateVec3 returns a translation matrix for v.
func TranslateVec3(v Vec3) Mat4 {
	return Translate(v.X, v.Y, v.Z)
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation matrix around the Y axis.
// angle is in radians.
func RotateY(angle float32) Mat4 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))

	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns a rotation matrix around the X axis.
// angle is in radians.
func RotateX(angle float32) Mat4 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))

	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// TranslationRotation returns translation(pos) * rotation(rot), the local
// transform of an animated joint.
func TranslationRotation(pos Vec3, rot Quat) Mat4 {
	m := rot.ToMat4()
	m[12], m[13], m[14] = pos.X, pos.Y, pos.Z
	return m
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(other)))
}

// Inverse returns the inverse of the matrix. ok is false when the matrix is
// singular, in which case the returned matrix must not be used.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	g := mgl32.Mat4(m)
	det := g.Det()
	if math.IsNaN(float64(det)) || math.IsInf(float64(det), 0) || math.Abs(float64(det)) < singularDet {
		return Mat4{}, false
	}
	return Mat4(g.Inv()), true
}

// Column returns the first three components of column c.
func (m Mat4) Column(c int) Vec3 {
	return Vec3{m[c*4], m[c*4+1], m[c*4+2]}
}

// Translation returns the translation part (last column, truncated).
func (m Mat4) Translation() Vec3 {
	return m.Column(3)
}

// Decompose splits an affine transform into translation, per-axis scale and
// rotation. The rotation is taken from the upper 3x3 block after dividing each
// column by its own length. ok is false if any axis has zero length.
func (m Mat4) Decompose() (translation, scale Vec3, rotation Quat, ok bool) {
	x, y, z := m.Column(0), m.Column(1), m.Column(2)
	scale = Vec3{x.Length(), y.Length(), z.Length()}
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return Vec3{}, Vec3{}, Quat{}, false
	}

	x = x.Scale(1 / scale.X)
	y = y.Scale(1 / scale.Y)
	z = z.Scale(1 / scale.Z)

	rot := Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		0, 0, 0, 1,
	}
	return m.Translation(), scale, QuatFromMat4(rot), true
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// ApproxEqual reports whether all elements differ by at most eps.
func (m Mat4) ApproxEqual(other Mat4, eps float32) bool {
	for i := range m {
		if absf(m[i]-other[i]) > eps {
			return false
		}
	}
	return true
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
