package common

import (
	"math"
)

// Epsilon is the threshold below which a blend weight or duration is treated as zero.
const Epsilon float32 = 1e-6

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order.
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// BuildTRSMatrix constructs a column-major 4x4 matrix from a translation, a unit quaternion
// rotation (x, y, z, w) and a scale. The result applies scale, then rotation, then translation.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation
//   - r: rotation quaternion (x, y, z, w)
//   - s: scale factors along each axis
func BuildTRSMatrix(out []float32, t [3]float32, r [4]float32, s [3]float32) {
	x, y, z, w := r[0], r[1], r[2], r[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * s[0]
	out[1] = (2 * (xy + wz)) * s[0]
	out[2] = (2 * (xz - wy)) * s[0]
	out[3] = 0

	out[4] = (2 * (xy - wz)) * s[1]
	out[5] = (1 - 2*(xx+zz)) * s[1]
	out[6] = (2 * (yz + wx)) * s[1]
	out[7] = 0

	out[8] = (2 * (xz + wy)) * s[2]
	out[9] = (2 * (yz - wx)) * s[2]
	out[10] = (1 - 2*(xx+yy)) * s[2]
	out[11] = 0

	out[12] = t[0]
	out[13] = t[1]
	out[14] = t[2]
	out[15] = 1
}

// QuatIdentity returns the identity rotation (0, 0, 0, 1).
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatMul returns the Hamilton product a * b. Applied to a vector, b rotates first.
//
// Parameters:
//   - a: left-hand quaternion (x, y, z, w)
//   - b: right-hand quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the product quaternion
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// QuatInverse returns the inverse of q (conjugate divided by squared length).
// A zero-length quaternion yields the identity.
//
// Parameters:
//   - q: quaternion to invert
//
// Returns:
//   - [4]float32: the inverse quaternion
func QuatInverse(q [4]float32) [4]float32 {
	lenSq := QuatDot(q, q)
	if lenSq <= 0 {
		return QuatIdentity()
	}
	inv := 1 / lenSq
	return [4]float32{-q[0] * inv, -q[1] * inv, -q[2] * inv, q[3] * inv}
}

// QuatNormalize returns q scaled to unit length, or the identity if q has no length.
//
// Parameters:
//   - q: quaternion to normalize
//
// Returns:
//   - [4]float32: the normalized quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	lenSq := QuatDot(q, q)
	if lenSq <= Epsilon*Epsilon {
		return QuatIdentity()
	}
	inv := float32(1 / math.Sqrt(float64(lenSq)))
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatSlerp spherically interpolates between two unit quaternions along the shortest arc.
// Falls back to a normalized lerp when the inputs are nearly parallel.
//
// Parameters:
//   - a: start rotation
//   - b: end rotation
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	cosTheta := QuatDot(a, b)
	if cosTheta < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
		cosTheta = -cosTheta
	}

	if cosTheta > 0.9995 {
		return QuatNormalize([4]float32{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
			a[2] + (b[2]-a[2])*t,
			a[3] + (b[3]-a[3])*t,
		})
	}

	theta := math.Acos(float64(cosTheta))
	sinTheta := math.Sin(theta)
	wa := float32(math.Sin((1-float64(t))*theta) / sinTheta)
	wb := float32(math.Sin(float64(t)*theta) / sinTheta)
	return [4]float32{
		a[0]*wa + b[0]*wb,
		a[1]*wa + b[1]*wb,
		a[2]*wa + b[2]*wb,
		a[3]*wa + b[3]*wb,
	}
}

// Vec3Lerp linearly interpolates between two vectors.
func Vec3Lerp(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Vec3Add returns a + b.
func Vec3Add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Vec3Sub returns a - b.
func Vec3Sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Vec3Scale returns v * s.
func Vec3Scale(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}
