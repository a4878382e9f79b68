// Package spatialmath defines the rigid body transforms and rotation helpers used by the
// bundle adjustment edges.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Below this rotation angle (radians) the closed form SO(3) expressions are replaced by their
// Taylor expansions.
const smallAngle = 1e-5

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize scales q to unit length.
func Normalize(q quat.Number) quat.Number {
	return quat.Scale(1/quat.Abs(q), q)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	u := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.Real)).Add(u.Cross(t))
}

// QuatToRotationVector converts a unit quaternion to a rotation vector (axis scaled by angle) with
// an angle in [0, pi].
func QuatToRotationVector(q quat.Number) r3.Vector {
	imag := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	denom := Norm(q)
	if denom < 1e-10 {
		return imag.Mul(2 / q.Real)
	}
	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}
	return imag.Mul(angle / denom)
}

// RotationVectorToQuat converts a rotation vector to a unit quaternion.
func RotationVectorToQuat(omega r3.Vector) quat.Number {
	theta := omega.Norm()
	if theta < 1e-10 {
		return Normalize(quat.Number{Real: 1, Imag: omega.X / 2, Jmag: omega.Y / 2, Kmag: omega.Z / 2})
	}
	s := math.Sin(theta/2) / theta
	return quat.Number{Real: math.Cos(theta / 2), Imag: s * omega.X, Jmag: s * omega.Y, Kmag: s * omega.Z}
}

// QuatToRotationMatrix returns the 3x3 rotation matrix of a unit quaternion.
func QuatToRotationMatrix(q quat.Number) mgl64.Mat3 {
	mq := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
	return mq.Mat4().Mat3()
}

// RotationMatrixToQuat converts a rotation matrix to a unit quaternion.
func RotationMatrixToQuat(m mgl64.Mat3) quat.Number {
	mq := mgl64.Mat4ToQuat(m.Mat4())
	return quat.Number{Real: mq.W, Imag: mq.V[0], Jmag: mq.V[1], Kmag: mq.V[2]}
}

// Skew returns the cross product matrix of v, such that Skew(v)*w == v x w.
func Skew(v r3.Vector) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v.Z, v.Y},
		mgl64.Vec3{v.Z, 0, -v.X},
		mgl64.Vec3{-v.Y, v.X, 0},
	)
}

// MulVec multiplies m by the column vector v.
func MulVec(m mgl64.Mat3, v r3.Vector) r3.Vector {
	r := m.Mul3x1(mgl64.Vec3{v.X, v.Y, v.Z})
	return r3.Vector{X: r[0], Y: r[1], Z: r[2]}
}

// Mat3ToDense copies m into a row-major gonum matrix.
func Mat3ToDense(m mgl64.Mat3) *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, m.At(i, j))
		}
	}
	return d
}
