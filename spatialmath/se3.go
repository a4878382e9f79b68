package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// ErrNonUnitQuaternion is returned when a decoded rotation is not a unit quaternion.
var ErrNonUnitQuaternion = errors.New("rotation quaternion is not of unit length")

// UnitQuaternionTolerance is how far the norm of a decoded rotation may drift from 1 before
// Validate rejects it.
const UnitQuaternionTolerance = 1e-3

// Twist is an element of the tangent space of SE(3): rotation part first, then translation.
type Twist [6]float64

// NewTwist assembles a twist from its rotation and translation parts.
func NewTwist(omega, upsilon r3.Vector) Twist {
	return Twist{omega.X, omega.Y, omega.Z, upsilon.X, upsilon.Y, upsilon.Z}
}

// Omega is the rotation part of the twist.
func (tw Twist) Omega() r3.Vector {
	return r3.Vector{X: tw[0], Y: tw[1], Z: tw[2]}
}

// Upsilon is the translation part of the twist.
func (tw Twist) Upsilon() r3.Vector {
	return r3.Vector{X: tw[3], Y: tw[4], Z: tw[5]}
}

// SE3 is a rigid body transform stored as a rotation quaternion and a translation. It maps a point
// p to R*p + t.
type SE3 struct {
	rotation    quat.Number
	translation r3.Vector
}

// NewZeroSE3 returns the identity transform.
func NewZeroSE3() SE3 {
	return SE3{rotation: quat.Number{Real: 1}}
}

// NewSE3 returns the transform with rotation q (normalized) and translation t.
func NewSE3(q quat.Number, t r3.Vector) SE3 {
	return SE3{rotation: Normalize(q), translation: t}
}

// NewSE3FromRotationMatrix returns the transform with rotation m and translation t.
func NewSE3FromRotationMatrix(m mgl64.Mat3, t r3.Vector) SE3 {
	return NewSE3(RotationMatrixToQuat(m), t)
}

// Rotation returns the rotation quaternion.
func (p SE3) Rotation() quat.Number {
	return p.rotation
}

// Translation returns the translation.
func (p SE3) Translation() r3.Vector {
	return p.translation
}

// RotationMatrix returns the rotation as a 3x3 matrix.
func (p SE3) RotationMatrix() mgl64.Mat3 {
	return QuatToRotationMatrix(p.rotation)
}

// Transform applies the transform to a point.
func (p SE3) Transform(v r3.Vector) r3.Vector {
	return RotateVector(p.rotation, v).Add(p.translation)
}

// Compose returns a*b, the transform that applies b first and then a. The resulting rotation is
// renormalized.
func Compose(a, b SE3) SE3 {
	return SE3{
		rotation:    Normalize(quat.Mul(a.rotation, b.rotation)),
		translation: a.Transform(b.translation),
	}
}

// Mul is Compose(p, o).
func (p SE3) Mul(o SE3) SE3 {
	return Compose(p, o)
}

// Inverse returns the inverse transform.
func (p SE3) Inverse() SE3 {
	inv := quat.Conj(p.rotation)
	return SE3{rotation: inv, translation: RotateVector(inv, p.translation).Mul(-1)}
}

// Log returns the twist whose exponential is p.
func (p SE3) Log() Twist {
	omega := QuatToRotationVector(p.rotation)
	theta := omega.Norm()
	skew := Skew(omega)

	var c float64
	if theta < smallAngle {
		c = 1. / 12.
	} else {
		c = (1 - theta/(2*math.Tan(theta/2))) / (theta * theta)
	}
	vInv := mgl64.Ident3().Sub(skew.Mul(0.5)).Add(skew.Mul3(skew).Mul(c))
	return NewTwist(omega, MulVec(vInv, p.translation))
}

// ExpSE3 maps a twist onto SE(3).
func ExpSE3(tw Twist) SE3 {
	omega := tw.Omega()
	theta := omega.Norm()
	skew := Skew(omega)

	var a, b float64
	if theta < smallAngle {
		a = 0.5 - theta*theta/24
		b = 1./6. - theta*theta/120
	} else {
		a = (1 - math.Cos(theta)) / (theta * theta)
		b = (theta - math.Sin(theta)) / (theta * theta * theta)
	}
	v := mgl64.Ident3().Add(skew.Mul(a)).Add(skew.Mul3(skew).Mul(b))
	return SE3{rotation: RotationVectorToQuat(omega), translation: MulVec(v, tw.Upsilon())}
}

// Adjoint returns the 6x6 matrix that carries a twist applied on the right of p to the equivalent
// twist applied on the left: p*exp(x) == exp(Adjoint(p)*x)*p.
func (p SE3) Adjoint() *mat.Dense {
	r := p.RotationMatrix()
	tr := Skew(p.translation).Mul3(r)
	adj := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			adj.Set(i, j, r.At(i, j))
			adj.Set(i+3, j+3, r.At(i, j))
			adj.Set(i+3, j, tr.At(i, j))
		}
	}
	return adj
}

// ToVector returns [tx ty tz qx qy qz qw].
func (p SE3) ToVector() [7]float64 {
	t, q := p.translation, p.rotation
	return [7]float64{t.X, t.Y, t.Z, q.Imag, q.Jmag, q.Kmag, q.Real}
}

// SE3FromVector is the inverse of ToVector. The quaternion is taken as is; callers decoding
// untrusted input should call Validate.
func SE3FromVector(v [7]float64) SE3 {
	return SE3{
		rotation:    quat.Number{Real: v[6], Imag: v[3], Jmag: v[4], Kmag: v[5]},
		translation: r3.Vector{X: v[0], Y: v[1], Z: v[2]},
	}
}

// ToMinimal returns [rx ry rz tx ty tz] where r is the rotation vector.
func (p SE3) ToMinimal() [6]float64 {
	w := QuatToRotationVector(p.rotation)
	t := p.translation
	return [6]float64{w.X, w.Y, w.Z, t.X, t.Y, t.Z}
}

// SE3FromMinimal is the inverse of ToMinimal.
func SE3FromMinimal(v [6]float64) SE3 {
	return SE3{
		rotation:    RotationVectorToQuat(r3.Vector{X: v[0], Y: v[1], Z: v[2]}),
		translation: r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}
}

// Validate checks that the rotation is a unit quaternion.
func (p SE3) Validate() error {
	if n := quat.Abs(p.rotation); math.Abs(n-1) > UnitQuaternionTolerance || math.IsNaN(n) {
		return errors.Wrapf(ErrNonUnitQuaternion, "norm %v", n)
	}
	return nil
}

// SE3AlmostEqual returns whether a and b describe the same transform within tol.
func SE3AlmostEqual(a, b SE3, tol float64) bool {
	if a.translation.Sub(b.translation).Norm() > tol {
		return false
	}
	d := quat.Mul(quat.Conj(a.rotation), b.rotation)
	return math.Abs(math.Abs(d.Real)-1) <= tol && Norm(d) <= tol
}
