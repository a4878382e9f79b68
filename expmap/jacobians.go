package expmap

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/spatialmath"
)

// monoPoseJacobian is the derivative of -project(y) with respect to a left increment of the
// pose that produced the camera frame point y.
func monoPoseJacobian(fx, fy float64, y r3.Vector) *mat.Dense {
	invz := 1 / y.Z
	invz2 := invz * invz
	return mat.NewDense(2, 6, []float64{
		y.X * y.Y * invz2 * fx, -(1 + y.X*y.X*invz2) * fx, y.Y * invz * fx, -invz * fx, 0, y.X * invz2 * fx,
		(1 + y.Y*y.Y*invz2) * fy, -y.X * y.Y * invz2 * fy, -y.X * invz * fy, 0, -invz * fy, y.Y * invz2 * fy,
	})
}

// monoPointJacobian is the derivative of -project(R·p + t) with respect to the world point p.
func monoPointJacobian(fx, fy float64, y r3.Vector, rot mgl64.Mat3) *mat.Dense {
	tmp := mat.NewDense(2, 3, []float64{
		fx, 0, -y.X / y.Z * fx,
		0, fy, -y.Y / y.Z * fy,
	})
	var j mat.Dense
	j.Mul(tmp, spatialmath.Mat3ToDense(rot))
	j.Scale(-1/y.Z, &j)
	return &j
}

// stereoPoseJacobian extends monoPoseJacobian with the right image column u_r = u_l - bf/z.
func stereoPoseJacobian(intr camera.StereoCameraIntrinsics, y r3.Vector) *mat.Dense {
	mono := monoPoseJacobian(intr.Fx, intr.Fy, y)
	invz2 := 1 / (y.Z * y.Z)
	j := mat.NewDense(3, 6, nil)
	j.Slice(0, 2, 0, 6).(*mat.Dense).Copy(mono)
	j.Set(2, 0, mono.At(0, 0)-intr.Bf*y.Y*invz2)
	j.Set(2, 1, mono.At(0, 1)+intr.Bf*y.X*invz2)
	j.Set(2, 2, mono.At(0, 2))
	j.Set(2, 3, mono.At(0, 3))
	j.Set(2, 5, mono.At(0, 5)-intr.Bf*invz2)
	return j
}

// stereoPointJacobian extends monoPointJacobian with the right image column.
func stereoPointJacobian(intr camera.StereoCameraIntrinsics, y r3.Vector, rot mgl64.Mat3) *mat.Dense {
	mono := monoPointJacobian(intr.Fx, intr.Fy, y, rot)
	invz2 := 1 / (y.Z * y.Z)
	j := mat.NewDense(3, 3, nil)
	j.Slice(0, 2, 0, 3).(*mat.Dense).Copy(mono)
	for c := 0; c < 3; c++ {
		j.Set(2, c, mono.At(0, c)-intr.Bf*rot.At(2, c)*invz2)
	}
	return j
}

// expJacobian is d(exp(δ)·y)/dδ at δ = 0, that is [-[y]× | I].
func expJacobian(y r3.Vector) *mat.Dense {
	s := spatialmath.Skew(y)
	j := mat.NewDense(3, 6, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			j.Set(r, c, -s.At(r, c))
		}
		j.Set(r, r+3, 1)
	}
	return j
}

// poseJacobian chains a projection Jacobian evaluated at the camera frame point y into the
// derivative of the error with respect to a left pose increment.
func poseJacobian(jproj *mat.Dense, y r3.Vector) *mat.Dense {
	var j mat.Dense
	j.Mul(jproj, expJacobian(y))
	j.Scale(-1, &j)
	return &j
}

// pointJacobian chains a projection Jacobian into the derivative of the error with respect to
// the world point.
func pointJacobian(jproj *mat.Dense, rot mgl64.Mat3) *mat.Dense {
	var j mat.Dense
	j.Mul(jproj, spatialmath.Mat3ToDense(rot))
	j.Scale(-1, &j)
	return &j
}

// inverseDepthJacobian is d(T·InvertDepth(psi))/dpsi.
func inverseDepthJacobian(t spatialmath.SE3, psi r3.Vector) *mat.Dense {
	rot := t.RotationMatrix()
	x := camera.InvertDepth(psi)
	rx := spatialmath.MulVec(rot, x)
	j := mat.NewDense(3, 3, []float64{
		rot.At(0, 0), rot.At(0, 1), -rx.X,
		rot.At(1, 0), rot.At(1, 1), -rx.Y,
		rot.At(2, 0), rot.At(2, 1), -rx.Z,
	})
	j.Scale(1/psi.Z, j)
	return j
}
