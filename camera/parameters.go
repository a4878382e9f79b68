package camera

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Parameters is a camera model shared between many edges: a single focal length, a principal
// point and, for stereo rigs, the baseline between the left and right cameras.
type Parameters struct {
	FocalLength    float64  `json:"focal_length"`
	PrincipalPoint r2.Point `json:"principal_point"`
	Baseline       float64  `json:"baseline"`
}

// NewDefaultParameters returns a unit focal length camera centred at the origin with a 0.5
// baseline.
func NewDefaultParameters() *Parameters {
	return &Parameters{FocalLength: 1, Baseline: 0.5}
}

// CheckValid checks that the focal length is usable.
func (cam *Parameters) CheckValid() error {
	if cam == nil {
		return NewNoIntrinsicsError("camera parameters do not exist")
	}
	if cam.FocalLength <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length = %#v", cam.FocalLength))
	}
	return nil
}

// CamMap projects a point in the camera frame to a pixel.
func (cam *Parameters) CamMap(p r3.Vector) r2.Point {
	proj := Project2D(p)
	return r2.Point{
		X: proj.X*cam.FocalLength + cam.PrincipalPoint.X,
		Y: proj.Y*cam.FocalLength + cam.PrincipalPoint.Y,
	}
}

// StereoUVUMap projects a point in the left camera frame to (u_left, v_left, u_right).
func (cam *Parameters) StereoUVUMap(p r3.Vector) r3.Vector {
	left := cam.CamMap(p)
	uRight := (p.X-cam.Baseline)/p.Z*cam.FocalLength + cam.PrincipalPoint.X
	return r3.Vector{X: left.X, Y: left.Y, Z: uRight}
}

// Intrinsics returns the shared model as per-edge pinhole intrinsics.
func (cam *Parameters) Intrinsics() PinholeCameraIntrinsics {
	return PinholeCameraIntrinsics{
		Fx:  cam.FocalLength,
		Fy:  cam.FocalLength,
		Ppx: cam.PrincipalPoint.X,
		Ppy: cam.PrincipalPoint.Y,
	}
}

// ProjectionJacobian returns the 2x3 derivative of CamMap at the camera frame point p.
func (cam *Parameters) ProjectionJacobian(p r3.Vector) *mat.Dense {
	intr := cam.Intrinsics()
	return intr.ProjectionJacobian(p)
}

// StereoProjectionJacobian returns the 3x3 derivative of StereoUVUMap at the camera frame point p.
func (cam *Parameters) StereoProjectionJacobian(p r3.Vector) *mat.Dense {
	zSq := p.Z * p.Z
	j := mat.NewDense(3, 3, nil)
	j.Slice(0, 2, 0, 3).(*mat.Dense).Copy(cam.ProjectionJacobian(p))
	j.Set(2, 0, cam.FocalLength/p.Z)
	j.Set(2, 2, -cam.FocalLength*(p.X-cam.Baseline)/zSq)
	return j
}
