package camera

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Fx  float64 `json:"fx"`
	Fy  float64 `json:"fy"`
	Ppx float64 `json:"ppx"`
	Ppy float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	return nil
}

// Project projects a point in the camera frame to a pixel.
func (params *PinholeCameraIntrinsics) Project(p r3.Vector) r2.Point {
	proj := Project2D(p)
	return r2.Point{X: proj.X*params.Fx + params.Ppx, Y: proj.Y*params.Fy + params.Ppy}
}

// ProjectionJacobian returns the 2x3 derivative of Project at the camera frame point p.
func (params *PinholeCameraIntrinsics) ProjectionJacobian(p r3.Vector) *mat.Dense {
	zSq := p.Z * p.Z
	return mat.NewDense(2, 3, []float64{
		params.Fx / p.Z, 0, -params.Fx * p.X / zSq,
		0, params.Fy / p.Z, -params.Fy * p.Y / zSq,
	})
}

// PixelToPoint transforms a pixel with depth to a 3D point.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return Unproject2D(r2.Point{X: xOverZ, Y: yOverZ}).Mul(z)
}

// StereoCameraIntrinsics is a rectified stereo pair: the left camera intrinsics plus bf, the
// baseline multiplied by the focal length.
type StereoCameraIntrinsics struct {
	PinholeCameraIntrinsics
	Bf float64 `json:"bf"`
}

// CheckValid checks if the fields for StereoCameraIntrinsics have valid inputs.
func (params *StereoCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if err := params.PinholeCameraIntrinsics.CheckValid(); err != nil {
		return err
	}
	if params.Bf <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid stereo baseline Bf = %#v", params.Bf))
	}
	return nil
}

// Project projects a point in the left camera frame to (u_left, v_left, u_right).
func (params *StereoCameraIntrinsics) Project(p r3.Vector) r3.Vector {
	invZ := 1 / p.Z
	uL := p.X*invZ*params.Fx + params.Ppx
	vL := p.Y*invZ*params.Fy + params.Ppy
	return r3.Vector{X: uL, Y: vL, Z: uL - params.Bf*invZ}
}

// ProjectionJacobian returns the 3x3 derivative of Project at the camera frame point p.
func (params *StereoCameraIntrinsics) ProjectionJacobian(p r3.Vector) *mat.Dense {
	zSq := p.Z * p.Z
	j := mat.NewDense(3, 3, nil)
	j.Slice(0, 2, 0, 3).(*mat.Dense).Copy(params.PinholeCameraIntrinsics.ProjectionJacobian(p))
	j.Set(2, 0, j.At(0, 0))
	j.Set(2, 2, j.At(0, 2)+params.Bf/zSq)
	return j
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	intrinsics := &PinholeCameraIntrinsics{}
	if err := readJSONFile(jsonPath, intrinsics); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// NewStereoCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into StereoCameraIntrinsics.
func NewStereoCameraIntrinsicsFromJSONFile(jsonPath string) (*StereoCameraIntrinsics, error) {
	intrinsics := &StereoCameraIntrinsics{}
	if err := readJSONFile(jsonPath, intrinsics); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

func readJSONFile(jsonPath string, into interface{}) error {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return errors.Wrap(err, "error reading JSON data")
	}
	if err := json.Unmarshal(byteValue, into); err != nil {
		return errors.Wrap(err, "error parsing JSON string")
	}
	return nil
}
