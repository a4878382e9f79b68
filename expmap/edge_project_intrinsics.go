package expmap

import (
	"io"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/graph"
)

// EdgeSE3ProjectXYZ is a monocular observation of a landmark by a camera with its own
// intrinsics.
type EdgeSE3ProjectXYZ struct {
	pointPoseEdge
	Intrinsics  camera.PinholeCameraIntrinsics
	measurement r2.Point
}

// NewEdgeSE3ProjectXYZ returns an edge with identity information.
func NewEdgeSE3ProjectXYZ() *EdgeSE3ProjectXYZ {
	return &EdgeSE3ProjectXYZ{pointPoseEdge: pointPoseEdge{edgeBase: newEdgeBase(2)}}
}

// Measurement returns the observed pixel.
func (e *EdgeSE3ProjectXYZ) Measurement() r2.Point {
	return e.measurement
}

// SetMeasurement sets the observed pixel.
func (e *EdgeSE3ProjectXYZ) SetMeasurement(m r2.Point) {
	e.measurement = m
}

// Validate checks the intrinsics.
func (e *EdgeSE3ProjectXYZ) Validate() error {
	return e.Intrinsics.CheckValid()
}

// ComputeError returns the observed pixel minus the projection of the landmark.
func (e *EdgeSE3ProjectXYZ) ComputeError() (*mat.VecDense, error) {
	return residual2(e.measurement, e.Intrinsics.Project(e.cameraPoint())), nil
}

// Linearize returns the 2x3 landmark block and the 2x6 pose block.
func (e *EdgeSE3ProjectXYZ) Linearize() ([]*mat.Dense, error) {
	y := e.cameraPoint()
	return []*mat.Dense{
		monoPointJacobian(e.Intrinsics.Fx, e.Intrinsics.Fy, y, e.pose.Estimate().RotationMatrix()),
		monoPoseJacobian(e.Intrinsics.Fx, e.Intrinsics.Fy, y),
	}, nil
}

// Read reads the pixel, the information matrix and "fx fy cx cy".
func (e *EdgeSE3ProjectXYZ) Read(t *graph.Tokens) (err error) {
	if e.measurement, err = readPoint2(t); err != nil {
		return err
	}
	if err := e.readInformation(t); err != nil {
		return err
	}
	e.Intrinsics, err = readPinhole(t)
	return err
}

func (e *EdgeSE3ProjectXYZ) Write(w io.Writer) error {
	if err := graph.WriteFloats(w, e.measurement.X, e.measurement.Y); err != nil {
		return err
	}
	if err := e.writeInformation(w); err != nil {
		return err
	}
	return writePinhole(w, e.Intrinsics)
}

// EdgeStereoSE3ProjectXYZ is a rectified stereo observation (u_left, v_left, u_right) of a
// landmark. The intrinsics are not part of the record and have to be set by the caller, or
// through WithStereoIntrinsics when the edge is built by a registry.
type EdgeStereoSE3ProjectXYZ struct {
	pointPoseEdge
	Intrinsics  camera.StereoCameraIntrinsics
	measurement r3.Vector
}

// NewEdgeStereoSE3ProjectXYZ returns an edge with identity information.
func NewEdgeStereoSE3ProjectXYZ() *EdgeStereoSE3ProjectXYZ {
	return &EdgeStereoSE3ProjectXYZ{pointPoseEdge: pointPoseEdge{edgeBase: newEdgeBase(3)}}
}

// Measurement returns (u_left, v_left, u_right).
func (e *EdgeStereoSE3ProjectXYZ) Measurement() r3.Vector {
	return e.measurement
}

// SetMeasurement sets (u_left, v_left, u_right).
func (e *EdgeStereoSE3ProjectXYZ) SetMeasurement(m r3.Vector) {
	e.measurement = m
}

// Validate checks the intrinsics, including bf.
func (e *EdgeStereoSE3ProjectXYZ) Validate() error {
	return e.Intrinsics.CheckValid()
}

// ComputeError returns the observation minus the stereo projection of the landmark.
func (e *EdgeStereoSE3ProjectXYZ) ComputeError() (*mat.VecDense, error) {
	return residual3(e.measurement, e.Intrinsics.Project(e.cameraPoint())), nil
}

// Linearize returns the 3x3 landmark block and the 3x6 pose block.
func (e *EdgeStereoSE3ProjectXYZ) Linearize() ([]*mat.Dense, error) {
	y := e.cameraPoint()
	return []*mat.Dense{
		stereoPointJacobian(e.Intrinsics, y, e.pose.Estimate().RotationMatrix()),
		stereoPoseJacobian(e.Intrinsics, y),
	}, nil
}

// Read reads the three observed values and the information matrix.
func (e *EdgeStereoSE3ProjectXYZ) Read(t *graph.Tokens) (err error) {
	if e.measurement, err = readVector(t); err != nil {
		return err
	}
	return e.readInformation(t)
}

func (e *EdgeStereoSE3ProjectXYZ) Write(w io.Writer) error {
	if err := writeVector(w, e.measurement); err != nil {
		return err
	}
	return e.writeInformation(w)
}

// EdgeSE3ProjectXYZOnlyPose is a monocular observation of a fixed world point, used to refine a
// single pose.
type EdgeSE3ProjectXYZOnlyPose struct {
	poseOnlyEdge
	Intrinsics  camera.PinholeCameraIntrinsics
	measurement r2.Point
}

// NewEdgeSE3ProjectXYZOnlyPose returns an edge with identity information.
func NewEdgeSE3ProjectXYZOnlyPose() *EdgeSE3ProjectXYZOnlyPose {
	return &EdgeSE3ProjectXYZOnlyPose{poseOnlyEdge: poseOnlyEdge{edgeBase: newEdgeBase(2)}}
}

// Measurement returns the observed pixel.
func (e *EdgeSE3ProjectXYZOnlyPose) Measurement() r2.Point {
	return e.measurement
}

// SetMeasurement sets the observed pixel.
func (e *EdgeSE3ProjectXYZOnlyPose) SetMeasurement(m r2.Point) {
	e.measurement = m
}

// Validate checks the intrinsics.
func (e *EdgeSE3ProjectXYZOnlyPose) Validate() error {
	return e.Intrinsics.CheckValid()
}

// ComputeError returns the observed pixel minus the projection of Xw.
func (e *EdgeSE3ProjectXYZOnlyPose) ComputeError() (*mat.VecDense, error) {
	return residual2(e.measurement, e.Intrinsics.Project(e.cameraPoint())), nil
}

// Linearize returns the 2x6 pose block.
func (e *EdgeSE3ProjectXYZOnlyPose) Linearize() ([]*mat.Dense, error) {
	return []*mat.Dense{monoPoseJacobian(e.Intrinsics.Fx, e.Intrinsics.Fy, e.cameraPoint())}, nil
}

// Read reads the pixel, the information matrix, Xw and "fx fy cx cy".
func (e *EdgeSE3ProjectXYZOnlyPose) Read(t *graph.Tokens) (err error) {
	if e.measurement, err = readPoint2(t); err != nil {
		return err
	}
	if err := e.readInformation(t); err != nil {
		return err
	}
	if e.Xw, err = readVector(t); err != nil {
		return err
	}
	e.Intrinsics, err = readPinhole(t)
	return err
}

func (e *EdgeSE3ProjectXYZOnlyPose) Write(w io.Writer) error {
	if err := graph.WriteFloats(w, e.measurement.X, e.measurement.Y); err != nil {
		return err
	}
	if err := e.writeInformation(w); err != nil {
		return err
	}
	if err := writeVector(w, e.Xw); err != nil {
		return err
	}
	return writePinhole(w, e.Intrinsics)
}

// EdgeStereoSE3ProjectXYZOnlyPose is a stereo observation of a fixed world point. Neither Xw nor
// the intrinsics are part of the record. An edge read from a record evaluates to NaN until
// SetWorldPoint gives it Xw.
type EdgeStereoSE3ProjectXYZOnlyPose struct {
	poseOnlyEdge
	Intrinsics      camera.StereoCameraIntrinsics
	measurement     r3.Vector
	worldPointUnset bool
}

// NewEdgeStereoSE3ProjectXYZOnlyPose returns an edge with identity information.
func NewEdgeStereoSE3ProjectXYZOnlyPose() *EdgeStereoSE3ProjectXYZOnlyPose {
	return &EdgeStereoSE3ProjectXYZOnlyPose{poseOnlyEdge: poseOnlyEdge{edgeBase: newEdgeBase(3)}}
}

// Measurement returns (u_left, v_left, u_right).
func (e *EdgeStereoSE3ProjectXYZOnlyPose) Measurement() r3.Vector {
	return e.measurement
}

// SetMeasurement sets (u_left, v_left, u_right).
func (e *EdgeStereoSE3ProjectXYZOnlyPose) SetMeasurement(m r3.Vector) {
	e.measurement = m
}

// SetWorldPoint sets Xw.
func (e *EdgeStereoSE3ProjectXYZOnlyPose) SetWorldPoint(xw r3.Vector) {
	e.Xw = xw
	e.worldPointUnset = false
}

// HasWorldPoint is false for an edge read from a record whose Xw was never set.
func (e *EdgeStereoSE3ProjectXYZOnlyPose) HasWorldPoint() bool {
	return !e.worldPointUnset
}

// Validate checks the intrinsics, including bf.
func (e *EdgeStereoSE3ProjectXYZOnlyPose) Validate() error {
	return e.Intrinsics.CheckValid()
}

// ComputeError returns the observation minus the stereo projection of Xw.
func (e *EdgeStereoSE3ProjectXYZOnlyPose) ComputeError() (*mat.VecDense, error) {
	if e.worldPointUnset {
		return nanVector(3), nil
	}
	return residual3(e.measurement, e.Intrinsics.Project(e.cameraPoint())), nil
}

// Linearize returns the 3x6 pose block.
func (e *EdgeStereoSE3ProjectXYZOnlyPose) Linearize() ([]*mat.Dense, error) {
	if e.worldPointUnset {
		return []*mat.Dense{nanDense(3, 6)}, nil
	}
	return []*mat.Dense{stereoPoseJacobian(e.Intrinsics, e.cameraPoint())}, nil
}

// Read reads the three observed values and the information matrix.
func (e *EdgeStereoSE3ProjectXYZOnlyPose) Read(t *graph.Tokens) (err error) {
	if e.measurement, err = readVector(t); err != nil {
		return err
	}
	e.worldPointUnset = true
	return e.readInformation(t)
}

func (e *EdgeStereoSE3ProjectXYZOnlyPose) Write(w io.Writer) error {
	if err := writeVector(w, e.measurement); err != nil {
		return err
	}
	return e.writeInformation(w)
}
