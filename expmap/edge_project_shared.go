package expmap

import (
	"io"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/graph"
)

// EdgeProjectXYZ2UV is a monocular observation of a Euclidean landmark through a shared camera.
type EdgeProjectXYZ2UV struct {
	pointPoseEdge
	sharedCamera
	measurement r2.Point
}

// NewEdgeProjectXYZ2UV returns an edge with identity information.
func NewEdgeProjectXYZ2UV() *EdgeProjectXYZ2UV {
	return &EdgeProjectXYZ2UV{pointPoseEdge: pointPoseEdge{edgeBase: newEdgeBase(2)}}
}

// Measurement returns the observed pixel.
func (e *EdgeProjectXYZ2UV) Measurement() r2.Point {
	return e.measurement
}

// SetMeasurement sets the observed pixel.
func (e *EdgeProjectXYZ2UV) SetMeasurement(m r2.Point) {
	e.measurement = m
}

// ComputeError returns the observed pixel minus the projection of the landmark.
func (e *EdgeProjectXYZ2UV) ComputeError() (*mat.VecDense, error) {
	cam, err := e.resolvedCamera()
	if err != nil {
		return nil, err
	}
	return residual2(e.measurement, cam.CamMap(e.cameraPoint())), nil
}

// Linearize returns the 2x3 landmark block and the 2x6 pose block.
func (e *EdgeProjectXYZ2UV) Linearize() ([]*mat.Dense, error) {
	cam, err := e.resolvedCamera()
	if err != nil {
		return nil, err
	}
	y := e.cameraPoint()
	f := cam.FocalLength
	return []*mat.Dense{
		monoPointJacobian(f, f, y, e.pose.Estimate().RotationMatrix()),
		monoPoseJacobian(f, f, y),
	}, nil
}

// Read reads the camera id, the pixel and the information matrix.
func (e *EdgeProjectXYZ2UV) Read(t *graph.Tokens) (err error) {
	if err := e.readCameraID(t); err != nil {
		return err
	}
	if e.measurement, err = readPoint2(t); err != nil {
		return err
	}
	return e.readInformation(t)
}

func (e *EdgeProjectXYZ2UV) Write(w io.Writer) error {
	if err := e.writeCameraID(w); err != nil {
		return err
	}
	if err := graph.WriteFloats(w, e.measurement.X, e.measurement.Y); err != nil {
		return err
	}
	return e.writeInformation(w)
}

// EdgeProjectXYZ2UVU is a stereo observation (u_left, v_left, u_right) of a Euclidean landmark
// through a shared camera whose baseline is in world units.
type EdgeProjectXYZ2UVU struct {
	pointPoseEdge
	sharedCamera
	measurement r3.Vector
}

// NewEdgeProjectXYZ2UVU returns an edge with identity information.
func NewEdgeProjectXYZ2UVU() *EdgeProjectXYZ2UVU {
	return &EdgeProjectXYZ2UVU{pointPoseEdge: pointPoseEdge{edgeBase: newEdgeBase(3)}}
}

// Measurement returns (u_left, v_left, u_right).
func (e *EdgeProjectXYZ2UVU) Measurement() r3.Vector {
	return e.measurement
}

// SetMeasurement sets (u_left, v_left, u_right).
func (e *EdgeProjectXYZ2UVU) SetMeasurement(m r3.Vector) {
	e.measurement = m
}

// ComputeError returns the observation minus the stereo projection of the landmark.
func (e *EdgeProjectXYZ2UVU) ComputeError() (*mat.VecDense, error) {
	cam, err := e.resolvedCamera()
	if err != nil {
		return nil, err
	}
	return residual3(e.measurement, cam.StereoUVUMap(e.cameraPoint())), nil
}

// Linearize returns the 3x3 landmark block and the 3x6 pose block.
func (e *EdgeProjectXYZ2UVU) Linearize() ([]*mat.Dense, error) {
	cam, err := e.resolvedCamera()
	if err != nil {
		return nil, err
	}
	y := e.cameraPoint()
	jproj := cam.StereoProjectionJacobian(y)
	return []*mat.Dense{
		pointJacobian(jproj, e.pose.Estimate().RotationMatrix()),
		poseJacobian(jproj, y),
	}, nil
}

// Read reads the camera id, the observation and the information matrix.
func (e *EdgeProjectXYZ2UVU) Read(t *graph.Tokens) (err error) {
	if err := e.readCameraID(t); err != nil {
		return err
	}
	if e.measurement, err = readVector(t); err != nil {
		return err
	}
	return e.readInformation(t)
}

func (e *EdgeProjectXYZ2UVU) Write(w io.Writer) error {
	if err := e.writeCameraID(w); err != nil {
		return err
	}
	if err := writeVector(w, e.measurement); err != nil {
		return err
	}
	return e.writeInformation(w)
}
