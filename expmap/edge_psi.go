package expmap

import (
	"io"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/spatialmath"
	"go.viam.com/sba/utils"
)

// EdgeProjectPSI2UV observes an inverse depth landmark psi = [x/z y/z 1/z], expressed in the
// frame of an anchor pose, from a second camera pose. Vertices are the landmark, the observing
// pose T_cw and the anchor pose A_aw.
type EdgeProjectPSI2UV struct {
	edgeBase
	sharedCamera
	psi          *PointVertex
	pose, anchor *PoseVertex
	measurement  r2.Point
}

// NewEdgeProjectPSI2UV returns an edge with identity information.
func NewEdgeProjectPSI2UV() *EdgeProjectPSI2UV {
	return &EdgeProjectPSI2UV{edgeBase: newEdgeBase(2)}
}

// Measurement returns the observed pixel.
func (e *EdgeProjectPSI2UV) Measurement() r2.Point {
	return e.measurement
}

// SetMeasurement sets the observed pixel.
func (e *EdgeProjectPSI2UV) SetMeasurement(m r2.Point) {
	e.measurement = m
}

// NumVertices is always 3.
func (e *EdgeProjectPSI2UV) NumVertices() int {
	return 3
}

// Vertices returns the landmark, the observing pose and the anchor pose.
func (e *EdgeProjectPSI2UV) Vertices() []graph.Vertex {
	return []graph.Vertex{pointOrNil(e.psi), poseOrNil(e.pose), poseOrNil(e.anchor)}
}

// SetVertices connects a *PointVertex and two *PoseVertex.
func (e *EdgeProjectPSI2UV) SetVertices(vertices ...graph.Vertex) error {
	if len(vertices) != 3 {
		return utils.NewWrongNumberOfVerticesError(3, len(vertices))
	}
	psi, ok := vertices[0].(*PointVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(psi, vertices[0])
	}
	pose, ok := vertices[1].(*PoseVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(pose, vertices[1])
	}
	anchor, ok := vertices[2].(*PoseVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(anchor, vertices[2])
	}
	e.psi, e.pose, e.anchor = psi, pose, anchor
	return nil
}

// cameraFromAnchor is T_cw · A_aw⁻¹.
func (e *EdgeProjectPSI2UV) cameraFromAnchor() spatialmath.SE3 {
	return e.pose.Estimate().Mul(e.anchor.Estimate().Inverse())
}

// ComputeError returns the observed pixel minus the projection of the landmark.
func (e *EdgeProjectPSI2UV) ComputeError() (*mat.VecDense, error) {
	cam, err := e.resolvedCamera()
	if err != nil {
		return nil, err
	}
	y := e.cameraFromAnchor().Transform(camera.InvertDepth(e.psi.Estimate()))
	return residual2(e.measurement, cam.CamMap(y)), nil
}

// Linearize returns the 2x3 landmark block and the 2x6 blocks of the observing and anchor poses.
func (e *EdgeProjectPSI2UV) Linearize() ([]*mat.Dense, error) {
	cam, err := e.resolvedCamera()
	if err != nil {
		return nil, err
	}
	psi := e.psi.Estimate()
	tca := e.cameraFromAnchor()
	xa := camera.InvertDepth(psi)
	y := tca.Transform(xa)
	jcam := cam.ProjectionJacobian(y)

	var jpsi mat.Dense
	jpsi.Mul(jcam, inverseDepthJacobian(tca, psi))
	jpsi.Scale(-1, &jpsi)

	var janchor, rotated mat.Dense
	rotated.Mul(spatialmath.Mat3ToDense(tca.RotationMatrix()), expJacobian(xa))
	janchor.Mul(jcam, &rotated)

	return []*mat.Dense{&jpsi, poseJacobian(jcam, y), &janchor}, nil
}

// Read reads the camera id, the pixel and the information matrix.
func (e *EdgeProjectPSI2UV) Read(t *graph.Tokens) (err error) {
	if err := e.readCameraID(t); err != nil {
		return err
	}
	if e.measurement, err = readPoint2(t); err != nil {
		return err
	}
	return e.readInformation(t)
}

func (e *EdgeProjectPSI2UV) Write(w io.Writer) error {
	if err := e.writeCameraID(w); err != nil {
		return err
	}
	if err := graph.WriteFloats(w, e.measurement.X, e.measurement.Y); err != nil {
		return err
	}
	return e.writeInformation(w)
}
