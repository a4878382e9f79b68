package expmap

import (
	"fmt"
	"io"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/utils"
)

// edgeBase holds the information matrix every edge carries. The dimension of the edge is the
// dimension of its information matrix.
type edgeBase struct {
	info *mat.SymDense
}

func newEdgeBase(dim int) edgeBase {
	return edgeBase{info: graph.NewIdentityInformation(dim)}
}

// Dimension returns the size of the error vector.
func (e *edgeBase) Dimension() int {
	return e.info.SymmetricDim()
}

// Information returns the information matrix.
func (e *edgeBase) Information() *mat.SymDense {
	return e.info
}

// SetInformation replaces the information matrix. It must match the edge dimension.
func (e *edgeBase) SetInformation(info *mat.SymDense) error {
	if info == nil {
		return errors.New("nil information matrix")
	}
	if n := info.SymmetricDim(); n != e.Dimension() {
		return errors.Errorf("information matrix is %dx%d, want %dx%d", n, n, e.Dimension(), e.Dimension())
	}
	e.info = info
	return nil
}

func (e *edgeBase) readInformation(t *graph.Tokens) error {
	info, err := graph.ReadUpperTriangle(t, e.Dimension())
	if err != nil {
		return err
	}
	e.info = info
	return nil
}

func (e *edgeBase) writeInformation(w io.Writer) error {
	return graph.WriteUpperTriangle(w, e.info)
}

// pointPoseEdge connects a landmark (vertex 0) to the camera pose observing it (vertex 1).
type pointPoseEdge struct {
	edgeBase
	point *PointVertex
	pose  *PoseVertex
}

// NumVertices is always 2.
func (e *pointPoseEdge) NumVertices() int {
	return 2
}

// Vertices returns the point and the pose.
func (e *pointPoseEdge) Vertices() []graph.Vertex {
	return []graph.Vertex{pointOrNil(e.point), poseOrNil(e.pose)}
}

// SetVertices connects the edge to a *PointVertex and a *PoseVertex, in that order.
func (e *pointPoseEdge) SetVertices(vertices ...graph.Vertex) error {
	if len(vertices) != 2 {
		return utils.NewWrongNumberOfVerticesError(2, len(vertices))
	}
	point, ok := vertices[0].(*PointVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(point, vertices[0])
	}
	pose, ok := vertices[1].(*PoseVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(pose, vertices[1])
	}
	e.point, e.pose = point, pose
	return nil
}

// cameraPoint is the landmark in camera coordinates.
func (e *pointPoseEdge) cameraPoint() r3.Vector {
	return e.pose.Estimate().Transform(e.point.Estimate())
}

// IsDepthPositive reports whether the landmark is in front of the camera.
func (e *pointPoseEdge) IsDepthPositive() bool {
	return e.cameraPoint().Z > 0
}

// poseOnlyEdge observes a fixed world point from a single camera pose.
type poseOnlyEdge struct {
	edgeBase
	pose *PoseVertex
	// Xw is the observed point in world coordinates.
	Xw r3.Vector
}

// NumVertices is always 1.
func (e *poseOnlyEdge) NumVertices() int {
	return 1
}

// Vertices returns the pose.
func (e *poseOnlyEdge) Vertices() []graph.Vertex {
	return []graph.Vertex{poseOrNil(e.pose)}
}

// SetVertices connects the edge to a single *PoseVertex.
func (e *poseOnlyEdge) SetVertices(vertices ...graph.Vertex) error {
	if len(vertices) != 1 {
		return utils.NewWrongNumberOfVerticesError(1, len(vertices))
	}
	pose, ok := vertices[0].(*PoseVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(pose, vertices[0])
	}
	e.pose = pose
	return nil
}

func (e *poseOnlyEdge) cameraPoint() r3.Vector {
	return e.pose.Estimate().Transform(e.Xw)
}

// IsDepthPositive reports whether the world point is in front of the camera.
func (e *poseOnlyEdge) IsDepthPositive() bool {
	return e.cameraPoint().Z > 0
}

// sharedCamera is embedded by edges that reference a CameraParameters by id.
type sharedCamera struct {
	cameraID int
	cam      *CameraParameters
}

// ParameterIDs returns the id of the referenced camera.
func (s *sharedCamera) ParameterIDs() []int {
	return []int{s.cameraID}
}

// ResolveParameters looks up the referenced camera.
func (s *sharedCamera) ResolveParameters(params *graph.ParameterSet) error {
	p, err := params.Get(s.cameraID)
	if err != nil {
		return err
	}
	cam, ok := p.(*CameraParameters)
	if !ok {
		return utils.NewUnexpectedTypeError(cam, p)
	}
	s.cam = cam
	return nil
}

// SetCamera points the edge at cam directly, without going through a ParameterSet.
func (s *sharedCamera) SetCamera(cam *CameraParameters) {
	s.cam = cam
	s.cameraID = cam.ID()
}

// Camera returns the resolved camera, or nil.
func (s *sharedCamera) Camera() *CameraParameters {
	return s.cam
}

func (s *sharedCamera) resolvedCamera() (*CameraParameters, error) {
	if s.cam == nil {
		return nil, camera.NewNoIntrinsicsError(fmt.Sprintf("camera parameters %d not resolved", s.cameraID))
	}
	return s.cam, nil
}

func (s *sharedCamera) readCameraID(t *graph.Tokens) (err error) {
	s.cameraID, err = t.Int()
	return err
}

func (s *sharedCamera) writeCameraID(w io.Writer) error {
	return graph.WriteInts(w, s.cameraID)
}

func pointOrNil(v *PointVertex) graph.Vertex {
	if v == nil {
		return nil
	}
	return v
}

func poseOrNil(v *PoseVertex) graph.Vertex {
	if v == nil {
		return nil
	}
	return v
}

func readPoint2(t *graph.Tokens) (r2.Point, error) {
	values, err := t.Floats(2)
	if err != nil {
		return r2.Point{}, err
	}
	return r2.Point{X: values[0], Y: values[1]}, nil
}

func readPinhole(t *graph.Tokens) (camera.PinholeCameraIntrinsics, error) {
	values, err := t.Floats(4)
	if err != nil {
		return camera.PinholeCameraIntrinsics{}, err
	}
	return camera.PinholeCameraIntrinsics{Fx: values[0], Fy: values[1], Ppx: values[2], Ppy: values[3]}, nil
}

func writePinhole(w io.Writer, intr camera.PinholeCameraIntrinsics) error {
	return graph.WriteFloats(w, intr.Fx, intr.Fy, intr.Ppx, intr.Ppy)
}

func residual2(measurement, prediction r2.Point) *mat.VecDense {
	d := measurement.Sub(prediction)
	return mat.NewVecDense(2, []float64{d.X, d.Y})
}

func residual3(measurement, prediction r3.Vector) *mat.VecDense {
	d := measurement.Sub(prediction)
	return mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})
}

func nanVector(n int) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, math.NaN())
	}
	return v
}

func nanDense(r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, math.NaN())
		}
	}
	return m
}
