package expmap

import (
	"io"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/graph"
	"go.viam.com/sba/spatialmath"
	"go.viam.com/sba/utils"
)

// EdgeSE3 is a relative pose measurement T_ij between two camera poses, with error
// log(T_j⁻¹ · T_ij · T_i).
type EdgeSE3 struct {
	edgeBase
	from, to    *PoseVertex
	measurement spatialmath.SE3
}

// NewEdgeSE3 returns an edge with an identity measurement and information.
func NewEdgeSE3() *EdgeSE3 {
	return &EdgeSE3{edgeBase: newEdgeBase(6), measurement: spatialmath.NewZeroSE3()}
}

// Measurement returns T_ij.
func (e *EdgeSE3) Measurement() spatialmath.SE3 {
	return e.measurement
}

// SetMeasurement sets T_ij.
func (e *EdgeSE3) SetMeasurement(m spatialmath.SE3) {
	e.measurement = m
}

// NumVertices is always 2.
func (e *EdgeSE3) NumVertices() int {
	return 2
}

// Vertices returns the from and to poses.
func (e *EdgeSE3) Vertices() []graph.Vertex {
	return []graph.Vertex{poseOrNil(e.from), poseOrNil(e.to)}
}

// SetVertices connects the edge to two *PoseVertex.
func (e *EdgeSE3) SetVertices(vertices ...graph.Vertex) error {
	if len(vertices) != 2 {
		return utils.NewWrongNumberOfVerticesError(2, len(vertices))
	}
	from, ok := vertices[0].(*PoseVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(from, vertices[0])
	}
	to, ok := vertices[1].(*PoseVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(to, vertices[1])
	}
	e.from, e.to = from, to
	return nil
}

// Validate rejects measurements whose rotation is not a unit quaternion.
func (e *EdgeSE3) Validate() error {
	return e.measurement.Validate()
}

// ComputeError returns log(T_j⁻¹ · T_ij · T_i).
func (e *EdgeSE3) ComputeError() (*mat.VecDense, error) {
	diff := e.to.Estimate().Inverse().Mul(e.measurement).Mul(e.from.Estimate())
	tw := diff.Log()
	return mat.NewVecDense(6, tw[:]), nil
}

// Linearize returns Adj(T_j⁻¹ T_ij) and -Adj(T_i⁻¹ T_ij⁻¹). Both blocks are exact when the error
// is zero and approximate elsewhere.
func (e *EdgeSE3) Linearize() ([]*mat.Dense, error) {
	jFrom := e.to.Estimate().Inverse().Mul(e.measurement).Adjoint()
	jTo := e.from.Estimate().Inverse().Mul(e.measurement.Inverse()).Adjoint()
	jTo.Scale(-1, jTo)
	return []*mat.Dense{jFrom, jTo}, nil
}

// Read reads the inverse of the measurement as [tx ty tz qx qy qz qw] followed by the upper
// triangle of the information matrix.
func (e *EdgeSE3) Read(t *graph.Tokens) error {
	cam2world, err := readSE3(t)
	if err != nil {
		return err
	}
	e.measurement = cam2world.Inverse()
	return e.readInformation(t)
}

func (e *EdgeSE3) Write(w io.Writer) error {
	if err := writeSE3(w, e.measurement.Inverse()); err != nil {
		return err
	}
	return e.writeInformation(w)
}
