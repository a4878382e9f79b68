package expmap

import (
	"io"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/sba/graph"
	"go.viam.com/sba/spatialmath"
)

var errEmptyStack = errors.New("pop on an empty estimate stack")

// PoseVertex is a camera pose T_cw, the transform from world to camera coordinates. Increments
// are applied on the left: T <- exp(δ)·T with δ = [ω υ].
type PoseVertex struct {
	id       int
	estimate spatialmath.SE3
	stack    []spatialmath.SE3
}

// NewPoseVertex returns a pose vertex with the given id and estimate.
func NewPoseVertex(id int, estimate spatialmath.SE3) *PoseVertex {
	return &PoseVertex{id: id, estimate: estimate}
}

// ID returns the vertex id.
func (v *PoseVertex) ID() int {
	return v.id
}

// SetID sets the vertex id.
func (v *PoseVertex) SetID(id int) {
	v.id = id
}

// Estimate returns the current pose.
func (v *PoseVertex) Estimate() spatialmath.SE3 {
	return v.estimate
}

// SetEstimate replaces the current pose.
func (v *PoseVertex) SetEstimate(estimate spatialmath.SE3) {
	v.estimate = estimate
}

// Dimension is always 6.
func (v *PoseVertex) Dimension() int {
	return 6
}

// Oplus left multiplies the estimate by exp(delta).
func (v *PoseVertex) Oplus(delta []float64) {
	var tw spatialmath.Twist
	copy(tw[:], delta)
	v.estimate = spatialmath.Compose(spatialmath.ExpSE3(tw), v.estimate)
}

// Push saves the estimate.
func (v *PoseVertex) Push() {
	v.stack = append(v.stack, v.estimate)
}

// Pop restores the last pushed estimate.
func (v *PoseVertex) Pop() error {
	if len(v.stack) == 0 {
		return errEmptyStack
	}
	v.estimate = v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

// Validate rejects poses whose rotation is not a unit quaternion.
func (v *PoseVertex) Validate() error {
	return v.estimate.Validate()
}

// Read reads the camera to world transform [tx ty tz qx qy qz qw] and stores its inverse.
func (v *PoseVertex) Read(t *graph.Tokens) error {
	cam2world, err := readSE3(t)
	if err != nil {
		return err
	}
	v.estimate = cam2world.Inverse()
	return nil
}

// Write writes the inverse of the estimate, the camera to world transform.
func (v *PoseVertex) Write(w io.Writer) error {
	return writeSE3(w, v.estimate.Inverse())
}

// PointVertex is a landmark. Edges read it either as a Euclidean world point or as an inverse
// depth point [x/z y/z 1/z] relative to an anchor pose.
type PointVertex struct {
	id       int
	estimate r3.Vector
	stack    []r3.Vector
}

// NewPointVertex returns a point vertex with the given id and estimate.
func NewPointVertex(id int, estimate r3.Vector) *PointVertex {
	return &PointVertex{id: id, estimate: estimate}
}

// ID returns the vertex id.
func (v *PointVertex) ID() int {
	return v.id
}

// SetID sets the vertex id.
func (v *PointVertex) SetID(id int) {
	v.id = id
}

// Estimate returns the current point.
func (v *PointVertex) Estimate() r3.Vector {
	return v.estimate
}

// SetEstimate replaces the current point.
func (v *PointVertex) SetEstimate(estimate r3.Vector) {
	v.estimate = estimate
}

// Dimension is always 3.
func (v *PointVertex) Dimension() int {
	return 3
}

// Oplus adds delta to the estimate.
func (v *PointVertex) Oplus(delta []float64) {
	v.estimate = v.estimate.Add(r3.Vector{X: delta[0], Y: delta[1], Z: delta[2]})
}

// Push saves the estimate.
func (v *PointVertex) Push() {
	v.stack = append(v.stack, v.estimate)
}

// Pop restores the last pushed estimate.
func (v *PointVertex) Pop() error {
	if len(v.stack) == 0 {
		return errEmptyStack
	}
	v.estimate = v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

func (v *PointVertex) Read(t *graph.Tokens) (err error) {
	v.estimate, err = readVector(t)
	return err
}

func (v *PointVertex) Write(w io.Writer) error {
	return writeVector(w, v.estimate)
}

func readSE3(t *graph.Tokens) (spatialmath.SE3, error) {
	values, err := t.Floats(7)
	if err != nil {
		return spatialmath.SE3{}, err
	}
	var v [7]float64
	copy(v[:], values)
	return spatialmath.SE3FromVector(v), nil
}

func writeSE3(w io.Writer, p spatialmath.SE3) error {
	v := p.ToVector()
	return graph.WriteFloats(w, v[:]...)
}

func readVector(t *graph.Tokens) (r3.Vector, error) {
	values, err := t.Floats(3)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

func writeVector(w io.Writer, v r3.Vector) error {
	return graph.WriteFloats(w, v.X, v.Y, v.Z)
}
