package graph

import (
	"io"

	"gonum.org/v1/gonum/mat"
)

// Element is anything that can be stored as a record. Read consumes the payload that follows the
// tag and ids; Write emits the same payload, each field preceded by a space.
type Element interface {
	Read(t *Tokens) error
	Write(w io.Writer) error
}

// Vertex is a state variable of the optimization problem.
type Vertex interface {
	Element
	ID() int
	SetID(id int)
	// Dimension is the size of the local tangent space Oplus works in.
	Dimension() int
	// Oplus applies a tangent space increment of length Dimension.
	Oplus(delta []float64)
	// Push saves the current estimate so a later Pop can restore it.
	Push()
	Pop() error
}

// Edge is a measurement between one or more vertices.
type Edge interface {
	Element
	NumVertices() int
	Vertices() []Vertex
	SetVertices(vertices ...Vertex) error
	Dimension() int
	Information() *mat.SymDense
	SetInformation(info *mat.SymDense) error
	// ComputeError returns measurement minus prediction at the current vertex estimates.
	ComputeError() (*mat.VecDense, error)
	// Linearize returns one Dimension×vertex.Dimension() Jacobian block per connected vertex, in
	// connection order.
	Linearize() ([]*mat.Dense, error)
}

// Parameter is a value shared between many edges and referenced from them by id.
type Parameter interface {
	Element
	ID() int
	SetID(id int)
}

// ParameterUser is implemented by edges that reference parameters by id.
type ParameterUser interface {
	ParameterIDs() []int
	ResolveParameters(params *ParameterSet) error
}

// Validator is implemented by elements that can check their own consistency once built.
type Validator interface {
	Validate() error
}
