package graph

import (
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/utils"
)

type scalarVertex struct {
	id    int
	value float64
	stack []float64
}

func (v *scalarVertex) ID() int        { return v.id }
func (v *scalarVertex) SetID(id int)   { v.id = id }
func (v *scalarVertex) Dimension() int { return 1 }

func (v *scalarVertex) Oplus(delta []float64) {
	v.value += delta[0]
}

func (v *scalarVertex) Push() {
	v.stack = append(v.stack, v.value)
}

func (v *scalarVertex) Pop() error {
	if len(v.stack) == 0 {
		return errors.New("empty stack")
	}
	v.value = v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return nil
}

func (v *scalarVertex) Read(t *Tokens) (err error) {
	v.value, err = t.Float()
	return err
}

func (v *scalarVertex) Write(w io.Writer) error {
	return WriteFloats(w, v.value)
}

type offsetParameter struct {
	id     int
	offset float64
}

func (p *offsetParameter) ID() int      { return p.id }
func (p *offsetParameter) SetID(id int) { p.id = id }

func (p *offsetParameter) Read(t *Tokens) (err error) {
	p.offset, err = t.Float()
	return err
}

func (p *offsetParameter) Write(w io.Writer) error {
	return WriteFloats(w, p.offset)
}

// squareEdge measures to² - from + offset.
type squareEdge struct {
	from, to    *scalarVertex
	measurement float64
	info        *mat.SymDense
	paramID     int
	param       *offsetParameter
}

func newSquareEdge() Element {
	return &squareEdge{info: NewIdentityInformation(1)}
}

func (e *squareEdge) NumVertices() int { return 2 }

func (e *squareEdge) Vertices() []Vertex {
	return []Vertex{e.from, e.to}
}

func (e *squareEdge) SetVertices(vertices ...Vertex) error {
	if len(vertices) != 2 {
		return utils.NewWrongNumberOfVerticesError(2, len(vertices))
	}
	from, ok := vertices[0].(*scalarVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(from, vertices[0])
	}
	to, ok := vertices[1].(*scalarVertex)
	if !ok {
		return utils.NewUnexpectedTypeError(to, vertices[1])
	}
	e.from, e.to = from, to
	return nil
}

func (e *squareEdge) Dimension() int             { return 1 }
func (e *squareEdge) Information() *mat.SymDense { return e.info }

func (e *squareEdge) SetInformation(info *mat.SymDense) error {
	e.info = info
	return nil
}

func (e *squareEdge) ParameterIDs() []int { return []int{e.paramID} }

func (e *squareEdge) ResolveParameters(params *ParameterSet) error {
	p, err := params.Get(e.paramID)
	if err != nil {
		return err
	}
	offset, ok := p.(*offsetParameter)
	if !ok {
		return utils.NewUnexpectedTypeError(offset, p)
	}
	e.param = offset
	return nil
}

func (e *squareEdge) Validate() error {
	if e.info.At(0, 0) <= 0 {
		return errors.New("information must be positive")
	}
	return nil
}

func (e *squareEdge) ComputeError() (*mat.VecDense, error) {
	prediction := e.to.value*e.to.value - e.from.value + e.param.offset
	return mat.NewVecDense(1, []float64{e.measurement - prediction}), nil
}

func (e *squareEdge) Linearize() ([]*mat.Dense, error) {
	return []*mat.Dense{
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{-2 * e.to.value}),
	}, nil
}

func (e *squareEdge) Read(t *Tokens) error {
	var err error
	if e.paramID, err = t.Int(); err != nil {
		return err
	}
	if e.measurement, err = t.Float(); err != nil {
		return err
	}
	e.info, err = ReadUpperTriangle(t, 1)
	return err
}

func (e *squareEdge) Write(w io.Writer) error {
	if err := WriteInts(w, e.paramID); err != nil {
		return err
	}
	if err := WriteFloats(w, e.measurement); err != nil {
		return err
	}
	return WriteUpperTriangle(w, e.info)
}

func newTestRegistry() *Registry {
	reg := NewRegistry("test")
	for tag, factory := range map[string]Factory{
		"PARAM_OFFSET":  func() Element { return &offsetParameter{} },
		"VERTEX_SCALAR": func() Element { return &scalarVertex{} },
		"EDGE_SQUARE":   newSquareEdge,
	} {
		if err := reg.Register(tag, factory); err != nil {
			panic(err)
		}
	}
	return reg
}
