package graph

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/logging"
	"go.viam.com/sba/utils"
)

const sampleGraph = `# two scalars and an offset
PARAM_OFFSET 0 0.5
VERTEX_SCALAR 2 3
VERTEX_SCALAR 1 2

VERTEX_UNKNOWN 9 1
EDGE_SQUARE 1 2 0 10.5 1
`

func TestTokens(t *testing.T) {
	tokens := NewTokens("  7 1.5\t-2e3  x ")
	i, err := tokens.Int()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, i, test.ShouldEqual, 7)
	fs, err := tokens.Floats(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs, test.ShouldResemble, []float64{1.5, -2000})
	test.That(t, tokens.Remaining(), test.ShouldEqual, 1)

	_, err = tokens.Float()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "field 4")

	_, err = tokens.Float()
	test.That(t, errors.Is(err, ErrUnexpectedEndOfRecord), test.ShouldBeTrue)
	_, err = NewTokens("1 2").Floats(3)
	test.That(t, errors.Is(err, ErrUnexpectedEndOfRecord), test.ShouldBeTrue)
}

func TestFloatCodec(t *testing.T) {
	var buf bytes.Buffer
	values := []float64{0.1, 1.0 / 3, -1e-300, 12345678.9, 0}
	test.That(t, WriteFloats(&buf, values...), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldStartWith, " 0.1 0.3333333333333333 ")

	read, err := NewTokens(buf.String()).Floats(len(values))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read, test.ShouldResemble, values)
	test.That(t, FormatFloat(2.5), test.ShouldEqual, "2.5")
}

func TestUpperTriangle(t *testing.T) {
	tokens := NewTokens("1 2 3 4 5 6")
	m, err := ReadUpperTriangle(tokens, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(m, mat.NewDense(3, 3, []float64{
		1, 2, 3,
		2, 4, 5,
		3, 5, 6,
	})), test.ShouldBeTrue)

	var buf bytes.Buffer
	test.That(t, WriteUpperTriangle(&buf, m), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, " 1 2 3 4 5 6")

	_, err = ReadUpperTriangle(NewTokens("1 2"), 2)
	test.That(t, errors.Is(err, ErrUnexpectedEndOfRecord), test.ShouldBeTrue)
}

func TestRegistry(t *testing.T) {
	reg := newTestRegistry()
	test.That(t, reg.Tags(), test.ShouldResemble, []string{"EDGE_SQUARE", "PARAM_OFFSET", "VERTEX_SCALAR"})
	test.That(t, reg.Group(), test.ShouldEqual, "test")

	err := reg.Register("VERTEX_SCALAR", func() Element { return &scalarVertex{} })
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already registered")

	err = reg.Register("VERTEX_SCALAR2", func() Element { return &scalarVertex{} })
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "VERTEX_SCALAR")

	test.That(t, reg.Register("", newSquareEdge), test.ShouldNotBeNil)
	test.That(t, reg.Register("EDGE_NIL", nil), test.ShouldNotBeNil)

	elem, ok := reg.Construct("EDGE_SQUARE")
	test.That(t, ok, test.ShouldBeTrue)
	tag, ok := reg.TagOf(elem)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tag, test.ShouldEqual, "EDGE_SQUARE")

	_, ok = reg.Construct("EDGE_MISSING")
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = NewRegistry("empty").TagOf(elem)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestParameterSet(t *testing.T) {
	ps := NewParameterSet()
	test.That(t, ps.Add(&offsetParameter{id: 3}), test.ShouldBeNil)
	test.That(t, ps.Add(&offsetParameter{id: 1}), test.ShouldBeNil)
	test.That(t, ps.Add(&offsetParameter{id: 3}), test.ShouldNotBeNil)
	test.That(t, ps.IDs(), test.ShouldResemble, []int{1, 3})

	p, err := ps.Get(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.ID(), test.ShouldEqual, 1)
	_, err = ps.Get(2)
	test.That(t, errors.Is(err, ErrParameterNotFound), test.ShouldBeTrue)
}

func TestGraphBuild(t *testing.T) {
	g := NewGraph(logging.NewTestLogger(t))
	a, b := &scalarVertex{id: 1}, &scalarVertex{id: 2}
	test.That(t, g.AddVertex(a), test.ShouldBeNil)
	test.That(t, g.AddVertex(&scalarVertex{id: 1}), test.ShouldNotBeNil)

	e := newSquareEdge().(*squareEdge)
	test.That(t, e.SetVertices(a, b), test.ShouldBeNil)
	err := g.AddEdge(e)
	test.That(t, errors.Is(err, ErrVertexNotFound), test.ShouldBeTrue)

	test.That(t, g.AddVertex(b), test.ShouldBeNil)
	err = g.AddEdge(e)
	test.That(t, errors.Is(err, ErrParameterNotFound), test.ShouldBeTrue)
	test.That(t, g.Edges(), test.ShouldBeEmpty)

	test.That(t, g.AddParameter(&offsetParameter{}), test.ShouldBeNil)
	test.That(t, g.AddEdge(e), test.ShouldBeNil)
	test.That(t, e.param, test.ShouldEqual, g.Parameters().params[0])

	test.That(t, e.SetVertices(a), test.ShouldNotBeNil)
	test.That(t, e.SetVertices(a, &wrongVertex{}), test.ShouldNotBeNil)

	vertices := g.Vertices()
	test.That(t, len(vertices), test.ShouldEqual, 2)
	test.That(t, vertices[0].ID(), test.ShouldEqual, 1)
	_, err = g.Vertex(5)
	test.That(t, errors.Is(err, ErrVertexNotFound), test.ShouldBeTrue)
}

type wrongVertex struct {
	scalarVertex
}

func TestLoadSave(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	reg := newTestRegistry()
	g, err := Load(strings.NewReader(sampleGraph), reg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Parameters().Len(), test.ShouldEqual, 1)
	test.That(t, len(g.Vertices()), test.ShouldEqual, 2)
	test.That(t, len(g.Edges()), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("skipping record with unknown tag").Len(), test.ShouldEqual, 1)

	var buf bytes.Buffer
	test.That(t, Save(&buf, g, reg), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual,
		"PARAM_OFFSET 0 0.5\nVERTEX_SCALAR 1 2\nVERTEX_SCALAR 2 3\nEDGE_SQUARE 1 2 0 10.5 1\n")

	reloaded, err := Load(&buf, reg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reloaded.Edges()[0].(*squareEdge).measurement, test.ShouldEqual, 10.5)

	err = Save(&buf, g, NewRegistry("empty"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not registered")
}

func TestLoadMalformed(t *testing.T) {
	malformed := []string{
		"EDGE_SQUARE 1 2 7 1 1",
		"EDGE_SQUARE 1 5 0 1 1",
		"VERTEX_SCALAR 3 abc",
		"EDGE_SQUARE 1 2 0 1 -1",
		"EDGE_SQUARE 1 2 0",
		"VERTEX_SCALAR 1 4",
		"VERTEX_SCALAR 4 1 2",
		"EDGE_SQUARE 1 2 0 1 1 x",
	}
	input := sampleGraph + strings.Join(malformed, "\n") + "\n"
	reg := newTestRegistry()

	_, err := Load(strings.NewReader(input), reg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrParameterNotFound), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "line 8 (EDGE_SQUARE)")

	logger, logs := logging.NewObservedTestLogger(t)
	g, err := Load(strings.NewReader(input), reg, logger, WithSkipMalformed())
	test.That(t, g, test.ShouldNotBeNil)
	errs := multierr.Errors(err)
	test.That(t, len(errs), test.ShouldEqual, len(malformed))
	for i, err := range errs {
		test.That(t, err.Error(), test.ShouldContainSubstring, "line "+strconv.Itoa(8+i))
	}
	test.That(t, errors.Is(errs[1], ErrVertexNotFound), test.ShouldBeTrue)
	test.That(t, errors.Is(errs[4], ErrUnexpectedEndOfRecord), test.ShouldBeTrue)
	test.That(t, errors.Is(errs[6], ErrTrailingFields), test.ShouldBeTrue)
	test.That(t, errors.Is(errs[7], ErrTrailingFields), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("skipping malformed record").Len(), test.ShouldEqual, len(malformed))
	test.That(t, len(g.Edges()), test.ShouldEqual, 1)
	test.That(t, len(g.Vertices()), test.ShouldEqual, 2)
}

func TestLoadSharedIDs(t *testing.T) {
	input := "PARAM_OFFSET 1 0.5\nVERTEX_SCALAR 1 3\nVERTEX_SCALAR 2 2\nEDGE_SQUARE 1 2 1 10.5 1\n"
	logger, logs := logging.NewObservedTestLogger(t)
	g, err := Load(strings.NewReader(input), newTestRegistry(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Parameters().IDs(), test.ShouldResemble, []int{1})
	test.That(t, len(g.Vertices()), test.ShouldEqual, 2)
	test.That(t, len(g.Edges()), test.ShouldEqual, 1)

	v, err := g.Vertex(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.(*scalarVertex).value, test.ShouldEqual, 3.)
	p, err := g.Parameters().Get(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.(*offsetParameter).offset, test.ShouldEqual, 0.5)

	loaded := logs.FilterMessage("loaded graph").All()
	test.That(t, loaded, test.ShouldHaveLength, 1)
	test.That(t, loaded[0].ContextMap()["vertices"], test.ShouldEqual, int64(2))
	test.That(t, loaded[0].ContextMap()["parameters"], test.ShouldEqual, int64(1))
}

func TestEvaluate(t *testing.T) {
	g, err := Load(strings.NewReader(sampleGraph), newTestRegistry(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	e := g.Edges()[0]

	eval, err := Evaluate(e)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Valid, test.ShouldBeTrue)
	test.That(t, eval.Error.AtVec(0), test.ShouldEqual, 3.)
	test.That(t, eval.Chi2, test.ShouldEqual, 9.)
	test.That(t, eval.Jacobians[1].At(0, 0), test.ShouldEqual, -6.)

	test.That(t, Chi2(mat.NewVecDense(2, []float64{1, 2}), mat.NewSymDense(2, []float64{2, 1, 1, 3})), test.ShouldEqual, 18.)

	v, err := g.Vertex(2)
	test.That(t, err, test.ShouldBeNil)
	v.(*scalarVertex).value = math.Inf(1)
	eval, err = Evaluate(e)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Valid, test.ShouldBeFalse)
}

func TestEvaluateAll(t *testing.T) {
	g := NewGraph(logging.NewTestLogger(t))
	test.That(t, g.AddParameter(&offsetParameter{offset: 1}), test.ShouldBeNil)
	var prev *scalarVertex
	for i := 0; i < 40; i++ {
		v := &scalarVertex{id: i, value: float64(i) / 4}
		test.That(t, g.AddVertex(v), test.ShouldBeNil)
		if prev != nil {
			e := newSquareEdge().(*squareEdge)
			e.measurement = float64(i)
			test.That(t, e.SetVertices(prev, v), test.ShouldBeNil)
			test.That(t, g.AddEdge(e), test.ShouldBeNil)
		}
		prev = v
	}

	results, err := EvaluateAll(context.Background(), g.Edges(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, len(g.Edges()))
	for i, e := range g.Edges() {
		expected, err := Evaluate(e)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results[i], test.ShouldResemble, expected)
	}

	edges := g.Edges()
	edges[3].(*squareEdge).measurement = math.Inf(1)
	edges[17].(*squareEdge).measurement = math.NaN()
	logger, logs := logging.NewObservedTestLogger(t)
	results, err = EvaluateAll(context.Background(), edges, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results[3].Valid, test.ShouldBeFalse)
	test.That(t, results[17].Valid, test.ShouldBeFalse)
	test.That(t, results[4].Valid, test.ShouldBeTrue)
	summary := logs.FilterMessage("some edges did not evaluate to finite values").All()
	test.That(t, summary, test.ShouldHaveLength, 1)
	test.That(t, summary[0].ContextMap()["invalid"], test.ShouldEqual, int64(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EvaluateAll(ctx, g.Edges(), logging.NewTestLogger(t))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestEvaluateAllParallelism(t *testing.T) {
	g := NewGraph(logging.NewTestLogger(t))
	test.That(t, g.AddParameter(&offsetParameter{offset: 1}), test.ShouldBeNil)
	var prev *scalarVertex
	for i := 0; i < 10; i++ {
		v := &scalarVertex{id: i, value: float64(i)}
		test.That(t, g.AddVertex(v), test.ShouldBeNil)
		if prev != nil {
			e := newSquareEdge().(*squareEdge)
			test.That(t, e.SetVertices(prev, v), test.ShouldBeNil)
			test.That(t, g.AddEdge(e), test.ShouldBeNil)
		}
		prev = v
	}

	before := utils.ParallelFactor
	for _, n := range []int{1, 4} {
		logger, logs := logging.NewObservedTestLogger(t)
		results, err := EvaluateAll(context.Background(), g.Edges(), logger, WithParallelism(n))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results, test.ShouldHaveLength, 9)
		started := logs.FilterMessage("evaluating edges").All()
		test.That(t, started, test.ShouldHaveLength, 1)
		test.That(t, started[0].ContextMap()["groups"], test.ShouldEqual, int64(n))
	}
	test.That(t, utils.ParallelFactor, test.ShouldEqual, before)
}

func TestNumericJacobians(t *testing.T) {
	g, err := Load(strings.NewReader(sampleGraph), newTestRegistry(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	e := g.Edges()[0]

	numeric, err := NumericJacobians(e)
	test.That(t, err, test.ShouldBeNil)
	analytic, err := e.Linearize()
	test.That(t, err, test.ShouldBeNil)
	for i := range analytic {
		test.That(t, mat.EqualApprox(numeric[i], analytic[i], 1e-6), test.ShouldBeTrue)
	}

	to, err := g.Vertex(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, to.(*scalarVertex).value, test.ShouldEqual, 3.)
	test.That(t, to.(*scalarVertex).stack, test.ShouldBeEmpty)
}
