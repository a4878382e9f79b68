package graph

import (
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/sba/logging"
)

// ErrVertexNotFound is returned when an edge refers to a vertex that is not in the graph.
var ErrVertexNotFound = errors.New("vertex not found")

// Graph is a container of parameters, vertices and the edges between them. It is the narrow
// surface a solver consumes; it does not optimize anything itself.
type Graph struct {
	logger   logging.Logger
	params   *ParameterSet
	vertices map[int]Vertex
	edges    []Edge
}

// NewGraph returns an empty graph.
func NewGraph(logger logging.Logger) *Graph {
	return &Graph{
		logger:   logger,
		params:   NewParameterSet(),
		vertices: map[int]Vertex{},
	}
}

// AddParameter adds a shared parameter. Parameters must be added before the edges using them.
func (g *Graph) AddParameter(p Parameter) error {
	if v, ok := p.(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(err, "parameter %d", p.ID())
		}
	}
	return g.params.Add(p)
}

// AddVertex adds v. Vertex ids are unique.
func (g *Graph) AddVertex(v Vertex) error {
	if _, ok := g.vertices[v.ID()]; ok {
		return errors.Errorf("vertex %d already exists", v.ID())
	}
	if val, ok := v.(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Wrapf(err, "vertex %d", v.ID())
		}
	}
	g.vertices[v.ID()] = v
	return nil
}

// AddEdge adds e. Every vertex e is connected to must already be in the graph, parameter
// references are resolved now and the edge is validated if it knows how.
func (g *Graph) AddEdge(e Edge) error {
	vertices := e.Vertices()
	if len(vertices) != e.NumVertices() {
		return errors.Errorf("edge connects %d vertices, want %d", len(vertices), e.NumVertices())
	}
	for _, v := range vertices {
		if v == nil {
			return errors.Wrap(ErrVertexNotFound, "edge has an unset vertex")
		}
		if existing, ok := g.vertices[v.ID()]; !ok || existing != v {
			return errors.Wrapf(ErrVertexNotFound, "id %d", v.ID())
		}
	}
	if user, ok := e.(ParameterUser); ok {
		if err := user.ResolveParameters(g.params); err != nil {
			return err
		}
	}
	if val, ok := e.(Validator); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}
	g.edges = append(g.edges, e)
	return nil
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id int) (Vertex, error) {
	v, ok := g.vertices[id]
	if !ok {
		return nil, errors.Wrapf(ErrVertexNotFound, "id %d", id)
	}
	return v, nil
}

// Vertices returns every vertex ordered by id.
func (g *Graph) Vertices() []Vertex {
	vertices := make([]Vertex, 0, len(g.vertices))
	for _, v := range g.vertices {
		vertices = append(vertices, v)
	}
	sort.Slice(vertices, func(i, j int) bool {
		return vertices[i].ID() < vertices[j].ID()
	})
	return vertices
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Parameters returns the shared parameters.
func (g *Graph) Parameters() *ParameterSet {
	return g.params
}
