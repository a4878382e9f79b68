package graph

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrParameterNotFound is returned when an edge references a parameter id that was never added.
var ErrParameterNotFound = errors.New("parameter not found")

// ParameterSet holds the shared parameters of a graph keyed by id.
type ParameterSet struct {
	params map[int]Parameter
}

// NewParameterSet returns an empty set.
func NewParameterSet() *ParameterSet {
	return &ParameterSet{params: map[int]Parameter{}}
}

// Add stores p under its id.
func (ps *ParameterSet) Add(p Parameter) error {
	if _, ok := ps.params[p.ID()]; ok {
		return errors.Errorf("parameter %d already exists", p.ID())
	}
	ps.params[p.ID()] = p
	return nil
}

// Get returns the parameter stored under id.
func (ps *ParameterSet) Get(id int) (Parameter, error) {
	p, ok := ps.params[id]
	if !ok {
		return nil, errors.Wrapf(ErrParameterNotFound, "id %d", id)
	}
	return p, nil
}

// IDs returns the stored ids in ascending order.
func (ps *ParameterSet) IDs() []int {
	ids := make([]int, 0, len(ps.params))
	for id := range ps.params {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len is the number of stored parameters.
func (ps *ParameterSet) Len() int {
	return len(ps.params)
}
