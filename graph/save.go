package graph

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Save writes g to w: parameters, then vertices ordered by id, then edges in insertion order.
func Save(w io.Writer, g *Graph, reg *Registry) error {
	bw := bufio.NewWriter(w)
	for _, id := range g.params.IDs() {
		p, err := g.params.Get(id)
		if err != nil {
			return err
		}
		if err := WriteRecord(bw, reg, p, id); err != nil {
			return err
		}
	}
	for _, v := range g.Vertices() {
		if err := WriteRecord(bw, reg, v, v.ID()); err != nil {
			return err
		}
	}
	for _, e := range g.edges {
		ids := make([]int, 0, e.NumVertices())
		for _, v := range e.Vertices() {
			ids = append(ids, v.ID())
		}
		if err := WriteRecord(bw, reg, e, ids...); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteRecord writes a single element as a full record, tag and ids included.
func WriteRecord(w io.Writer, reg *Registry, elem Element, ids ...int) error {
	tag, ok := reg.TagOf(elem)
	if !ok {
		return errors.Errorf("type %T is not registered in group %q", elem, reg.Group())
	}
	if _, err := io.WriteString(w, tag); err != nil {
		return err
	}
	if err := WriteInts(w, ids...); err != nil {
		return err
	}
	if err := elem.Write(w); err != nil {
		return errors.Wrapf(err, "writing %s", tag)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
