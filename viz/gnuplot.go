// Package viz holds debug output for pose graphs: gnuplot data files and a top-down trajectory
// plot.
package viz

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/sba/expmap"
	"go.viam.com/sba/graph"
)

// WriteGnuplot writes one gnuplot data line for elem. Pose vertices write their six minimal
// coordinates [rx ry rz tx ty tz]; relative pose edges write the minimal coordinates of their from
// vertex followed by those of their to vertex. Other elements write nothing and return false.
func WriteGnuplot(w io.Writer, elem graph.Element) (bool, error) {
	var values []float64
	switch e := elem.(type) {
	case *expmap.PoseVertex:
		m := e.Estimate().ToMinimal()
		values = m[:]
	case *expmap.EdgeSE3:
		for _, v := range e.Vertices() {
			pose, ok := v.(*expmap.PoseVertex)
			if !ok {
				return false, errors.New("relative pose edge is not connected")
			}
			m := pose.Estimate().ToMinimal()
			values = append(values, m[:]...)
		}
	default:
		return false, nil
	}

	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = graph.FormatFloat(v)
	}
	if _, err := io.WriteString(w, strings.Join(fields, " ")+"\n"); err != nil {
		return false, err
	}
	return true, nil
}

// WriteGnuplotGraph writes every pose vertex of g, a blank line, then every relative pose edge.
// It returns the number of lines written.
func WriteGnuplotGraph(w io.Writer, g *graph.Graph) (int, error) {
	written := 0
	for _, v := range g.Vertices() {
		ok, err := WriteGnuplot(w, v)
		if err != nil {
			return written, errors.Wrapf(err, "vertex %d", v.ID())
		}
		if ok {
			written++
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return written, err
	}
	for i, e := range g.Edges() {
		ok, err := WriteGnuplot(w, e)
		if err != nil {
			return written, errors.Wrapf(err, "edge %d", i)
		}
		if ok {
			written++
		}
	}
	return written, nil
}
