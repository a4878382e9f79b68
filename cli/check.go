package cli

import (
	"fmt"
	"math"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/graph"
)

// jacobianCheck is the worst analytic against numeric Jacobian difference of the edges of one tag.
type jacobianCheck struct {
	Tag     string
	Edges   int
	Skipped int
	MaxDiff float64
}

// jacobianDifference returns the largest absolute difference between two blocks, relative to the
// largest entry of analytic when that exceeds one.
func jacobianDifference(analytic, numeric *mat.Dense) float64 {
	a := mat.DenseCopyOf(analytic).RawMatrix().Data
	n := mat.DenseCopyOf(numeric).RawMatrix().Data
	scale := math.Max(1, floats.Norm(a, math.Inf(1)))
	return floats.Distance(a, n, math.Inf(1)) / scale
}

// checkJacobians compares every edge's analytic Jacobians against central differences. Edges that
// do not evaluate to finite values are skipped. Vertices are perturbed while this runs, so edges
// are visited one at a time.
func checkJacobians(reg *graph.Registry, edges []graph.Edge) ([]*jacobianCheck, error) {
	byTag := map[string]*jacobianCheck{}
	for i, e := range edges {
		tag, ok := reg.TagOf(e)
		if !ok {
			tag = fmt.Sprintf("%T", e)
		}
		res, ok := byTag[tag]
		if !ok {
			res = &jacobianCheck{Tag: tag}
			byTag[tag] = res
		}
		res.Edges++

		eval, err := graph.Evaluate(e)
		if err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}
		if !eval.Valid {
			res.Skipped++
			continue
		}
		numeric, err := graph.NumericJacobians(e)
		if err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}
		for k := range numeric {
			res.MaxDiff = math.Max(res.MaxDiff, jacobianDifference(eval.Jacobians[k], numeric[k]))
		}
	}

	out := make([]*jacobianCheck, 0, len(byTag))
	for _, res := range byTag {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

// CheckAction fails when the analytic Jacobians of any tag drift from the numeric ones by more
// than the tolerance. Relative pose edges are only exact at zero error, so graphs with large
// relative pose residuals will report them.
func CheckAction(c *cli.Context) error {
	tol := c.Float64(checkFlagTol)
	return withGraph(c, func(insp *inspector) error {
		results, err := checkJacobians(insp.reg, insp.graph.Edges())
		if err != nil {
			return err
		}

		ok := color.New(color.FgGreen).SprintFunc()
		bad := color.New(color.FgRed, color.Bold).SprintFunc()
		t := table.NewWriter()
		t.SetOutputMirror(c.App.Writer)
		t.AppendHeader(table.Row{"Tag", "Edges", "Skipped", "Max diff", "Status"})
		failed := 0
		for _, res := range results {
			status := ok("ok")
			if res.MaxDiff > tol {
				status = bad("mismatch")
				failed++
			}
			t.AppendRow(table.Row{res.Tag, res.Edges, res.Skipped, fmt.Sprintf("%.3g", res.MaxDiff), status})
		}
		t.Render()

		if failed > 0 {
			return errors.Errorf("%d edge types exceed tolerance %g", failed, tol)
		}
		return nil
	})
}
