package cli

import (
	"fmt"
	"sort"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/urfave/cli/v2"

	"go.viam.com/sba/graph"
)

// tagStats summarizes the evaluations of every edge with one tag.
type tagStats struct {
	Tag     string
	Edges   int
	Invalid int
	Chi2    stats.Float64Data
}

// summarize groups evals by the tag of the matching edge. Invalid evaluations are counted but
// their chi2 is left out.
func summarize(reg *graph.Registry, edges []graph.Edge, evals []graph.Evaluation) []*tagStats {
	byTag := map[string]*tagStats{}
	for i, e := range edges {
		tag, ok := reg.TagOf(e)
		if !ok {
			tag = fmt.Sprintf("%T", e)
		}
		s, ok := byTag[tag]
		if !ok {
			s = &tagStats{Tag: tag}
			byTag[tag] = s
		}
		s.Edges++
		if !evals[i].Valid {
			s.Invalid++
			continue
		}
		s.Chi2 = append(s.Chi2, evals[i].Chi2)
	}

	out := make([]*tagStats, 0, len(byTag))
	for _, s := range byTag {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func (s *tagStats) row() table.Row {
	if len(s.Chi2) == 0 {
		return table.Row{s.Tag, s.Edges, s.Invalid, "-", "-", "-", "-"}
	}
	sum, _ := s.Chi2.Sum()
	mean, _ := s.Chi2.Mean()
	median, _ := s.Chi2.Median()
	p95, _ := s.Chi2.Percentile(95)
	return table.Row{s.Tag, s.Edges, s.Invalid, formatChi2(sum), formatChi2(mean), formatChi2(median), formatChi2(p95)}
}

func formatChi2(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

// StatsAction prints the edge count, the number of non finite edges and chi2 statistics per tag.
func StatsAction(c *cli.Context) error {
	return withGraph(c, func(insp *inspector) error {
		start := clk.Now()
		edges := insp.graph.Edges()
		evals, err := graph.EvaluateAll(c.Context, edges, insp.logger, insp.cfg.EvaluateOptions()...)
		if err != nil {
			return err
		}
		insp.logger.Debugw("evaluated edges", "edges", len(edges), "took", clk.Since(start).String())

		summary := summarize(insp.reg, edges, evals)
		t := table.NewWriter()
		t.SetOutputMirror(c.App.Writer)
		t.AppendHeader(table.Row{"Tag", "Edges", "Invalid", "Chi2 sum", "Chi2 mean", "Chi2 median", "Chi2 p95"})
		var all stats.Float64Data
		var total, invalid int
		for _, s := range summary {
			t.AppendRow(s.row())
			all = append(all, s.Chi2...)
			total += s.Edges
			invalid += s.Invalid
		}
		sum, _ := all.Sum()
		t.AppendFooter(table.Row{"Total", total, invalid, formatChi2(sum)})
		t.Render()

		bins := c.Int(statsFlagHist)
		if bins <= 0 || len(all) == 0 {
			return nil
		}
		printf(c.App.Writer, "")
		return histogram.Fprint(c.App.Writer, histogram.Hist(bins, all), histogram.Linear(40))
	})
}
