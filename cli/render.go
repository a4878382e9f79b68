package cli

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/sba/config"
	"go.viam.com/sba/viz"
)

// PlotAction saves a top down plot of the camera trajectory.
func PlotAction(c *cli.Context) error {
	return withGraph(c, func(insp *inspector) error {
		p, err := viz.PlotTrajectory(insp.graph, insp.cfg.PlotOptions())
		if err != nil {
			return err
		}
		out := c.String(outputFlagPath)
		if err := viz.SavePlot(p, out); err != nil {
			return err
		}
		printf(c.App.Writer, "wrote %s", out)
		return nil
	})
}

// GnuplotAction writes the poses followed by the relative pose edges, one per line.
func GnuplotAction(c *cli.Context) error {
	return withGraph(c, func(insp *inspector) error {
		out := c.String(outputFlagPath)
		if out == "" {
			_, err := viz.WriteGnuplotGraph(c.App.Writer, insp.graph)
			return err
		}

		//nolint:gosec
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer goutils.UncheckedErrorFunc(f.Close)
		n, err := viz.WriteGnuplotGraph(f, insp.graph)
		if err != nil {
			return err
		}
		insp.logger.Infow("wrote gnuplot data", "path", out, "elements", n)
		printf(c.App.Writer, "wrote %d elements to %s", n, out)
		return f.Sync()
	})
}

// SchemaAction prints the JSON schema of the configuration file.
func SchemaAction(c *cli.Context) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(config.Schema())
}
