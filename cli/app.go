// Package cli contains the sba-inspect command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	statsFlagHist  = "hist"
	checkFlagTol   = "tolerance"
	outputFlagPath = "out"
)

var app = &cli.App{
	Name:            "sba-inspect",
	Usage:           "inspect SE3 expmap bundle adjustment graphs",
	ArgsUsage:       "FILE.g2o",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogFile,
			Usage: "also write logs to `FILE`, rotated by size",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "stats",
			Usage:     "print per tag edge counts and chi2 statistics",
			ArgsUsage: "FILE.g2o",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  statsFlagHist,
					Usage: "print a chi2 histogram with `N` bins",
				},
			},
			Action: StatsAction,
		},
		{
			Name:      "check",
			Usage:     "compare analytic Jacobians against central finite differences",
			ArgsUsage: "FILE.g2o",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  checkFlagTol,
					Usage: "largest accepted difference relative to the analytic Jacobian",
					Value: 1e-5,
				},
			},
			Action: CheckAction,
		},
		{
			Name:      "plot",
			Usage:     "plot the camera trajectory seen from above",
			ArgsUsage: "FILE.g2o",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     outputFlagPath,
					Usage:    "image `FILE`, format chosen by extension",
					Required: true,
				},
			},
			Action: PlotAction,
		},
		{
			Name:      "gnuplot",
			Usage:     "write poses and relative pose edges in gnuplot format",
			ArgsUsage: "FILE.g2o",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  outputFlagPath,
					Usage: "data `FILE`; stdout when empty",
				},
			},
			Action: GnuplotAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of the configuration file",
			Action: SchemaAction,
		},
	},
}

// NewApp returns the sba-inspect app writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
