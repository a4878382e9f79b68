package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	goutils "go.viam.com/utils"

	"go.viam.com/sba/config"
	"go.viam.com/sba/expmap"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/logging"
)

// clk times loading and evaluation. Tests replace it with a mock.
var clk = clock.New()

// inspector holds what every command needs: the configuration, a logger and the loaded graph.
type inspector struct {
	cfg    *config.Config
	logger logging.Logger
	closer io.Closer
	reg    *graph.Registry
	graph  *graph.Graph
}

func newInspector(c *cli.Context) (*inspector, error) {
	cfg := &config.Config{}
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}

	debug := c.Bool(generalFlagDebug) || cfg.Debug
	logFile := c.String(generalFlagLogFile)
	if logFile == "" {
		logFile = cfg.LogFile
	}

	insp := &inspector{cfg: cfg}
	switch {
	case logFile != "":
		lvl := zapcore.InfoLevel
		if debug {
			lvl = zapcore.DebugLevel
		}
		insp.logger, insp.closer = logging.NewFileLogger("sba-inspect", logFile, lvl)
	case debug:
		insp.logger = logging.NewDebugLogger("sba-inspect")
	default:
		insp.logger = logging.NewBlankLogger("sba-inspect")
	}

	reg, err := expmap.NewRegistry(cfg.RegistryOptions()...)
	if err != nil {
		return nil, multierr.Combine(err, insp.Close())
	}
	insp.reg = reg
	return insp, nil
}

// load reads the graph named by the first positional argument.
func (insp *inspector) load(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("expected a graph file argument")
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	start := clk.Now()
	g, err := graph.Load(f, insp.reg, insp.logger, insp.cfg.LoadOptions()...)
	if g == nil {
		return errors.Wrapf(err, "loading %s", path)
	}
	if err != nil {
		warningf(c.App.ErrWriter, "skipped %d malformed records", len(multierr.Errors(err)))
	}
	insp.graph = g
	insp.logger.Infow("loaded graph",
		"path", path,
		"vertices", len(g.Vertices()),
		"edges", len(g.Edges()),
		"took", clk.Since(start).Round(time.Microsecond).String())
	return nil
}

// Close syncs the logger and releases the log file, if any. Only the log file can fail Close.
func (insp *inspector) Close() error {
	// the console core syncs stdout, which fails on ttys and pipes
	goutils.UncheckedError(insp.logger.Sync())
	if insp.closer == nil {
		return nil
	}
	return insp.closer.Close()
}

// withGraph sets up an inspector, loads the graph and hands both to run.
func withGraph(c *cli.Context, run func(*inspector) error) (err error) {
	insp, err := newInspector(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, insp.Close())
	}()
	if err := insp.load(c); err != nil {
		return err
	}
	return run(insp)
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	_, _ = color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: ")
	printf(w, format, a...)
}
