// Package config defines the configuration of the graph inspection tool.
package config

import (
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/expmap"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/viz"
)

// Config is the top level configuration.
type Config struct {
	// StereoIntrinsics are given to the stereo edges, whose records do not carry intrinsics.
	StereoIntrinsics *camera.StereoCameraIntrinsics `json:"stereo_intrinsics,omitempty"`
	// Parallel bounds the number of goroutines used to evaluate edges. Zero uses GOMAXPROCS.
	Parallel      int        `json:"parallel,omitempty"`
	SkipMalformed bool       `json:"skip_malformed,omitempty"`
	Debug         bool       `json:"debug,omitempty"`
	LogFile       string     `json:"log_file,omitempty"`
	Plot          PlotConfig `json:"plot,omitempty"`

	ConfigFilePath string `json:"-"`
}

// PlotConfig overrides the trajectory plot defaults.
type PlotConfig struct {
	Title       string  `json:"title,omitempty"`
	ArrowLength float64 `json:"arrow_length,omitempty"`
	ArrowWidth  float64 `json:"arrow_width,omitempty"`
	HideEdges   bool    `json:"hide_edges,omitempty"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Parallel < 0 {
		return errors.Errorf("parallel must be non-negative, got %d", c.Parallel)
	}
	if c.StereoIntrinsics != nil {
		if err := c.StereoIntrinsics.CheckValid(); err != nil {
			return errors.Wrap(err, "stereo_intrinsics")
		}
	}
	if c.Plot.ArrowLength < 0 || c.Plot.ArrowWidth < 0 {
		return errors.New("plot arrow sizes must be non-negative")
	}
	return nil
}

// RegistryOptions returns the options to build the expmap registry with.
func (c *Config) RegistryOptions() []expmap.Option {
	if c.StereoIntrinsics == nil {
		return nil
	}
	return []expmap.Option{expmap.WithStereoIntrinsics(*c.StereoIntrinsics)}
}

// LoadOptions returns the options to load graphs with.
func (c *Config) LoadOptions() []graph.LoadOption {
	if c.SkipMalformed {
		return []graph.LoadOption{graph.WithSkipMalformed()}
	}
	return nil
}

// EvaluateOptions returns the options to evaluate edges with.
func (c *Config) EvaluateOptions() []graph.EvaluateOption {
	if c.Parallel > 0 {
		return []graph.EvaluateOption{graph.WithParallelism(c.Parallel)}
	}
	return nil
}

// PlotOptions returns the plot defaults with the configured overrides applied.
func (c *Config) PlotOptions() viz.PlotOptions {
	opts := viz.DefaultPlotOptions()
	if c.Plot.Title != "" {
		opts.Title = c.Plot.Title
	}
	if c.Plot.ArrowLength > 0 {
		opts.ArrowLength = c.Plot.ArrowLength
	}
	if c.Plot.ArrowWidth > 0 {
		opts.ArrowWidth = c.Plot.ArrowWidth
	}
	opts.ShowEdges = !c.Plot.HideEdges
	return opts
}

// Schema returns the JSON schema of Config.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
