package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/viz"
)

func TestRead(t *testing.T) {
	t.Setenv("SBA_PLOT_TITLE", "loop closure")

	cfg, err := Read("data/stereo.json")
	test.That(t, err, test.ShouldBeNil)

	expected := &Config{
		StereoIntrinsics: &camera.StereoCameraIntrinsics{
			PinholeCameraIntrinsics: camera.PinholeCameraIntrinsics{Fx: 100, Fy: 100, Ppx: 320, Ppy: 240},
			Bf:                      40,
		},
		Parallel:       4,
		SkipMalformed:  true,
		Plot:           PlotConfig{Title: "loop closure", ArrowLength: 0.5},
		ConfigFilePath: "data/stereo.json",
	}
	test.That(t, cmp.Diff(expected, cfg), test.ShouldBeEmpty)

	test.That(t, cfg.RegistryOptions(), test.ShouldHaveLength, 1)
	test.That(t, cfg.LoadOptions(), test.ShouldHaveLength, 1)
	test.That(t, cfg.EvaluateOptions(), test.ShouldHaveLength, 1)

	opts := cfg.PlotOptions()
	want := viz.DefaultPlotOptions()
	want.Title = "loop closure"
	want.ArrowLength = 0.5
	test.That(t, opts, test.ShouldResemble, want)
}

func TestReadErrors(t *testing.T) {
	_, err := Read("data/missing.json")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read("data/unknown_key.json")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "paralel")
	test.That(t, err.Error(), test.ShouldContainSubstring, "data/unknown_key.json")
}

func TestFromReader(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		cfg, err := FromReader(strings.NewReader(`{}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.RegistryOptions(), test.ShouldBeEmpty)
		test.That(t, cfg.LoadOptions(), test.ShouldBeEmpty)
		test.That(t, cfg.EvaluateOptions(), test.ShouldBeEmpty)
		test.That(t, cfg.PlotOptions(), test.ShouldResemble, viz.DefaultPlotOptions())
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := FromReader(strings.NewReader(`{"parallel":`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := FromReader(strings.NewReader(`{"parallel": "many"}`))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("negative parallel", func(t *testing.T) {
		_, err := FromReader(strings.NewReader(`{"parallel": -1}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "non-negative")
	})

	t.Run("invalid intrinsics", func(t *testing.T) {
		_, err := FromReader(strings.NewReader(`{"stereo_intrinsics": {"fx": 100, "fy": 100}}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "stereo_intrinsics")
		test.That(t, err.Error(), test.ShouldContainSubstring, "Bf")
	})

	t.Run("hidden edges", func(t *testing.T) {
		cfg, err := FromReader(strings.NewReader(`{"plot": {"hide_edges": true}}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.PlotOptions().ShowEdges, test.ShouldBeFalse)
	})
}

func TestSchema(t *testing.T) {
	schema := Schema()
	test.That(t, schema, test.ShouldNotBeNil)
	out, err := json.Marshal(schema)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldContainSubstring, "stereo_intrinsics")
	test.That(t, string(out), test.ShouldContainSubstring, "skip_malformed")
}
