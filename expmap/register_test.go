package expmap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/logging"
	"go.viam.com/sba/spatialmath"
)

const sampleGraph = `PARAMS_CAMERAPARAMETERS 0 450 320 240 0.1
VERTEX_SE3:EXPMAP 0 0.5 -0.25 1.5 0 0 0 1
VERTEX_SE3:EXPMAP 1 1.5 0.75 -2 1 0 0 0
VERTEX_XYZ 2 0.25 -0.5 4
VERTEX_XYZ 3 0.1 0.2 0.25
EDGE_SE3:EXPMAP 0 1 0.5 0.25 -1 0 0 0 1 10 0 0 0 0 0 10 0 0 0 0 10 0 0 0 20 0 0 20 0 20
EDGE_PROJECT_XYZ2UV:EXPMAP 2 0 0 300.5 210.25 1 0 1
EDGE_PROJECT_XYZ2UVU:EXPMAP 2 1 0 300 200 290 1 0 0 1 0 1
EDGE_SE3_PROJECT_XYZ:EXPMAP 2 0 301 211 2 0.5 2 500 510 320 240
EDGE_STEREO_SE3_PROJECT_XYZ:EXPMAP 2 1 300 200 290 1 0 0 1 0 1
EDGE_SE3_PROJECT_XYZONLYPOSE:EXPMAP 0 301 211 1 0 1 0.25 -0.5 4 500 510 320 240
EDGE_STEREO_SE3_PROJECT_XYZONLYPOSE:EXPMAP 1 300 200 290 1 0 0 1 0 1
EDGE_PROJECT_PSI2UV:EXPMAP 3 1 0 0 310 230 1 0 1
`

func TestRegister(t *testing.T) {
	reg, err := NewRegistry()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reg.Group(), test.ShouldEqual, GroupName)
	test.That(t, len(reg.Tags()), test.ShouldEqual, 11)

	elem, ok := reg.Construct(TagEdgeProjectPSI2UV)
	test.That(t, ok, test.ShouldBeTrue)
	_, ok = elem.(*EdgeProjectPSI2UV)
	test.That(t, ok, test.ShouldBeTrue)

	tag, ok := reg.TagOf(NewPoseVertex(0, spatialmath.NewZeroSE3()))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tag, test.ShouldEqual, TagPose)

	err = Register(reg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 11)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	reg, err := NewRegistry(WithStereoIntrinsics(testStereo))
	test.That(t, err, test.ShouldBeNil)
	logger := logging.NewTestLogger(t)

	g, err := graph.Load(strings.NewReader(sampleGraph), reg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(g.Vertices()), test.ShouldEqual, 4)
	test.That(t, len(g.Edges()), test.ShouldEqual, 8)

	var buf bytes.Buffer
	test.That(t, graph.Save(&buf, g, reg), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, sampleGraph)

	edges := g.Edges()
	se3 := edges[0].(*EdgeSE3)
	test.That(t, se3.Information().At(3, 3), test.ShouldEqual, 20.)
	test.That(t, mat.Equal(se3.Information(), se3.Information().T()), test.ShouldBeTrue)

	xyz2uv := edges[1].(*EdgeProjectXYZ2UV)
	test.That(t, xyz2uv.Camera(), test.ShouldNotBeNil)
	test.That(t, xyz2uv.Camera().FocalLength, test.ShouldEqual, 450.)
	test.That(t, xyz2uv.ParameterIDs(), test.ShouldResemble, []int{0})

	projectXYZ := edges[3].(*EdgeSE3ProjectXYZ)
	test.That(t, projectXYZ.Information().At(1, 0), test.ShouldEqual, 0.5)
	test.That(t, projectXYZ.Intrinsics, test.ShouldResemble, camera.PinholeCameraIntrinsics{Fx: 500, Fy: 510, Ppx: 320, Ppy: 240})

	test.That(t, edges[4].(*EdgeStereoSE3ProjectXYZ).Intrinsics, test.ShouldResemble, testStereo)
	test.That(t, edges[5].(*EdgeSE3ProjectXYZOnlyPose).Xw.Z, test.ShouldEqual, 4.)

	pose, err := g.Vertex(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.(*PoseVertex).Estimate().Translation().X, test.ShouldEqual, -0.5)

	results, err := graph.EvaluateAll(context.Background(), edges, logger)
	test.That(t, err, test.ShouldBeNil)
	for i, r := range results {
		test.That(t, len(r.Jacobians), test.ShouldEqual, edges[i].NumVertices())
	}
	// the stereo pose only record has no world point
	test.That(t, edges[6].(*EdgeStereoSE3ProjectXYZOnlyPose).HasWorldPoint(), test.ShouldBeFalse)
	test.That(t, results[6].Valid, test.ShouldBeFalse)
	test.That(t, results[5].Valid, test.ShouldBeTrue)
}

func TestLoadRejectsTrailingFields(t *testing.T) {
	reg, err := NewRegistry(WithStereoIntrinsics(testStereo))
	test.That(t, err, test.ShouldBeNil)

	// four measurement values followed by the six information entries
	stereo := TagEdgeStereoSE3ProjectXYZ + " 2 1 300 200 290 0 1 0 0 1 0 1"
	input := strings.Replace(sampleGraph, TagEdgeStereoSE3ProjectXYZ+" 2 1 300 200 290 1 0 0 1 0 1", stereo, 1)
	test.That(t, input, test.ShouldNotEqual, sampleGraph)

	_, err = graph.Load(strings.NewReader(input), reg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, graph.ErrTrailingFields), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "line 10")

	g, err := graph.Load(strings.NewReader(input), reg, logging.NewTestLogger(t), graph.WithSkipMalformed())
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 1)
	test.That(t, len(g.Edges()), test.ShouldEqual, 7)
	for _, e := range g.Edges() {
		_, isStereo := e.(*EdgeStereoSE3ProjectXYZ)
		test.That(t, isStereo, test.ShouldBeFalse)
	}

	_, err = graph.Load(strings.NewReader("VERTEX_XYZ 1 0 0 5 far\n"), reg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, graph.ErrTrailingFields), test.ShouldBeTrue)
}

func TestLoadKeepsVerticesApartFromParameters(t *testing.T) {
	reg, err := NewRegistry()
	test.That(t, err, test.ShouldBeNil)
	input := "PARAMS_CAMERAPARAMETERS 0 450 320 240 0.1\n" +
		"VERTEX_SE3:EXPMAP 0 0 0 0 0 0 0 1\n" +
		"VERTEX_XYZ 1 0 0 5\n" +
		"EDGE_PROJECT_XYZ2UV:EXPMAP 1 0 0 320 240 1 0 1\n"

	g, err := graph.Load(strings.NewReader(input), reg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Parameters().IDs(), test.ShouldResemble, []int{0})
	test.That(t, len(g.Vertices()), test.ShouldEqual, 2)
	test.That(t, len(g.Edges()), test.ShouldEqual, 1)

	pose, err := g.Vertex(0)
	test.That(t, err, test.ShouldBeNil)
	_, ok := pose.(*PoseVertex)
	test.That(t, ok, test.ShouldBeTrue)

	eval, err := graph.Evaluate(g.Edges()[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Valid, test.ShouldBeTrue)
	test.That(t, eval.Chi2, test.ShouldAlmostEqual, 0, 1e-12)
}

func TestLoadWithoutStereoIntrinsics(t *testing.T) {
	reg, err := NewRegistry()
	test.That(t, err, test.ShouldBeNil)

	_, err = graph.Load(strings.NewReader(sampleGraph), reg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, camera.ErrNoIntrinsics), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, TagEdgeStereoSE3ProjectXYZ)

	g, err := graph.Load(strings.NewReader(sampleGraph), reg, logging.NewTestLogger(t), graph.WithSkipMalformed())
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)
	test.That(t, len(g.Edges()), test.ShouldEqual, 6)
}

func TestLoadMissingCamera(t *testing.T) {
	reg, err := NewRegistry()
	test.That(t, err, test.ShouldBeNil)
	input := "VERTEX_SE3:EXPMAP 0 0 0 0 0 0 0 1\nVERTEX_XYZ 1 0 0 5\nEDGE_PROJECT_XYZ2UV:EXPMAP 1 0 7 1 2 1 0 1\n"

	_, err = graph.Load(strings.NewReader(input), reg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, graph.ErrParameterNotFound), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "line 3")
}

func TestLoadRejectsNonUnitQuaternion(t *testing.T) {
	reg, err := NewRegistry()
	test.That(t, err, test.ShouldBeNil)
	input := "VERTEX_SE3:EXPMAP 0 0 0 0 0 0 0 2\n"
	_, err = graph.Load(strings.NewReader(input), reg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unit length")
}

func TestCameraParametersCodec(t *testing.T) {
	p := &CameraParameters{}
	test.That(t, p.Read(graph.NewTokens("525 319.5 239.5 0.075")), test.ShouldBeNil)
	test.That(t, p.FocalLength, test.ShouldEqual, 525.)
	test.That(t, p.Validate(), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, p.Write(&buf), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, " 525 319.5 239.5 0.075")

	defaults := NewCameraParameters(3)
	test.That(t, defaults.ID(), test.ShouldEqual, 3)
	test.That(t, defaults.FocalLength, test.ShouldEqual, 1.)
	test.That(t, defaults.Baseline, test.ShouldEqual, 0.5)

	test.That(t, p.Read(graph.NewTokens("0 1 1 1")), test.ShouldBeNil)
	test.That(t, errors.Is(p.Validate(), camera.ErrNoIntrinsics), test.ShouldBeTrue)
}
