// Package expmap implements the SE(3) exponential map vertices and edges used for bundle
// adjustment: camera poses perturbed on the left through exp, Euclidean and inverse depth
// landmarks, and the reprojection and relative pose edges between them with analytic Jacobians.
package expmap

import (
	"go.uber.org/multierr"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/spatialmath"
)

// GroupName is the name of the registry Register fills.
const GroupName = "expmap"

// Record tags.
const (
	TagPose                    = "VERTEX_SE3:EXPMAP"
	TagPoint                   = "VERTEX_XYZ"
	TagCameraParameters        = "PARAMS_CAMERAPARAMETERS"
	TagEdgeSE3                 = "EDGE_SE3:EXPMAP"
	TagEdgeProjectXYZ2UV       = "EDGE_PROJECT_XYZ2UV:EXPMAP"
	TagEdgeProjectXYZ2UVU      = "EDGE_PROJECT_XYZ2UVU:EXPMAP"
	TagEdgeSE3ProjectXYZ       = "EDGE_SE3_PROJECT_XYZ:EXPMAP"
	TagEdgeStereoSE3ProjectXYZ = "EDGE_STEREO_SE3_PROJECT_XYZ:EXPMAP"
	TagEdgeSE3ProjectOnlyPose  = "EDGE_SE3_PROJECT_XYZONLYPOSE:EXPMAP"
	TagEdgeStereoOnlyPose      = "EDGE_STEREO_SE3_PROJECT_XYZONLYPOSE:EXPMAP"
	TagEdgeProjectPSI2UV       = "EDGE_PROJECT_PSI2UV:EXPMAP"
)

type registerOptions struct {
	stereo camera.StereoCameraIntrinsics
}

// Option configures Register.
type Option func(*registerOptions)

// WithStereoIntrinsics seeds the stereo edges built by the registry with intr. Stereo records do
// not carry their intrinsics, so without this option they fail validation when loaded.
func WithStereoIntrinsics(intr camera.StereoCameraIntrinsics) Option {
	return func(opts *registerOptions) {
		opts.stereo = intr
	}
}

// Register adds every vertex, edge and parameter type of this package to reg.
func Register(reg *graph.Registry, opts ...Option) error {
	var options registerOptions
	for _, opt := range opts {
		opt(&options)
	}

	factories := []struct {
		tag     string
		factory graph.Factory
	}{
		{TagPose, func() graph.Element { return NewPoseVertex(0, spatialmath.NewZeroSE3()) }},
		{TagPoint, func() graph.Element { return &PointVertex{} }},
		{TagCameraParameters, func() graph.Element { return NewCameraParameters(0) }},
		{TagEdgeSE3, func() graph.Element { return NewEdgeSE3() }},
		{TagEdgeProjectXYZ2UV, func() graph.Element { return NewEdgeProjectXYZ2UV() }},
		{TagEdgeProjectXYZ2UVU, func() graph.Element { return NewEdgeProjectXYZ2UVU() }},
		{TagEdgeSE3ProjectXYZ, func() graph.Element { return NewEdgeSE3ProjectXYZ() }},
		{TagEdgeStereoSE3ProjectXYZ, func() graph.Element {
			e := NewEdgeStereoSE3ProjectXYZ()
			e.Intrinsics = options.stereo
			return e
		}},
		{TagEdgeSE3ProjectOnlyPose, func() graph.Element { return NewEdgeSE3ProjectXYZOnlyPose() }},
		{TagEdgeStereoOnlyPose, func() graph.Element {
			e := NewEdgeStereoSE3ProjectXYZOnlyPose()
			e.Intrinsics = options.stereo
			return e
		}},
		{TagEdgeProjectPSI2UV, func() graph.Element { return NewEdgeProjectPSI2UV() }},
	}

	var errs error
	for _, f := range factories {
		errs = multierr.Append(errs, reg.Register(f.tag, f.factory))
	}
	return errs
}

// NewRegistry returns a registry holding this package's types.
func NewRegistry(opts ...Option) (*graph.Registry, error) {
	reg := graph.NewRegistry(GroupName)
	if err := Register(reg, opts...); err != nil {
		return nil, err
	}
	return reg, nil
}
