package expmap

import (
	"io"

	"github.com/golang/geo/r2"

	"go.viam.com/sba/camera"
	"go.viam.com/sba/graph"
)

// CameraParameters is a camera model shared by id between the XYZ2UV, XYZ2UVU and PSI2UV edges.
type CameraParameters struct {
	id int
	camera.Parameters
}

// NewCameraParameters returns shared camera parameters with the default model.
func NewCameraParameters(id int) *CameraParameters {
	return &CameraParameters{id: id, Parameters: *camera.NewDefaultParameters()}
}

// ID returns the parameter id.
func (c *CameraParameters) ID() int {
	return c.id
}

// SetID sets the parameter id.
func (c *CameraParameters) SetID(id int) {
	c.id = id
}

// Validate checks the camera model.
func (c *CameraParameters) Validate() error {
	return c.Parameters.CheckValid()
}

// Read reads "focal cx cy baseline".
func (c *CameraParameters) Read(t *graph.Tokens) error {
	values, err := t.Floats(4)
	if err != nil {
		return err
	}
	c.FocalLength = values[0]
	c.PrincipalPoint = r2.Point{X: values[1], Y: values[2]}
	c.Baseline = values[3]
	return nil
}

func (c *CameraParameters) Write(w io.Writer) error {
	return graph.WriteFloats(w, c.FocalLength, c.PrincipalPoint.X, c.PrincipalPoint.Y, c.Baseline)
}
