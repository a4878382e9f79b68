package viz

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/sba/expmap"
	"go.viam.com/sba/graph"
	"go.viam.com/sba/spatialmath"
)

var (
	poseColor = color.RGBA{R: 255, G: 128, A: 255}
	edgeColor = color.RGBA{G: 64, B: 255, A: 255}
)

// PlotOptions controls PlotTrajectory.
type PlotOptions struct {
	Title string
	// ArrowLength is the length of the heading arrow drawn at every camera, in world units.
	ArrowLength float64
	// ArrowWidth is the half width of the arrow head.
	ArrowWidth float64
	ShowEdges  bool
}

// DefaultPlotOptions returns the options PlotTrajectory uses when none are given.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Title: "trajectory", ArrowLength: 0.2, ArrowWidth: 0.05, ShowEdges: true}
}

// cameraCenter returns the camera centre and optical axis in world coordinates for a world to
// camera pose.
func cameraCenter(tcw spatialmath.SE3) (r3.Vector, r3.Vector) {
	twc := tcw.Inverse()
	return twc.Translation(), spatialmath.RotateVector(twc.Rotation(), r3.Vector{Z: 1})
}

// PlotTrajectory draws the camera centres of every pose vertex in g seen from above (x to the
// right, z up the page), each with an arrow along its optical axis, and the relative pose edges
// between them.
func PlotTrajectory(g *graph.Graph, opts PlotOptions) (*plot.Plot, error) {
	var centers plotter.XYs
	var arrows []plotter.XYs
	for _, v := range g.Vertices() {
		pose, ok := v.(*expmap.PoseVertex)
		if !ok {
			continue
		}
		c, axis := cameraCenter(pose.Estimate())
		centers = append(centers, plotter.XY{X: c.X, Y: c.Z})
		if arrow := headingArrow(c, axis, opts); arrow != nil {
			arrows = append(arrows, arrow)
		}
	}
	if len(centers) == 0 {
		return nil, errors.New("graph has no poses to plot")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "z"

	if opts.ShowEdges {
		for _, e := range g.Edges() {
			if _, ok := e.(*expmap.EdgeSE3); !ok {
				continue
			}
			var segment plotter.XYs
			for _, v := range e.Vertices() {
				c, _ := cameraCenter(v.(*expmap.PoseVertex).Estimate())
				segment = append(segment, plotter.XY{X: c.X, Y: c.Z})
			}
			line, err := plotter.NewLine(segment)
			if err != nil {
				return nil, err
			}
			line.Color = edgeColor
			p.Add(line)
		}
	}

	for _, arrow := range arrows {
		line, err := plotter.NewLine(arrow)
		if err != nil {
			return nil, err
		}
		line.Color = poseColor
		p.Add(line)
	}

	scatter, err := plotter.NewScatter(centers)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = poseColor
	p.Add(scatter)
	return p, nil
}

// headingArrow returns a polyline from c along the x-z projection of axis with a two sided head.
// Cameras looking straight up or down have no heading and get no arrow.
func headingArrow(c, axis r3.Vector, opts PlotOptions) plotter.XYs {
	dx, dz := axis.X, axis.Z
	n := math.Hypot(dx, dz)
	if n < 1e-9 {
		return nil
	}
	dx, dz = dx/n, dz/n
	tipX, tipZ := c.X+dx*opts.ArrowLength, c.Z+dz*opts.ArrowLength
	backX, backZ := tipX-dx*opts.ArrowLength*0.3, tipZ-dz*opts.ArrowLength*0.3
	px, pz := -dz*opts.ArrowWidth, dx*opts.ArrowWidth
	return plotter.XYs{
		{X: c.X, Y: c.Z},
		{X: tipX, Y: tipZ},
		{X: backX + px, Y: backZ + pz},
		{X: tipX, Y: tipZ},
		{X: backX - px, Y: backZ - pz},
	}
}

// SavePlot renders p to path. The format follows the file extension.
func SavePlot(p *plot.Plot, path string) error {
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
