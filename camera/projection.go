// Package camera holds the pinhole projection models used by the reprojection edges.
//
// None of the projections guard against a zero or negative depth: a point at z == 0 yields
// infinite or NaN pixel coordinates, which callers are expected to detect.
package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Project2D divides a point by its depth.
func Project2D(v r3.Vector) r2.Point {
	return r2.Point{X: v.X / v.Z, Y: v.Y / v.Z}
}

// Unproject2D lifts an image plane point to homogeneous coordinates.
func Unproject2D(v r2.Point) r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: 1}
}

// InvertDepth converts an inverse depth point [x/z, y/z, 1/z] to [x, y, z] in the anchor frame.
func InvertDepth(psi r3.Vector) r3.Vector {
	return Unproject2D(r2.Point{X: psi.X, Y: psi.Y}).Mul(1 / psi.Z)
}
