// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// View is an orthographic camera looking at the origin from the given
// elevation and azimuth (degrees), Z up.
type View struct {
	Elevation float64
	Azimuth   float64
}

// DefaultView matches the usual 3D plot camera.
var DefaultView = View{Elevation: 30, Azimuth: -60}

// basis returns the screen right and up axes expressed in world
// coordinates as the rows of a 2x3 matrix.
func (v View) basis() *mat.Dense {
	el := v.Elevation * math.Pi / 180
	az := v.Azimuth * math.Pi / 180

	return mat.NewDense(2, 3, []float64{
		-math.Sin(az), math.Cos(az), 0,
		-math.Sin(el) * math.Cos(az), -math.Sin(el) * math.Sin(az), math.Cos(el),
	})
}

// Project maps row-vector points to screen coordinates (x right, y up),
// one row per point.
func (v View) Project(points mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(points, v.basis().T())
	return &out
}
