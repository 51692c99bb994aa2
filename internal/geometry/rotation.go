// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/post_flight/internal/orientation"
)

// Rx returns the right-handed rotation about X by angle radians.
func Rx(angle float64) *mat.Dense {
	c, s := math.Cos(angle), math.Sin(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// Ry returns the right-handed rotation about Y by angle radians.
func Ry(angle float64) *mat.Dense {
	c, s := math.Cos(angle), math.Sin(angle)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// Rotation builds the body rotation for a pose as Ry(roll) · Rx(pitch):
// pitch is applied to the body first, then roll. This is not the Z-Y-X
// aerospace order and must stay as is, rendered output depends on it.
//
// Every call allocates a new matrix, so frames may be built concurrently.
func Rotation(p orientation.Pose) *mat.Dense {
	var r mat.Dense
	r.Mul(Ry(p.Roll), Rx(p.Pitch))
	return &r
}

// Finite reports whether every element of m is a finite number.
func Finite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
