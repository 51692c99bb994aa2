// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geometry

import "gonum.org/v1/gonum/mat"

// Edge joins two vertex indices of a model.
type Edge [2]int

// Model is a rigid wireframe: one vertex per row.
type Model struct {
	Vertices *mat.Dense
	Edges    []Edge
}

var cubeVertices = []float64{
	1, 1, 1,
	1, 1, -1,
	1, -1, -1,
	1, -1, 1,
	-1, 1, 1,
	-1, 1, -1,
	-1, -1, -1,
	-1, -1, 1,
}

var cubeEdges = []Edge{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Cube returns the 8-vertex, 12-edge model with corners at ±1. Callers get
// their own copy; the model is never mutated by rendering.
func Cube() Model {
	edges := make([]Edge, len(cubeEdges))
	copy(edges, cubeEdges)
	return Model{
		Vertices: mat.NewDense(8, 3, append([]float64(nil), cubeVertices...)),
		Edges:    edges,
	}
}

// Transform rotates row-vector vertices: vertices · Rᵀ, which is R · v for
// each vertex v.
func Transform(r mat.Matrix, vertices mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(vertices, r.T())
	return &out
}

// Rows copies m into one [3]float64 per row, the shape renderers and JSON
// payloads want.
func Rows(m mat.Matrix) [][3]float64 {
	rows, _ := m.Dims()
	out := make([][3]float64, rows)
	for i := range out {
		out[i] = [3]float64{m.At(i, 0), m.At(i, 1), m.At(i, 2)}
	}
	return out
}
