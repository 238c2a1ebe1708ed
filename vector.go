/*
 * vector.go, part of ParaTemp.
 *
 * Copyright 2024 The ParaTemp authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied.
 *
 */

package paratemp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// appzero absorbs floating-point drift. Everything with a magnitude
// below it is treated as zero.
const appzero = 1e-10

// Vector is a point or direction in 3D space. It is a value type, all
// operations return new vectors rather than mutating the receiver.
type Vector struct {
	X, Y, Z float64
}

// NewVector builds a Vector from exactly 3 components. Any other count
// is an ErrVector.
func NewVector(vals ...float64) (Vector, error) {
	if len(vals) != 3 {
		return Vector{}, fmt.Errorf("%w: got %d", ErrVector, len(vals))
	}
	return Vector{vals[0], vals[1], vals[2]}, nil
}

// VectorFromSlice builds a Vector from a 3-element slice. It behaves
// exactly as NewVector with the slice expanded.
func VectorFromSlice(vals []float64) (Vector, error) {
	return NewVector(vals...)
}

func (v Vector) String() string {
	return fmt.Sprintf("[%g %g %g]", v.X, v.Y, v.Z)
}

// Add returns v+w.
func (v Vector) Add(w Vector) Vector {
	return Vector{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v-w.
func (v Vector) Sub(w Vector) Vector {
	return Vector{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by k.
func (v Vector) Scale(k float64) Vector {
	return Vector{k * v.X, k * v.Y, k * v.Z}
}

// Div returns v divided by k.
func (v Vector) Div(k float64) Vector {
	return v.Scale(1 / k)
}

// Dot returns the dot product of v and w.
func (v Vector) Dot(w Vector) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of v and w.
func (v Vector) Cross(w Vector) Vector {
	return Vector{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean magnitude of v.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns the vector of magnitude 1 collinear with v, or an
// ErrZeroVector if v has no direction.
func (v Vector) Unit() (Vector, error) {
	n := v.Norm()
	if n <= appzero {
		return Vector{}, ErrZeroVector
	}
	return v.Scale(1 / n), nil
}

// AngleTo returns the angle in radians between v and w. Either vector
// having zero magnitude is an ErrZeroVector.
func (v Vector) AngleTo(w Vector) (float64, error) {
	normprod := v.Norm() * w.Norm()
	if normprod <= appzero {
		return 0, ErrZeroVector
	}
	argument := v.Dot(w) / normprod
	// keep acos in its domain despite floating-point noise
	if math.Abs(argument-1) <= appzero {
		argument = 1
	} else if math.Abs(argument+1) <= appzero {
		argument = -1
	}
	return math.Acos(argument), nil
}

// Rotated returns v rotated counterclockwise by theta radians about axis.
func (v Vector) Rotated(axis Vector, theta float64) (Vector, error) {
	r, err := RotationMatrix(axis, theta)
	if err != nil {
		return Vector{}, err
	}
	return rotatedBy(r, v), nil
}

// rotatedBy applies an already-built rotation matrix to v.
func rotatedBy(r *mat.Dense, v Vector) Vector {
	var out mat.VecDense
	out.MulVec(r, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vector{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// RotationMatrix returns the 3x3 matrix for a counterclockwise rotation
// of theta radians about axis. The axis is normalized internally, a
// zero axis is an ErrZeroVector. The entries follow the half-angle
// quaternion expansion of Rodrigues' formula.
func RotationMatrix(axis Vector, theta float64) (*mat.Dense, error) {
	u, err := axis.Unit()
	if err != nil {
		return nil, fmt.Errorf("RotationMatrix: %w", err)
	}
	a := math.Cos(theta / 2)
	s := -math.Sin(theta / 2)
	b, c, d := u.X*s, u.Y*s, u.Z*s
	aa, bb, cc, dd := a*a, b*b, c*c, d*d
	bc, ad, ac, ab, bd, cd := b*c, a*d, a*c, a*b, b*d, c*d
	return mat.NewDense(3, 3, []float64{
		aa + bb - cc - dd, 2 * (bc + ad), 2 * (bd - ac),
		2 * (bc - ad), aa + cc - bb - dd, 2 * (cd + ab),
		2 * (bd + ac), 2 * (cd - ab), aa + dd - bb - cc,
	}), nil
}
