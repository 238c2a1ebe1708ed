/*
 * geometry.go, part of ParaTemp.
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
	"strconv"
	"strings"
)

// Dihedral returns the torsion angle, in radians, defined by the four
// ordered points p0..p3. The formulation projects the outer bonds onto
// the plane perpendicular to the central bond and takes atan2 of the
// rejections, which keeps precision where a pure-cosine formula loses it.
// The sign follows the usual chemistry convention for torsions.
func Dihedral(p0, p1, p2, p3 Vector) (float64, error) {
	b0 := p0.Sub(p1)
	b1 := p2.Sub(p1)
	b2 := p3.Sub(p2)
	ub1, err := b1.Unit()
	if err != nil {
		return 0, fmt.Errorf("Dihedral: degenerate central bond: %w", err)
	}
	// rejections of the outer bonds on the central bond
	v := b0.Sub(ub1.Scale(b0.Dot(ub1)))
	w := b2.Sub(ub1.Scale(b2.Dot(ub1)))
	x := v.Dot(w)
	y := ub1.Cross(v).Dot(w)
	return math.Atan2(y, x), nil
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 { return r * 180 / math.Pi }

// AtomTable is the atom-label/coordinate list shared by the XYZ and COM
// file models. Both formats embed it, so every geometric query below is
// available on either.
type AtomTable struct {
	labels []string
	coords []Vector
}

// Labels returns the atom labels. The slice is the table's own.
func (t *AtomTable) Labels() []string { return t.labels }

// Coords returns the coordinate list. The slice is the table's own.
func (t *AtomTable) Coords() []Vector { return t.coords }

// Coord returns the coordinate of atom i.
func (t *AtomTable) Coord(i int) (Vector, error) {
	if err := t.check(i); err != nil {
		return Vector{}, err
	}
	return t.coords[i], nil
}

// NAtoms returns the number of atoms in the table. A label/coordinate
// count mismatch is an ErrAtomMismatch rather than a warning.
func (t *AtomTable) NAtoms() (int, error) {
	if len(t.labels) != len(t.coords) {
		return 0, fmt.Errorf("%w: %d atoms, %d coordinates",
			ErrAtomMismatch, len(t.labels), len(t.coords))
	}
	return len(t.labels), nil
}

func (t *AtomTable) check(indices ...int) error {
	for _, i := range indices {
		if i < 0 || i >= len(t.coords) {
			return fmt.Errorf("%w: %d (have %d atoms)", ErrIndex, i, len(t.coords))
		}
	}
	return nil
}

// DistanceBetween returns the Euclidean distance between atoms a and b.
func (t *AtomTable) DistanceBetween(a, b int) (float64, error) {
	if err := t.check(a, b); err != nil {
		return 0, err
	}
	return t.coords[a].Sub(t.coords[b]).Norm(), nil
}

// AngleBetween returns the angle in degrees between atoms a, b and c,
// with the vertex at b.
func (t *AtomTable) AngleBetween(a, b, c int) (float64, error) {
	if err := t.check(a, b, c); err != nil {
		return 0, err
	}
	va := t.coords[a].Sub(t.coords[b])
	vc := t.coords[c].Sub(t.coords[b])
	angle, err := va.AngleTo(vc)
	if err != nil {
		return 0, err
	}
	return Rad2Deg(angle), nil
}

// DihedralBetween returns the torsion angle in degrees defined by atoms
// a, b, c and d, where the first plane is defined by abc and the second
// by bcd.
func (t *AtomTable) DihedralBetween(a, b, c, d int) (float64, error) {
	if err := t.check(a, b, c, d); err != nil {
		return 0, err
	}
	dih, err := Dihedral(t.coords[a], t.coords[b], t.coords[c], t.coords[d])
	if err != nil {
		return 0, err
	}
	return Rad2Deg(dih), nil
}

// AverageLoc returns the geometric center of the given atoms.
func (t *AtomTable) AverageLoc(indices ...int) (Vector, error) {
	if len(indices) == 0 {
		return Vector{}, fmt.Errorf("%w: no atoms given", ErrIndex)
	}
	if err := t.check(indices...); err != nil {
		return Vector{}, err
	}
	var total Vector
	for _, i := range indices {
		total = total.Add(t.coords[i])
	}
	return total.Div(float64(len(indices))), nil
}

// centerOn translates all coordinates so atom i sits at the origin.
func (t *AtomTable) centerOn(i int) error {
	if err := t.check(i); err != nil {
		return err
	}
	center := t.coords[i]
	for k, c := range t.coords {
		t.coords[k] = c.Sub(center)
	}
	return nil
}

// rotateToXAxisOn rotates all coordinates so the vector to atom i is
// aligned with +X. Atoms already on the axis leave the table untouched,
// an atom on -X is flipped through a half turn about Z.
func (t *AtomTable) rotateToXAxisOn(i int) error {
	if err := t.check(i); err != nil {
		return err
	}
	xAxis := Vector{1, 0, 0}
	target := t.coords[i]
	angle, err := target.AngleTo(xAxis)
	if err != nil {
		return fmt.Errorf("cannot align atom %d with the x axis: %w", i, err)
	}
	if angle <= appzero {
		return nil
	}
	axis := target.Cross(xAxis)
	if axis.Norm() <= appzero {
		// antiparallel to +X, any perpendicular axis does
		axis = Vector{0, 0, 1}
	}
	rot, err := RotationMatrix(axis, angle)
	if err != nil {
		return err
	}
	for k, c := range t.coords {
		t.coords[k] = rotatedBy(rot, c)
	}
	return nil
}

// parseAtomLine splits an atom line into its label and coordinate. The
// line must have at least 4 whitespace-separated fields.
func parseAtomLine(line string) (string, Vector, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return "", Vector{}, fmt.Errorf("%w: %q", ErrMalformedLine, strings.TrimRight(line, "\n"))
	}
	coord := make([]float64, 3)
	for i, f := range fields[1:4] {
		var err error
		coord[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return "", Vector{}, fmt.Errorf("%w: %q: %v", ErrMalformedLine, strings.TrimRight(line, "\n"), err)
		}
	}
	v, _ := VectorFromSlice(coord) // len is 3 by construction
	return fields[0], v, nil
}

// formatAtomLine renders one line of the fixed-width atom table shared
// by the XYZ and com writers: label left-justified in 10 columns, each
// coordinate signed with 5 decimals in a 10-wide field.
func formatAtomLine(label string, c Vector) string {
	return fmt.Sprintf("   %-10s % 10.5f % 10.5f % 10.5f\n", label, c.X, c.Y, c.Z)
}
