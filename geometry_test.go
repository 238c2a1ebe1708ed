/*
 * geometry_test.go, part of ParaTemp.
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
	"errors"
	"math"
	"testing"
)

func table(coords ...Vector) *AtomTable {
	t := new(AtomTable)
	for range coords {
		t.labels = append(t.labels, "C")
	}
	t.coords = coords
	return t
}

func TestDistanceBetween(Te *testing.T) {
	t := table(Vector{0, 0, 0}, Vector{3, 4, 0})
	d, err := t.DistanceBetween(0, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if !close(d, 5) {
		Te.Errorf("distance = %g, want 5", d)
	}
	if _, err := t.DistanceBetween(0, 2); !errors.Is(err, ErrIndex) {
		Te.Errorf("expected ErrIndex, got %v", err)
	}
}

func TestAngleBetween(Te *testing.T) {
	t := table(Vector{1, 0, 0}, Vector{0, 0, 0}, Vector{0, 1, 0})
	a, err := t.AngleBetween(0, 1, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if !close(a, 90) {
		Te.Errorf("angle = %g, want 90", a)
	}
}

func TestDihedralBetween(Te *testing.T) {
	// central bond along z, outer bonds in known directions
	p1 := Vector{0, 0, 0}
	p2 := Vector{0, 0, 1}
	cases := []struct {
		p0, p3 Vector
		want   float64
	}{
		{Vector{1, 0, 0}, Vector{1, 0, 1}, 0},                          // cis, coplanar
		{Vector{1, 0, 0}, Vector{-1, 0, 1}, 180},                      // trans, coplanar
		{Vector{1, 0, 0}, Vector{0.5, math.Sqrt(3) / 2, 1}, 60},       // gauche+
		{Vector{1, 0, 0}, Vector{0.5, -math.Sqrt(3) / 2, 1}, -60},     // gauche-
		{Vector{1, 0, 0}, Vector{0, 1, 1}, 90},
	}
	for _, c := range cases {
		t := table(c.p0, p1, p2, c.p3)
		got, err := t.DihedralBetween(0, 1, 2, 3)
		if err != nil {
			Te.Fatal(err)
		}
		if math.Abs(got-c.want) > 1e-6 {
			Te.Errorf("dihedral for p3=%v: got %g, want %g", c.p3, got, c.want)
		}
	}
}

func TestDihedralDegenerate(Te *testing.T) {
	// zero-length central bond
	t := table(Vector{1, 0, 0}, Vector{0, 0, 0}, Vector{0, 0, 0}, Vector{0, 1, 0})
	if _, err := t.DihedralBetween(0, 1, 2, 3); !errors.Is(err, ErrZeroVector) {
		Te.Errorf("expected ErrZeroVector for degenerate bond, got %v", err)
	}
}

func TestAverageLoc(Te *testing.T) {
	t := table(Vector{0, 0, 0}, Vector{2, 0, 0}, Vector{0, 2, 0})
	avg, err := t.AverageLoc(0, 1, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if !vclose(avg, Vector{2.0 / 3, 2.0 / 3, 0}) {
		Te.Errorf("average = %v", avg)
	}
	if _, err := t.AverageLoc(); !errors.Is(err, ErrIndex) {
		Te.Errorf("expected ErrIndex for empty index list, got %v", err)
	}
}

func TestNAtomsMismatch(Te *testing.T) {
	t := table(Vector{0, 0, 0}, Vector{1, 0, 0})
	if n, err := t.NAtoms(); err != nil || n != 2 {
		Te.Errorf("NAtoms = %d, %v", n, err)
	}
	t.labels = append(t.labels, "H")
	if _, err := t.NAtoms(); !errors.Is(err, ErrAtomMismatch) {
		Te.Errorf("expected ErrAtomMismatch, got %v", err)
	}
}
