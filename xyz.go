/*
 * xyz.go, part of ParaTemp.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// The comment line of an XYZ file may carry the energy of the geometry.
// Unlike the historical pattern, the sign is optional, so non-negative
// energies are recognized too.
var energyRe = regexp.MustCompile(`Energy:\s+(-?\d+\.\d+)`)

// atom labels that are really force-field atom types, like "C1" or "HW2"
var typedLabelRe = regexp.MustCompile(`^[A-Za-z]+\d+`)
var labelPrefixRe = regexp.MustCompile(`^[A-Za-z]+`)

// XYZ is the model of a plain-text XYZ coordinate file: two raw header
// lines (atom count and comment) followed by one label+coordinate line
// per atom. If the comment line carries an "Energy:" tag the value is
// parsed; moving any atom afterwards invalidates it, while the original
// parsed value is kept for provenance.
type XYZ struct {
	AtomTable
	header         [2]string
	energy         float64
	energyKnown    bool
	originalEnergy float64
	originalKnown  bool
}

// ReadXYZ parses the XYZ file at path.
func ReadXYZ(path string) (*XYZ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	x, err := ParseXYZ(f, path)
	if err != nil {
		return nil, err
	}
	return x, nil
}

// ParseXYZ parses XYZ-format text from r. The name is only used in
// error messages.
func ParseXYZ(r io.Reader, name string) (*XYZ, error) {
	scanner := bufio.NewScanner(r)
	lines := make([]string, 0, 10)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	// a single trailing blank line is tolerated
	if len(lines) > 2 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	x := new(XYZ)
	x.header[0] = lines[0]
	x.header[1] = lines[1]
	if m := energyRe.FindStringSubmatch(lines[1]); m != nil {
		// the regex only admits well-formed floats
		x.energy, _ = strconv.ParseFloat(m[1], 64)
		x.energyKnown = true
		x.originalEnergy = x.energy
		x.originalKnown = true
	}
	for _, line := range lines[2:] {
		label, coord, err := parseAtomLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		x.labels = append(x.labels, label)
		x.coords = append(x.coords, coord)
	}
	if len(x.labels) > 0 && typedLabelRe.MatchString(x.labels[0]) {
		x.fixAtomNames()
	}
	return x, nil
}

// fixAtomNames strips force-field atom types down to their element
// prefix, e.g. "C1" -> "C".
func (x *XYZ) fixAtomNames() {
	for i, l := range x.labels {
		if p := labelPrefixRe.FindString(l); p != "" {
			x.labels[i] = p
		}
	}
}

// Header returns the two raw header lines, without line terminators.
func (x *XYZ) Header() [2]string { return x.header }

// Energy returns the current energy of the geometry. It is an
// ErrUnknownEnergy if none was parsed or atoms have moved since.
func (x *XYZ) Energy() (float64, error) {
	if !x.energyKnown {
		return 0, ErrUnknownEnergy
	}
	return x.energy, nil
}

// OriginalEnergy returns the energy parsed from the file, regardless of
// later coordinate changes.
func (x *XYZ) OriginalEnergy() (float64, error) {
	if !x.originalKnown {
		return 0, ErrUnknownEnergy
	}
	return x.originalEnergy, nil
}

// CenterOn translates the geometry so atom i sits at the origin.
func (x *XYZ) CenterOn(i int) error {
	return x.centerOn(i)
}

// RotateToXAxisOn rotates the geometry so the vector from the origin to
// atom i is aligned with the +X axis.
func (x *XYZ) RotateToXAxisOn(i int) error {
	return x.rotateToXAxisOn(i)
}

// CenterAndRotateOn centers the geometry on atom i and aligns atom j
// with the +X axis.
func (x *XYZ) CenterAndRotateOn(i, j int) error {
	if err := x.CenterOn(i); err != nil {
		return err
	}
	return x.RotateToXAxisOn(j)
}

// ReplaceCoords replaces the whole coordinate list with a copy of the
// source's and invalidates the energy.
func (x *XYZ) ReplaceCoords(src *XYZ) {
	x.coords = append([]Vector(nil), src.coords...)
	x.energyKnown = false
}

// ReplaceCoordsFile replaces the coordinate list with the one in the
// XYZ file at path and invalidates the energy.
func (x *XYZ) ReplaceCoordsFile(path string) error {
	src, err := ReadXYZ(path)
	if err != nil {
		return err
	}
	x.ReplaceCoords(src)
	return nil
}

// MoveSubset translates the listed atoms by v and invalidates the
// energy. Atoms not listed keep their coordinates.
func (x *XYZ) MoveSubset(v Vector, indices []int) error {
	if err := x.check(indices...); err != nil {
		return err
	}
	for _, i := range indices {
		x.coords[i] = x.coords[i].Add(v)
	}
	x.energyKnown = false
	return nil
}

// String renders the geometry back into XYZ format: the original two
// header lines verbatim, then the fixed-width atom table.
func (x *XYZ) String() string {
	var b strings.Builder
	b.WriteString(x.header[0])
	b.WriteByte('\n')
	b.WriteString(x.header[1])
	b.WriteByte('\n')
	for i := range x.labels {
		b.WriteString(formatAtomLine(x.labels[i], x.coords[i]))
	}
	return b.String()
}

// Write serializes the geometry to the file at path, overwriting it.
func (x *XYZ) Write(path string) error {
	return os.WriteFile(path, []byte(x.String()), 0644)
}
