/*
 * errors.go, part of ParaTemp.
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

import "errors"

// Sentinel errors for the geometry model. Callers can test for them
// with errors.Is, the wrapped versions carry file names and line numbers.
var (
	// ErrVector is returned when a vector is built from anything but
	// exactly 3 components.
	ErrVector = errors.New("paratemp: a vector takes exactly 3 components")

	// ErrZeroVector is returned by operations that are undefined for
	// zero-magnitude vectors (angles, rotation axes).
	ErrZeroVector = errors.New("paratemp: operation undefined for a zero-magnitude vector")

	// ErrEmptyFile is returned when a coordinate file has fewer lines
	// than its format requires.
	ErrEmptyFile = errors.New("paratemp: file appears to be empty")

	// ErrMalformedLine is returned when a geometry line lacks fields or
	// holds an unparseable coordinate.
	ErrMalformedLine = errors.New("paratemp: malformed geometry line")

	// ErrUnknownEnergy is returned when the energy of a geometry is
	// requested but was never parsed, or was invalidated by moving atoms.
	ErrUnknownEnergy = errors.New("paratemp: energy is not known")

	// ErrAtomMismatch is returned when the number of atom labels does
	// not match the number of coordinates.
	ErrAtomMismatch = errors.New("paratemp: atom and coordinate counts differ")

	// ErrComGrammar is returned when a com file does not follow the
	// header/title/charge-multiplicity/geometry/footer section grammar.
	ErrComGrammar = errors.New("paratemp: com file does not follow the Gaussian input grammar")

	// ErrIndex is returned when an atom index is out of range.
	ErrIndex = errors.New("paratemp: atom index out of range")
)
