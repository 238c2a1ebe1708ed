/*
 * xvg.go, part of ParaTemp.
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

// Package xvg reads and writes the Grace-style .xvg tables that gmx
// energy and the demux scripts produce: # comment lines and @ plotting
// directives, then whitespace-separated float columns. Data is kept
// column-major, one series per column, which is the shape the
// histogramming and deconvolution code wants.
package xvg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

var (
	// ErrNoData marks a file with metadata but no data rows.
	ErrNoData = errors.New("no data rows")
	// ErrMalformedLine marks a data line that does not parse.
	ErrMalformedLine = errors.New("malformed line")
	// ErrRagged marks a file whose rows disagree on the column count.
	ErrRagged = errors.New("ragged columns")
	// ErrShape marks series that do not fit together (Combine,
	// Deconvolve).
	ErrShape = errors.New("mismatched series")
)

// XVG is one parsed file: the metadata lines verbatim, and the numeric
// table column-major.
type XVG struct {
	meta []string
	cols [][]float64
}

// New builds an XVG from column series. All columns must have the same
// length.
func New(cols [][]float64, meta ...string) (*XVG, error) {
	for i, c := range cols {
		if len(c) != len(cols[0]) {
			return nil, fmt.Errorf("xvg: %w: column 0 has %d rows, column %d has %d",
				ErrRagged, len(cols[0]), i, len(c))
		}
	}
	return &XVG{meta: append([]string(nil), meta...), cols: cols}, nil
}

// Read parses the named file. Files ending in .gz are decompressed
// transparently.
func Read(path string) (*XVG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		g, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xvg: decompressing %s: %w", path, err)
		}
		defer g.Close()
		r = g
	}
	return Parse(r, filepath.Base(path))
}

// Parse reads an .xvg table from r. The name is only used in error
// messages.
func Parse(r io.Reader, name string) (*XVG, error) {
	x := new(XVG)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "@") {
			x.meta = append(x.meta, line)
			continue
		}
		fields := strings.Fields(trimmed)
		if x.cols == nil {
			x.cols = make([][]float64, len(fields))
		}
		if len(fields) != len(x.cols) {
			return nil, fmt.Errorf("xvg: %s: %w: expected %d columns, line %q has %d",
				name, ErrRagged, len(x.cols), trimmed, len(fields))
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("xvg: %s: %w: %q: %v", name, ErrMalformedLine, trimmed, err)
			}
			x.cols[i] = append(x.cols[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("xvg: reading %s: %w", name, err)
	}
	if x.cols == nil {
		return nil, fmt.Errorf("xvg: %s: %w", name, ErrNoData)
	}
	return x, nil
}

// NCols returns the number of columns.
func (x *XVG) NCols() int { return len(x.cols) }

// NRows returns the number of data rows.
func (x *XVG) NRows() int {
	if len(x.cols) == 0 {
		return 0
	}
	return len(x.cols[0])
}

// Col returns column i, the XVG's own slice.
func (x *XVG) Col(i int) []float64 { return x.cols[i] }

// Meta returns the comment and directive lines, verbatim.
func (x *XVG) Meta() []string { return x.meta }

// WriteTo writes the table in .xvg form: metadata lines first, then one
// row per line with two spaces between columns. Floats are written with
// the shortest representation that round-trips.
func (x *XVG) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, m := range x.meta {
		k, err := bw.WriteString(m + "\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	fields := make([]string, len(x.cols))
	for row := 0; row < x.NRows(); row++ {
		for col := range x.cols {
			fields[col] = strconv.FormatFloat(x.cols[col][row], 'g', -1, 64)
		}
		k, err := bw.WriteString(strings.Join(fields, "  ") + "\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Write writes the table to the named file, gzip-compressed if the name
// ends in .gz.
func (x *XVG) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}
	_, err = x.WriteTo(w)
	if gz != nil {
		if cerr := gz.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Combine merges per-replica energy files into one table: the time
// column of the first file followed by the energy column (column 1) of
// every file, written to basename_comb.xvg. With a nil file list it
// globs basename*.xvg in the current directory, sorted so energy2 comes
// before energy10.
func Combine(basename string, files []string) error {
	if files == nil {
		var err error
		files, err = filepath.Glob(basename + "*.xvg")
		if err != nil {
			return err
		}
		sort.Strings(files)
		sort.SliceStable(files, func(i, j int) bool { return len(files[i]) < len(files[j]) })
	}
	if len(files) == 0 {
		return fmt.Errorf("xvg: %w: no files to combine", ErrNoData)
	}
	var cols [][]float64
	for i, name := range files {
		x, err := Read(name)
		if err != nil {
			return err
		}
		if x.NCols() < 2 {
			return fmt.Errorf("xvg: %s: %w: need a time and an energy column", name, ErrShape)
		}
		if i == 0 {
			cols = append(cols, x.Col(0))
		}
		if len(x.Col(1)) != len(cols[0]) {
			return fmt.Errorf("xvg: %s: %w: %d rows where the first file has %d",
				name, ErrShape, len(x.Col(1)), len(cols[0]))
		}
		cols = append(cols, x.Col(1))
	}
	out, err := New(cols, "# combined energies of "+strings.Join(files, " "))
	if err != nil {
		return err
	}
	return out.Write(basename + "_comb.xvg")
}

// Deconvolve demuxes replica-exchanged energies back into
// per-temperature series. The energy file is a Combine-style table
// (time plus one energy column per replica slot); the index file is the
// replica_index.xvg that demux writes, sampled at twice the rate of the
// energy output, giving for each slot and time the replica walking
// through it. Row i of the result is the energy series of replica i.
func Deconvolve(energyFile, indexFile string) ([][]float64, error) {
	energies, err := Read(energyFile)
	if err != nil {
		return nil, err
	}
	indices, err := Read(indexFile)
	if err != nil {
		return nil, err
	}
	n := energies.NCols() - 1 // replica slots
	if n < 1 || indices.NCols()-1 != n {
		return nil, fmt.Errorf("xvg: %w: %d energy series, %d index series",
			ErrShape, n, indices.NCols()-1)
	}
	// the last energy frame has no exchange record after it
	frames := energies.NRows() - 1
	if indices.NRows() < 2*frames-1 {
		return nil, fmt.Errorf("xvg: %w: index file too short: %d rows for %d frames",
			ErrShape, indices.NRows(), frames)
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, frames)
		for t := 0; t < frames; t++ {
			// index rows are twice as dense as energy rows
			slot := int(indices.Col(i + 1)[2*t])
			if slot < 0 || slot >= n {
				return nil, fmt.Errorf("xvg: %s: %w: replica index %d out of range",
					indexFile, ErrShape, slot)
			}
			out[i][t] = energies.Col(slot + 1)[t]
		}
	}
	return out, nil
}
