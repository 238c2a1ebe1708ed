/*
 * histo.go, part of ParaTemp.
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

// Package histo bins the potential-energy series harvested from
// parallel-tempering replicas into histograms, mostly so the overlap
// between neighboring temperatures can be eyeballed or plotted.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Data is one histogram: bin dividers plus the count (or, after
// Normalize, the fraction) that fell in each bin. The id is free for
// callers, the energy-histogram tools store the replica index there.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	counts     []float64
}

// NewData returns a histogram over the given dividers, filled with
// rawdata if it is non-nil. Values outside the divider range are
// dropped. If an id is given it is stored, otherwise the id is -1.
func NewData(dividers, rawdata []float64, id ...int) *Data {
	d := new(Data)
	d.dividers = append([]float64(nil), dividers...)
	d.counts = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.Rebin(d.dividers, rawdata)
	}
	d.id = -1
	if len(id) > 0 {
		d.id = id[0]
	}
	return d
}

// Uniform returns n+1 evenly spaced dividers covering [min,max],
// i.e. n bins.
func Uniform(min, max float64, n int) []float64 {
	dividers := make([]float64, n+1)
	return floats.Span(dividers, min, max)
}

// ID returns the id of the histogram.
func (d *Data) ID() int { return d.id }

// Normalized reports whether the histogram holds fractions rather than
// counts.
func (d *Data) Normalized() bool { return d.normalized }

// Rebin rebuilds the histogram over the given dividers from rawdata.
// stat.Histogram panics on out-of-range values, so they are trimmed
// here first.
func (d *Data) Rebin(dividers, rawdata []float64) {
	if rawdata != nil {
		rawdata = append([]float64(nil), rawdata...)
		sort.Float64s(rawdata)
		maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
		mini := sort.SearchFloat64s(rawdata, dividers[0])
		rawdata = rawdata[mini:maxi]
	}
	d.dividers = append([]float64(nil), dividers...)
	d.total = len(rawdata)
	d.normalized = false
	d.counts = stat.Histogram(nil, d.dividers, rawdata, nil)
}

// AddData adds the given data point(s) to the histogram. Points outside
// the divider range are dropped.
func (d *Data) AddData(points ...float64) {
	wasNormalized := d.normalized
	if wasNormalized {
		d.UnNormalize()
	}
	for _, v := range points {
		for j := 0; j < len(d.dividers)-1; j++ {
			if d.dividers[j] <= v && v < d.dividers[j+1] {
				d.counts[j]++
				d.total++
				break
			}
		}
	}
	if wasNormalized {
		d.Normalize()
	}
}

// Normalize scales the histogram so its bins sum to 1.
func (d *Data) Normalize() { d.scaleByTotal(true) }

// UnNormalize restores raw counts after a Normalize.
func (d *Data) UnNormalize() { d.scaleByTotal(false) }

func (d *Data) scaleByTotal(normalize bool) {
	if d.total <= 0 || d.normalized == normalize {
		return
	}
	n := float64(d.total)
	if normalize {
		n = 1 / n
	}
	floats.Scale(n, d.counts)
	d.normalized = normalize
}

// Sum returns the sum over all bins.
func (d *Data) Sum() float64 { return floats.Sum(d.counts) }

// Total returns how many points have been binned, including any later
// dropped by normalization round trips.
func (d *Data) Total() int { return d.total }

// View returns the bin contents themselves, not a copy.
func (d *Data) View() []float64 { return d.counts }

// Copy copies the bin contents, into dest if one with enough room is
// given.
func (d *Data) Copy(dest ...[]float64) []float64 {
	return copyInto(d.counts, dest...)
}

// CopyDividers copies the dividers, into dest if one with enough room
// is given.
func (d *Data) CopyDividers(dest ...[]float64) []float64 {
	return copyInto(d.dividers, dest...)
}

// Overlap returns the overlapping area of two normalized histograms
// with matching dividers, a number between 0 (disjoint) and 1
// (identical). Replica ladders want this to stay well above zero for
// neighboring temperatures.
func (d *Data) Overlap(e *Data) (float64, error) {
	if !floats.Equal(d.dividers, e.dividers) {
		return 0, fmt.Errorf("histo: histograms have different dividers")
	}
	if !d.normalized || !e.normalized {
		return 0, fmt.Errorf("histo: overlap needs normalized histograms")
	}
	var o float64
	for i, v := range d.counts {
		o += math.Min(v, e.counts[i])
	}
	return o, nil
}

// String renders the histogram as two aligned text lines of bin ranges
// and contents.
func (d *Data) String() string {
	ret := fmt.Sprintf("id: %d, normalized: %v, total: %d\n", d.id, d.normalized, d.total)
	ranges := make([]string, 0, len(d.counts))
	vals := make([]string, 0, len(d.counts))
	for i, v := range d.counts {
		ranges = append(ranges, fmt.Sprintf("%9.2f-%-9.2f", d.dividers[i], d.dividers[i+1]))
		vals = append(vals, fmt.Sprintf("%19.3f", v))
	}
	return ret + strings.Join(ranges, " ") + "\n" + strings.Join(vals, " ")
}

type dataJSON struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Counts     []float64 `json:"counts"`
}

func (d *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataJSON{
		ID:         d.id,
		Normalized: d.normalized,
		Total:      d.total,
		Dividers:   d.dividers,
		Counts:     d.counts,
	})
}

func (d *Data) UnmarshalJSON(b []byte) error {
	var a dataJSON
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	d.id = a.ID
	d.normalized = a.Normalized
	d.total = a.Total
	d.dividers = a.Dividers
	d.counts = a.Counts
	return nil
}

// Set is an ordered collection of histograms sharing one set of
// dividers, one histogram per replica.
type Set struct {
	dividers []float64
	d        []*Data
}

// NewSet returns a Set over the given dividers with one empty histogram
// per replica.
func NewSet(replicas int, dividers []float64) *Set {
	s := &Set{dividers: append([]float64(nil), dividers...)}
	for i := 0; i < replicas; i++ {
		s.d = append(s.d, NewData(dividers, nil, i))
	}
	return s
}

// Len returns the number of histograms in the set.
func (s *Set) Len() int { return len(s.d) }

// View returns the histogram of replica i.
func (s *Set) View(i int) *Data { return s.d[i] }

// AddData adds points to the histogram of replica i.
func (s *Set) AddData(i int, points ...float64) {
	s.d[i].AddData(points...)
}

// Fill rebins every histogram from the corresponding series, one
// series per replica.
func (s *Set) Fill(series [][]float64) error {
	if len(series) != len(s.d) {
		return fmt.Errorf("histo: %d series for %d replicas", len(series), len(s.d))
	}
	for i, raw := range series {
		s.d[i].Rebin(s.dividers, raw)
	}
	return nil
}

// NormalizeAll normalizes every histogram in the set.
func (s *Set) NormalizeAll() {
	for _, d := range s.d {
		d.Normalize()
	}
}

func copyInto(src []float64, dest ...[]float64) []float64 {
	var d []float64
	if len(dest) > 0 && len(dest[0]) >= len(src) {
		d = dest[0][:len(src)]
	} else {
		d = make([]float64, len(src))
	}
	copy(d, src)
	return d
}
