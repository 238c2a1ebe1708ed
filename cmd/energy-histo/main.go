/*
 * main.go, part of ParaTemp.
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

// energy-histo plots the potential-energy histograms of a GROMACS
// parallel-tempering run, one per replica, so the overlap between
// neighboring temperatures can be checked. It looks for *N.edr files
// in the working directory, extracts the potential with gmx energy
// where the matching energyN.xvg does not already exist, and writes
// every histogram into one PNG.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/panernie/ParaTemp/histo"
	"github.com/panernie/ParaTemp/xvg"
)

const version = "0.1.0"

// the Potential term in gmx energy's interactive menu
const potentialTerm = "13\n"

var edrIndex = regexp.MustCompile(`([0-9]*)\.edr$`)

func main() {
	out := flag.String("o", "energy-histograms.png", "output PNG file")
	bins := flag.Int("bins", 50, "number of histogram bins")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("energy-histo v%s\n", version)
		return
	}
	logger := log.New(os.Stderr, "energy-histo ", log.LstdFlags)

	files, err := findEnergies(logger)
	if err != nil {
		logger.Fatal(err)
	}
	if len(files) == 0 {
		logger.Fatal("no *N.edr files here and nothing to plot")
	}
	series := make([][]float64, 0, len(files))
	for _, name := range files {
		x, err := xvg.Read(name)
		if err != nil {
			logger.Fatal(err)
		}
		if x.NCols() < 2 {
			logger.Fatalf("%s: no energy column", name)
		}
		series = append(series, x.Col(1))
	}
	set, err := fill(series, *bins)
	if err != nil {
		logger.Fatal(err)
	}
	reportOverlaps(set, logger)
	if err := plotSet(set, *out); err != nil {
		logger.Fatal(err)
	}
	logger.Printf("wrote %s", *out)
}

// findEnergies globs the replica .edr files and makes sure each has an
// extracted energyN.xvg, running gmx energy for the missing ones.
func findEnergies(logger *log.Logger) ([]string, error) {
	edrs, err := filepath.Glob("*[0-9].edr")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, edr := range edrs {
		m := edrIndex.FindStringSubmatch(edr)
		name := "energy" + m[1] + ".xvg"
		if _, err := os.Stat(name); err != nil {
			logger.Printf("extracting %s from %s", name, edr)
			cmd := exec.Command("gmx", "energy", "-f", edr, "-o", name)
			cmd.Stdin = strings.NewReader(potentialTerm)
			if raw, err := cmd.CombinedOutput(); err != nil {
				return nil, fmt.Errorf("gmx energy on %s: %v: %s", edr, err, raw)
			}
		}
		out = append(out, name)
	}
	return out, nil
}

// fill bins every replica's series over one shared divider range.
func fill(series [][]float64, bins int) (*histo.Set, error) {
	min, max := floats.Min(series[0]), floats.Max(series[0])
	for _, s := range series[1:] {
		if m := floats.Min(s); m < min {
			min = m
		}
		if m := floats.Max(s); m > max {
			max = m
		}
	}
	set := histo.NewSet(len(series), histo.Uniform(min, max, bins))
	if err := set.Fill(series); err != nil {
		return nil, err
	}
	return set, nil
}

// reportOverlaps prints the normalized overlap of each neighboring
// replica pair; a ladder with gaps near zero will not exchange.
func reportOverlaps(set *histo.Set, logger *log.Logger) {
	set.NormalizeAll()
	for i := 0; i+1 < set.Len(); i++ {
		o, err := set.View(i).Overlap(set.View(i + 1))
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Printf("overlap %2d-%2d: %.3f\n", i, i+1, o)
	}
}

func plotSet(set *histo.Set, out string) error {
	p := plot.New()
	p.Title.Text = "Replica potential energies"
	p.X.Label.Text = "Potential energy (kJ/mol)"
	p.Y.Label.Text = "Fraction"
	p.Add(plotter.NewGrid())
	for i := 0; i < set.Len(); i++ {
		line, err := plotter.NewLine(stepPoints(set.View(i)))
		if err != nil {
			return err
		}
		line.Color = replicaColor(i, set.Len())
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("replica %d", i), line)
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, out)
}

// stepPoints turns a histogram into the outline of its bars.
func stepPoints(d *histo.Data) plotter.XYs {
	dividers := d.CopyDividers()
	counts := d.View()
	pts := make(plotter.XYs, 0, 2*len(counts)+2)
	pts = append(pts, plotter.XY{X: dividers[0], Y: 0})
	for i, c := range counts {
		pts = append(pts,
			plotter.XY{X: dividers[i], Y: c},
			plotter.XY{X: dividers[i+1], Y: c})
	}
	pts = append(pts, plotter.XY{X: dividers[len(dividers)-1], Y: 0})
	return pts
}

// replicaColor spreads the replicas over a blue-to-red ramp, cold to
// hot.
func replicaColor(i, n int) color.Color {
	if n < 2 {
		return color.RGBA{B: 255, A: 255}
	}
	f := float64(i) / float64(n-1)
	return color.RGBA{R: uint8(255 * f), B: uint8(255 * (1 - f)), A: 255}
}
