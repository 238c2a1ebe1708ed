/*
 * sim_test.go, part of ParaTemp.
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

package sim

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records every command instead of running it.
type fakeRunner struct {
	calls [][]string
	dirs  []string
	fail  string // command verb to fail on, e.g. "mdrun"
}

func (f *fakeRunner) Run(dir string, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	f.dirs = append(f.dirs, dir)
	if f.fail != "" && len(args) > 1 && args[1] == f.fail {
		return "step failed", errors.New("exit status 1")
	}
	return strings.Join(args, " "), nil
}

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func testConfig(base string) Config {
	return Config{
		Name:    "ptad",
		Gro:     "system.gro",
		Top:     "system.top",
		BaseDir: base,
		Steps: []Step{
			{Name: "minimize", Mdp: "min.mdp"},
			{Name: "equilibrate", Mdp: "equil.mdp"},
		},
	}
}

func TestPipelineRun(Te *testing.T) {
	base := Te.TempDir()
	r := &fakeRunner{}
	p, err := NewPipeline(testConfig(base), r, quiet())
	if err != nil {
		Te.Fatal(err)
	}
	if err := p.Run("minimize"); err != nil {
		Te.Fatal(err)
	}
	folder, ok := p.Folder("minimize")
	if !ok || folder != filepath.Join(base, "01-minimize-ptad") {
		Te.Errorf("step folder %q", folder)
	}
	if fi, err := os.Stat(folder); err != nil || !fi.IsDir() {
		Te.Errorf("folder not created: %v", err)
	}
	if len(r.calls) != 2 {
		Te.Fatalf("ran %d commands, want grompp then mdrun", len(r.calls))
	}
	grompp := strings.Join(r.calls[0], " ")
	if grompp != "gmx grompp -c system.gro -p system.top -f min.mdp -o ptad-minimize.tpr" {
		Te.Errorf("grompp call %q", grompp)
	}
	mdrun := strings.Join(r.calls[1], " ")
	if mdrun != "gmx mdrun -s ptad-minimize.tpr -deffnm ptad-minimize-out" {
		Te.Errorf("mdrun call %q", mdrun)
	}
	if r.dirs[0] != folder || r.dirs[1] != folder {
		Te.Errorf("commands ran in %v, want %s", r.dirs, folder)
	}
	want := filepath.Join(folder, "ptad-minimize-out.gro")
	if p.LastGeometry() != want {
		Te.Errorf("last geometry %q, want %q", p.LastGeometry(), want)
	}
	if p.Output("compile_minimize") == "" || p.Output("run_minimize") == "" {
		Te.Error("command outputs not recorded")
	}
}

func TestPipelineChains(Te *testing.T) {
	base := Te.TempDir()
	r := &fakeRunner{}
	p, err := NewPipeline(testConfig(base), r, quiet())
	if err != nil {
		Te.Fatal(err)
	}
	if err := p.RunAll(); err != nil {
		Te.Fatal(err)
	}
	// the equilibration folder is numbered after the minimization one
	folder, _ := p.Folder("equilibrate")
	if folder != filepath.Join(base, "02-equilibrate-ptad") {
		Te.Errorf("second folder %q", folder)
	}
	// and its grompp input is the minimization output geometry
	var equilGrompp []string
	for _, call := range r.calls {
		if call[1] == "grompp" {
			equilGrompp = call
		}
	}
	minOut := filepath.Join(base, "01-minimize-ptad", "ptad-minimize-out.gro")
	found := false
	for i, arg := range equilGrompp {
		if arg == "-c" && equilGrompp[i+1] == minOut {
			found = true
		}
	}
	if !found {
		Te.Errorf("equilibration does not chain the minimized geometry: %v", equilGrompp)
	}
}

func TestPipelineRunErrors(Te *testing.T) {
	base := Te.TempDir()
	p, err := NewPipeline(testConfig(base), &fakeRunner{}, quiet())
	if err != nil {
		Te.Fatal(err)
	}
	if err := p.Run("anneal"); !errors.Is(err, ErrStep) {
		Te.Errorf("expected ErrStep, got %v", err)
	}
	r := &fakeRunner{fail: "mdrun"}
	p, err = NewPipeline(testConfig(Te.TempDir()), r, quiet())
	if err != nil {
		Te.Fatal(err)
	}
	if err := p.Run("minimize"); err == nil {
		Te.Fatal("expected a failure from mdrun")
	}
	// the failing command's output is still kept for inspection
	if p.Output("run_minimize") != "step failed" {
		Te.Errorf("output %q", p.Output("run_minimize"))
	}
	// the geometry list must not advance past a failed step
	if p.LastGeometry() != "system.gro" {
		Te.Errorf("geometry advanced to %q after failure", p.LastGeometry())
	}
}

func TestConfigValidate(Te *testing.T) {
	cases := []Config{
		{},
		{Name: "x"},
		{Name: "x", Gro: "a.gro"},
		{Name: "x", Gro: "a.gro", Top: "a.top"},
		{Name: "x", Gro: "a.gro", Top: "a.top", Steps: []Step{{Name: "min"}}},
	}
	for i, cfg := range cases {
		if _, err := NewPipeline(cfg, &fakeRunner{}, quiet()); !errors.Is(err, ErrConfig) {
			Te.Errorf("case %d: expected ErrConfig, got %v", i, err)
		}
	}
}

func TestLoadPipeline(Te *testing.T) {
	dir := Te.TempDir()
	cfg := `name = "ptad"
gro = "system.gro"
top = "system.top"
base_dir = "` + dir + `"
dielectric = 9.1

[[step]]
name = "minimize"
mdp = "min.mdp"

[[step]]
name = "equilibrate"
mdp = "equil.mdp"
`
	path := filepath.Join(dir, "pipeline.toml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		Te.Fatal(err)
	}
	p, err := LoadPipeline(path, &fakeRunner{}, quiet())
	if err != nil {
		Te.Fatal(err)
	}
	if p.cfg.Dielectric != 9.1 {
		Te.Errorf("dielectric = %v", p.cfg.Dielectric)
	}
	if len(p.cfg.Steps) != 2 || p.cfg.Steps[1].Name != "equilibrate" {
		Te.Errorf("steps = %+v", p.cfg.Steps)
	}
	if _, err := LoadPipeline(filepath.Join(dir, "missing.toml"), nil, quiet()); err == nil {
		Te.Error("expected an error for a missing file")
	}
}

func TestInsertDielectric(Te *testing.T) {
	src := Te.TempDir()
	dst := Te.TempDir()
	mdp := filepath.Join(src, "equil.mdp")
	text := "integrator = md\nepsilon-r = {dielectric}\n"
	if err := os.WriteFile(mdp, []byte(text), 0644); err != nil {
		Te.Fatal(err)
	}
	staged, err := InsertDielectric([]string{mdp}, dst, 9.1)
	if err != nil {
		Te.Fatal(err)
	}
	if len(staged) != 1 || staged[0] != filepath.Join(dst, "equil.mdp") {
		Te.Fatalf("staged %v", staged)
	}
	raw, err := os.ReadFile(staged[0])
	if err != nil {
		Te.Fatal(err)
	}
	if string(raw) != "integrator = md\nepsilon-r = 9.1\n" {
		Te.Errorf("staged mdp:\n%s", raw)
	}
	// the template itself is untouched
	orig, err := os.ReadFile(mdp)
	if err != nil {
		Te.Fatal(err)
	}
	if string(orig) != text {
		Te.Error("template was modified")
	}
}
