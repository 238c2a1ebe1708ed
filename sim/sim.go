/*
 * sim.go, part of ParaTemp.
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

// Package sim chains GROMACS preparation steps (minimization,
// equilibration, production) into a pipeline: each step gets a numbered
// folder, a grompp compile and an mdrun, and the output geometry of one
// step feeds the next.
package sim

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
)

var (
	// ErrConfig marks an incomplete pipeline configuration.
	ErrConfig = errors.New("incomplete pipeline config")
	// ErrStep marks a step name the pipeline does not know.
	ErrStep = errors.New("unknown step")
)

// Step is one GROMACS run: a name ("minimize", "equilibrate", ...) and
// the mdp parameter file driving it.
type Step struct {
	Name string `toml:"name"`
	Mdp  string `toml:"mdp"`
}

// Config is the pipeline description, loadable from TOML.
type Config struct {
	Name       string  `toml:"name"`
	Gro        string  `toml:"gro"`
	Top        string  `toml:"top"`
	BaseDir    string  `toml:"base_dir"`
	Dielectric float64 `toml:"dielectric"`
	Steps      []Step  `toml:"step"`
}

func (c Config) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("sim: %w: no name", ErrConfig)
	case c.Gro == "":
		return fmt.Errorf("sim: %w: no starting geometry", ErrConfig)
	case c.Top == "":
		return fmt.Errorf("sim: %w: no topology", ErrConfig)
	case len(c.Steps) == 0:
		return fmt.Errorf("sim: %w: no steps", ErrConfig)
	}
	for _, s := range c.Steps {
		if s.Name == "" || s.Mdp == "" {
			return fmt.Errorf("sim: %w: step %+v needs a name and an mdp", ErrConfig, s)
		}
	}
	return nil
}

// Runner runs one external command in a working directory and returns
// its combined output. The default shells out; tests inject a fake.
type Runner interface {
	Run(dir string, args ...string) (string, error)
}

// ExecRunner is the os/exec Runner.
type ExecRunner struct{}

func (ExecRunner) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("sim: %s: %v: %s",
			strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Pipeline holds the state threaded through the steps: the topology,
// the growing list of geometries, and where each step ran.
type Pipeline struct {
	cfg        Config
	run        Runner
	log        *log.Logger
	geometries []string          // initial geometry first, newest last
	folders    map[string]string // step name to folder
	outputs    map[string]string // grompp/mdrun output per step
}

// NewPipeline validates cfg and builds a pipeline. A nil runner means
// run the real gmx binaries; a nil logger logs to stderr.
func NewPipeline(cfg Config, r Runner, logger *log.Logger) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if r == nil {
		r = ExecRunner{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "sim ", log.LstdFlags)
	}
	return &Pipeline{
		cfg:        cfg,
		run:        r,
		log:        logger,
		geometries: []string{cfg.Gro},
		folders:    make(map[string]string),
		outputs:    make(map[string]string),
	}, nil
}

// LoadPipeline reads a TOML pipeline description from path.
func LoadPipeline(path string, r Runner, logger *log.Logger) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("sim: parsing %s: %w", path, err)
	}
	return NewPipeline(cfg, r, logger)
}

// LastGeometry returns the newest output geometry, the input for the
// next step.
func (p *Pipeline) LastGeometry() string {
	return p.geometries[len(p.geometries)-1]
}

// Folder returns where the named step ran, if it has.
func (p *Pipeline) Folder(step string) (string, bool) {
	f, ok := p.folders[step]
	return f, ok
}

// Output returns the recorded command output for a key like
// "compile_minimize" or "run_minimize".
func (p *Pipeline) Output(key string) string { return p.outputs[key] }

// stepFolder matches the numbered run folders, e.g. 01-minimize-ptad.
var stepFolder = regexp.MustCompile(`^\d{2}-\w+-\w+`)

func (p *Pipeline) nextFolderIndex() (int, error) {
	entries, err := os.ReadDir(p.cfg.BaseDir)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, e := range entries {
		if !e.IsDir() || !stepFolder.MatchString(e.Name()) {
			continue
		}
		n, err := strconv.Atoi(e.Name()[:2])
		if err == nil && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

func (p *Pipeline) findStep(name string) (Step, error) {
	for _, s := range p.cfg.Steps {
		if s.Name == name {
			return s, nil
		}
	}
	return Step{}, fmt.Errorf("sim: %w: %s", ErrStep, name)
}

// Run performs the named step: a fresh numbered folder, grompp on the
// last geometry, then mdrun. The output .gro becomes the new last
// geometry.
func (p *Pipeline) Run(name string) error {
	step, err := p.findStep(name)
	if err != nil {
		return err
	}
	idx, err := p.nextFolderIndex()
	if err != nil {
		return err
	}
	folder := filepath.Join(p.cfg.BaseDir, fmt.Sprintf("%02d-%s-%s", idx, step.Name, p.cfg.Name))
	if err := os.Mkdir(folder, 0755); err != nil {
		return err
	}
	p.folders[step.Name] = folder
	p.log.Printf("step %s running in %s", step.Name, folder)

	tpr := fmt.Sprintf("%s-%s.tpr", p.cfg.Name, step.Name)
	out, err := p.run.Run(folder, "gmx", "grompp",
		"-c", p.LastGeometry(), "-p", p.cfg.Top, "-f", step.Mdp, "-o", tpr)
	p.outputs["compile_"+step.Name] = out
	if err != nil {
		return err
	}

	deffnm := fmt.Sprintf("%s-%s-out", p.cfg.Name, step.Name)
	out, err = p.run.Run(folder, "gmx", "mdrun", "-s", tpr, "-deffnm", deffnm)
	p.outputs["run_"+step.Name] = out
	if err != nil {
		return err
	}

	gro := filepath.Join(folder, deffnm+".gro")
	p.geometries = append(p.geometries, gro)
	p.log.Printf("step %s done, geometry %s", step.Name, gro)
	return nil
}

// RunAll runs every configured step in order, stopping at the first
// failure.
func (p *Pipeline) RunAll() error {
	for _, s := range p.cfg.Steps {
		if err := p.Run(s.Name); err != nil {
			return err
		}
	}
	return nil
}

// InsertDielectric stages mdp files into destDir with the {dielectric}
// placeholder replaced by the given constant, returning the staged
// paths in input order.
func InsertDielectric(mdps []string, destDir string, dielectric float64) ([]string, error) {
	value := strconv.FormatFloat(dielectric, 'g', -1, 64)
	out := make([]string, 0, len(mdps))
	for _, path := range mdps {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		staged := filepath.Join(destDir, filepath.Base(path))
		replaced := strings.ReplaceAll(string(text), "{dielectric}", value)
		if err := os.WriteFile(staged, []byte(replaced), 0644); err != nil {
			return nil, err
		}
		out = append(out, staged)
	}
	return out, nil
}
