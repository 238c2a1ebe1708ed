/*
 * sub.go, part of ParaTemp.
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

// Package sub writes and submits SGE submission scripts for GROMACS
// mdrun jobs, the multi-replica MPI kind a parallel-tempering run
// needs.
package sub

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrCores marks a core count that is not a whole number of nodes.
	ErrCores = errors.New("cores must be a multiple of tasks per node")
	// ErrExists marks a refusal to overwrite an existing script.
	ErrExists = errors.New("file exists")
	// ErrQsub marks unparseable qsub output.
	ErrQsub = errors.New("cannot parse qsub output")
)

// Script configures one mdrun submission script. Zero values mean
// "leave that option out", except Time, TPN, Cores, NSims and Log,
// which default to a day on one 16-core node running a single
// simulation logging to error.log.
type Script struct {
	Name  string // SGE job name (-N)
	Time  string // wall time request, hh:mm:ss
	Log   string // SGE output file (-o)
	TPN   int    // tasks per node of the parallel environment
	Cores int    // total cores; must be a multiple of TPN

	NSims int // MPI ranks; OMP threads become $NSLOTS/NSims

	TPR        string // -s, base name when Multi
	Deffnm     string // -deffnm
	Plumed     string // -plumed
	Multi      bool   // -multi NSims
	Replex     int    // -replex, 0 leaves it out
	Checkpoint string // -cpi
	OtherMdrun string // appended verbatim to the mdrun line
}

func (s Script) withDefaults() Script {
	if s.Time == "" {
		s.Time = "24:00:00"
	}
	if s.Log == "" {
		s.Log = "error.log"
	}
	if s.TPN == 0 {
		s.TPN = 16
	}
	if s.Cores == 0 {
		s.Cores = s.TPN
	}
	if s.NSims == 0 {
		s.NSims = 1
	}
	return s
}

func sgeLine(key, arg string) string {
	return fmt.Sprintf("#$ -%s %s", key, arg)
}

// MakeHead returns the shebang and SGE directive lines.
func (s Script) MakeHead() ([]string, error) {
	s = s.withDefaults()
	if s.Cores%s.TPN != 0 {
		return nil, fmt.Errorf("sub: %w: %d cores, %d per node", ErrCores, s.Cores, s.TPN)
	}
	lines := []string{"#!/bin/bash -l", ""}
	lines = append(lines, sgeLine("l", "h_rt="+s.Time))
	if s.Name != "" {
		lines = append(lines, sgeLine("N", s.Name))
	}
	lines = append(lines, sgeLine("o", s.Log))
	lines = append(lines, sgeLine("pe", fmt.Sprintf("mpi_%d_tasks_per_node %d", s.TPN, s.Cores)))
	return lines, nil
}

// MdrunLine returns the mpirun mdrun command line.
func (s Script) MdrunLine() string {
	s = s.withDefaults()
	parts := []string{"mpirun -n $NSIMS --map-by node -x OMP_NUM_THREADS mdrun_mpi"}
	if s.TPR != "" {
		parts = append(parts, "-s "+s.TPR)
	}
	if s.Deffnm != "" {
		parts = append(parts, "-deffnm "+s.Deffnm)
	}
	if s.Plumed != "" {
		parts = append(parts, "-plumed "+s.Plumed)
	}
	if s.Multi {
		parts = append(parts, "-multi "+strconv.Itoa(s.NSims))
	}
	if s.Replex != 0 {
		parts = append(parts, "-replex "+strconv.Itoa(s.Replex))
	}
	if s.Checkpoint != "" {
		parts = append(parts, "-cpi "+s.Checkpoint)
	}
	if s.OtherMdrun != "" {
		parts = append(parts, s.OtherMdrun)
	}
	return strings.Join(parts, " ")
}

// Make returns the whole script as lines, without separators.
func (s Script) Make() ([]string, error) {
	s = s.withDefaults()
	lines, err := s.MakeHead()
	if err != nil {
		return nil, err
	}
	lines = append(lines,
		"",
		"export MPI_COMPILER='pgi'",
		fmt.Sprintf("export NSIMS=%d", s.NSims),
		"export OMP_NUM_THREADS=$(($NSLOTS/$NSIMS))",
		"",
		s.MdrunLine(),
		"",
	)
	return lines, nil
}

// Write writes the script to path. An existing file is an ErrExists
// error unless overwrite is set.
func (s Script) Write(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("sub: %w: %s", ErrExists, path)
		}
	}
	lines, err := s.Make()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0755)
}

// Job is what qsub reports back about a submitted job.
type Job struct {
	ID   string
	Name string
	Raw  string // the "NNN ("name")" fragment as printed
}

var jobInfo = regexp.MustCompile(`(\d+)\s\("(\w.*)"\)`)

// ParseJobInfo extracts the job number and name from qsub's
// confirmation line.
func ParseJobInfo(output string) (Job, error) {
	m := jobInfo.FindStringSubmatch(output)
	if m == nil {
		return Job{}, fmt.Errorf("sub: %w: %q", ErrQsub, strings.TrimSpace(output))
	}
	return Job{ID: m[1], Name: m[2], Raw: m[0]}, nil
}

// Qsub is the function Submit uses to run the queue submission; tests
// swap it out.
var Qsub = func(script string) (string, error) {
	out, err := exec.Command("qsub", script).CombinedOutput()
	return string(out), err
}

// Submit hands an existing script to qsub and returns the job info.
func Submit(script string) (Job, error) {
	out, err := Qsub(script)
	if err != nil {
		return Job{}, fmt.Errorf("sub: qsub %s: %v: %s", script, err, strings.TrimSpace(out))
	}
	return ParseJobInfo(out)
}
