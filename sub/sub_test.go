/*
 * sub_test.go, part of ParaTemp.
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

package sub

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestMakeHead(Te *testing.T) {
	s := Script{Name: "PT-DCM", Time: "12:00:00", TPN: 16, Cores: 32}
	got, err := s.MakeHead()
	if err != nil {
		Te.Fatal(err)
	}
	want := []string{
		"#!/bin/bash -l",
		"",
		"#$ -l h_rt=12:00:00",
		"#$ -N PT-DCM",
		"#$ -o error.log",
		"#$ -pe mpi_16_tasks_per_node 32",
	}
	if !reflect.DeepEqual(got, want) {
		Te.Errorf("got %v, wanted %v", got, want)
	}
}

func TestMakeHeadCores(Te *testing.T) {
	s := Script{TPN: 16, Cores: 20}
	if _, err := s.MakeHead(); !errors.Is(err, ErrCores) {
		Te.Errorf("expected ErrCores, got %v", err)
	}
}

func TestMdrunLine(Te *testing.T) {
	s := Script{
		NSims:      16,
		TPR:        "TOPO/npt",
		Deffnm:     "npt_PT_out",
		Plumed:     "plumed.dat",
		Multi:      true,
		Replex:     500,
		Checkpoint: "npt_PT_out.cpt",
	}
	got := s.MdrunLine()
	want := "mpirun -n $NSIMS --map-by node -x OMP_NUM_THREADS mdrun_mpi " +
		"-s TOPO/npt -deffnm npt_PT_out -plumed plumed.dat " +
		"-multi 16 -replex 500 -cpi npt_PT_out.cpt"
	if got != want {
		Te.Errorf("got %q, wanted %q", got, want)
	}
	bare := Script{}.MdrunLine()
	if bare != "mpirun -n $NSIMS --map-by node -x OMP_NUM_THREADS mdrun_mpi" {
		Te.Errorf("bare line %q", bare)
	}
}

func TestMake(Te *testing.T) {
	s := Script{Name: "job", NSims: 4, Multi: true, TPN: 16, Cores: 64}
	got, err := s.Make()
	if err != nil {
		Te.Fatal(err)
	}
	want := []string{
		"#!/bin/bash -l",
		"",
		"#$ -l h_rt=24:00:00",
		"#$ -N job",
		"#$ -o error.log",
		"#$ -pe mpi_16_tasks_per_node 64",
		"",
		"export MPI_COMPILER='pgi'",
		"export NSIMS=4",
		"export OMP_NUM_THREADS=$(($NSLOTS/$NSIMS))",
		"",
		"mpirun -n $NSIMS --map-by node -x OMP_NUM_THREADS mdrun_mpi -multi 4",
		"",
	}
	if !reflect.DeepEqual(got, want) {
		Te.Errorf("got %v, wanted %v", got, want)
	}
}

func TestWrite(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "gromacs.sub")
	s := Script{Name: "job"}
	if err := s.Write(path, false); err != nil {
		Te.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "#!/bin/bash -l\n") {
		Te.Errorf("script starts with %q", string(raw)[:20])
	}
	if err := s.Write(path, false); !errors.Is(err, ErrExists) {
		Te.Errorf("expected ErrExists, got %v", err)
	}
	if err := s.Write(path, true); err != nil {
		Te.Errorf("overwrite refused: %v", err)
	}
}

func TestParseJobInfo(Te *testing.T) {
	out := `Your job 5442045 ("PT-DCM-npt") has been submitted`
	job, err := ParseJobInfo(out)
	if err != nil {
		Te.Fatal(err)
	}
	if job.ID != "5442045" || job.Name != "PT-DCM-npt" {
		Te.Errorf("parsed %+v", job)
	}
	if job.Raw != `5442045 ("PT-DCM-npt")` {
		Te.Errorf("raw fragment %q", job.Raw)
	}
	if _, err := ParseJobInfo("qsub: command not found"); !errors.Is(err, ErrQsub) {
		Te.Errorf("expected ErrQsub, got %v", err)
	}
}

func TestSubmit(Te *testing.T) {
	orig := Qsub
	defer func() { Qsub = orig }()
	Qsub = func(script string) (string, error) {
		return fmt.Sprintf(`Your job 17 ("%s") has been submitted`, filepath.Base(script)), nil
	}
	job, err := Submit("scripts/gromacs.sub")
	if err != nil {
		Te.Fatal(err)
	}
	if job.ID != "17" || job.Name != "gromacs.sub" {
		Te.Errorf("parsed %+v", job)
	}
	Qsub = func(string) (string, error) { return "denied", errors.New("exit status 1") }
	if _, err := Submit("x"); err == nil {
		Te.Error("expected an error from a failing qsub")
	}
}
