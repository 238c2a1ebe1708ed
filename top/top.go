/*
 * top.go, part of ParaTemp.
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

// Package top edits GROMACS topology (.top) files and PLUMED input as
// plain text: the files stay line-oriented and human-diffable, only the
// specific values being changed are touched.
package top

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoCount marks a topology without a solvent-count line.
	ErrNoCount = errors.New("no solvent count found")
	// ErrAmbiguousTop marks a folder with zero or several .top files.
	ErrAmbiguousTop = errors.New("need exactly one .top file")
	// ErrExists marks a refusal to overwrite an existing file.
	ErrExists = errors.New("file exists")
)

// molSection matches the [ molecules ] header, any spacing, any case.
var molSection = regexp.MustCompile(`(?i)\[\s*molecules\s*\]`)

func solvRe(resName string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(resName) + `\s+(\d+)`)
}

// SolvCount returns the molecule count for resName in the
// [ molecules ] section read from r. Comment lines (leading semicolon)
// are ignored; section header and residue match case-insensitively.
func SolvCount(r io.Reader, resName string) (int, error) {
	re := solvRe(resName)
	scanner := bufio.NewScanner(r)
	inSection := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			continue
		}
		if !inSection {
			inSection = molSection.MatchString(line)
			continue
		}
		if m := re.FindStringSubmatch(line); m != nil {
			return strconv.Atoi(m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("top: %w for %s", ErrNoCount, resName)
}

// SolvCountFile is SolvCount on the named topology file.
func SolvCountFile(path, resName string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := SolvCount(f, resName)
	if err != nil && errors.Is(err, ErrNoCount) {
		err = fmt.Errorf("%s: %w", path, err)
	}
	return n, err
}

// FindTop returns the single .top file in folder, and an error when the
// folder holds none or more than one.
func FindTop(folder string) (string, error) {
	tops, err := filepath.Glob(filepath.Join(folder, "*.top"))
	if err != nil {
		return "", err
	}
	if len(tops) != 1 {
		return "", fmt.Errorf("top: %w: found %d in %s", ErrAmbiguousTop, len(tops), folder)
	}
	return tops[0], nil
}

var digits = regexp.MustCompile(`\d+`)

// SetSolvCount rewrites the molecule count for resName in the named
// topology. When the count already matches nothing is written or
// backed up; otherwise the original is first copied next to itself with
// backupPrefix prepended to its name ("unequal-" when empty), refusing
// to clobber an earlier backup.
func SetSolvCount(path string, count int, resName, backupPrefix string) error {
	current, err := SolvCountFile(path, resName)
	if err != nil {
		return err
	}
	if current == count {
		return nil
	}
	if backupPrefix == "" {
		backupPrefix = "unequal-"
	}
	backup := filepath.Join(filepath.Dir(path), backupPrefix+filepath.Base(path))
	if err := CopyNoOverwrite(path, backup); err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	re := solvRe(resName)
	lines := strings.SplitAfter(string(raw), "\n")
	inSection, done := false, false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), ";"):
		case !inSection:
			inSection = molSection.MatchString(line)
		case !done && re.MatchString(line):
			lines[i] = digits.ReplaceAllString(line, strconv.Itoa(count))
			done = true
		}
	}
	if !done {
		return fmt.Errorf("top: %s: %w for %s", path, ErrNoCount, resName)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "")), 0644)
}

// CopyNoOverwrite copies src to dst, failing with ErrExists when dst is
// already there.
func CopyNoOverwrite(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("top: %w: %s", ErrExists, dst)
		}
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// CopyTopology copies every .top and .itp file from fromDir into toDir,
// creating toDir as needed. An already-present destination file is an
// ErrExists error, nothing is silently replaced.
func CopyTopology(fromDir, toDir string) error {
	if err := os.MkdirAll(toDir, 0755); err != nil {
		return err
	}
	var files []string
	for _, pat := range []string{"*.top", "*.itp"} {
		found, err := filepath.Glob(filepath.Join(fromDir, pat))
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	for _, src := range files {
		if err := CopyNoOverwrite(src, filepath.Join(toDir, filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}
