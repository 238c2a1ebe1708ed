/*
 * plumed.go, part of ParaTemp.
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

package top

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUpdater marks a number the updater could not map.
	ErrUpdater = errors.New("cannot update atom index")
	// ErrAmbiguousKey marks a line matching several change keywords
	// when equilibration replacements need exactly one.
	ErrAmbiguousKey = errors.New("more than one change keyword in line")
)

// atomIndex matches atom numbers in PLUMED arguments, which follow an
// equals sign, a comma or a dash.
var atomIndex = regexp.MustCompile(`([=,-])(\d+)`)

// PlumedEdit describes how to rewrite a PLUMED input when the system's
// atom numbering changes, e.g. after reordering the molecules in the
// topology.
type PlumedEdit struct {
	// ChangeKeys are whitespace-separated tokens marking lines whose
	// atom indices should be renumbered (group labels like "c1:",
	// action names like "WHOLEMOLECULES").
	ChangeKeys []string
	// DeleteKeys mark lines to drop entirely.
	DeleteKeys []string
	// NumUpdater maps an old atom index to a new one. Required when
	// ChangeKeys is non-empty; ShiftUpdater builds the common case.
	NumUpdater func(n int) (int, error)
	// Equil turns on the equilibration rewrites: per-keyword string
	// replacements from EquilChanges, and softening of UPPER_WALLS
	// restraints.
	Equil bool
	// EquilChanges maps a change keyword to an old/new replacement pair
	// applied to its line during equilibration.
	EquilChanges map[string][2]string
}

// UpdatePlumed copies a PLUMED input from r to w, renumbering atom
// indices on lines holding a change keyword, dropping lines holding a
// delete keyword, and applying the equilibration rewrites when asked.
func UpdatePlumed(r io.Reader, w io.Writer, cfg PlumedEdit) error {
	if cfg.Equil && cfg.EquilChanges == nil {
		return fmt.Errorf("top: equilibration rewrites need EquilChanges")
	}
	change := tokenSet(cfg.ChangeKeys)
	del := tokenSet(cfg.DeleteKeys)
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		matched := matchedKeys(line, change)
		switch {
		case len(matched) > 0:
			var err error
			line, err = renumber(line, cfg.NumUpdater)
			if err != nil {
				return err
			}
			if cfg.Equil {
				if len(matched) > 1 {
					return fmt.Errorf("top: %w: %v", ErrAmbiguousKey, matched)
				}
				if repl, ok := cfg.EquilChanges[matched[0]]; ok {
					line = strings.Replace(line, repl[0], repl[1], 1)
				}
			}
		case len(matchedKeys(line, del)) > 0:
			continue
		case cfg.Equil && strings.HasPrefix(line, "UPPER_WALLS"):
			// softer, slightly tighter walls for equilibration so the
			// production walls start satisfied
			line = strings.Replace(line, "150.0,150.0 EXP=2,2", "75.0,75.0 EXP=1,1", 1)
			line = strings.Replace(line, "AT=12.0,12.0", "AT=10.5,10.5", 1)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

// UpdatePlumedFile is UpdatePlumed between named files. The output is
// overwritten if present.
func UpdatePlumedFile(in, out string, cfg PlumedEdit) error {
	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	err = UpdatePlumed(src, dst, cfg)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return err
}

// ShiftUpdater returns a NumUpdater for the common renumbering where
// the catalyst moves from the front of the system to after the
// reactants: indices above shift lose shift, indices within the old
// catalyst block are looked up in catRepl.
func ShiftUpdater(shift int, catRepl map[int]int) func(int) (int, error) {
	return func(n int) (int, error) {
		if n >= shift+1 {
			return n - shift, nil
		}
		out, ok := catRepl[n]
		if !ok {
			return 0, fmt.Errorf("top: %w: no replacement for %d", ErrUpdater, n)
		}
		return out, nil
	}
}

func renumber(line string, updater func(int) (int, error)) (string, error) {
	if updater == nil {
		return "", fmt.Errorf("top: %w: no NumUpdater configured", ErrUpdater)
	}
	var firstErr error
	out := atomIndex.ReplaceAllStringFunc(line, func(m string) string {
		// the first byte is the =, comma or dash delimiter
		n, err := strconv.Atoi(m[1:])
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("top: %w: %q: %v", ErrUpdater, m, err)
			}
			return m
		}
		updated, err := updater(n)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return m[:1] + strconv.Itoa(updated)
	})
	return out, firstErr
}

func tokenSet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	s := make(map[string]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

func matchedKeys(line string, set map[string]bool) []string {
	if set == nil {
		return nil
	}
	var out []string
	for _, tok := range strings.Fields(line) {
		if set[tok] && !contains(out, tok) {
			out = append(out, tok)
		}
	}
	return out
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
