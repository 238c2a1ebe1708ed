/*
 * com_test.go, part of ParaTemp.
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

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestCOMRead(Te *testing.T) {
	c, err := ReadCOM("test/sample.com")
	if err != nil {
		Te.Fatal(err)
	}
	n, err := c.NAtoms()
	if err != nil {
		Te.Fatal(err)
	}
	if n != 5 {
		Te.Errorf("read %d atoms, want 5", n)
	}
	if !reflect.DeepEqual(c.Labels(), []string{"C", "H", "H", "H", "H"}) {
		Te.Errorf("labels: %v", c.Labels())
	}
	if c.ChargeMultiplicity() != "0 1" {
		Te.Errorf("charge/multiplicity line: %q", c.ChargeMultiplicity())
	}
	if len(c.Header()) != 4 || c.Header()[0] != "%nprocshared=8" {
		Te.Errorf("header block: %q", c.Header())
	}
	if len(c.Footer()) != 3 || c.Footer()[0] != "--Link1--" {
		Te.Errorf("footer block: %q", c.Footer())
	}
	// geometry queries come from the shared atom table
	d, err := c.DistanceBetween(0, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if !close(d, 1.089) {
		Te.Errorf("C-H distance %g", d)
	}
	a, err := c.AngleBetween(1, 0, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if a < 108 || a > 111 {
		Te.Errorf("H-C-H angle %g, want tetrahedral-ish", a)
	}
}

func TestCOMRoundTrip(Te *testing.T) {
	raw, err := os.ReadFile("test/sample.com")
	if err != nil {
		Te.Fatal(err)
	}
	c, err := ParseCOM(strings.NewReader(string(raw)), "sample.com")
	if err != nil {
		Te.Fatal(err)
	}
	if got := c.String(); got != string(raw) {
		Te.Errorf("round trip not byte-for-byte:\n--- got ---\n%s\n--- want ---\n%s", got, raw)
	}
}

func TestCOMGrammarErrors(Te *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"no blank lines at all", "%mem=8GB\n#P HF\n"},
		{"ends before charge line", "#P HF\n\ntitle\n\n"},
		{"blank charge line", "#P HF\n\ntitle\n\n\n"},
		{"ends inside geometry", "#P HF\n\ntitle\n\n0 1\nC 0.0 0.0 0.0\n"},
		{"no geometry lines", "#P HF\n\ntitle\n\n0 1\n\nfooter\n"},
	}
	for _, c := range cases {
		if _, err := ParseCOM(strings.NewReader(c.in), c.name); !errors.Is(err, ErrComGrammar) {
			Te.Errorf("%s: expected ErrComGrammar, got %v", c.name, err)
		}
	}
	// a bad coordinate inside the geometry is a malformed line, not a
	// grammar failure
	bad := "#P HF\n\ntitle\n\n0 1\nC 0.0 zero 0.0\n\nfooter\n"
	if _, err := ParseCOM(strings.NewReader(bad), "bad coord"); !errors.Is(err, ErrMalformedLine) {
		Te.Errorf("expected ErrMalformedLine, got %v", err)
	}
}
