/*
 * com.go, part of ParaTemp.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// COM models the subset of a Gaussian com input deck used here: a
// freeform header block, a title block, one charge/multiplicity line,
// the geometry table, and an optional footer of optimization
// directives. The non-geometry sections are kept verbatim and written
// back unchanged, so a well-formed file round-trips byte for byte.
type COM struct {
	AtomTable
	header     []string
	title      []string
	chargeMult string
	footer     []string
}

// states of the com section scanner
const (
	comHeader = iota
	comTitle
	comChargeMult
	comGeom
	comFooter
)

// ReadCOM parses the Gaussian com file at path.
func ReadCOM(path string) (*COM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCOM(f, path)
}

// ParseCOM parses com-format text from r. The scanner walks the fixed
// section sequence header -> title -> charge/multiplicity -> geometry
// -> footer, with blank lines marking the transitions. Files that do
// not follow that grammar are rejected with an ErrComGrammar instead of
// being read into a corrupt geometry.
func ParseCOM(r io.Reader, name string) (*COM, error) {
	scanner := bufio.NewScanner(r)
	c := new(COM)
	state := comHeader
	for scanner.Scan() {
		line := scanner.Text()
		blank := strings.TrimSpace(line) == ""
		switch state {
		case comHeader:
			c.header = append(c.header, line)
			if blank {
				state = comTitle
			}
		case comTitle:
			c.title = append(c.title, line)
			if blank {
				state = comChargeMult
			}
		case comChargeMult:
			if blank {
				return nil, fmt.Errorf("%w: %s: blank charge/multiplicity line", ErrComGrammar, name)
			}
			c.chargeMult = line
			state = comGeom
		case comGeom:
			if blank {
				state = comFooter
				continue
			}
			label, coord, err := parseAtomLine(line)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			c.labels = append(c.labels, label)
			c.coords = append(c.coords, coord)
		case comFooter:
			c.footer = append(c.footer, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if state < comFooter {
		return nil, fmt.Errorf("%w: %s: file ended in section %d of 5", ErrComGrammar, name, state+1)
	}
	if len(c.labels) == 0 {
		return nil, fmt.Errorf("%w: %s: no geometry lines", ErrComGrammar, name)
	}
	return c, nil
}

// Header returns the raw header block lines.
func (c *COM) Header() []string { return c.header }

// Title returns the raw title block lines.
func (c *COM) Title() []string { return c.title }

// ChargeMultiplicity returns the raw charge/multiplicity line.
func (c *COM) ChargeMultiplicity() string { return c.chargeMult }

// Footer returns the raw footer (opt input) block lines.
func (c *COM) Footer() []string { return c.footer }

// String renders the deck back into com format. Header, title,
// charge/multiplicity and footer are reproduced verbatim, the geometry
// through the shared fixed-width atom table.
func (c *COM) String() string {
	var b strings.Builder
	for _, l := range c.header {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	for _, l := range c.title {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(c.chargeMult)
	b.WriteByte('\n')
	for i := range c.labels {
		b.WriteString(formatAtomLine(c.labels[i], c.coords[i]))
	}
	b.WriteByte('\n')
	for _, l := range c.footer {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Write serializes the deck to the file at path, overwriting it.
func (c *COM) Write(path string) error {
	return os.WriteFile(path, []byte(c.String()), 0644)
}
