/*
 * doc.go, part of ParaTemp.
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

// Package paratemp provides the geometry model used throughout the
// ParaTemp tools for setting up and analyzing GROMACS parallel-tempering
// simulations: a 3D vector value type, rotation matrices, and parsers,
// writers and geometric queries for XYZ and Gaussian com coordinate files.
//
// The subpackages cover the rest of the workflow: xvg reads GROMACS
// energy series, histo bins them, top edits topology and PLUMED input
// files, sub writes and submits SGE job scripts, and sim stages
// multi-step simulation pipelines.
package paratemp
