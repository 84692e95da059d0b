/*
Copyright © 2024 the fmask-go authors.
This file is part of fmask-go.

fmask-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fmask-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fmask-go.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package fmask orchestrates the Fmask cloud/shadow/snow/water
// classification pipeline: ingest, auxiliary data, spectral indices,
// snow/water, potential cloud pixels, potential clouds, morphological
// cleanup, cloud-shadow matching, and final composition (spec §2).
package fmask

import "fmt"

// InputError reports a fatal problem at ingest: missing or malformed
// metadata, missing band files, or an unsupported sensor (spec §7).
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("fmask: input error reading %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// AuxError reports that auxiliary data (DEM or GSWO) could not be
// produced. The pipeline treats this as "absent" and degrades
// gracefully rather than aborting (spec §7).
type AuxError struct {
	Source string
	Err    error
}

func (e *AuxError) Error() string {
	return fmt.Sprintf("fmask: auxiliary data error from %q: %v", e.Source, e.Err)
}

func (e *AuxError) Unwrap() error { return e.Err }

// NumericError reports a percentile or statistic taken over an empty
// selection, the failure mode of a missed population guard (spec §7).
type NumericError struct {
	Stage string
	Err   error
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("fmask: numeric error in %s: %v", e.Stage, e.Err)
}

func (e *NumericError) Unwrap() error { return e.Err }
