// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "fmt"

// Format selects the textual representation which pg_dump produces for
// the table contents of an exported database.
type Format string

// These constants enumerate the supported dump formats. The COPY
// format is the default since it is faster to produce and restore,
// while the INSERT format is maximally portable across server versions
// at the cost of speed.
const (
	FormatCopy    Format = "copy"
	FormatInserts Format = "inserts"
)

// Validate returns an error for formats other than the two supported
// dump formats.
func (f Format) Validate() error {
	switch f {
	case FormatCopy, FormatInserts:
		return nil
	default:
		return fmt.Errorf("unknown dump format: %q", string(f))
	}
}

// String describes the format the way it is reported to operators.
func (f Format) String() string {
	if f == FormatInserts {
		return "INSERT statements"
	}
	return "COPY statements"
}

// Existence is the three-valued outcome of a destination catalog
// lookup. A failed lookup is kept distinguishable from a genuine
// absence, so logs and tests can tell them apart; the orchestrator
// collapses CheckFailed to "absent" only at its decision points since
// existence checks are advisory inputs, not hard gates.
type Existence int

// Existence outcomes of a catalog lookup.
const (
	NotExists Existence = iota
	Exists
	CheckFailed
)

// Found reports whether the database is known to exist. CheckFailed
// conservatively counts as not found.
func (e Existence) Found() bool {
	return e == Exists
}
