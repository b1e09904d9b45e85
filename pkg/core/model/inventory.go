// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "sort"

// Inventory is a point-in-time snapshot of the user database names
// which exist on one server, sorted lexicographically. It is a
// snapshot, not a live view; the catalog may change after it is taken
// and callers are expected to tolerate that staleness.
// Name comparisons are byte-wise, matching how the underlying catalog
// defines database name equality.
type Inventory []string

// Contains reports whether name is a member of the inventory using an
// exact, case-sensitive match.
func (inv Inventory) Contains(name string) bool {
	for _, db := range inv {
		if db == name {
			return true
		}
	}
	return false
}

// Exclude returns a copy of the inventory without the given names.
// Exclusions use exact-name matching; names which are absent from the
// inventory are ignored silently.
func (inv Inventory) Exclude(names []string) Inventory {
	excluded := make(map[string]struct{}, len(names))
	for _, name := range names {
		excluded[name] = struct{}{}
	}
	out := make(Inventory, 0, len(inv))
	for _, db := range inv {
		if _, ok := excluded[db]; !ok {
			out = append(out, db)
		}
	}
	return out
}

// systemDatabases are the administrative and template databases which
// every PostgreSQL cluster carries and which must never be migrated.
var systemDatabases = map[string]struct{}{
	"postgres":  {},
	"template0": {},
	"template1": {},
}

// IsSystemDatabase reports whether name belongs to the server's default
// administrative or template databases.
func IsSystemDatabase(name string) bool {
	_, ok := systemDatabases[name]
	return ok
}

// SystemDatabases returns the sorted system database names, so catalog
// queries can interpolate a deterministic exclusion list.
func SystemDatabases() []string {
	names := make([]string, 0, len(systemDatabases))
	for name := range systemDatabases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComparisonResult holds the set differences between the inventories of
// the two servers. Each member slice is sorted lexicographically, so
// two runs over the same catalogs render identical, diffable reports.
// It is derived from two snapshots and never persisted.
type ComparisonResult struct {
	OnlyInSource      Inventory
	OnlyInDestination Inventory
	Common            Inventory
}

// Compare computes the pure set algebra between a source and a
// destination inventory: src−dst, dst−src, and src∩dst.
func Compare(src, dst Inventory) ComparisonResult {
	inSrc := toSet(src)
	inDst := toSet(dst)
	res := ComparisonResult{
		OnlyInSource:      Inventory{},
		OnlyInDestination: Inventory{},
		Common:            Inventory{},
	}
	for db := range inSrc {
		if _, ok := inDst[db]; ok {
			res.Common = append(res.Common, db)
		} else {
			res.OnlyInSource = append(res.OnlyInSource, db)
		}
	}
	for db := range inDst {
		if _, ok := inSrc[db]; !ok {
			res.OnlyInDestination = append(res.OnlyInDestination, db)
		}
	}
	sort.Strings(res.OnlyInSource)
	sort.Strings(res.OnlyInDestination)
	sort.Strings(res.Common)
	return res
}

func toSet(inv Inventory) map[string]struct{} {
	set := make(map[string]struct{}, len(inv))
	for _, db := range inv {
		set[db] = struct{}{}
	}
	return set
}
