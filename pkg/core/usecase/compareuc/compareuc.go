// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package compareuc contains the comparison UseCase which diffs the
// database inventories of the source and destination servers. The set
// algebra itself lives in the model package as a pure function; this
// use case provides the two catalog snapshots around it.
package compareuc

import (
	"context"
	"fmt"

	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/repo"
)

// UseCase represents the inventory comparison use case.
type UseCase struct {
	srcPool repo.Pool
	dstPool repo.Pool
	catalog repo.Catalog
}

// New instantiates a comparison use case over one connection pool per
// endpoint and the catalog repository.
func New(srcPool, dstPool repo.Pool, catalog repo.Catalog) *UseCase {
	return &UseCase{
		srcPool: srcPool,
		dstPool: dstPool,
		catalog: catalog,
	}
}

// Comparison bundles the two inventory snapshots with their diff, so
// the caller can render the per-server listings alongside the three
// difference sets without taking further snapshots.
type Comparison struct {
	Source      model.Inventory
	Destination model.Inventory
	Diff        model.ComparisonResult
}

// Compare snapshots both inventories, excluding system databases, and
// computes their set differences. The two snapshots are taken
// independently and sequentially; they are point-in-time views and may
// be stale relative to each other, which is accepted.
// A failure to list either server aborts the whole comparison since a
// partial diff would be misleading.
func (uc *UseCase) Compare(ctx context.Context) (*Comparison, error) {
	src, err := uc.snapshot(ctx, uc.srcPool)
	if err != nil {
		return nil, fmt.Errorf("listing source databases: %w", err)
	}
	dst, err := uc.snapshot(ctx, uc.dstPool)
	if err != nil {
		return nil, fmt.Errorf("listing destination databases: %w", err)
	}
	return &Comparison{
		Source:      src,
		Destination: dst,
		Diff:        model.Compare(src, dst),
	}, nil
}

func (uc *UseCase) snapshot(
	ctx context.Context, pool repo.Pool,
) (model.Inventory, error) {
	var inventory model.Inventory
	err := pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		inventory, err = uc.catalog.Conn(c).ListDatabases(ctx, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inventory, nil
}
