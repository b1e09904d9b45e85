// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrateuc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momeni/bulkmig/pkg/core/log"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/repo"
)

// ErrCanceled reports that the operator rejected the batch
// confirmation prompt and no migration job was started.
var ErrCanceled = errors.New("migration canceled")

// Confirmer asks for an explicit acknowledgment before a batch run
// starts. It receives the candidate databases and the dump format, so
// an interactive implementation can render the plan alongside its
// prompt. Returning false cancels the batch before the first job.
type Confirmer func(
	ctx context.Context,
	candidates model.Inventory,
	format model.Format,
) (bool, error)

// AcceptAll is the Confirmer for non-interactive environments,
// equivalent to an operator acknowledging every plan.
func AcceptAll(
	context.Context, model.Inventory, model.Format,
) (bool, error) {
	return true, nil
}

// BatchRequest carries the per-run settings of a batch migration.
type BatchRequest struct {
	// Exclude lists database names to subtract from the discovered
	// source inventory using exact-name matching.
	Exclude []string
	// Overwrite permits restoring onto destination databases which
	// already exist.
	Overwrite bool
	// DropExisting selects the clean-replace overwrite mode; it is
	// only meaningful together with Overwrite.
	DropExisting bool
}

// Summary is the aggregate outcome of a batch run. It is threaded
// through the loop as an explicit accumulator and returned at the end;
// no counter state outlives the call.
type Summary struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Results    []Result  `json:"results"`
}

// add folds one job result into the summary.
func (s Summary) add(r Result) Summary {
	s.Results = append(s.Results, r)
	if r.Succeeded() {
		s.Succeeded++
	} else {
		s.Failed++
	}
	return s
}

// MigrateAll discovers the source inventory, subtracts the excluded
// names, asks the configured Confirmer for an acknowledgment, and then
// migrates every candidate database strictly sequentially. One job's
// failure does not abort the batch; the loop continues with the next
// database and the aggregate summary reports both outcomes, with
// succeeded+failed always equal to the candidate count.
// A nil summary is returned only when the batch could not start at
// all: inventory discovery failed or the confirmation was rejected
// (ErrCanceled).
func (uc *UseCase) MigrateAll(
	ctx context.Context, req BatchRequest,
) (*Summary, error) {
	inventory, err := uc.SourceInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering source inventory: %w", err)
	}
	candidates := inventory.Exclude(req.Exclude)
	if len(candidates) > 0 {
		ok, err := uc.confirm(ctx, candidates, uc.format)
		if err != nil {
			return nil, fmt.Errorf("confirming batch run: %w", err)
		}
		if !ok {
			return nil, ErrCanceled
		}
	}
	summary := Summary{
		StartedAt: uc.now(),
		Total:     len(candidates),
	}
	for _, dbName := range candidates {
		job := NewJob(dbName, req.Overwrite, req.DropExisting)
		res := uc.MigrateOne(ctx, job)
		if !res.Succeeded() {
			log.Warn(
				ctx, "migration failed",
				log.Database(dbName),
				log.JobID(job.ID),
				log.Err("error", res.Err),
			)
		}
		summary = summary.add(res)
	}
	summary.FinishedAt = uc.now()
	return &summary, nil
}

// SourceInventory takes a snapshot of the user databases on the source
// server, excluding the system databases. Failures abort the enclosing
// action since nothing can proceed without a valid inventory.
func (uc *UseCase) SourceInventory(
	ctx context.Context,
) (model.Inventory, error) {
	var inventory model.Inventory
	err := uc.srcPool.Conn(
		ctx, func(ctx context.Context, c repo.Conn) error {
			var err error
			inventory, err = uc.catalog.Conn(c).ListDatabases(ctx, true)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return inventory, nil
}
