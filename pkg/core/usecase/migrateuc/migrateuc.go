// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migrateuc contains the migration UseCase which drives the
// per-database migration state machine and the sequential batch loop
// over multiple databases. The data movement itself is delegated to a
// dump.Bridge and all catalog work to a repo.Catalog, so this package
// holds the control flow and its invariants only.
package migrateuc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/momeni/bulkmig/pkg/core/dump"
	"github.com/momeni/bulkmig/pkg/core/log"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/repo"
)

// artifactTimestamp is the layout of the artifact file timestamp,
// yielding names like appdb_20250217_153012.sql which avoid collisions
// between repeated attempts for the same database.
const artifactTimestamp = "20060102_150405"

// UseCase represents the migration use case. It holds one connection
// pool per endpoint (both opened against the maintenance database),
// the catalog repository, the dump/restore bridge, and the batch
// settings. All operations are synchronous and block the caller; the
// batch loop is strictly sequential, so at most one artifact file and
// one utility subprocess exist at any time.
type UseCase struct {
	srcPool repo.Pool
	dstPool repo.Pool
	catalog repo.Catalog
	bridge  dump.Bridge

	workDir string
	format  model.Format
	confirm Confirmer
	now     func() time.Time
}

// New instantiates a migration use case. The working directory for
// artifact files is created eagerly, so a permission problem surfaces
// before any migration work starts.
// Required collaborators are passed individually; optional settings
// are passed as functional options.
func New(
	srcPool, dstPool repo.Pool,
	catalog repo.Catalog,
	bridge dump.Bridge,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{
		srcPool: srcPool,
		dstPool: dstPool,
		catalog: catalog,
		bridge:  bridge,
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.workDir == "" {
		uc.workDir = "migration_temp"
	}
	if uc.format == "" {
		uc.format = model.FormatCopy
	}
	if uc.confirm == nil {
		uc.confirm = AcceptAll
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if err := os.MkdirAll(uc.workDir, 0o755); err != nil {
		return nil, fmt.Errorf(
			"creating working directory %q: %w", uc.workDir, err,
		)
	}
	return uc, nil
}

// MigrateOne runs the migration state machine for one job and returns
// its terminal result. State transitions:
//
//	pending → checked → exported → provisioned → imported → cleaned
//
// with the terminal failed state reachable from every non-terminal
// state. The artifact file never outlives the job: it is removed on
// success, on failure, and on a panicking handler alike.
func (uc *UseCase) MigrateOne(ctx context.Context, job Job) (res Result) {
	log.Info(
		ctx, "migrating database",
		log.Database(job.Database),
		log.JobID(job.ID),
	)

	// pending → checked
	existence := uc.destExistence(ctx, job.Database)
	if existence.Found() && !job.Overwrite {
		return failed(job, cerr.AlreadyExists(fmt.Errorf(
			"database %q exists on destination; "+
				"use --overwrite to replace it", job.Database,
		)))
	}

	artifact := filepath.Join(uc.workDir, fmt.Sprintf(
		"%s_%s.sql", job.Database, uc.now().Format(artifactTimestamp),
	))
	defer uc.removeArtifact(ctx, artifact)

	// checked → exported
	size, err := uc.bridge.Export(ctx, job.Database, artifact, uc.format)
	if err != nil {
		return failed(job, err)
	}
	log.Info(
		ctx, "artifact exported",
		log.Database(job.Database),
		log.Path(artifact),
		log.Size(size),
	)

	// exported → provisioned
	if err := uc.provision(ctx, job, existence); err != nil {
		res = failed(job, err)
		res.ArtifactBytes = size
		return res
	}

	// provisioned → imported
	if err := uc.bridge.Import(ctx, job.Database, artifact); err != nil {
		res = failed(job, err)
		res.ArtifactBytes = size
		return res
	}

	// imported → cleaned; the artifact removal itself is handled by
	// the deferred cleanup and may only degrade to a logged warning.
	return Result{Job: job, State: StateCleaned, ArtifactBytes: size}
}

// destExistence checks whether the job's database exists on the
// destination server. A failing lookup degrades to the CheckFailed
// outcome with a logged warning instead of aborting: existence checks
// are advisory inputs to a decision, not hard gates.
func (uc *UseCase) destExistence(
	ctx context.Context, dbName string,
) model.Existence {
	var existence model.Existence
	err := uc.dstPool.Conn(
		ctx, func(ctx context.Context, c repo.Conn) error {
			var err error
			existence, err = uc.catalog.Conn(c).DatabaseExists(
				ctx, dbName,
			)
			return err
		},
	)
	if err != nil {
		log.Warn(
			ctx, "existence check failed; assuming database is absent",
			log.Database(dbName),
			log.Err("error", err),
		)
		return model.CheckFailed
	}
	return existence
}

// provision ensures that the destination database exists before the
// restore step. With DropExisting, an existing destination database is
// dropped first, so the restore replaces instead of overlaying.
// Without it, an existing database is kept as-is and the restore is
// applied onto its current contents.
func (uc *UseCase) provision(
	ctx context.Context, job Job, checked model.Existence,
) error {
	return uc.dstPool.Conn(
		ctx, func(ctx context.Context, c repo.Conn) error {
			q := uc.catalog.Conn(c)
			if job.Overwrite && job.DropExisting && checked.Found() {
				log.Info(
					ctx, "dropping existing destination database",
					log.Database(job.Database),
				)
				if err := q.DropDatabase(ctx, job.Database); err != nil {
					return err
				}
			}
			// Re-check instead of trusting the advisory pre-export
			// check: the catalog may have changed meanwhile and a
			// CheckFailed outcome must not trigger a blind create.
			existence, err := q.DatabaseExists(ctx, job.Database)
			if err != nil {
				log.Warn(
					ctx, "existence re-check failed; trying to create",
					log.Database(job.Database),
					log.Err("error", err),
				)
			}
			if existence.Found() {
				log.Info(
					ctx, "destination database already present",
					log.Database(job.Database),
				)
				return nil
			}
			return q.CreateDatabase(ctx, job.Database)
		},
	)
}

// removeArtifact deletes the artifact file if it exists. A failing
// removal is logged and otherwise ignored, so it cannot downgrade a
// successful migration nor mask the original failure of a failed one.
func (uc *UseCase) removeArtifact(ctx context.Context, path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		log.Debug(ctx, "artifact removed", log.Path(path))
	case os.IsNotExist(err):
		// nothing was exported before the job ended
	default:
		log.Warn(
			ctx, "failed to remove artifact",
			log.Path(path),
			log.Err("error", err),
		)
	}
}
