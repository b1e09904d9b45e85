// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrateuc

import (
	"github.com/google/uuid"
	"github.com/momeni/bulkmig/pkg/core/cerr"
)

// State names one station of the per-database migration state machine.
// A job starts pending and walks the stations in order; the failed
// state is terminal and reachable from every non-terminal state.
type State string

// The migration job states, in execution order, plus the terminal
// failure state.
const (
	StatePending     State = "pending"
	StateChecked     State = "checked"
	StateExported    State = "exported"
	StateProvisioned State = "provisioned"
	StateImported    State = "imported"
	StateCleaned     State = "cleaned"
	StateFailed      State = "failed"
)

// Job describes one database's end-to-end migration attempt. A job is
// created at batch-loop iteration time (or once, for a single-database
// invocation), is owned exclusively by one orchestrator execution, and
// leaves no persisted state behind after it completes.
type Job struct {
	// ID tags log lines and summary entries of this attempt.
	ID uuid.UUID `json:"id"`
	// Database is the server-scoped name of the migrated database.
	Database string `json:"database"`
	// Overwrite permits restoring onto a destination database which
	// already exists. Without DropExisting the restore is applied onto
	// the existing contents (additive overlay).
	Overwrite bool `json:"overwrite"`
	// DropExisting, valid only together with Overwrite, drops the
	// destination database before provisioning it again, yielding a
	// clean replacement instead of an overlay.
	DropExisting bool `json:"dropExisting,omitempty"`
}

// NewJob creates a Job for dbName with a fresh identity.
func NewJob(dbName string, overwrite, dropExisting bool) Job {
	return Job{
		ID:           uuid.New(),
		Database:     dbName,
		Overwrite:    overwrite,
		DropExisting: dropExisting,
	}
}

// Result reports the terminal state of one job. The orchestrator never
// retries; the caller decides on any re-attempt based on this value.
type Result struct {
	Job   Job   `json:"job"`
	State State `json:"state"`
	// Reason classifies the failure when State is StateFailed.
	Reason cerr.Kind `json:"reason,omitempty"`
	// Err carries the underlying diagnostic, including the verbatim
	// standard error text of a failed utility run.
	Err error `json:"-"`
	// Detail is the rendered form of Err for the summary file.
	Detail string `json:"detail,omitempty"`
	// ArtifactBytes is the exported artifact size, when the export
	// step completed.
	ArtifactBytes int64 `json:"artifactBytes,omitempty"`
}

// Succeeded reports whether the job reached the cleaned state.
func (r Result) Succeeded() bool {
	return r.State == StateCleaned
}

// failed builds the terminal failure result for the job, extracting
// the fault kind of err when one is attached.
func failed(job Job, err error) Result {
	r := Result{Job: job, State: StateFailed, Err: err}
	if kind, ok := cerr.KindOf(err); ok {
		r.Reason = kind
	}
	if err != nil {
		r.Detail = err.Error()
	}
	return r
}
