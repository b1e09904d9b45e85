// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dump specifies the data-movement capability which the
// migration use case depends on, keeping the orchestration state
// machine independent of the mechanism. The pgtools adapter reifies
// this interface by shelling out to the PostgreSQL client utilities;
// a future native-driver implementation can replace it without
// touching the state machine.
package dump

import (
	"context"

	"github.com/momeni/bulkmig/pkg/core/model"
)

// Bridge moves the contents of one database through an intermediate
// artifact file. Both operations block until the underlying utility
// exits; an export or import either completes or is treated as fully
// failed, with no partial-success or resume semantics.
type Bridge interface {
	// Export writes the contents of dbName on the source server into
	// the artifact file at path, using the given dump format, and
	// returns the artifact size in bytes. A non-zero utility exit is
	// reported as a cerr.Export fault carrying the captured standard
	// error text verbatim.
	Export(
		ctx context.Context,
		dbName, path string,
		format model.Format,
	) (sizeBytes int64, err error)

	// Import applies the artifact file at path onto dbName on the
	// destination server. A non-zero utility exit is reported as a
	// cerr.Import fault carrying the captured standard error text
	// verbatim.
	Import(ctx context.Context, dbName, path string) error
}
