// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/momeni/bulkmig/pkg/core/model"
)

// Catalog specifies the expectations from a database catalog
// repository. All members operate on the cluster-wide catalog of the
// server behind the given connection, never on the contents of a
// particular database.
type Catalog interface {
	// Conn unwraps the given Conn instance, which must be created by
	// the corresponding adapter of this repository, and returns a
	// querier for catalog-level operations. Passing a connection from
	// a foreign adapter causes a panic.
	Conn(c Conn) CatalogQueryer
}

// CatalogQueryer runs catalog-level queries on one server using a
// single autocommit connection.
type CatalogQueryer interface {
	// ListDatabases takes a snapshot of the user database names which
	// exist on the server, sorted lexicographically. When
	// excludeSystem is true, the administrative and template databases
	// are filtered out by name. Query failures are reported as an
	// explicit cerr.Query fault and never as an empty inventory, so
	// callers can tell "no databases" from "listing failed".
	ListDatabases(
		ctx context.Context, excludeSystem bool,
	) (model.Inventory, error)

	// DatabaseExists looks up dbName in the catalog. It never opens a
	// connection to the named database itself, avoiding the side
	// effects of touching an arbitrary database. Lookup failures
	// degrade to the CheckFailed outcome alongside the causing error,
	// rather than a hard failure.
	DatabaseExists(
		ctx context.Context, dbName string,
	) (model.Existence, error)

	// CreateDatabase creates a new, empty database with server default
	// settings. Name collisions, permission errors, and quota errors
	// are all reported as a cerr.Create fault without retrying.
	CreateDatabase(ctx context.Context, dbName string) error

	// DropDatabase drops dbName if it exists, for the clean-replace
	// overwrite mode. Dropping a non-existent database is not an
	// error.
	DropDatabase(ctx context.Context, dbName string) error
}
