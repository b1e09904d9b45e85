// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package catalogrp provides a reification of the repo.Catalog
// interface, making it possible to list the databases of one server,
// look up a single database name, and create or drop databases on the
// destination server.
package catalogrp

import (
	"context"

	"github.com/momeni/bulkmig/pkg/adapter/db/postgres"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/repo"
)

// Repo represents a catalog management repository.
type Repo struct {
}

// New instantiates a catalog management Repo struct. Although this New
// function does not perform complex operations, and users may use
// a &catalogrp.Repo{} directly too, but this method improves the code
// readability as catalogrp.New() makes the package to look alike a
// data type.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

// Conn unwraps the given repo.Conn instance, expecting to find an
// instance of *postgres.Conn as created by this adapter layer.
// Otherwise, it will panic. Unwrapped connection will be wrapped and
// returned as an instance of the repo.CatalogQueryer interface, so it
// can be used in the use cases layer without requiring to type assert
// again and again.
//
// All catalog operations mandate a connection (not a transaction):
// the inventory snapshot must observe the catalog outside of any open
// transaction and CREATE DATABASE and DROP DATABASE refuse to run
// inside a transaction block.
func (catalog *Repo) Conn(c repo.Conn) repo.CatalogQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

// ListDatabases takes a lexicographically sorted snapshot of the
// non-template database names on the server. When excludeSystem is
// true, the default administrative and template databases are filtered
// out by name. A query failure is reported as a cerr.Query fault and
// never as an empty inventory.
func (cq connQueryer) ListDatabases(
	ctx context.Context, excludeSystem bool,
) (model.Inventory, error) {
	return ListDatabases(ctx, cq.Conn, excludeSystem)
}

// DatabaseExists looks dbName up in the pg_database catalog without
// connecting to the named database itself. Connection or query errors
// degrade to the model.CheckFailed outcome carrying the causing error,
// so the caller can log it and decide instead of aborting.
func (cq connQueryer) DatabaseExists(
	ctx context.Context, dbName string,
) (model.Existence, error) {
	return DatabaseExists(ctx, cq.Conn, dbName)
}

// CreateDatabase creates a new, empty dbName database with the server
// default settings. Name collisions, permission errors, and quota
// errors are all reported as a cerr.Create fault without retrying.
func (cq connQueryer) CreateDatabase(
	ctx context.Context, dbName string,
) error {
	return CreateDatabase(ctx, cq.Conn, dbName)
}

// DropDatabase drops the dbName database if it exists, supporting the
// clean-replace overwrite mode. Dropping an absent database causes no
// change and no error.
func (cq connQueryer) DropDatabase(
	ctx context.Context, dbName string,
) error {
	return DropDatabase(ctx, cq.Conn, dbName)
}
