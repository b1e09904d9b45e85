// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package catalogrp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/bulkmig/pkg/adapter/db/postgres"
	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/momeni/bulkmig/pkg/core/model"
)

// duplicateDatabase is the SQLSTATE which PostgreSQL reports when a
// CREATE DATABASE collides with an existing database name.
const duplicateDatabase = "42P04"

// ListDatabases queries the pg_database catalog for the non-template
// database names, sorted lexicographically for deterministic and
// reproducible diffing. When excludeSystem is true, the default
// administrative and template databases are also excluded by name.
func ListDatabases(
	ctx context.Context, c *postgres.Conn, excludeSystem bool,
) (model.Inventory, error) {
	sql := `SELECT datname FROM pg_database
WHERE datistemplate = false`
	var args []any
	if excludeSystem {
		names := model.SystemDatabases()
		marks := make([]string, 0, len(names))
		for i, name := range names {
			marks = append(marks, fmt.Sprintf("$%d", i+1))
			args = append(args, name)
		}
		sql += fmt.Sprintf(
			" AND datname NOT IN (%s)", strings.Join(marks, ", "),
		)
	}
	sql += " ORDER BY datname"
	rows, err := c.Query(ctx, sql, args...)
	if err != nil {
		return nil, cerr.Query(fmt.Errorf("listing databases: %w", err))
	}
	defer rows.Close()
	var inv model.Inventory
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, cerr.Query(fmt.Errorf("scanning datname: %w", err))
		}
		inv = append(inv, name)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.Query(fmt.Errorf("iterating databases: %w", err))
	}
	return inv, nil
}

// DatabaseExists performs a catalog lookup for dbName. The named
// database is never connected to, so looking up an arbitrary name has
// no side effects. Errors degrade to the model.CheckFailed outcome
// together with the causing error instead of a hard failure.
func DatabaseExists(
	ctx context.Context, c *postgres.Conn, dbName string,
) (model.Existence, error) {
	rows, err := c.Query(
		ctx, "SELECT 1 FROM pg_database WHERE datname = $1", dbName,
	)
	if err != nil {
		return model.CheckFailed, cerr.Query(
			fmt.Errorf("looking up database %q: %w", dbName, err),
		)
	}
	defer rows.Close()
	if rows.Next() {
		return model.Exists, nil
	}
	if err := rows.Err(); err != nil {
		return model.CheckFailed, cerr.Query(
			fmt.Errorf("looking up database %q: %w", dbName, err),
		)
	}
	return model.NotExists, nil
}

// CreateDatabase creates the dbName database with the server default
// settings. The database name is quoted as an identifier since it
// cannot be passed as a statement parameter.
func CreateDatabase(
	ctx context.Context, c *postgres.Conn, dbName string,
) error {
	sql := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()
	if _, err := c.Exec(ctx, sql); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == duplicateDatabase {
			return cerr.Create(fmt.Errorf(
				"database %q already exists: %w", dbName, err,
			))
		}
		return cerr.Create(fmt.Errorf(
			"creating database %q: %w", dbName, err,
		))
	}
	return nil
}

// DropDatabase drops the dbName database if it exists. It is used by
// the clean-replace overwrite mode only; the default overwrite mode
// restores onto the existing database without dropping it.
func DropDatabase(
	ctx context.Context, c *postgres.Conn, dbName string,
) error {
	sql := "DROP DATABASE IF EXISTS " + pgx.Identifier{dbName}.Sanitize()
	if _, err := c.Exec(ctx, sql); err != nil {
		return cerr.Create(fmt.Errorf(
			"dropping database %q: %w", dbName, err,
		))
	}
	return nil
}
