// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model contains the domain model types of the bulkmig
// project. These types are independent of the adapters layer, so the
// use cases layer can be compiled and tested without linking against
// any database driver or external utility wrapper.
package model

import (
	"fmt"
	"net/url"
)

// Role distinguishes the two database servers which participate in a
// migration. Every connection, catalog query, and subprocess run is
// performed against exactly one of these two roles.
type Role string

// These constants enumerate the valid endpoint roles. The source
// server is only read (catalog queries and pg_dump) while the
// destination server may be written (database creation and restore).
const (
	SourceRole      Role = "source"
	DestinationRole Role = "destination"
)

// Validate returns an error if the role is neither the source nor the
// destination role.
func (r Role) Validate() error {
	switch r {
	case SourceRole, DestinationRole:
		return nil
	default:
		return fmt.Errorf("unknown endpoint role: %q", string(r))
	}
}

// AdminDatabase is the maintenance database which is used whenever a
// connection is required without targeting a specific user database,
// for example, for listing the catalog or creating a new database.
const AdminDatabase = "postgres"

// Endpoint identifies one of the two participating database servers
// together with its connection credentials. Instances are created once
// at startup from the CLI flags or the configuration file and are not
// mutated afterwards.
type Endpoint struct {
	Role     Role
	Host     string
	Port     int
	User     string
	Password string
}

// DSN formats a PostgreSQL connection URL for the given database name
// on this endpoint. The user and password parts are escaped, so
// credentials containing reserved URL characters keep working.
func (e Endpoint) DSN(dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(e.User, e.Password),
		Host:   fmt.Sprintf("%s:%d", e.Host, e.Port),
		Path:   "/" + dbName,
	}
	return u.String()
}

// AdminDSN formats a connection URL for the maintenance database on
// this endpoint, suitable for catalog-level operations.
func (e Endpoint) AdminDSN() string {
	return e.DSN(AdminDatabase)
}

// Validate checks that the endpoint carries a valid role and enough
// information to attempt a connection.
func (e Endpoint) Validate() error {
	if err := e.Role.Validate(); err != nil {
		return err
	}
	switch {
	case e.Host == "":
		return fmt.Errorf("%s endpoint: missing host", e.Role)
	case e.Port <= 0 || e.Port > 65535:
		return fmt.Errorf("%s endpoint: invalid port %d", e.Role, e.Port)
	case e.User == "":
		return fmt.Errorf("%s endpoint: missing user", e.Role)
	default:
		return nil
	}
}
