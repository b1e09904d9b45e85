// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/momeni/bulkmig/pkg/core/model"
)

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// Database returns an Attr holding a database name under the
// conventional "database" key.
func Database(name string) slog.Attr {
	return slog.String("database", name)
}

// Endpoint returns an Attr identifying a server endpoint by its role
// and host, omitting credentials.
func Endpoint(e model.Endpoint) slog.Attr {
	return slog.Group(
		"endpoint",
		slog.String("role", string(e.Role)),
		slog.String("host", e.Host),
	)
}

// Path returns an Attr holding a filesystem path under the
// conventional "path" key.
func Path(value string) slog.Attr {
	return slog.String("path", value)
}

// JobID returns an Attr holding a migration job identity under the
// conventional "job" key.
func JobID(id uuid.UUID) slog.Attr {
	return slog.String("job", id.String())
}

// Size returns an Attr holding a byte count under the conventional
// "bytes" key.
func Size(value int64) slog.Attr {
	return slog.Int64("bytes", value)
}
