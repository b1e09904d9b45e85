// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pgtools reifies the dump.Bridge interface by executing the
// external PostgreSQL client utilities, pg_dump and psql, as
// subprocesses. Connection credentials are passed to the subprocess
// through its environment, scoped to that single invocation, so they
// never appear in a command line which is visible to other processes.
// A non-zero exit status of either utility is the sole failure signal;
// the captured standard error text is surfaced verbatim in the
// returned fault and never parsed for structured error codes.
package pgtools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/momeni/bulkmig/pkg/core/model"
)

// Bridge executes pg_dump against the source endpoint and psql against
// the destination endpoint. It is safe for sequential use only, which
// matches the strictly sequential batch loop of this tool.
type Bridge struct {
	src, dst model.Endpoint

	dumpPath string
	psqlPath string
}

// Option configures optional aspects of a Bridge during construction.
type Option func(*Bridge) error

// WithDumpPath overrides the discovered pg_dump executable path.
// It is mainly useful for tests and for hosts where the utilities are
// installed outside of PATH.
func WithDumpPath(path string) Option {
	return func(b *Bridge) error {
		if path == "" {
			return fmt.Errorf("empty pg_dump path")
		}
		b.dumpPath = path
		return nil
	}
}

// WithPsqlPath overrides the discovered psql executable path.
func WithPsqlPath(path string) Option {
	return func(b *Bridge) error {
		if path == "" {
			return fmt.Errorf("empty psql path")
		}
		b.psqlPath = path
		return nil
	}
}

// New instantiates a Bridge for the src and dst endpoints, locating
// the pg_dump and psql executables in PATH unless their paths are
// overridden by options. Missing utilities are reported here, before
// any migration work starts.
func New(src, dst model.Endpoint, opts ...Option) (*Bridge, error) {
	b := &Bridge{src: src, dst: dst}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	var err error
	if b.dumpPath == "" {
		if b.dumpPath, err = exec.LookPath("pg_dump"); err != nil {
			return nil, fmt.Errorf(
				"pg_dump not found; install the PostgreSQL client "+
					"tools and ensure they are in PATH: %w", err,
			)
		}
	}
	if b.psqlPath == "" {
		if b.psqlPath, err = exec.LookPath("psql"); err != nil {
			return nil, fmt.Errorf(
				"psql not found; install the PostgreSQL client "+
					"tools and ensure they are in PATH: %w", err,
			)
		}
	}
	return b, nil
}

// DumpPath returns the pg_dump executable path in use.
func (b *Bridge) DumpPath() string {
	return b.dumpPath
}

// PsqlPath returns the psql executable path in use.
func (b *Bridge) PsqlPath() string {
	return b.psqlPath
}

// Export runs pg_dump for dbName on the source endpoint, writing the
// artifact file to path. It returns the artifact size in bytes on
// success. The dump format selects between the default COPY
// representation and the portable INSERT representation.
func (b *Bridge) Export(
	ctx context.Context, dbName, path string, format model.Format,
) (int64, error) {
	if err := format.Validate(); err != nil {
		return 0, cerr.Export(err)
	}
	args := connArgs(b.src, dbName)
	args = append(args, "-f", path, "--no-password")
	if format == model.FormatInserts {
		args = append(args, "--inserts")
	}
	if err := b.run(ctx, b.dumpPath, args, b.src.Password); err != nil {
		return 0, cerr.Export(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, cerr.Export(fmt.Errorf(
			"pg_dump exited successfully but left no artifact: %w", err,
		))
	}
	return info.Size(), nil
}

// Import runs psql for dbName on the destination endpoint, applying
// the artifact file at path.
func (b *Bridge) Import(ctx context.Context, dbName, path string) error {
	args := connArgs(b.dst, dbName)
	args = append(args, "-f", path, "--no-password")
	if err := b.run(ctx, b.psqlPath, args, b.dst.Password); err != nil {
		return cerr.Import(err)
	}
	return nil
}

// connArgs builds the connection arguments which both utilities share.
// The password is deliberately absent; it travels via the subprocess
// environment only.
func connArgs(e model.Endpoint, dbName string) []string {
	return []string{
		"-h", e.Host,
		"-p", strconv.Itoa(e.Port),
		"-U", e.User,
		"-d", dbName,
	}
}

// run executes one utility invocation, injecting the password as
// PGPASSWORD into the environment of that subprocess alone and
// capturing its standard error for verbatim reporting.
func (b *Bridge) run(
	ctx context.Context, path string, args []string, password string,
) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+password)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			return fmt.Errorf("%s: %w", path, err)
		}
		return fmt.Errorf("%s: %w: %s", path, err, diag)
	}
	return nil
}
