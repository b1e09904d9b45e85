// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/momeni/bulkmig/pkg/adapter/config"
	"github.com/momeni/bulkmig/pkg/adapter/db/postgres"
	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/repo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// settings is the effective, merged configuration of one invocation:
// config file values overridden by flags, with passwords resolved from
// the environment or an interactive prompt as a last resort.
type settings struct {
	src, dst model.Endpoint
	format   model.Format
	workDir  string
}

// resolveSettings merges the optional config file with the flag
// overrides and validates the two resulting endpoints.
func resolveSettings(cmd *cobra.Command) (*settings, error) {
	c := config.Default()
	if cfgPath != "" {
		var err error
		if c, err = config.Load(cfgPath); err != nil {
			return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
		}
	}
	if srcHost != "" {
		c.Source.Host = srcHost
	}
	if srcUser != "" {
		c.Source.User = srcUser
	}
	if srcPassword != "" {
		c.Source.Password = srcPassword
	}
	if dstHost != "" {
		c.Destination.Host = dstHost
	}
	if dstUser != "" {
		c.Destination.User = dstUser
	}
	if dstPassword != "" {
		c.Destination.Password = dstPassword
	}
	if cmd.Flags().Changed("port") {
		c.Port = port
	}
	if workDir != "" {
		c.WorkDir = workDir
	}
	if useInserts {
		c.UseInserts = true
	}
	if err := resolvePasswords(c); err != nil {
		return nil, err
	}
	s := &settings{
		src:     c.Endpoint(model.SourceRole),
		dst:     c.Endpoint(model.DestinationRole),
		format:  c.Format(),
		workDir: c.WorkDir,
	}
	if err := s.src.Validate(); err != nil {
		return nil, err
	}
	if err := s.dst.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// resolvePasswords falls back to the environment and then to an
// interactive prompt for each password which neither the flags nor the
// config file supplied. Passwords are never accepted as positional
// arguments and are only handed to subprocesses via their environment.
func resolvePasswords(c *config.Config) error {
	if c.Source.Password == "" {
		c.Source.Password = os.Getenv("BULKMIG_SOURCE_PASSWORD")
	}
	if c.Destination.Password == "" {
		c.Destination.Password = os.Getenv("BULKMIG_DEST_PASSWORD")
	}
	var err error
	if c.Source.Password == "" {
		c.Source.Password, err = promptPassword("Source password: ")
		if err != nil {
			return fmt.Errorf("source password: %w", err)
		}
	}
	if c.Destination.Password == "" {
		c.Destination.Password, err = promptPassword(
			"Destination password: ",
		)
		if err != nil {
			return fmt.Errorf("destination password: %w", err)
		}
	}
	return nil
}

// promptPassword reads a password from the terminal without echoing
// it. Outside of a terminal the password must come from a flag, the
// config file, or the environment instead.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf(
			"no password given and stdin is not a terminal",
		)
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pass), nil
}

// connect probes both endpoints by opening one connection pool per
// server against its maintenance database. Any network, auth, or
// protocol error is reported as a cerr.Connection fault and aborts the
// enclosing action; no automatic retrying is performed.
func connect(ctx context.Context, s *settings) (
	srcPool, dstPool repo.Pool, closer func(), err error,
) {
	srcPool, err = postgres.NewPool(ctx, s.src.AdminDSN())
	if err != nil {
		return nil, nil, nil, cerr.Connection(fmt.Errorf(
			"connecting to source (%s): %w", s.src.Host, err,
		))
	}
	dstPool, err = postgres.NewPool(ctx, s.dst.AdminDSN())
	if err != nil {
		srcPool.Close()
		return nil, nil, nil, cerr.Connection(fmt.Errorf(
			"connecting to destination (%s): %w", s.dst.Host, err,
		))
	}
	closer = func() {
		_ = srcPool.Close()
		_ = dstPool.Close()
	}
	return srcPool, dstPool, closer, nil
}
