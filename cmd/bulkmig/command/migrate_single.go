// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/momeni/bulkmig/pkg/adapter/db/postgres/catalogrp"
	"github.com/momeni/bulkmig/pkg/adapter/pgtools"
	"github.com/momeni/bulkmig/pkg/core/usecase/migrateuc"
	"github.com/spf13/cobra"
)

var migrateSingleCmd = &cobra.Command{
	Use:   "migrate-single <database>",
	Short: "Migrate a single database from source to destination",
	Long: `Migrate a single database from the source server to the
destination server: export it with pg_dump into a transient artifact
file, create the database on the destination if it is absent, restore
the artifact with psql, and remove the artifact.
Without --overwrite, an existing destination database with the same
name fails the migration before any export work. With --overwrite, the
restore is applied onto the existing database (additive overlay); add
--drop-existing to drop and recreate it for a clean replacement.`,
	RunE: migrateSingle,
	Args: cobra.ExactArgs(1),
}

var (
	overwrite    bool
	dropExisting bool
)

func migrateSingle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if dropExisting && !overwrite {
		return fmt.Errorf("--drop-existing requires --overwrite")
	}
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	uc, closer, err := newMigrator(ctx, s)
	if err != nil {
		return err
	}
	defer closer()
	job := migrateuc.NewJob(args[0], overwrite, dropExisting)
	res := uc.MigrateOne(ctx, job)
	printResult(res)
	if !res.Succeeded() {
		return fmt.Errorf("migrating %q failed", res.Job.Database)
	}
	return nil
}

// newMigrator wires the migration use case: it probes both endpoint
// connections, locates the external utilities, and configures the
// working directory and dump format. The extra options let the batch
// command install its confirmation step.
func newMigrator(
	ctx context.Context, s *settings, extra ...migrateuc.Option,
) (*migrateuc.UseCase, func(), error) {
	bridge, err := pgtools.New(s.src, s.dst)
	if err != nil {
		return nil, nil, err
	}
	srcPool, dstPool, closer, err := connect(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	opts := append([]migrateuc.Option{
		migrateuc.WithWorkDir(s.workDir),
		migrateuc.WithFormat(s.format),
	}, extra...)
	uc, err := migrateuc.New(
		srcPool, dstPool, catalogrp.New(), bridge, opts...,
	)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("migrateuc.New: %w", err)
	}
	return uc, closer, nil
}

// printResult renders one job outcome as a single stdout line.
func printResult(res migrateuc.Result) {
	if res.Succeeded() {
		fmt.Printf(
			"ok: %s (%d bytes)\n", res.Job.Database, res.ArtifactBytes,
		)
		return
	}
	fmt.Printf(
		"failed: %s [%s] %s\n", res.Job.Database, res.Reason, res.Detail,
	)
}

func init() {
	migrateSingleCmd.Flags().BoolVar(
		&overwrite, "overwrite", false,
		"overwrite if the database exists on the destination",
	)
	migrateSingleCmd.Flags().BoolVar(
		&dropExisting, "drop-existing", false,
		"with --overwrite, drop and recreate the destination database",
	)
	rootCmd.AddCommand(migrateSingleCmd)
}
