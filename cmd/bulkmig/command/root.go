// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of the bulkmig
// tool. Commands are organized using the cobra library.
// Four actions are supported. The test action validates the
// connections to both servers, the compare action diffs their database
// inventories, and the migrate-single and migrate-all actions move one
// or all databases from the source server to the destination server
// through the external pg_dump and psql utilities.
//
//	./bulkmig test --source-host A --dest-host B ...
//	./bulkmig compare ...
//	./bulkmig migrate-single mydb [--overwrite] ...
//	./bulkmig migrate-all [--exclude name ...] [--overwrite] [--yes] ...
package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string

	srcHost, srcUser, srcPassword string
	dstHost, dstUser, dstPassword string

	port       int
	useInserts bool
	workDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "bulkmig",
	Short: "Bulk PostgreSQL database migration between two servers",
	Long: `Bulk PostgreSQL database migration between two servers.
It discovers the databases of a source server, exports each of them
with pg_dump into a transient artifact file, provisions the matching
database on a destination server, and restores the artifact there with
psql, one database at a time.
Connection settings may be given by flags, a yaml config file (-c), or
for the passwords, the BULKMIG_SOURCE_PASSWORD and BULKMIG_DEST_PASSWORD
environment variables or an interactive prompt. Flags take precedence
over the config file. The dump format defaults to COPY statements;
--use-inserts selects the slower but maximally portable INSERT format.`,
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. Errors are printed
// to the standard error stream and reported with a non-zero exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath, setupLogging)
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "config file path")
	pf.StringVar(&srcHost, "source-host", "", "source database host")
	pf.StringVar(&srcUser, "source-user", "", "source database user (default postgres)")
	pf.StringVar(&srcPassword, "source-password", "", "source database password (or BULKMIG_SOURCE_PASSWORD env)")
	pf.StringVar(&dstHost, "dest-host", "", "destination database host")
	pf.StringVar(&dstUser, "dest-user", "", "destination database user (default postgres)")
	pf.StringVar(&dstPassword, "dest-password", "", "destination database password (or BULKMIG_DEST_PASSWORD env)")
	pf.IntVar(&port, "port", 0, "database port shared by both servers (default 5432)")
	pf.BoolVar(&useInserts, "use-inserts", false, "dump with INSERT statements instead of COPY (slower but more portable)")
	pf.StringVar(&workDir, "work-dir", "", "directory for transient artifact files (default migration_temp)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args or the BULKMIG_CONFIG environment variable. An empty path
// means that no config file is loaded and the built-in defaults apply.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	cfgPath = os.Getenv("BULKMIG_CONFIG")
}

// setupLogging installs the default slog logger on the standard error
// stream, keeping stdout for the operator-facing action output.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr, &slog.HandlerOptions{Level: level},
	)))
}
