// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/momeni/bulkmig/pkg/adapter/pgtools"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Validate the connections to both servers",
	Long: `Validate the prerequisites of a migration without changing
anything: locate the external pg_dump and psql utilities, report the
selected dump format, and open (and immediately close) one connection
to the maintenance database of each server.`,
	RunE: testConnections,
}

func testConnections(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	bridge, err := pgtools.New(s.src, s.dst)
	if err != nil {
		return err
	}
	fmt.Printf("pg_dump: %s\n", bridge.DumpPath())
	fmt.Printf("psql: %s\n", bridge.PsqlPath())
	fmt.Printf("dump format: %s\n", s.format)
	_, _, closer, err := connect(ctx, s)
	if err != nil {
		return err
	}
	defer closer()
	fmt.Printf("source connection successful (%s)\n", s.src.Host)
	fmt.Printf("destination connection successful (%s)\n", s.dst.Host)
	return nil
}

func init() {
	rootCmd.AddCommand(testCmd)
}
