// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/momeni/bulkmig/pkg/adapter/db/postgres/catalogrp"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/usecase/compareuc"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the database inventories of both servers",
	Long: `Compare the database inventories of both servers.
Each server's user databases are listed (system databases excluded)
and the three set differences are reported: databases which exist only
on the source, only on the destination, and on both. The listings are
sorted, so two runs over unchanged servers print identical output.`,
	RunE: compareServers,
}

func compareServers(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	srcPool, dstPool, closer, err := connect(ctx, s)
	if err != nil {
		return err
	}
	defer closer()
	uc := compareuc.New(srcPool, dstPool, catalogrp.New())
	cmp, err := uc.Compare(ctx)
	if err != nil {
		return fmt.Errorf("comparing inventories: %w", err)
	}
	printInventory(
		fmt.Sprintf("Source server (%s)", s.src.Host), cmp.Source,
	)
	printInventory(
		fmt.Sprintf("Destination server (%s)", s.dst.Host),
		cmp.Destination,
	)
	diff := cmp.Diff
	if len(diff.OnlyInSource) > 0 {
		printInventory(
			fmt.Sprintf("Only in source (%d)", len(diff.OnlyInSource)),
			diff.OnlyInSource,
		)
	}
	if len(diff.OnlyInDestination) > 0 {
		printInventory(
			fmt.Sprintf(
				"Only in destination (%d)", len(diff.OnlyInDestination),
			),
			diff.OnlyInDestination,
		)
	}
	if len(diff.Common) > 0 {
		printInventory(
			fmt.Sprintf("Common databases (%d)", len(diff.Common)),
			diff.Common,
		)
	}
	return nil
}

func printInventory(title string, inv model.Inventory) {
	fmt.Printf("%s:\n", title)
	for _, db := range inv {
		fmt.Printf("  - %s\n", db)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
