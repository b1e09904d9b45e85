// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/usecase/migrateuc"
	"github.com/spf13/cobra"
)

var migrateAllCmd = &cobra.Command{
	Use:   "migrate-all",
	Short: "Migrate all databases from source to destination",
	Long: `Migrate all user databases of the source server to the
destination server, one at a time. System databases are never
candidates and further names can be excluded with --exclude. Before
the first job, the migration plan is printed and an explicit
confirmation is required; --yes acknowledges it non-interactively.
One database's failure does not abort the batch: the remaining
databases are still attempted and the final summary reports every
outcome. With --summary-file, the summary is also written as json.`,
	RunE: migrateAll,
}

var (
	allOverwrite    bool
	allDropExisting bool
	allYes          bool
	excludeNames    []string
	summaryFile     string
)

func migrateAll(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	if allDropExisting && !allOverwrite {
		return fmt.Errorf("--drop-existing requires --overwrite")
	}
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	confirm := promptConfirmer
	if allYes {
		confirm = acceptAfterPlan
	}
	uc, closer, err := newMigrator(
		ctx, s, migrateuc.WithConfirmer(confirm),
	)
	if err != nil {
		return err
	}
	defer closer()
	fmt.Printf("Source: %s\n", s.src.Host)
	fmt.Printf("Destination: %s\n", s.dst.Host)
	fmt.Printf("Format: %s\n", s.format)
	summary, err := uc.MigrateAll(ctx, migrateuc.BatchRequest{
		Exclude:      excludeNames,
		Overwrite:    allOverwrite,
		DropExisting: allDropExisting,
	})
	if errors.Is(err, migrateuc.ErrCanceled) {
		fmt.Println("Migration canceled.")
		return nil
	}
	if err != nil {
		return err
	}
	printSummary(summary)
	if summaryFile != "" {
		if err := writeSummary(summaryFile, summary); err != nil {
			return fmt.Errorf("writing summary file: %w", err)
		}
		fmt.Printf("Summary written to %s\n", summaryFile)
	}
	if summary.Failed > 0 {
		return fmt.Errorf(
			"%d of %d databases failed", summary.Failed, summary.Total,
		)
	}
	return nil
}

// printPlan renders the migration plan: the candidate databases and
// any format caveat. It is printed before every batch run, whether the
// acknowledgment is interactive or given by --yes.
func printPlan(candidates model.Inventory, format model.Format) {
	printInventory(
		fmt.Sprintf("Databases to migrate (%d)", len(candidates)),
		candidates,
	)
	if format == model.FormatInserts {
		fmt.Println(
			"Note: the INSERT format is slower but more portable " +
				"than the COPY format.",
		)
	}
}

// acceptAfterPlan renders the migration plan and acknowledges it
// without prompting, for --yes runs.
func acceptAfterPlan(
	_ context.Context, candidates model.Inventory, format model.Format,
) (bool, error) {
	printPlan(candidates, format)
	return true, nil
}

// promptConfirmer renders the migration plan and asks the operator for
// an explicit acknowledgment on the terminal.
func promptConfirmer(
	_ context.Context, candidates model.Inventory, format model.Format,
) (bool, error) {
	printPlan(candidates, format)
	fmt.Print("Continue? (y/N): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printSummary(summary *migrateuc.Summary) {
	fmt.Println()
	if summary.Total == 0 {
		fmt.Println("No databases to migrate.")
		return
	}
	for _, res := range summary.Results {
		printResult(res)
	}
	fmt.Printf(
		"Succeeded: %d, failed: %d, total: %d\n",
		summary.Succeeded, summary.Failed, summary.Total,
	)
}

func writeSummary(path string, summary *migrateuc.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	migrateAllCmd.Flags().BoolVar(
		&allOverwrite, "overwrite", false,
		"overwrite databases which exist on the destination",
	)
	migrateAllCmd.Flags().BoolVar(
		&allDropExisting, "drop-existing", false,
		"with --overwrite, drop and recreate destination databases",
	)
	migrateAllCmd.Flags().BoolVarP(
		&allYes, "yes", "y", false,
		"acknowledge the migration plan without prompting",
	)
	migrateAllCmd.Flags().StringSliceVar(
		&excludeNames, "exclude", nil,
		"database names to exclude from the migration",
	)
	migrateAllCmd.Flags().StringVar(
		&summaryFile, "summary-file", "",
		"also write the batch summary to this json file",
	)
	rootCmd.AddCommand(migrateAllCmd)
}
