// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pgtools_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/momeni/bulkmig/pkg/adapter/pgtools"
	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	srcEndpoint = model.Endpoint{
		Role:     model.SourceRole,
		Host:     "src.example.org",
		Port:     5432,
		User:     "postgres",
		Password: "src-secret",
	}
	dstEndpoint = model.Endpoint{
		Role:     model.DestinationRole,
		Host:     "dst.example.org",
		Port:     5433,
		User:     "postgres",
		Password: "dst-secret",
	}
)

// writeScript creates an executable shell script which records its
// arguments and the PGPASSWORD it received, then runs the given body.
// It stands in for the real pg_dump and psql binaries.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > \"" + dir + "/" + name + ".args\"\n" +
		"printf '%s' \"$PGPASSWORD\" > \"" + dir + "/" + name + ".pw\"\n" +
		body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func recordedArgs(t *testing.T, dir, name string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name+".args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func recordedPassword(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name+".pw"))
	require.NoError(t, err)
	return string(data)
}

func newBridge(t *testing.T, dumpBody, psqlBody string) (
	*pgtools.Bridge, string,
) {
	t.Helper()
	dir := t.TempDir()
	dump := writeScript(t, dir, "pg_dump", dumpBody)
	psql := writeScript(t, dir, "psql", psqlBody)
	b, err := pgtools.New(
		srcEndpoint, dstEndpoint,
		pgtools.WithDumpPath(dump),
		pgtools.WithPsqlPath(psql),
	)
	require.NoError(t, err)
	return b, dir
}

// dumpToArtifact makes the fake pg_dump honor its -f argument the way
// the real utility does, writing a non-empty artifact file.
const dumpToArtifact = `
while [ $# -gt 1 ]; do
  if [ "$1" = "-f" ]; then printf 'SELECT 1;\n' > "$2"; fi
  shift
done`

func TestExport(t *testing.T) {
	b, dir := newBridge(t, dumpToArtifact, "exit 0")
	artifact := filepath.Join(dir, "app_db.sql")
	size, err := b.Export(
		context.Background(), "app_db", artifact, model.FormatCopy,
	)
	require.NoError(t, err)
	assert.Equal(t, int64(len("SELECT 1;\n")), size)

	args := recordedArgs(t, dir, "pg_dump")
	assert.Equal(t, []string{
		"-h", "src.example.org",
		"-p", "5432",
		"-U", "postgres",
		"-d", "app_db",
		"-f", artifact,
		"--no-password",
	}, args)
	// credentials travel via the environment, never via argv
	assert.NotContains(t, args, "src-secret")
	assert.Equal(t, "src-secret", recordedPassword(t, dir, "pg_dump"))
}

func TestExportInsertsFormat(t *testing.T) {
	b, dir := newBridge(t, dumpToArtifact, "exit 0")
	artifact := filepath.Join(dir, "app_db.sql")
	_, err := b.Export(
		context.Background(), "app_db", artifact, model.FormatInserts,
	)
	require.NoError(t, err)
	args := recordedArgs(t, dir, "pg_dump")
	assert.Equal(t, "--inserts", args[len(args)-1])
}

func TestExportRejectsInvalidFormat(t *testing.T) {
	b, _ := newBridge(t, dumpToArtifact, "exit 0")
	_, err := b.Export(
		context.Background(), "app_db", "unused.sql", model.Format("tar"),
	)
	require.Error(t, err)
	assert.True(t, hasKind(err, cerr.KindExport))
}

func TestExportFailure(t *testing.T) {
	b, dir := newBridge(
		t, `echo 'pg_dump: error: connection refused' >&2; exit 1`,
		"exit 0",
	)
	artifact := filepath.Join(dir, "app_db.sql")
	_, err := b.Export(
		context.Background(), "app_db", artifact, model.FormatCopy,
	)
	require.Error(t, err)
	assert.True(t, hasKind(err, cerr.KindExport))
	// the diagnostic text is surfaced verbatim, not parsed
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExportMissingArtifact(t *testing.T) {
	b, dir := newBridge(t, "exit 0", "exit 0")
	artifact := filepath.Join(dir, "app_db.sql")
	_, err := b.Export(
		context.Background(), "app_db", artifact, model.FormatCopy,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no artifact")
}

func TestImport(t *testing.T) {
	b, dir := newBridge(t, dumpToArtifact, "exit 0")
	artifact := filepath.Join(dir, "app_db.sql")
	require.NoError(t, os.WriteFile(artifact, []byte("SELECT 1;\n"), 0o644))
	err := b.Import(context.Background(), "app_db", artifact)
	require.NoError(t, err)

	args := recordedArgs(t, dir, "psql")
	assert.Equal(t, []string{
		"-h", "dst.example.org",
		"-p", "5433",
		"-U", "postgres",
		"-d", "app_db",
		"-f", artifact,
		"--no-password",
	}, args)
	assert.NotContains(t, args, "dst-secret")
	assert.Equal(t, "dst-secret", recordedPassword(t, dir, "psql"))
}

func TestImportFailure(t *testing.T) {
	b, dir := newBridge(
		t, dumpToArtifact,
		`echo 'psql: error: syntax error at line 3' >&2; exit 3`,
	)
	err := b.Import(
		context.Background(), "app_db", filepath.Join(dir, "x.sql"),
	)
	require.Error(t, err)
	assert.True(t, hasKind(err, cerr.KindImport))
	assert.Contains(t, err.Error(), "syntax error at line 3")
}

func TestNewRejectsEmptyOverrides(t *testing.T) {
	_, err := pgtools.New(
		srcEndpoint, dstEndpoint, pgtools.WithDumpPath(""),
	)
	assert.Error(t, err)
	_, err = pgtools.New(
		srcEndpoint, dstEndpoint, pgtools.WithPsqlPath(""),
	)
	assert.Error(t, err)
}

func hasKind(err error, kind cerr.Kind) bool {
	k, ok := cerr.KindOf(err)
	return ok && k == kind
}
