// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrateuc_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/momeni/bulkmig/pkg/core/cerr"
	"github.com/momeni/bulkmig/pkg/core/model"
	"github.com/momeni/bulkmig/pkg/core/repo"
	"github.com/momeni/bulkmig/pkg/core/usecase/migrateuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer simulates the catalog of one database server, counting
// the catalog operations which reach it.
type fakeServer struct {
	databases []string

	listErr   error
	existsErr error
	createErr error
	dropErr   error

	existsCalls int
	createCalls int
	dropCalls   int
}

func (s *fakeServer) has(name string) bool {
	for _, db := range s.databases {
		if db == name {
			return true
		}
	}
	return false
}

type fakeConn struct {
	server *fakeServer
}

func (fakeConn) Exec(context.Context, string, ...any) (int64, error) {
	return 0, nil
}

func (fakeConn) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, errors.New("not supported by the fake connection")
}

func (fakeConn) IsConn() {}

type fakePool struct {
	server *fakeServer
}

func (p fakePool) Conn(ctx context.Context, h repo.ConnHandler) error {
	return h(ctx, fakeConn{server: p.server})
}

func (p fakePool) Close() error {
	return nil
}

type fakeCatalog struct{}

func (fakeCatalog) Conn(c repo.Conn) repo.CatalogQueryer {
	return fakeQueryer{server: c.(fakeConn).server}
}

type fakeQueryer struct {
	server *fakeServer
}

func (q fakeQueryer) ListDatabases(
	_ context.Context, excludeSystem bool,
) (model.Inventory, error) {
	if q.server.listErr != nil {
		return nil, cerr.Query(q.server.listErr)
	}
	var inv model.Inventory
	for _, db := range q.server.databases {
		if excludeSystem && model.IsSystemDatabase(db) {
			continue
		}
		inv = append(inv, db)
	}
	sort.Strings(inv)
	return inv, nil
}

func (q fakeQueryer) DatabaseExists(
	_ context.Context, dbName string,
) (model.Existence, error) {
	q.server.existsCalls++
	if q.server.existsErr != nil {
		return model.CheckFailed, cerr.Query(q.server.existsErr)
	}
	if q.server.has(dbName) {
		return model.Exists, nil
	}
	return model.NotExists, nil
}

func (q fakeQueryer) CreateDatabase(
	_ context.Context, dbName string,
) error {
	q.server.createCalls++
	if q.server.createErr != nil {
		return cerr.Create(q.server.createErr)
	}
	q.server.databases = append(q.server.databases, dbName)
	return nil
}

func (q fakeQueryer) DropDatabase(
	_ context.Context, dbName string,
) error {
	q.server.dropCalls++
	if q.server.dropErr != nil {
		return cerr.Create(q.server.dropErr)
	}
	kept := q.server.databases[:0]
	for _, db := range q.server.databases {
		if db != dbName {
			kept = append(kept, db)
		}
	}
	q.server.databases = kept
	return nil
}

// fakeBridge simulates the external dump and restore utilities. Export
// writes an actual artifact file, so the artifact lifetime invariants
// can be checked against the filesystem.
type fakeBridge struct {
	exportErr map[string]error
	importErr map[string]error

	exportCalls int
	importCalls int
	lastPath    string
}

func (b *fakeBridge) Export(
	_ context.Context, dbName, path string, _ model.Format,
) (int64, error) {
	b.exportCalls++
	b.lastPath = path
	if err := b.exportErr[dbName]; err != nil {
		return 0, cerr.Export(err)
	}
	data := []byte("-- dump of " + dbName + "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, cerr.Export(err)
	}
	return int64(len(data)), nil
}

func (b *fakeBridge) Import(
	_ context.Context, dbName, path string,
) error {
	b.importCalls++
	if _, err := os.Stat(path); err != nil {
		return cerr.Import(fmt.Errorf("missing artifact: %w", err))
	}
	if err := b.importErr[dbName]; err != nil {
		return cerr.Import(err)
	}
	return nil
}

type fixture struct {
	src, dst *fakeServer
	bridge   *fakeBridge
	uc       *migrateuc.UseCase
	workDir  string
}

func newFixture(
	t *testing.T, src, dst *fakeServer, opts ...migrateuc.Option,
) *fixture {
	t.Helper()
	workDir := t.TempDir()
	bridge := &fakeBridge{
		exportErr: map[string]error{},
		importErr: map[string]error{},
	}
	opts = append(
		[]migrateuc.Option{migrateuc.WithWorkDir(workDir)}, opts...,
	)
	uc, err := migrateuc.New(
		fakePool{server: src}, fakePool{server: dst},
		fakeCatalog{}, bridge, opts...,
	)
	require.NoError(t, err)
	return &fixture{
		src: src, dst: dst, bridge: bridge, uc: uc, workDir: workDir,
	}
}

// requireNoArtifacts asserts the artifact lifetime invariant: no
// artifact file survives a finished job.
func (f *fixture) requireNoArtifacts(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMigrateOneSuccess(t *testing.T) {
	f := newFixture(t, &fakeServer{}, &fakeServer{})
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	assert.True(t, res.Succeeded())
	assert.Equal(t, migrateuc.StateCleaned, res.State)
	assert.Positive(t, res.ArtifactBytes)
	assert.Equal(t, 1, f.bridge.exportCalls)
	assert.Equal(t, 1, f.bridge.importCalls)
	assert.Equal(t, 1, f.dst.createCalls)
	assert.True(t, f.dst.has("app_db"))
	f.requireNoArtifacts(t)
}

func TestMigrateOneArtifactNaming(t *testing.T) {
	frozen := time.Date(2025, 2, 17, 15, 30, 12, 0, time.UTC)
	f := newFixture(
		t, &fakeServer{}, &fakeServer{},
		migrateuc.WithClock(func() time.Time { return frozen }),
	)
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	require.True(t, res.Succeeded())
	assert.Equal(
		t,
		filepath.Join(f.workDir, "app_db_20250217_153012.sql"),
		f.bridge.lastPath,
	)
}

func TestMigrateOneAlreadyExists(t *testing.T) {
	dst := &fakeServer{databases: []string{"app_db"}}
	f := newFixture(t, &fakeServer{}, dst)
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	assert.Equal(t, migrateuc.StateFailed, res.State)
	assert.Equal(t, cerr.KindAlreadyExists, res.Reason)
	// the refusal must happen before any wasted utility work
	assert.Zero(t, f.bridge.exportCalls)
	assert.Zero(t, f.bridge.importCalls)
	assert.Zero(t, dst.createCalls)
	f.requireNoArtifacts(t)
}

func TestMigrateOneOverwriteOverlay(t *testing.T) {
	dst := &fakeServer{databases: []string{"app_db"}}
	f := newFixture(t, &fakeServer{}, dst)
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", true, false),
	)
	assert.True(t, res.Succeeded())
	// existing database is restored onto, not recreated
	assert.Zero(t, dst.dropCalls)
	assert.Zero(t, dst.createCalls)
	f.requireNoArtifacts(t)
}

func TestMigrateOneOverwriteReplace(t *testing.T) {
	dst := &fakeServer{databases: []string{"app_db"}}
	f := newFixture(t, &fakeServer{}, dst)
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", true, true),
	)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 1, dst.dropCalls)
	assert.Equal(t, 1, dst.createCalls)
	assert.True(t, dst.has("app_db"))
	f.requireNoArtifacts(t)
}

func TestMigrateOneExportFailed(t *testing.T) {
	f := newFixture(t, &fakeServer{}, &fakeServer{})
	f.bridge.exportErr["app_db"] = errors.New("pg_dump exploded")
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	assert.Equal(t, migrateuc.StateFailed, res.State)
	assert.Equal(t, cerr.KindExport, res.Reason)
	assert.Contains(t, res.Detail, "pg_dump exploded")
	assert.Zero(t, f.bridge.importCalls)
	f.requireNoArtifacts(t)
}

func TestMigrateOneCreateFailed(t *testing.T) {
	dst := &fakeServer{createErr: errors.New("permission denied")}
	f := newFixture(t, &fakeServer{}, dst)
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	assert.Equal(t, migrateuc.StateFailed, res.State)
	assert.Equal(t, cerr.KindCreate, res.Reason)
	assert.Equal(t, 1, f.bridge.exportCalls)
	assert.Zero(t, f.bridge.importCalls)
	// cleanup-on-failure invariant for the exported artifact
	f.requireNoArtifacts(t)
}

func TestMigrateOneImportFailed(t *testing.T) {
	f := newFixture(t, &fakeServer{}, &fakeServer{})
	f.bridge.importErr["app_db"] = errors.New("psql exploded")
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	assert.Equal(t, migrateuc.StateFailed, res.State)
	assert.Equal(t, cerr.KindImport, res.Reason)
	assert.Positive(t, res.ArtifactBytes)
	f.requireNoArtifacts(t)
}

func TestMigrateOneExistenceCheckDegrades(t *testing.T) {
	dst := &fakeServer{existsErr: errors.New("catalog unavailable")}
	f := newFixture(t, &fakeServer{}, dst)
	res := f.uc.MigrateOne(
		context.Background(), migrateuc.NewJob("app_db", false, false),
	)
	// a failing advisory check must not abort the job
	assert.True(t, res.Succeeded())
	assert.Equal(t, 1, f.bridge.exportCalls)
	assert.Equal(t, 1, dst.createCalls)
	f.requireNoArtifacts(t)
}

func TestMigrateAllContinuesAfterFailure(t *testing.T) {
	src := &fakeServer{databases: []string{
		"app_db", "billing_db", "users_db", "template0", "postgres",
	}}
	f := newFixture(t, src, &fakeServer{})
	f.bridge.exportErr["billing_db"] = errors.New("boom")
	summary, err := f.uc.MigrateAll(
		context.Background(), migrateuc.BatchRequest{},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, summary.Total, summary.Succeeded+summary.Failed)
	require.Len(t, summary.Results, 3)
	// candidates are walked in lexicographic order
	assert.Equal(t, "app_db", summary.Results[0].Job.Database)
	assert.Equal(t, "billing_db", summary.Results[1].Job.Database)
	assert.Equal(t, "users_db", summary.Results[2].Job.Database)
	assert.False(t, summary.Results[1].Succeeded())
	// the third database is still attempted after the second failed
	assert.True(t, summary.Results[2].Succeeded())
	assert.Equal(t, 3, f.bridge.exportCalls)
	f.requireNoArtifacts(t)
}

func TestMigrateAllExcludesByExactName(t *testing.T) {
	src := &fakeServer{databases: []string{"app_db", "billing_db"}}
	var confirmed model.Inventory
	confirm := func(
		_ context.Context, candidates model.Inventory, _ model.Format,
	) (bool, error) {
		confirmed = candidates
		return true, nil
	}
	f := newFixture(
		t, src, &fakeServer{}, migrateuc.WithConfirmer(confirm),
	)
	summary, err := f.uc.MigrateAll(
		context.Background(),
		migrateuc.BatchRequest{Exclude: []string{"billing_db"}},
	)
	require.NoError(t, err)
	assert.Equal(t, model.Inventory{"app_db"}, confirmed)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestMigrateAllCanceled(t *testing.T) {
	src := &fakeServer{databases: []string{"app_db"}}
	reject := func(
		context.Context, model.Inventory, model.Format,
	) (bool, error) {
		return false, nil
	}
	f := newFixture(
		t, src, &fakeServer{}, migrateuc.WithConfirmer(reject),
	)
	summary, err := f.uc.MigrateAll(
		context.Background(), migrateuc.BatchRequest{},
	)
	assert.ErrorIs(t, err, migrateuc.ErrCanceled)
	assert.Nil(t, summary)
	assert.Zero(t, f.bridge.exportCalls)
}

func TestMigrateAllEmptyInventory(t *testing.T) {
	src := &fakeServer{databases: []string{"postgres", "template0"}}
	confirmCalls := 0
	confirm := func(
		context.Context, model.Inventory, model.Format,
	) (bool, error) {
		confirmCalls++
		return true, nil
	}
	f := newFixture(
		t, src, &fakeServer{}, migrateuc.WithConfirmer(confirm),
	)
	summary, err := f.uc.MigrateAll(
		context.Background(), migrateuc.BatchRequest{},
	)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, confirmCalls)
}

func TestMigrateAllAbortsWithoutInventory(t *testing.T) {
	src := &fakeServer{listErr: errors.New("connection reset")}
	f := newFixture(t, src, &fakeServer{})
	summary, err := f.uc.MigrateAll(
		context.Background(), migrateuc.BatchRequest{},
	)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.Is(err, cerr.Query(nil)))
}

func TestSourceInventoryExcludesSystemDatabases(t *testing.T) {
	src := &fakeServer{databases: []string{
		"billing_db", "template0", "app_db",
	}}
	f := newFixture(t, src, &fakeServer{})
	inv, err := f.uc.SourceInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Inventory{"app_db", "billing_db"}, inv)
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	bridge := &fakeBridge{}
	_, err := migrateuc.New(
		fakePool{server: &fakeServer{}}, fakePool{server: &fakeServer{}},
		fakeCatalog{}, bridge,
		migrateuc.WithFormat("tar"),
	)
	assert.Error(t, err)

	_, err = migrateuc.New(
		fakePool{server: &fakeServer{}}, fakePool{server: &fakeServer{}},
		fakeCatalog{}, bridge,
		migrateuc.WithWorkDir(t.TempDir()),
		migrateuc.WithWorkDir(t.TempDir()),
	)
	assert.Error(t, err)
}
