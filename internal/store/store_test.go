package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite3", ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePackage(id string, at time.Time) *model.ServerPackage {
	return &model.ServerPackage{
		ID: id,
		Requirements: model.ServerRequirements{
			Description:          "notes server " + id,
			TargetClients:        []string{"Claude Desktop"},
			DeploymentPreference: model.DeployLocal,
		},
		Artifact: model.GeneratedArtifact{SourceText: "src", Language: model.LanguageTypeScript},
		Verdict:  model.ComplianceVerdict{IsValid: true, Violations: []model.Violation{}, CatalogVersion: "2025.1"},
		Bundles: map[model.TargetKind]model.DeploymentBundle{
			model.TargetLocal: {TargetKind: model.TargetLocal, Files: map[string]string{"run.sh": "node build/index.js"}},
		},
		GeneratedAt: at,
	}
}

func TestStore_SaveGetRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, samplePackage("a", at)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "notes server a", got.Requirements.Description)
	assert.Equal(t, "node build/index.js", got.Bundles[model.TargetLocal].Files["run.sh"])
	assert.True(t, got.GeneratedAt.Equal(at))
}

func TestStore_SaveReplaces(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	pkg := samplePackage("a", time.Now())
	require.NoError(t, s.Save(ctx, pkg))

	pkg.Refined = true
	require.NoError(t, s.Save(ctx, pkg))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Refined)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := newSQLiteStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Save(ctx, samplePackage(id, base.Add(time.Duration(i)*time.Hour))))
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "typescript", list[0].Language)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_SaveRejectsMissingID(t *testing.T) {
	assert.Error(t, newSQLiteStore(t).Save(context.Background(), &model.ServerPackage{}))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)

	d, err = DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestStore_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := New(db, DialectPostgres, nil)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM server_packages WHERE id = $1`)).
		WithArgs("x").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(`{"id":"x","documentation":"doc"}`))

	pkg, err := s.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "doc", pkg.Documentation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MigrateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS server_packages").WillReturnError(errors.New("permission denied"))

	err = New(db, DialectPostgres, nil).Migrate(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id, description").
		WithArgs(5).
		WillReturnError(sql.ErrConnDone)

	_, err = New(db, DialectPostgres, nil).List(context.Background(), 5)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
