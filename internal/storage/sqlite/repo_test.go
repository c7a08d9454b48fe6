package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(tb testing.TB, table string) *Repository {
	tb.Helper()
	r, err := Open(context.Background(), Config{DSN: ":memory:", Table: table})
	require.NoError(tb, err)
	tb.Cleanup(r.Close)
	return r
}

func mustExec(tb testing.TB, r *Repository, stmt string) {
	tb.Helper()
	require.NoError(tb, r.Exec(context.Background(), stmt), stmt)
}

func count(tb testing.TB, db *sql.DB, table string) int {
	tb.Helper()
	var n int
	require.NoError(tb, db.QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.ErrorContains(t, err, "DSN must not be empty")
}

func TestRegistration_UsesOpenHook(t *testing.T) {
	orig := open
	t.Cleanup(func() { open = orig })

	var got Config
	open = func(ctx context.Context, cfg Config) (*Repository, error) {
		got = cfg
		return orig(ctx, Config{DSN: ":memory:", Table: cfg.Table})
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: "out/admissions.db", Table: "admissions"})
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, Config{DSN: "out/admissions.db", Table: "admissions"}, got)
	assert.IsType(t, &Repository{}, repo)

	open = func(context.Context, Config) (*Repository, error) { return nil, errors.New("locked") }
	repo, err = storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: "x.db", Table: "t"})
	assert.EqualError(t, err, "locked")
	assert.Nil(t, repo, "a failed open must not yield a typed nil repository")
}

func TestInsertSQL(t *testing.T) {
	r := &Repository{cfg: Config{Table: "main.admissions"}}
	assert.Equal(t,
		`INSERT INTO "main"."admissions" ("Patient ID", "Sepsis") VALUES (?, ?)`,
		r.insertSQL([]string{"Patient ID", "Sepsis"}))
}

func TestCopyFromAndTruncate(t *testing.T) {
	r := newRepo(t, "vitals")
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "vitals" ("Heart rate" REAL, "Sepsis" INTEGER, "Note" TEXT)`)

	n, err := r.CopyFrom(ctx, []string{"Heart rate", "Sepsis", "Note"}, [][]any{
		{88.5, true, "a"},
		{102.0, false, nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 2, count(t, r.db, "vitals"))

	var note sql.NullString
	require.NoError(t, r.db.QueryRow(`SELECT "Note" FROM "vitals" WHERE "Sepsis" = 0`).Scan(&note))
	assert.False(t, note.Valid)

	require.NoError(t, r.Truncate(ctx))
	assert.Equal(t, 0, count(t, r.db, "vitals"))
}

func TestCopyFrom_Errors(t *testing.T) {
	r := newRepo(t, "t")
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "t" (a INTEGER)`)

	_, err := r.CopyFrom(ctx, nil, [][]any{{1}})
	assert.ErrorContains(t, err, "columns must not be empty")

	_, err = r.CopyFrom(ctx, []string{"a"}, [][]any{{1}, {1, 2}})
	assert.ErrorContains(t, err, "row 1 has 2 values for 1 columns")
	assert.Equal(t, 0, count(t, r.db, "t"), "failed batch is rolled back")

	n, err := r.CopyFrom(ctx, []string{"a"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// TestSinkEndToEnd writes a prepared table through storage.Open, creating
// the table from the column types.
func TestSinkEndToEnd(t *testing.T) {
	tb, err := dataset.FromRows([]string{"Sex", "Diagnosis_Lung", "Sepsis", "NEWS2"}, [][]dataset.Value{
		{dataset.Number(1), dataset.Number(1), dataset.Bool(true), dataset.Number(5)},
		{dataset.Number(0), dataset.Number(0), dataset.Bool(false), dataset.Number(2)},
		{dataset.Number(1), dataset.Number(0), dataset.Bool(false), dataset.Number(7)},
	})
	require.NoError(t, err)
	tb.ColumnAt(1).Type = dataset.TypeIndicator
	tb.ColumnAt(2).Type = dataset.TypeBoolean
	tb.ColumnAt(3).Type = dataset.TypeOrdinal

	var opened *Repository
	orig := open
	t.Cleanup(func() { open = orig })
	open = func(ctx context.Context, cfg Config) (*Repository, error) {
		r, err := orig(ctx, cfg)
		opened = r
		return r, err
	}

	ctx := context.Background()
	cfg := config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: ":memory:", Table: "admissions", AutoCreateTable: true, Truncate: true}}
	s, err := storage.Open(ctx, cfg, storage.Options{Logger: zerolog.Nop(), BatchSize: 2})
	require.NoError(t, err)
	defer s.Close()

	for range 2 {
		n, err := s.Write(ctx, tb)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	}
	require.NotNil(t, opened)
	assert.Equal(t, 3, count(t, opened.db, "admissions"), "truncate runs before every load")

	var news2 int64
	var sepsis int64
	require.NoError(t, opened.db.QueryRow(`SELECT "NEWS2", "Sepsis" FROM "admissions" WHERE "Diagnosis_Lung" = 1`).Scan(&news2, &sepsis))
	assert.EqualValues(t, 5, news2)
	assert.EqualValues(t, 1, sepsis)

	var ddlText string
	require.NoError(t, opened.db.QueryRow(`SELECT sql FROM sqlite_master WHERE name = 'admissions'`).Scan(&ddlText))
	assert.Contains(t, ddlText, `"Sex" REAL`)
	assert.Contains(t, ddlText, `"Diagnosis_Lung" INTEGER`)
}
