package xlsx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func prepared(t *testing.T) *dataset.Table {
	t.Helper()
	tb, err := dataset.FromRows([]string{"Patient ID", "BMI", "Dx_Lung"}, [][]dataset.Value{
		{dataset.Text("P001"), dataset.Number(24.5), dataset.Number(1)},
		{dataset.Text("P002"), dataset.Missing, dataset.Number(0)},
	})
	require.NoError(t, err)
	return tb
}

func rows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return got
}

func TestSinkWriteDefaultSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s, err := New(path, "", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSheet, s.Sheet)

	n, err := s.Write(context.Background(), prepared(t))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, [][]string{
		{"Patient ID", "BMI", "Dx_Lung"},
		{"P001", "24.5", "1"},
		{"P002", "", "0"},
	}, rows(t, path, DefaultSheet))
}

func TestSinkNamedSheetViaRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prepared.xlsx")
	cfg := config.Storage{Kind: "xlsx", File: config.StorageFile{Path: path, Sheet: "Prepared"}}
	s, err := storage.Open(context.Background(), cfg, storage.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Write(context.Background(), prepared(t))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Prepared"}, f.GetSheetList())
}

func TestSinkErrors(t *testing.T) {
	_, err := New("", "", zerolog.Nop())
	assert.ErrorContains(t, err, "path is required")

	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "out.xlsx"), "", zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Write(ctx, prepared(t))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
