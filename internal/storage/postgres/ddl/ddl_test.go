package ddl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clinprep/internal/dataset"
	gddl "clinprep/internal/ddl"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want string
	}{
		{"integer", "BIGINT"},
		{" InTeGeR ", "BIGINT"},
		{"float", "DOUBLE PRECISION"},
		{"boolean", "BOOLEAN"},
		{"text", "TEXT"},
		{"", "TEXT"},
	}
	for _, tt := range tests {
		if got := MapType(tt.kind); got != tt.want {
			t.Fatalf("MapType(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestQuoting(t *testing.T) {
	t.Parallel()

	if got := QuoteIdent(`weird"name`); got != `"weird""name"` {
		t.Fatalf("QuoteIdent = %s", got)
	}
	if got := Dialect.QuoteFQN("public..admissions"); got != `"public"."admissions"` {
		t.Fatalf("QuoteFQN = %s", got)
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN: "public.admissions",
		Columns: []gddl.ColumnDef{
			{Name: "Patient ID", SQLType: "TEXT", PrimaryKey: true, Nullable: true},
			{Name: "BMI", SQLType: "DOUBLE PRECISION", Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"admissions\" (\n" +
		"  \"Patient ID\" TEXT NOT NULL,\n" +
		"  \"BMI\" DOUBLE PRECISION,\n" +
		"  PRIMARY KEY (\"Patient ID\")\n);"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}

	if _, err := BuildCreateTableSQL(gddl.TableDef{FQN: "t"}); err == nil || !strings.Contains(err.Error(), "postgres ddl") {
		t.Fatalf("want postgres ddl error, got %v", err)
	}
}

type fakeExecer struct {
	sql string
	err error
}

func (f *fakeExecer) Exec(_ context.Context, sql string) error {
	f.sql = sql
	return f.err
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	tb, err := dataset.FromRows([]string{"Sepsis", "Dx_Lung"}, [][]dataset.Value{{dataset.Bool(true), dataset.Number(1)}})
	if err != nil {
		t.Fatal(err)
	}
	tb.ColumnAt(1).Type = dataset.TypeIndicator

	var ex fakeExecer
	if err := EnsureTable(context.Background(), &ex, "public.admissions", tb); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	for _, part := range []string{`"Sepsis" BOOLEAN`, `"Dx_Lung" BIGINT`} {
		if !strings.Contains(ex.sql, part) {
			t.Fatalf("sql %q missing %q", ex.sql, part)
		}
	}

	boom := errors.New("boom")
	if err := EnsureTable(context.Background(), &fakeExecer{err: boom}, "t", tb); !errors.Is(err, boom) {
		t.Fatalf("want exec error, got %v", err)
	}
}
