package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"penguinboard/internal/infra/persistence/postgres/testutil"
	"penguinboard/pkg/domain"
)

func TestOpenEnsuresSchemaAndRoundTrips(t *testing.T) {
	db, conn := testutil.NewStubDB()
	var gotDriver, gotDSN string
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driverName, dsn
		return db, nil
	})
	defer restore()

	ctx := context.Background()
	table, err := Open(ctx, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if gotDriver != "pgx" || gotDSN != DefaultDSN {
		t.Fatalf("unexpected open args %q %q", gotDriver, gotDSN)
	}
	if len(conn.Execs) == 0 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS penguins") {
		t.Fatalf("expected schema statement first, got %v", conn.Execs)
	}

	records := []domain.Record{
		{Species: domain.SpeciesGentoo, Island: "Biscoe", BillLengthMM: 50, BillDepthMM: 15, FlipperLengthMM: 220, BodyMassG: 5000, Sex: "male", Year: 2008},
		{Species: domain.SpeciesAdelie, Island: "Dream", BillLengthMM: domain.Missing(), BillDepthMM: 18, FlipperLengthMM: 190, BodyMassG: domain.Missing(), Year: 2009},
	}
	if _, err := table.Replace(ctx, records); err != nil {
		t.Fatalf("replace: %v", err)
	}
	var sawDollar bool
	for _, stmt := range conn.Execs {
		if strings.HasPrefix(stmt, "INSERT INTO penguins") && strings.Contains(stmt, "$9") {
			sawDollar = true
		}
	}
	if !sawDollar {
		t.Fatalf("expected dollar placeholders, got %v", conn.Execs)
	}
	ds, err := table.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 2 || ds.At(0).Species != domain.SpeciesGentoo {
		t.Fatalf("unexpected dataset %+v", ds.Records())
	}
	if !domain.IsMissing(ds.At(1).BodyMassG) {
		t.Fatalf("expected NULL mass to load as missing")
	}
}

func TestOpenFailures(t *testing.T) {
	ctx := context.Background()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("boom") })
	if _, err := Open(ctx, "postgres://x"); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	if _, err := Open(ctx, "postgres://x"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
	restore()

	db, conn = testutil.NewStubDB()
	conn.FailExec = "CREATE TABLE"
	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := Open(ctx, "postgres://x"); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestReplaceRollsBackOnCommitFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	table, err := Open(context.Background(), "postgres://x")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	conn.FailCommit = true
	if _, err := table.Replace(context.Background(), []domain.Record{{Species: domain.SpeciesAdelie, Island: "Dream"}}); err == nil {
		t.Fatalf("expected commit error")
	}
}
