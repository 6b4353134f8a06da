package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"penguinboard/internal/blob"
	"penguinboard/pkg/domain"
)

func TestEmbeddedProviderLoadsBundledSample(t *testing.T) {
	ds, err := EmbeddedProvider{}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 83 {
		t.Fatalf("expected 83 bundled rows, got %d", ds.Len())
	}
	counts := ds.SpeciesCounts()
	if counts[domain.SpeciesAdelie] != 40 || counts[domain.SpeciesGentoo] != 22 || counts[domain.SpeciesChinstrap] != 21 {
		t.Fatalf("unexpected species counts %v", counts)
	}
	first := ds.At(0)
	if first.Island != "Torgersen" || first.BillLengthMM != 39.1 || first.Year != 2007 {
		t.Fatalf("unexpected first row %+v", first)
	}
	if !domain.IsMissing(ds.At(3).BodyMassG) {
		t.Fatalf("expected fourth row to have missing mass")
	}
	view := domain.Compute(ds, domain.FilterState{MassThreshold: 3500, SelectedSpecies: domain.AllSpeciesSet()})
	if view.Len() != 17 {
		t.Fatalf("expected 17 rows under 3500 g, got %d", view.Len())
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "penguins.csv")
	if err := os.WriteFile(path, Bundled(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := FileProvider{Path: path}.Load(context.Background())
	if err != nil || ds.Len() != 83 {
		t.Fatalf("load: %v len=%d", err, ds.Len())
	}
	if _, err := (FileProvider{Path: filepath.Join(t.TempDir(), "nope.csv")}).Load(context.Background()); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestBlobProvider(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	csv := "species,island,bill_length_mm,bill_depth_mm,body_mass_g\nChinstrap,Dream,46.5,17.9,3500\n"
	if _, err := store.Put(ctx, "penguins.csv", strings.NewReader(csv), blob.PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ds, err := BlobProvider{Store: store, Key: "penguins.csv"}.Load(ctx)
	if err != nil || ds.Len() != 1 || ds.At(0).Species != domain.SpeciesChinstrap {
		t.Fatalf("load: %v %+v", err, ds.Records())
	}
	_, err = BlobProvider{Store: store, Key: "missing.csv"}.Load(ctx)
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "available: penguins.csv") {
		t.Fatalf("error should name the stored keys: %v", err)
	}
}

func TestPublishBlobKeepsMissingValues(t *testing.T) {
	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	records := []domain.Record{
		{Species: domain.SpeciesAdelie, Island: "Torgersen", BillLengthMM: 39.1, BillDepthMM: 18.7, FlipperLengthMM: 181, BodyMassG: 3750, Sex: "male", Year: 2007},
		{Species: domain.SpeciesAdelie, Island: "Torgersen", BillLengthMM: domain.Missing(), BillDepthMM: domain.Missing(), FlipperLengthMM: domain.Missing(), BodyMassG: domain.Missing()},
	}
	info, err := PublishBlob(ctx, store, "penguins.csv", records)
	if err != nil || info.Key != "penguins.csv" || info.Size == 0 {
		t.Fatalf("publish: %+v %v", info, err)
	}
	if _, err := PublishBlob(ctx, store, "penguins.csv", records); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("expected ErrExists on second publish, got %v", err)
	}

	ds, err := BlobProvider{Store: store, Key: "penguins.csv"}.Load(ctx)
	if err != nil || ds.Len() != 2 {
		t.Fatalf("load: %v len=%d", err, ds.Len())
	}
	first, second := ds.At(0), ds.At(1)
	if first.BillLengthMM != 39.1 || first.Sex != "male" || first.Year != 2007 {
		t.Fatalf("first row = %+v", first)
	}
	if !domain.IsMissing(second.BodyMassG) || !domain.IsMissing(second.BillLengthMM) || second.Sex != "" || second.Year != 0 {
		t.Fatalf("missing values not preserved: %+v", second)
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Kind: KindSQLite, SQLitePath: filepath.Join(t.TempDir(), "penguins.db")}
	table, err := OpenTable(ctx, cfg)
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	seed, err := EmbeddedProvider{}.Load(ctx)
	if err != nil {
		t.Fatalf("seed load: %v", err)
	}
	if _, err := table.Replace(ctx, seed.Records()); err != nil {
		t.Fatalf("replace: %v", err)
	}
	_ = table.Close()

	provider, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open provider: %v", err)
	}
	ds, err := provider.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != seed.Len() || ds.At(0).BillLengthMM != seed.At(0).BillLengthMM {
		t.Fatalf("sqlite round trip mismatch: %d vs %d", ds.Len(), seed.Len())
	}
}

func TestOpenSelectsProvider(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg     Config
		want    string
		wantErr bool
	}{
		{cfg: Config{}, want: "source.EmbeddedProvider"},
		{cfg: Config{Kind: KindFile, Path: "x.csv"}, want: "source.FileProvider"},
		{cfg: Config{Kind: KindFile}, wantErr: true},
		{cfg: Config{Kind: KindBlob, Key: "k", Blob: blob.Config{Driver: blob.DriverMemory}}, want: "source.BlobProvider"},
		{cfg: Config{Kind: KindBlob}, wantErr: true},
		{cfg: Config{Kind: KindPostgres}, want: "source.TableProvider"},
		{cfg: Config{Kind: "ftp"}, wantErr: true},
	}
	for _, tc := range cases {
		p, err := Open(ctx, tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%+v: expected error", tc.cfg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%+v: %v", tc.cfg, err)
		}
		if got := typeName(p); got != tc.want {
			t.Fatalf("%+v: got %s want %s", tc.cfg, got, tc.want)
		}
	}
	if _, err := OpenTable(ctx, Config{Kind: KindFile}); err == nil {
		t.Fatalf("expected file kind to be rejected as table")
	}
}

func typeName(v any) string {
	switch v.(type) {
	case EmbeddedProvider:
		return "source.EmbeddedProvider"
	case FileProvider:
		return "source.FileProvider"
	case BlobProvider:
		return "source.BlobProvider"
	case TableProvider:
		return "source.TableProvider"
	}
	return "unknown"
}
