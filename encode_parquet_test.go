package hippo

import (
	"path/filepath"
	"testing"
)

func TestParquet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	recs := testRecords()
	if err := WriteParquet(path, recs); err != nil {
		t.Fatalf("WriteParquet() error = %v", err)
	}

	got, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("got %d records, want %d", len(got), len(recs))
	}

	SortRecords(recs)
	for i := range recs {
		want, have := recs[i], got[i]
		if have.ID != want.ID || have.Name != want.Name || have.Ticker != want.Ticker {
			t.Errorf("identity mismatch at %d: got %d/%q/%q", i, have.ID, have.Name, have.Ticker)
		}
	}

	// MSFT's BIGINT column survives exactly, its null columns stay null
	msft := got[1]
	if msft.Aggregations["marketCap"].String() != "3100000000000" {
		t.Errorf("marketCap = %q", msft.Aggregations["marketCap"].String())
	}
	if msft.Aggregations["beta"].Valid() {
		t.Error("beta must stay null")
	}
	if msft.Aggregations["pe"].Float64() != 35.2 {
		t.Errorf("pe = %v, want 35.2", msft.Aggregations["pe"].Float64())
	}
}

func TestParquetRow_Conversion(t *testing.T) {
	rec := testRecords()[0] // MSFT
	row := toParquetRow(rec)
	if row.ID != 2 || row.Ticker != "MSFT" {
		t.Fatalf("row = %+v", row)
	}
	if row.MarketCap == nil || *row.MarketCap != 3_100_000_000_000 {
		t.Error("BIGINT column must be filled as int64")
	}
	if row.Pe == nil || *row.Pe != 35.2 {
		t.Error("DECIMAL column must be filled as float64")
	}
	if row.Beta != nil {
		t.Error("absent aggregation must stay nil")
	}
	if row.Indices != "NASDAQ 100;S&P 500" {
		t.Errorf("Indices = %q", row.Indices)
	}

	back := fromParquetRow(row)
	if back.ID != rec.ID || back.Name != rec.Name {
		t.Errorf("conversion lost identity: %+v", back)
	}
	if back.LastUpdated["stock_price"] != "1755900000" {
		t.Errorf("LastUpdated lost: %v", back.LastUpdated)
	}
}
