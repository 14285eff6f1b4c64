package hippo

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

// testRecords returns a small deterministic dataset used across the encoding
// tests: one full record, one with gaps, one with an empty ticker.
func testRecords() []CompanyRecord {
	return []CompanyRecord{
		{
			ID: 2, Name: "Microsoft Corporation", Ticker: "MSFT",
			Sector: "Technology", Industry: "Software",
			Description: `Sells software, said to be "big".`,
			Exchanges:   []string{"NASDAQ"},
			Indices:     []string{"NASDAQ 100", "S&P 500"},
			LastUpdated: map[string]string{"fundamentals": "1755000000", "stock_price": "1755900000"},
			Aggregations: map[string]Metric{
				"marketCap": MetricFrom(decimal.NewFromInt(3_100_000_000_000)),
				"pe":        MetricFrom(decimal.RequireFromString("35.2")),
				"roe":       MetricFrom(decimal.RequireFromString("0.38")),
			},
			Insights: map[string]json.RawMessage{
				"stock_price": json.RawMessage(`[{"ts":1,"value":400.5},{"ts":2,"value":402}]`),
			},
		},
		{
			ID: 1, Name: "Apple Inc.", Ticker: "AAPL",
			Sector:      "Technology",
			Exchanges:   []string{"NASDAQ", "XETRA"},
			Indices:     []string{},
			LastUpdated: map[string]string{},
			Aggregations: map[string]Metric{
				"pe": MetricFrom(decimal.RequireFromString("29.4")),
			},
		},
		{
			ID: 3, Name: "Delisted Co, Inc.", Ticker: "",
			Exchanges:    []string{},
			Indices:      []string{},
			LastUpdated:  map[string]string{},
			Aggregations: map[string]Metric{},
		},
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, testRecords()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	// records come back sorted by id
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID != want {
			t.Errorf("record %d has id %d, want %d", i, got[i].ID, want)
		}
	}
	if got[1].Name != "Microsoft Corporation" || got[1].Aggregations["pe"].String() != "35.2" {
		t.Errorf("record content lost: %+v", got[1])
	}
}

func TestWriteNDJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	if err := WriteNDJSON(path, testRecords()); err != nil {
		t.Fatalf("WriteNDJSON() error = %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	got, err := ReadNDJSON(path)
	if err != nil {
		t.Fatalf("ReadNDJSON() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 {
		t.Errorf("ReadNDJSON() = %d records first id %d", len(got), got[0].ID)
	}
}

func TestWriteJSON_NullAggregations(t *testing.T) {
	recs := []CompanyRecord{{
		ID: 1, Name: "X", Ticker: "X",
		Aggregations: map[string]Metric{"beta": {}},
	}}
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, recs); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if !bytes.Contains(b, []byte(`"beta": null`)) {
		t.Errorf("null aggregation must serialize as JSON null, got:\n%s", b)
	}
}

func TestWriters_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writers := map[string]func(string, []CompanyRecord) error{
		"json":   WriteJSON,
		"ndjson": WriteNDJSON,
		"csv":    WriteCSV,
		"sql":    WriteSQL,
	}
	for name, write := range writers {
		t.Run(name, func(t *testing.T) {
			a := filepath.Join(dir, "a."+name)
			b := filepath.Join(dir, "b."+name)
			if err := write(a, testRecords()); err != nil {
				t.Fatal(err)
			}
			if err := write(b, testRecords()); err != nil {
				t.Fatal(err)
			}
			ba, _ := os.ReadFile(a)
			bb, _ := os.ReadFile(b)
			if !bytes.Equal(ba, bb) {
				t.Error("same record set must produce byte-identical output")
			}
		})
	}
}

func TestWriters_EmptyDataset(t *testing.T) {
	dir := t.TempDir()
	writers := map[string]func(string, []CompanyRecord) error{
		"json":    WriteJSON,
		"ndjson":  WriteNDJSON,
		"csv":     WriteCSV,
		"sql":     WriteSQL,
		"parquet": WriteParquet,
	}
	for name, write := range writers {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "empty."+name)
			err := write(path, nil)
			var empty *EmptyDatasetError
			if !errors.As(err, &empty) {
				t.Fatalf("error = %v, want EmptyDatasetError", err)
			}
			if _, statErr := os.Stat(path); statErr == nil {
				t.Error("no file must be written for an empty dataset")
			}
		})
	}
}
