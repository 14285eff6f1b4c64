package hippo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSV(path, testRecords()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows", len(lines))
	}

	if !strings.HasPrefix(lines[0], `"id","name","ticker"`) {
		t.Errorf("unexpected header start: %s", lines[0])
	}

	// row ids are sorted, numbers unquoted, strings quoted
	if !strings.HasPrefix(lines[1], `1,"Apple Inc.","AAPL"`) {
		t.Errorf("row 1 = %s", lines[1])
	}
	// embedded quotes are doubled, sets joined with ";" in one quoted field
	if !strings.Contains(lines[2], `"Sells software, said to be ""big""."`) {
		t.Errorf("quote escaping lost: %s", lines[2])
	}
	if !strings.Contains(lines[2], `"NASDAQ 100;S&P 500"`) {
		t.Errorf("indices not joined: %s", lines[2])
	}
	// lastUpdated flattened to sorted category=timestamp pairs
	if !strings.Contains(lines[2], `"fundamentals=1755000000;stock_price=1755900000"`) {
		t.Errorf("lastUpdated not flattened: %s", lines[2])
	}
	// numeric aggregation values are unquoted, missing ones empty
	if !strings.Contains(lines[2], `3100000000000`) || strings.Contains(lines[2], `"3100000000000"`) {
		t.Errorf("marketCap must be a bare number: %s", lines[2])
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	recs := testRecords()
	if err := WriteCSV(path, recs); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("got %d records, want %d", len(got), len(recs))
	}

	SortRecords(recs)
	for i := range recs {
		want, have := recs[i], got[i]
		if have.ID != want.ID || have.Name != want.Name || have.Ticker != want.Ticker {
			t.Errorf("identity mismatch: got %d/%q/%q want %d/%q/%q",
				have.ID, have.Name, have.Ticker, want.ID, want.Name, want.Ticker)
		}
		for key, m := range want.Aggregations {
			if !m.Valid() {
				continue
			}
			if have.Aggregations[key].String() != m.String() {
				t.Errorf("record %d %s = %q, want %q", want.ID, key, have.Aggregations[key].String(), m.String())
			}
		}
	}
}
