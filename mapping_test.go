package hippo

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeMappingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticker_mapping.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("cannot write mapping fixture: %v", err)
	}
	return path
}

func TestLoadMapping(t *testing.T) {
	path := writeMappingFile(t, `[
		{"id": "1", "name": "Apple Inc.", "ticker": "aapl"},
		{"id": 2, "name": "Microsoft", "ticker": " MSFT "}
	]`)

	entries, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping() error = %v", err)
	}
	want := []MappingEntry{
		{ID: 1, Name: "Apple Inc.", Ticker: "AAPL"},
		{ID: 2, Name: "Microsoft", Ticker: "MSFT"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("LoadMapping() = %v, want %v", entries, want)
	}
}

func TestLoadMapping_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not an array", content: `{"id": "1"}`},
		{name: "bad id", content: `[{"id": "one", "name": "X", "ticker": "X"}]`},
		{name: "not json", content: `hello`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadMapping(writeMappingFile(t, tc.content)); err == nil {
				t.Error("LoadMapping() expected an error, got nil")
			}
		})
	}
}

func TestSaveMapping_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "mapping.json")
	want := []MappingEntry{
		{ID: 7, Name: "NVIDIA", Ticker: "NVDA"},
		{ID: 9, Name: "Tesla", Ticker: "TSLA"},
	}
	if err := SaveMapping(path, want); err != nil {
		t.Fatalf("SaveMapping() error = %v", err)
	}
	got, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestAddTicker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")

	e, err := AddTicker(path, "aapl", "Apple Inc.")
	if err != nil {
		t.Fatalf("AddTicker() error = %v", err)
	}
	if e.ID != 1 || e.Ticker != "AAPL" {
		t.Errorf("AddTicker() = %+v, want id 1 ticker AAPL", e)
	}

	// adding again is a no-op
	again, err := AddTicker(path, "AAPL", "")
	if err != nil {
		t.Fatalf("AddTicker() second call error = %v", err)
	}
	if again != e {
		t.Errorf("AddTicker() second call = %+v, want %+v", again, e)
	}

	// next ticker gets the next id, name defaults to the ticker
	msft, err := AddTicker(path, "msft", "")
	if err != nil {
		t.Fatalf("AddTicker() error = %v", err)
	}
	if msft.ID != 2 || msft.Name != "MSFT" {
		t.Errorf("AddTicker() = %+v, want id 2 name MSFT", msft)
	}

	if _, err := AddTicker(path, "bad ticker!", ""); err == nil {
		t.Error("AddTicker() with invalid ticker expected an error")
	}
}

func TestReindexMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	entries := []MappingEntry{
		{ID: 10, Name: "A", Ticker: "A"},
		{ID: 3, Name: "B", Ticker: "B"},
		{ID: 3, Name: "C", Ticker: "C"},
	}
	if err := SaveMapping(path, entries); err != nil {
		t.Fatal(err)
	}

	backup := path + ".bak"
	n, err := ReindexMapping(path, backup)
	if err != nil {
		t.Fatalf("ReindexMapping() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ReindexMapping() = %d, want 3", n)
	}

	got, err := LoadMapping(path)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range got {
		if e.ID != int64(i+1) {
			t.Errorf("entry %d has id %d, want %d", i, e.ID, i+1)
		}
	}

	old, err := LoadMapping(backup)
	if err != nil {
		t.Fatalf("backup not readable: %v", err)
	}
	if !reflect.DeepEqual(old, entries) {
		t.Errorf("backup = %v, want original %v", old, entries)
	}
}

func TestCheckMapping(t *testing.T) {
	tests := []struct {
		name    string
		entries []MappingEntry
		wantOK  bool
	}{
		{
			name: "clean",
			entries: []MappingEntry{
				{ID: 1, Ticker: "AAPL"}, {ID: 2, Ticker: "MSFT"},
			},
			wantOK: true,
		},
		{
			name: "duplicate id",
			entries: []MappingEntry{
				{ID: 1, Ticker: "AAPL"}, {ID: 1, Ticker: "MSFT"},
			},
			wantOK: false,
		},
		{
			name: "duplicate ticker",
			entries: []MappingEntry{
				{ID: 1, Ticker: "AAPL"}, {ID: 2, Ticker: "AAPL"},
			},
			wantOK: false,
		},
		{
			name: "invalid ticker",
			entries: []MappingEntry{
				{ID: 1, Ticker: "aapl"},
			},
			wantOK: false,
		},
		{
			name:    "empty mapping",
			entries: nil,
			wantOK:  true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := CheckMapping(tc.entries)
			if f.Empty() != tc.wantOK {
				t.Errorf("CheckMapping().Empty() = %v, want %v (findings %+v)", f.Empty(), tc.wantOK, f)
			}
		})
	}
}

func TestCheckMapping_ReportsEachValueOnce(t *testing.T) {
	f := CheckMapping([]MappingEntry{
		{ID: 1, Ticker: "A"}, {ID: 1, Ticker: "B"}, {ID: 1, Ticker: "C"},
	})
	if len(f.DuplicateIDs) != 1 || f.DuplicateIDs[0] != 1 {
		t.Errorf("DuplicateIDs = %v, want [1]", f.DuplicateIDs)
	}
}
