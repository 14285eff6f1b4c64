package hippo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSQL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sql")
	if err := WriteSQL(path, testRecords()); err != nil {
		t.Fatalf("WriteSQL() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	script := string(b)

	if !strings.HasPrefix(script, "DROP TABLE IF EXISTS companies;") {
		t.Error("script must start with DROP TABLE IF EXISTS")
	}
	if !strings.Contains(script, "CREATE TABLE companies (") {
		t.Error("missing CREATE TABLE")
	}
	if !strings.Contains(script, "id BIGINT PRIMARY KEY") {
		t.Error("missing typed id column")
	}
	if !strings.Contains(script, "marketCap BIGINT") || !strings.Contains(script, "pe DECIMAL(20,6)") {
		t.Error("aggregation columns must be typed BIGINT/DECIMAL")
	}

	// exactly one INSERT statement covering all rows
	if n := strings.Count(script, "INSERT INTO companies"); n != 1 {
		t.Errorf("got %d INSERT statements, want 1", n)
	}

	// the empty ticker renders as a bare NULL, not as ''
	if !strings.Contains(script, "(3, 'Delisted Co, Inc.', NULL,") {
		t.Errorf("empty ticker must render NULL:\n%s", script)
	}
	// missing aggregations render NULL too
	if !strings.Contains(script, "NULL") {
		t.Error("missing values must render NULL")
	}

	for _, idx := range []string{
		"CREATE INDEX idx_companies_ticker ON companies (ticker);",
		"CREATE INDEX idx_companies_sector ON companies (sector);",
		"CREATE INDEX idx_companies_industry ON companies (industry);",
	} {
		if !strings.Contains(script, idx) {
			t.Errorf("missing index statement %q", idx)
		}
	}
}

func TestReadSQLRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sql")
	if err := WriteSQL(path, testRecords()); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadSQLRows(path)
	if err != nil {
		t.Fatalf("ReadSQLRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].ID != 1 || rows[0].Name != "Apple Inc." || rows[0].Ticker != "AAPL" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	// names with commas and quotes survive the round trip
	if rows[2].Name != "Delisted Co, Inc." || rows[2].Ticker != "" {
		t.Errorf("row 2 = %+v", rows[2])
	}
}

func TestSQLString_Escaping(t *testing.T) {
	if got := sqlString("O'Reilly"); got != "'O''Reilly'" {
		t.Errorf("sqlString = %s", got)
	}
	if got := sqlNullableString(""); got != "NULL" {
		t.Errorf("sqlNullableString(\"\") = %s, want NULL", got)
	}
}
