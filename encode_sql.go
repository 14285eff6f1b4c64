package hippo

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WriteSQL writes the dataset as a self-contained SQL script: DROP TABLE,
// typed DDL, one multi-row INSERT covering every record, then the index
// statements. Missing values render as a bare NULL; an empty ticker does too.
func WriteSQL(path string, recs []CompanyRecord) error {
	if len(recs) == 0 {
		return &EmptyDatasetError{Encoding: string(EncodingSQL)}
	}
	sorted := append([]CompanyRecord(nil), recs...)
	SortRecords(sorted)

	var buf bytes.Buffer
	buf.WriteString("DROP TABLE IF EXISTS companies;\n\n")
	writeSQLSchema(&buf)
	buf.WriteString("\nINSERT INTO companies VALUES\n")
	for i, r := range sorted {
		buf.WriteString("  (")
		buf.WriteString(strings.Join(sqlRow(r), ", "))
		buf.WriteString(")")
		if i < len(sorted)-1 {
			buf.WriteString(",\n")
		} else {
			buf.WriteString(";\n")
		}
	}
	buf.WriteString("\nCREATE INDEX idx_companies_ticker ON companies (ticker);\n")
	buf.WriteString("CREATE INDEX idx_companies_sector ON companies (sector);\n")
	buf.WriteString("CREATE INDEX idx_companies_industry ON companies (industry);\n")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeSQLSchema(buf *bytes.Buffer) {
	buf.WriteString("CREATE TABLE companies (\n")
	buf.WriteString("  id BIGINT PRIMARY KEY,\n")
	buf.WriteString("  name TEXT NOT NULL,\n")
	for _, col := range []string{"ticker", "sector", "industry", "description", "exchanges", "indices", "last_updated"} {
		fmt.Fprintf(buf, "  %s TEXT,\n", col)
	}
	for i, col := range AggregationColumns {
		fmt.Fprintf(buf, "  %s %s", col.Key, col.SQLType)
		if i < len(AggregationColumns)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString(");\n")
}

func sqlRow(r CompanyRecord) []string {
	fields := []string{
		strconv.FormatInt(r.ID, 10),
		sqlString(r.Name),
		sqlNullableString(r.Ticker),
		sqlString(r.Sector),
		sqlString(r.Industry),
		sqlString(r.Description),
		sqlString(strings.Join(r.Exchanges, ";")),
		sqlString(strings.Join(r.Indices, ";")),
		sqlString(flattenLastUpdated(r.LastUpdated)),
	}
	for _, col := range AggregationColumns {
		m := r.Aggregations[col.Key]
		if !m.Valid() {
			fields = append(fields, "NULL")
			continue
		}
		fields = append(fields, m.String())
	}
	return fields
}

// sqlString quotes s as a SQL literal, doubling embedded quotes.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sqlNullableString is sqlString, except the empty string becomes NULL.
func sqlNullableString(s string) string {
	if s == "" {
		return "NULL"
	}
	return sqlString(s)
}

// SQLRow is the slim projection the validator needs from a SQL script.
type SQLRow struct {
	ID     int64
	Name   string
	Ticker string
}

// ReadSQLRows extracts id, name and ticker from every row of the INSERT
// statement in a script written by WriteSQL. It does not attempt to be a SQL
// parser beyond that shape.
func ReadSQLRows(path string) ([]SQLRow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingSQL, err)
	}
	var rows []SQLRow
	inInsert := false
	for _, line := range strings.Split(string(b), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "INSERT INTO companies") {
			inInsert = true
			continue
		}
		if !inInsert {
			continue
		}
		if !strings.HasPrefix(trimmed, "(") {
			inInsert = false
			continue
		}
		vals := splitSQLValues(trimmed)
		if len(vals) < 3 {
			return nil, fmt.Errorf("invalid %s dataset %q: short row %q", EncodingSQL, path, trimmed)
		}
		id, err := strconv.ParseInt(vals[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s dataset %q: bad id %q", EncodingSQL, path, vals[0])
		}
		rows = append(rows, SQLRow{ID: id, Name: unquoteSQL(vals[1]), Ticker: unquoteSQL(vals[2])})
		if strings.HasSuffix(trimmed, ";") {
			inInsert = false
		}
	}
	return rows, nil
}

// splitSQLValues splits the comma-separated values of one "(...)," row,
// respecting single-quoted literals.
func splitSQLValues(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "(")
	line = strings.TrimSuffix(line, ";")
	line = strings.TrimSuffix(line, ",")
	line = strings.TrimSuffix(line, ")")

	var vals []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'':
			cur.WriteByte(c)
			if inQuote && i+1 < len(line) && line[i+1] == '\'' {
				cur.WriteByte('\'')
				i++
				continue
			}
			inQuote = !inQuote
		case c == ',' && !inQuote:
			vals = append(vals, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	vals = append(vals, strings.TrimSpace(cur.String()))
	return vals
}

// unquoteSQL reverses sqlString; NULL comes back as the empty string.
func unquoteSQL(v string) string {
	if v == "NULL" {
		return ""
	}
	v = strings.TrimPrefix(v, "'")
	v = strings.TrimSuffix(v, "'")
	return strings.ReplaceAll(v, "''", "'")
}
