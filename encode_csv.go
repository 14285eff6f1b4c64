package hippo

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// csvBaseHeader lists the descriptive columns preceding the aggregation
// columns in the flattened encodings.
var csvBaseHeader = []string{
	"id", "name", "ticker", "sector", "industry", "description",
	"exchanges", "indices", "lastUpdated",
}

// csvHeader is the full flattened column order.
func csvHeader() []string {
	h := append([]string(nil), csvBaseHeader...)
	for _, col := range AggregationColumns {
		h = append(h, col.Key)
	}
	return h
}

// WriteCSV writes the flattened dataset: one row per record in id order,
// string fields always double-quoted, numeric fields bare, null aggregations
// empty. Exchanges and indices are joined with ";" inside one quoted field,
// lastUpdated is flattened to sorted "category=timestamp" pairs.
func WriteCSV(path string, recs []CompanyRecord) error {
	if len(recs) == 0 {
		return &EmptyDatasetError{Encoding: string(EncodingCSV)}
	}
	sorted := append([]CompanyRecord(nil), recs...)
	SortRecords(sorted)

	var buf bytes.Buffer
	writeCSVRow(&buf, quoteAll(csvHeader()))
	for _, r := range sorted {
		fields := []string{
			strconv.FormatInt(r.ID, 10),
			csvQuote(r.Name),
			csvQuote(r.Ticker),
			csvQuote(r.Sector),
			csvQuote(r.Industry),
			csvQuote(r.Description),
			csvQuote(strings.Join(r.Exchanges, ";")),
			csvQuote(strings.Join(r.Indices, ";")),
			csvQuote(flattenLastUpdated(r.LastUpdated)),
		}
		for _, col := range AggregationColumns {
			fields = append(fields, r.Aggregations[col.Key].String())
		}
		writeCSVRow(&buf, fields)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	buf.WriteString(strings.Join(fields, ","))
	buf.WriteByte('\n')
}

// csvQuote wraps s in double quotes, doubling embedded quotes.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = csvQuote(f)
	}
	return out
}

// flattenLastUpdated renders the category timestamps as sorted
// "category=timestamp" pairs joined with ";".
func flattenLastUpdated(lu map[string]string) string {
	if len(lu) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lu))
	for k := range lu {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+lu[k])
	}
	return strings.Join(pairs, ";")
}

// ReadCSV parses a flattened dataset back into records. Insights are not
// part of the flattened schema and come back empty.
func ReadCSV(path string) ([]CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingCSV, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = len(csvHeader())
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid %s dataset %q: %w", EncodingCSV, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("invalid %s dataset %q: missing header", EncodingCSV, path)
	}

	recs := make([]CompanyRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s dataset %q row %d: bad id %q", EncodingCSV, path, i+2, row[0])
		}
		rec := CompanyRecord{
			ID:           id,
			Name:         row[1],
			Ticker:       row[2],
			Sector:       row[3],
			Industry:     row[4],
			Description:  row[5],
			Exchanges:    splitSet(row[6]),
			Indices:      splitSet(row[7]),
			LastUpdated:  parseLastUpdated(row[8]),
			Aggregations: map[string]Metric{},
		}
		for j, col := range AggregationColumns {
			v := row[len(csvBaseHeader)+j]
			if v == "" {
				continue
			}
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s dataset %q row %d: bad %s value %q", EncodingCSV, path, i+2, col.Key, v)
			}
			rec.Aggregations[col.Key] = MetricFrom(d)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func splitSet(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ";")
}

func parseLastUpdated(s string) map[string]string {
	lu := map[string]string{}
	if s == "" {
		return lu
	}
	for _, pair := range strings.Split(s, ";") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			lu[k] = v
		}
	}
	return lu
}
