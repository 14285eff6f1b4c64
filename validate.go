package hippo

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

// Encoding names one of the produced dataset projections.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingNDJSON  Encoding = "ndjson"
	EncodingCSV     Encoding = "csv"
	EncodingSQL     Encoding = "sql"
	EncodingParquet Encoding = "parquet"
)

// encodingOrder fixes the iteration order of reports, so output is stable.
var encodingOrder = []Encoding{EncodingJSON, EncodingNDJSON, EncodingCSV, EncodingSQL, EncodingParquet}

// Outputs locates the written dataset file per encoding.
type Outputs map[Encoding]string

// Report is the outcome of cross-validating the mapping against every
// readable encoding. The validator only observes; it never rewrites outputs.
type Report struct {
	TotalMapping int
	Mapping      MappingFindings
	Encodings    map[Encoding]*EncodingReport
	Pairwise     []PairDiff

	// NameMismatches holds at most nameMismatchSample examples;
	// NameMismatchCount is the full count across all encodings.
	NameMismatchCount int
	NameMismatches    []NameMismatch

	// Issues is filled by Evaluate with the threshold violations.
	Issues []string
}

// EncodingReport describes one encoding's agreement with the mapping.
type EncodingReport struct {
	Present      bool
	Err          string
	Count        int
	Missing      []int64 // mapping ids absent from the encoding
	Extra        []int64 // ids in the encoding that the mapping does not know
	Completeness float64 // fraction of mapping ids present
}

// NameMismatch is a record whose name disagrees with the mapping.
type NameMismatch struct {
	Encoding Encoding
	ID       int64
	Ticker   string
	Want     string
	Got      string
}

// PairDiff is the id set-difference between two encodings.
type PairDiff struct {
	A, B  Encoding
	OnlyA []int64
	OnlyB []int64
}

const nameMismatchSample = 5

// idName is the minimal projection every encoding reader yields.
type idName struct {
	id   int64
	name string
}

// Validate reads back every encoding listed in outputs and cross-checks it
// against the mapping: counts, id sets (against the mapping and pairwise
// between encodings) and name parity. Absent files are recorded as such, not
// treated as failures; call Evaluate to apply thresholds.
func Validate(entries []MappingEntry, outputs Outputs) *Report {
	r := &Report{
		TotalMapping: len(entries),
		Mapping:      CheckMapping(entries),
		Encodings:    map[Encoding]*EncodingReport{},
	}

	wantIDs := make(map[int64]string, len(entries))
	for _, e := range entries {
		wantIDs[e.ID] = e.Name
	}
	tickers := make(map[int64]string, len(entries))
	for _, e := range entries {
		tickers[e.ID] = e.Ticker
	}

	idSets := map[Encoding][]int64{}
	for _, enc := range encodingOrder {
		path, ok := outputs[enc]
		if !ok {
			continue
		}
		er := &EncodingReport{}
		r.Encodings[enc] = er

		rows, err := readEncoding(enc, path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			er.Present = true
			er.Err = err.Error()
			continue
		}
		er.Present = true
		er.Count = len(rows)

		seen := make(map[int64]bool, len(rows))
		for _, row := range rows {
			seen[row.id] = true
			want, known := wantIDs[row.id]
			if !known {
				er.Extra = append(er.Extra, row.id)
				continue
			}
			if row.name != want {
				r.NameMismatchCount++
				if len(r.NameMismatches) < nameMismatchSample {
					r.NameMismatches = append(r.NameMismatches, NameMismatch{
						Encoding: enc, ID: row.id, Ticker: tickers[row.id], Want: want, Got: row.name,
					})
				}
			}
		}
		for _, e := range entries {
			if !seen[e.ID] {
				er.Missing = append(er.Missing, e.ID)
			}
		}
		slices.Sort(er.Missing)
		slices.Sort(er.Extra)
		if len(entries) > 0 {
			er.Completeness = float64(len(entries)-len(er.Missing)) / float64(len(entries))
		}

		ids := make([]int64, 0, len(seen))
		for id := range seen {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		idSets[enc] = ids
	}

	for i, a := range encodingOrder {
		if _, ok := idSets[a]; !ok {
			continue
		}
		for _, b := range encodingOrder[i+1:] {
			if _, ok := idSets[b]; !ok {
				continue
			}
			onlyA, onlyB := diffSorted(idSets[a], idSets[b])
			if len(onlyA) > 0 || len(onlyB) > 0 {
				r.Pairwise = append(r.Pairwise, PairDiff{A: a, B: b, OnlyA: onlyA, OnlyB: onlyB})
			}
		}
	}
	return r
}

func readEncoding(enc Encoding, path string) ([]idName, error) {
	switch enc {
	case EncodingSQL:
		rows, err := ReadSQLRows(path)
		if err != nil {
			return nil, err
		}
		out := make([]idName, 0, len(rows))
		for _, row := range rows {
			out = append(out, idName{id: row.ID, name: row.Name})
		}
		return out, nil
	case EncodingJSON, EncodingNDJSON, EncodingCSV, EncodingParquet:
		var recs []CompanyRecord
		var err error
		switch enc {
		case EncodingJSON:
			recs, err = ReadJSON(path)
		case EncodingNDJSON:
			recs, err = ReadNDJSON(path)
		case EncodingCSV:
			recs, err = ReadCSV(path)
		case EncodingParquet:
			recs, err = ReadParquet(path)
		}
		if err != nil {
			return nil, err
		}
		out := make([]idName, 0, len(recs))
		for _, rec := range recs {
			out = append(out, idName{id: rec.ID, name: rec.Name})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// diffSorted returns the elements only in a and only in b. Inputs are sorted.
func diffSorted(a, b []int64) (onlyA, onlyB []int64) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		case a[i] > b[j]:
			onlyB = append(onlyB, b[j])
			j++
		default:
			i++
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return onlyA, onlyB
}

// Evaluate applies thresholds to the report, fills Issues and reports whether
// the dataset should be considered inconsistent. Mapping duplicates always
// count; completeness and corruption only apply to encodings actually present.
func (r *Report) Evaluate(t Thresholds) bool {
	r.Issues = r.Issues[:0]
	if n := len(r.Mapping.DuplicateIDs); n > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d duplicate id(s) in mapping", n))
	}
	if n := len(r.Mapping.DuplicateTickers); n > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d duplicate ticker(s) in mapping", n))
	}
	for _, enc := range encodingOrder {
		er, ok := r.Encodings[enc]
		if !ok || !er.Present {
			continue
		}
		if er.Err != "" {
			r.Issues = append(r.Issues, fmt.Sprintf("%s encoding unreadable: %s", enc, er.Err))
			continue
		}
		if er.Completeness < t.MinCompleteness {
			r.Issues = append(r.Issues, fmt.Sprintf("%s encoding covers %.0f%% of the mapping (minimum %.0f%%)",
				enc, er.Completeness*100, t.MinCompleteness*100))
		}
	}
	if r.NameMismatchCount > t.MaxNameMismatches {
		r.Issues = append(r.Issues, fmt.Sprintf("%d name mismatch(es) (maximum %d)",
			r.NameMismatchCount, t.MaxNameMismatches))
	}
	return len(r.Issues) > 0
}

// Clean reports whether the validator found nothing at all to mention, even
// below thresholds.
func (r *Report) Clean() bool {
	if !r.Mapping.Empty() || r.NameMismatchCount > 0 || len(r.Pairwise) > 0 {
		return false
	}
	for _, er := range r.Encodings {
		if er.Present && (er.Err != "" || len(er.Missing) > 0 || len(er.Extra) > 0) {
			return false
		}
	}
	return true
}

// Problem summarizes the threshold violations of an evaluated report.
func (r *Report) Problem() string {
	if len(r.Issues) == 0 {
		return "dataset inconsistent"
	}
	return strings.Join(r.Issues, "; ")
}
