package renderer

import (
	"fmt"
	"time"

	"github.com/hippodata/hippo"
)

// SummaryReport is the view model of a pipeline run summary.
type SummaryReport struct {
	State     string
	Finished  string
	Duration  string
	Attempted int
	Succeeded int
	Skipped   []Failure
	Failed    []Failure

	Validation *ValidationReport
}

// Failure is one ticker that produced no record.
type Failure struct {
	Ticker string
	Name   string
	Reason string
}

// NewSummaryReport projects a run summary into its view model.
func NewSummaryReport(s *hippo.Summary) *SummaryReport {
	r := &SummaryReport{
		State:     string(s.State),
		Finished:  s.Finished.Format(time.DateTime),
		Duration:  s.Finished.Sub(s.Started).Round(time.Millisecond).String(),
		Attempted: s.Attempted,
		Succeeded: s.Succeeded,
	}
	for _, f := range s.Skipped {
		r.Skipped = append(r.Skipped, newFailure(f))
	}
	for _, f := range s.Failures {
		r.Failed = append(r.Failed, newFailure(f))
	}
	if s.Report != nil {
		r.Validation = NewValidationReport(s.Report)
	}
	return r
}

func newFailure(f hippo.FetchFailure) Failure {
	return Failure{Ticker: f.Entry.Ticker, Name: f.Entry.Name, Reason: f.Err.Error()}
}

// ValidationReport is the view model of a consistency report.
type ValidationReport struct {
	TotalMapping     int
	DuplicateIDs     []int64
	DuplicateTickers []string
	BadTickers       []string

	Encodings []EncodingRow
	Pairwise  []PairRow

	NameMismatchCount int
	NameMismatches    []MismatchRow

	Issues []string
	Clean  bool
}

// EncodingRow describes one encoding's agreement with the mapping.
type EncodingRow struct {
	Encoding     string
	Status       string
	Count        int
	Missing      int
	Extra        int
	Completeness string
}

// PairRow is the id disagreement between two encodings.
type PairRow struct {
	Pair  string
	OnlyA int
	OnlyB int
}

// MismatchRow is one sampled name mismatch.
type MismatchRow struct {
	Encoding string
	ID       int64
	Ticker   string
	Want     string
	Got      string
}

// NewValidationReport projects a consistency report into its view model.
func NewValidationReport(r *hippo.Report) *ValidationReport {
	v := &ValidationReport{
		TotalMapping:      r.TotalMapping,
		DuplicateIDs:      r.Mapping.DuplicateIDs,
		DuplicateTickers:  r.Mapping.DuplicateTickers,
		BadTickers:        r.Mapping.BadTickers,
		NameMismatchCount: r.NameMismatchCount,
		Issues:            r.Issues,
		Clean:             r.Clean(),
	}
	for _, enc := range []hippo.Encoding{hippo.EncodingJSON, hippo.EncodingNDJSON, hippo.EncodingCSV, hippo.EncodingSQL, hippo.EncodingParquet} {
		er, ok := r.Encodings[enc]
		if !ok {
			continue
		}
		row := EncodingRow{Encoding: string(enc)}
		switch {
		case !er.Present:
			row.Status = "absent"
		case er.Err != "":
			row.Status = "unreadable"
		default:
			row.Status = "ok"
			row.Count = er.Count
			row.Missing = len(er.Missing)
			row.Extra = len(er.Extra)
			row.Completeness = fmt.Sprintf("%.0f%%", er.Completeness*100)
		}
		v.Encodings = append(v.Encodings, row)
	}
	for _, p := range r.Pairwise {
		v.Pairwise = append(v.Pairwise, PairRow{
			Pair:  fmt.Sprintf("%s / %s", p.A, p.B),
			OnlyA: len(p.OnlyA),
			OnlyB: len(p.OnlyB),
		})
	}
	for _, m := range r.NameMismatches {
		v.NameMismatches = append(v.NameMismatches, MismatchRow{
			Encoding: string(m.Encoding), ID: m.ID, Ticker: m.Ticker, Want: m.Want, Got: m.Got,
		})
	}
	return v
}
