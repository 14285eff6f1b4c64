package hippo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunState is the phase a pipeline run is in. A run moves strictly forward:
// PENDING, FETCHING, ASSEMBLING, WRITING, VALIDATING, then one of the three
// terminal states.
type RunState string

const (
	StatePending              RunState = "PENDING"
	StateFetching             RunState = "FETCHING"
	StateAssembling           RunState = "ASSEMBLING"
	StateWriting              RunState = "WRITING"
	StateValidating           RunState = "VALIDATING"
	StateComplete             RunState = "COMPLETE"
	StateCompleteWithWarnings RunState = "COMPLETE_WITH_WARNINGS"
	StateFailed               RunState = "FAILED"
)

// Terminal reports whether the state ends a run.
func (s RunState) Terminal() bool {
	return s == StateComplete || s == StateCompleteWithWarnings || s == StateFailed
}

// Fetcher acquires the raw company payloads for mapping entries. FetchAll
// returns per-entry results and failures; its error is reserved for aborts
// (context cancellation), not for individual tickers.
type Fetcher interface {
	FetchAll(ctx context.Context, entries []MappingEntry) ([]FetchResult, []FetchFailure, error)
}

// FetchResult pairs a mapping entry with the decoded company object of its
// payload.
type FetchResult struct {
	Entry   MappingEntry
	Company map[string]any
}

// FetchFailure records why one mapping entry produced no record.
type FetchFailure struct {
	Entry MappingEntry
	Err   error
}

// Summary is the outcome of a pipeline run.
type Summary struct {
	State     RunState
	Started   time.Time
	Finished  time.Time
	Attempted int
	Succeeded int
	Skipped   []FetchFailure // mapping entries never sent to the fetcher
	Failures  []FetchFailure
	Report    *Report
}

// Pipeline runs the full dataset refresh: load mapping, fetch every ticker,
// assemble records, write all encodings, validate.
type Pipeline struct {
	Config  *Config
	Fetcher Fetcher
	Log     zerolog.Logger
}

// NewPipeline wires a pipeline from its parts.
func NewPipeline(cfg *Config, f Fetcher, log zerolog.Logger) *Pipeline {
	return &Pipeline{Config: cfg, Fetcher: f, Log: log}
}

// Run executes one full refresh. The returned summary is never nil; a non-nil
// error always comes with State == StateFailed.
//
// The run fails only on an unreadable or duplicated mapping, on zero
// successful fetches, or on a writer refusing the dataset. Individual ticker
// failures and under-threshold validation findings yield
// COMPLETE_WITH_WARNINGS.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{State: StatePending, Started: time.Now()}
	fail := func(err error) (*Summary, error) {
		sum.State = StateFailed
		sum.Finished = time.Now()
		return sum, err
	}

	entries, err := LoadMapping(p.Config.Paths.Mapping)
	if err != nil {
		return fail(err)
	}
	// duplicates abort before anything is fetched; unusable tickers are
	// merely skipped below
	if findings := CheckMapping(entries); len(findings.DuplicateIDs) > 0 || len(findings.DuplicateTickers) > 0 {
		report := &Report{TotalMapping: len(entries), Mapping: findings}
		report.Evaluate(p.Config.Thresholds)
		sum.Report = report
		return fail(&ConsistencyMismatchError{Report: report})
	}
	p.Log.Info().Int("entries", len(entries)).Msg("mapping loaded")

	sum.State = StateFetching
	valid := make([]MappingEntry, 0, len(entries))
	for _, e := range entries {
		if !tickerRx.MatchString(e.Ticker) {
			sum.Skipped = append(sum.Skipped, FetchFailure{Entry: e, Err: &MappingResolutionError{Name: e.Name}})
			p.Log.Warn().Str("name", e.Name).Msg("no usable ticker, skipping")
			continue
		}
		valid = append(valid, e)
	}
	sum.Attempted = len(valid)
	results, failures, err := p.Fetcher.FetchAll(ctx, valid)
	if err != nil {
		return fail(err)
	}
	sum.Failures = failures
	sum.Succeeded = len(results)
	for _, f := range failures {
		p.Log.Warn().Str("ticker", f.Entry.Ticker).Err(f.Err).Msg("fetch failed")
	}
	if len(results) == 0 {
		return fail(fmt.Errorf("no ticker could be fetched (%d attempted)", sum.Attempted))
	}

	sum.State = StateAssembling
	recs := make([]CompanyRecord, 0, len(results))
	for _, res := range results {
		recs = append(recs, AssembleRecord(res.Entry, res.Company))
	}
	p.Log.Info().Int("records", len(recs)).Msg("records assembled")

	sum.State = StateWriting
	if err := p.Config.Paths.EnsureDirs(); err != nil {
		return fail(err)
	}
	if err := WriteAll(p.Config.Paths.Outputs(), recs); err != nil {
		return fail(err)
	}

	sum.State = StateValidating
	report := Validate(entries, p.Config.Paths.Outputs())
	exceeded := report.Evaluate(p.Config.Thresholds)
	sum.Report = report

	sum.Finished = time.Now()
	switch {
	case len(failures) > 0 || len(sum.Skipped) > 0 || exceeded || !report.Clean():
		sum.State = StateCompleteWithWarnings
	default:
		sum.State = StateComplete
	}
	p.Log.Info().
		Str("state", string(sum.State)).
		Int("attempted", sum.Attempted).
		Int("succeeded", sum.Succeeded).
		Int("failed", len(sum.Failures)).
		Msg("run finished")
	return sum, nil
}

// WriteAll writes the record set to every encoding listed in outputs.
func WriteAll(outputs Outputs, recs []CompanyRecord) error {
	writers := map[Encoding]func(string, []CompanyRecord) error{
		EncodingJSON:    WriteJSON,
		EncodingNDJSON:  WriteNDJSON,
		EncodingCSV:     WriteCSV,
		EncodingSQL:     WriteSQL,
		EncodingParquet: WriteParquet,
	}
	for _, enc := range encodingOrder {
		path, ok := outputs[enc]
		if !ok {
			continue
		}
		if err := writers[enc](path, recs); err != nil {
			return err
		}
	}
	return nil
}
