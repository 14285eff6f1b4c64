package hippo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MappingEntry is one line of the authoritative id/name/ticker table that
// drives the pipeline. The mapping is the source of truth for identity: the
// remote payload never overrides these three fields.
type MappingEntry struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// tickerRx is the only accepted ticker shape.
var tickerRx = regexp.MustCompile(`^[A-Z0-9]+$`)

// the on-disk format historically stores the id as a string; tolerate both.
type jmapping struct {
	ID     json.RawMessage `json:"id"`
	Name   string          `json:"name"`
	Ticker string          `json:"ticker"`
}

func (j jmapping) entry() (MappingEntry, error) {
	raw := strings.Trim(string(j.ID), `"`)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return MappingEntry{}, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return MappingEntry{
		ID:     id,
		Name:   j.Name,
		Ticker: strings.ToUpper(strings.TrimSpace(j.Ticker)),
	}, nil
}

// LoadMapping reads and normalizes the mapping file: a JSON array of
// {id, name, ticker} objects. Tickers are upper-cased and trimmed.
func LoadMapping(path string) ([]MappingEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read mapping file: %w", err)
	}
	var jentries []jmapping
	if err := json.Unmarshal(b, &jentries); err != nil {
		return nil, fmt.Errorf("mapping file must be a JSON array of entries: %w", err)
	}
	entries := make([]MappingEntry, 0, len(jentries))
	for i, j := range jentries {
		e, err := j.entry()
		if err != nil {
			return nil, fmt.Errorf("mapping entry %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SaveMapping writes entries back in the on-disk format (string ids, indented
// JSON array), creating parent directories as needed.
func SaveMapping(path string, entries []MappingEntry) error {
	type out struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Ticker string `json:"ticker"`
	}
	jentries := make([]out, 0, len(entries))
	for _, e := range entries {
		jentries = append(jentries, out{ID: strconv.FormatInt(e.ID, 10), Name: e.Name, Ticker: e.Ticker})
	}
	b, err := json.MarshalIndent(jentries, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal mapping: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create mapping directory: %w", err)
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// AddTicker appends ticker to the mapping file with the next free id,
// creating the file when missing. Adding an already present ticker is a
// no-op returning the existing entry.
func AddTicker(path, ticker, name string) (MappingEntry, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerRx.MatchString(ticker) {
		return MappingEntry{}, &MappingResolutionError{Name: ticker}
	}
	entries, err := LoadMapping(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return MappingEntry{}, err
	}
	for _, e := range entries {
		if e.Ticker == ticker {
			return e, nil
		}
	}
	var next int64
	for _, e := range entries {
		next = max(next, e.ID)
	}
	if name == "" {
		name = ticker
	}
	entry := MappingEntry{ID: next + 1, Name: name, Ticker: ticker}
	entries = append(entries, entry)
	if err := SaveMapping(path, entries); err != nil {
		return MappingEntry{}, err
	}
	return entry, nil
}

// ReindexMapping re-sequences mapping ids to 1..N in file order, writing a
// backup of the previous content first when backup is non-empty. It returns
// the number of entries.
func ReindexMapping(path, backup string) (int, error) {
	entries, err := LoadMapping(path)
	if err != nil {
		return 0, err
	}
	if backup != "" {
		if err := SaveMapping(backup, entries); err != nil {
			return 0, fmt.Errorf("cannot write mapping backup: %w", err)
		}
	}
	for i := range entries {
		entries[i].ID = int64(i + 1)
	}
	if err := SaveMapping(path, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// MappingFindings lists what CheckMapping found wrong with a mapping set.
type MappingFindings struct {
	DuplicateIDs     []int64
	DuplicateTickers []string
	BadTickers       []string
}

// Empty reports whether the mapping passed every check.
func (f MappingFindings) Empty() bool {
	return len(f.DuplicateIDs) == 0 && len(f.DuplicateTickers) == 0 && len(f.BadTickers) == 0
}

// CheckMapping verifies the mapping invariants: unique ids, unique tickers,
// tickers matching ^[A-Z0-9]+$. Findings are reported in sorted order so the
// output is stable.
func CheckMapping(entries []MappingEntry) MappingFindings {
	var f MappingFindings
	seenID := make(map[int64]bool, len(entries))
	seenTicker := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seenID[e.ID] {
			f.DuplicateIDs = append(f.DuplicateIDs, e.ID)
		}
		seenID[e.ID] = true
		if seenTicker[e.Ticker] {
			f.DuplicateTickers = append(f.DuplicateTickers, e.Ticker)
		}
		seenTicker[e.Ticker] = true
		if !tickerRx.MatchString(e.Ticker) {
			f.BadTickers = append(f.BadTickers, e.Ticker)
		}
	}
	slices.Sort(f.DuplicateIDs)
	f.DuplicateIDs = slices.Compact(f.DuplicateIDs)
	slices.Sort(f.DuplicateTickers)
	f.DuplicateTickers = slices.Compact(f.DuplicateTickers)
	slices.Sort(f.BadTickers)
	f.BadTickers = slices.Compact(f.BadTickers)
	return f
}
