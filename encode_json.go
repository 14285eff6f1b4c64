package hippo

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON writes records as an indented JSON array, sorted by id. Map
// fields come out with sorted keys, so the same record set always produces
// the same bytes.
func WriteJSON(path string, recs []CompanyRecord) error {
	if len(recs) == 0 {
		return &EmptyDatasetError{Encoding: string(EncodingJSON)}
	}
	sorted := append([]CompanyRecord(nil), recs...)
	SortRecords(sorted)
	b, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal records: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// ReadJSON reads back a JSON-array dataset.
func ReadJSON(path string) ([]CompanyRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingJSON, err)
	}
	var recs []CompanyRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("invalid %s dataset %q: %w", EncodingJSON, path, err)
	}
	return recs, nil
}

// WriteNDJSON writes records as newline-delimited JSON, one compact object
// per line, sorted by id.
func WriteNDJSON(path string, recs []CompanyRecord) error {
	if len(recs) == 0 {
		return &EmptyDatasetError{Encoding: string(EncodingNDJSON)}
	}
	sorted := append([]CompanyRecord(nil), recs...)
	SortRecords(sorted)
	var buf bytes.Buffer
	for _, r := range sorted {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("cannot marshal record %d: %w", r.ID, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadNDJSON reads back a newline-delimited dataset, skipping blank lines.
func ReadNDJSON(path string) ([]CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingNDJSON, err)
	}
	defer f.Close()

	var recs []CompanyRecord
	sc := bufio.NewScanner(f)
	// descriptions can make a single line long
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var r CompanyRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("invalid %s dataset %q line %d: %w", EncodingNDJSON, path, line, err)
		}
		recs = append(recs, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingNDJSON, err)
	}
	return recs, nil
}
