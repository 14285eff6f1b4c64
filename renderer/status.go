package renderer

import (
	"bytes"
	"fmt"

	"github.com/hippodata/hippo"
	md "github.com/nao1215/markdown"
)

// DatasetStatus is the view model of the `status` command: the mapping plus
// one row per encoding file on disk.
type DatasetStatus struct {
	MappingPath  string
	MappingCount int
	Files        []FileStatus
}

// FileStatus describes one encoding file on disk.
type FileStatus struct {
	Encoding string
	Path     string
	Present  bool
	Size     int64
	Modified string
	Records  int
}

// StatusMarkdown renders the dataset status to a markdown string.
func StatusMarkdown(s *DatasetStatus) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Dataset Status")
	doc.PlainText(fmt.Sprintf("Mapping: %s (%d entries)", s.MappingPath, s.MappingCount))

	rows := make([][]string, 0, len(s.Files))
	for _, f := range s.Files {
		if !f.Present {
			rows = append(rows, []string{f.Encoding, f.Path, "missing", "", ""})
			continue
		}
		records := ""
		if f.Records >= 0 {
			records = fmt.Sprintf("%d", f.Records)
		}
		rows = append(rows, []string{f.Encoding, f.Path, "present", formatSize(f.Size), records})
	}
	doc.Table(md.TableSet{
		Header: []string{"Encoding", "File", "Status", "Size", "Records"},
		Rows:   rows,
	})

	return doc.String()
}

// MappingMarkdown renders the ticker mapping as a table.
func MappingMarkdown(entries []hippo.MappingEntry) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Ticker Mapping (%d entries)", len(entries)))
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{fmt.Sprintf("%d", e.ID), e.Ticker, e.Name})
	}
	doc.Table(md.TableSet{
		Header: []string{"ID", "Ticker", "Name"},
		Rows:   rows,
	})

	return doc.String()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
