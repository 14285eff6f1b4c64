package cmd

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/renderer"
)

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "shows the state of the dataset on disk" }
func (*statusCmd) Usage() string {
	return `hippo status

Shows the mapping size and, for every encoding, whether its file exists,
how big it is and how many records it holds.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {}

func (c *statusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}

	st := &renderer.DatasetStatus{MappingPath: cfg.Paths.Mapping}
	if entries, err := hippo.LoadMapping(cfg.Paths.Mapping); err == nil {
		st.MappingCount = len(entries)
	}

	outputs := cfg.Paths.Outputs()
	for _, enc := range []hippo.Encoding{hippo.EncodingJSON, hippo.EncodingNDJSON, hippo.EncodingCSV, hippo.EncodingSQL, hippo.EncodingParquet} {
		path := outputs[enc]
		fs := renderer.FileStatus{Encoding: string(enc), Path: path, Records: -1}
		if info, err := os.Stat(path); err == nil {
			fs.Present = true
			fs.Size = info.Size()
			fs.Modified = info.ModTime().Format(time.DateTime)
			fs.Records = recordCount(enc, path)
		}
		st.Files = append(st.Files, fs)
	}

	printMarkdown(renderer.StatusMarkdown(st))
	return subcommands.ExitSuccess
}

// recordCount reads an encoding back just to count records; -1 when the file
// cannot be read.
func recordCount(enc hippo.Encoding, path string) int {
	var n int
	switch enc {
	case hippo.EncodingJSON:
		recs, err := hippo.ReadJSON(path)
		if err != nil {
			return -1
		}
		n = len(recs)
	case hippo.EncodingNDJSON:
		recs, err := hippo.ReadNDJSON(path)
		if err != nil {
			return -1
		}
		n = len(recs)
	case hippo.EncodingCSV:
		recs, err := hippo.ReadCSV(path)
		if err != nil {
			return -1
		}
		n = len(recs)
	case hippo.EncodingSQL:
		rows, err := hippo.ReadSQLRows(path)
		if err != nil {
			return -1
		}
		n = len(rows)
	case hippo.EncodingParquet:
		recs, err := hippo.ReadParquet(path)
		if err != nil {
			return -1
		}
		n = len(recs)
	}
	return n
}
