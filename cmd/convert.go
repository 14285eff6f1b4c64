package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
)

type convertCmd struct{}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "derives CSV, SQL and Parquet from the fetched dataset" }
func (*convertCmd) Usage() string {
	return `hippo convert [TICKER...]

Projects the fetched NDJSON dataset into the flattened encodings: CSV, SQL
and Parquet (and rewrites the JSON array). With ticker arguments, only the
matching records are projected.

Run 'hippo fetch' first; convert never calls the remote API.
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {}

func (c *convertCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}

	recs, err := hippo.ReadNDJSON(cfg.Paths.NDJSON)
	if err != nil {
		return errorf("cannot read the fetched dataset (run 'hippo fetch' first): %v", err)
	}
	if len(f.Args()) > 0 {
		want := map[string]bool{}
		for _, arg := range f.Args() {
			want[normalizeTicker(arg)] = true
		}
		kept := recs[:0]
		for _, r := range recs {
			if want[r.Ticker] {
				kept = append(kept, r)
			}
		}
		recs = kept
	}

	if err := cfg.Paths.EnsureDirs(); err != nil {
		return errorf("%v", err)
	}
	outputs := cfg.Paths.Outputs()
	delete(outputs, hippo.EncodingNDJSON) // the source dataset stays untouched
	if err := hippo.WriteAll(outputs, recs); err != nil {
		return errorf("%v", err)
	}

	fmt.Printf("✅ Converted %d record(s) to CSV, SQL and Parquet\n", len(recs))
	return subcommands.ExitSuccess
}
