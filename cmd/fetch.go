package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/compoundeer"
)

type fetchCmd struct {
	resume bool
	add    bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetches company data from the remote API" }
func (*fetchCmd) Usage() string {
	return `hippo fetch [-resume] [-add] [TICKER...]

Fetches company data for the given tickers, or for every entry of the
mapping when no ticker is given, and updates the JSON and NDJSON datasets.
Records already present keep their place; fetched ones are replaced.

The -resume flag skips tickers that already have a record, so an
interrupted run can be continued without refetching.

The -add flag inserts unknown tickers into the mapping (with the next free
id) instead of rejecting them.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.resume, "resume", false, "Skip tickers that already have a record.")
	f.BoolVar(&c.add, "add", false, "Add unknown tickers to the mapping.")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}
	log := Logger()

	if c.add {
		for _, arg := range f.Args() {
			if _, err := hippo.AddTicker(cfg.Paths.Mapping, arg, ""); err != nil {
				return errorf("cannot add ticker %q: %v", arg, err)
			}
		}
	}

	entries, err := hippo.LoadMapping(cfg.Paths.Mapping)
	if err != nil {
		return errorf("%v", err)
	}
	if findings := hippo.CheckMapping(entries); len(findings.DuplicateIDs) > 0 || len(findings.DuplicateTickers) > 0 {
		return errorf("mapping is inconsistent, fix it first (see 'hippo validate'): %d duplicate id(s), %d duplicate ticker(s)",
			len(findings.DuplicateIDs), len(findings.DuplicateTickers))
	}

	selected, err := selectEntries(entries, f.Args())
	if err != nil {
		return errorf("%v", err)
	}

	existing, err := hippo.ReadNDJSON(cfg.Paths.NDJSON)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errorf("%v", err)
	}
	if c.resume {
		have := make(map[int64]bool, len(existing))
		for _, r := range existing {
			have[r.ID] = true
		}
		kept := selected[:0]
		for _, e := range selected {
			if !have[e.ID] {
				kept = append(kept, e)
			}
		}
		selected = kept
	}
	if len(selected) == 0 {
		fmt.Println("Nothing to fetch.")
		return subcommands.ExitSuccess
	}

	client := compoundeer.New(cfg, log)
	results, failures, err := client.FetchAll(ctx, selected)
	if err != nil {
		return errorf("fetch aborted: %v", err)
	}
	for _, fail := range failures {
		fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", fail.Entry.Ticker, fail.Err)
	}
	if len(results) == 0 {
		return errorf("no ticker could be fetched (%d attempted)", len(selected))
	}

	// merge fetched records into the existing dataset, by id
	byID := make(map[int64]hippo.CompanyRecord, len(existing)+len(results))
	for _, r := range existing {
		byID[r.ID] = r
	}
	for _, res := range results {
		rec := hippo.AssembleRecord(res.Entry, res.Company)
		byID[rec.ID] = rec
	}
	recs := make([]hippo.CompanyRecord, 0, len(byID))
	for _, r := range byID {
		recs = append(recs, r)
	}

	if err := cfg.Paths.EnsureDirs(); err != nil {
		return errorf("%v", err)
	}
	if err := hippo.WriteNDJSON(cfg.Paths.NDJSON, recs); err != nil {
		return errorf("%v", err)
	}
	if err := hippo.WriteJSON(cfg.Paths.JSON, recs); err != nil {
		return errorf("%v", err)
	}

	fmt.Printf("✅ Fetched %d of %d ticker(s), dataset now holds %d record(s)\n",
		len(results), len(selected), len(recs))
	return subcommands.ExitSuccess
}

// selectEntries resolves ticker arguments against the mapping; no argument
// means every entry.
func selectEntries(entries []hippo.MappingEntry, args []string) ([]hippo.MappingEntry, error) {
	if len(args) == 0 {
		return entries, nil
	}
	byTicker := make(map[string]hippo.MappingEntry, len(entries))
	for _, e := range entries {
		byTicker[e.Ticker] = e
	}
	var selected []hippo.MappingEntry
	for _, arg := range args {
		t := normalizeTicker(arg)
		e, ok := byTicker[t]
		if !ok {
			return nil, fmt.Errorf("ticker %q is not in the mapping (use -add to insert it)", t)
		}
		selected = append(selected, e)
	}
	return selected, nil
}
