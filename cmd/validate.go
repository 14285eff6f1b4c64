package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/renderer"
)

type validateCmd struct{}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "cross-checks every encoding against the mapping" }
func (*validateCmd) Usage() string {
	return `hippo validate

Reads every written encoding back and cross-checks record counts, id sets
and names against the ticker mapping. Mismatches are reported, never
corrected. The command fails when the configured thresholds are exceeded.
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {}

func (c *validateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}
	entries, err := hippo.LoadMapping(cfg.Paths.Mapping)
	if err != nil {
		return errorf("%v", err)
	}

	report := hippo.Validate(entries, cfg.Paths.Outputs())
	exceeded := report.Evaluate(cfg.Thresholds)
	printMarkdown(renderer.RenderValidation(renderer.NewValidationReport(report)))

	if exceeded {
		return errorf("%v", &hippo.ConsistencyMismatchError{Report: report})
	}
	return subcommands.ExitSuccess
}
