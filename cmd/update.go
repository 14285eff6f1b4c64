package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/renderer"
)

type updateCmd struct{}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "runs the full pipeline: fetch, write, validate" }
func (*updateCmd) Usage() string {
	return `hippo update

Runs one full refresh of the dataset: fetches every mapped ticker, writes
all encodings and validates them against the mapping. Individual ticker
failures do not abort the run; they are listed in the summary.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}

	sum, err := NewPipeline(cfg).Run(ctx)
	if sum != nil && sum.Report != nil {
		printMarkdown(renderer.RenderValidation(renderer.NewValidationReport(sum.Report)))
	}
	if err != nil {
		return errorf("run failed: %v", err)
	}
	printMarkdown(renderer.RenderSummary(renderer.NewSummaryReport(sum)))
	if sum.State == hippo.StateFailed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
