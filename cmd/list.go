package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/renderer"
)

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "lists the ticker mapping" }
func (*listCmd) Usage() string {
	return `hippo list

Lists every id/ticker/name entry of the mapping file.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}
	entries, err := hippo.LoadMapping(cfg.Paths.Mapping)
	if err != nil {
		return errorf("%v", err)
	}
	printMarkdown(renderer.MappingMarkdown(entries))
	return subcommands.ExitSuccess
}
