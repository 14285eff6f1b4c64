package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
)

type reindexCmd struct {
	backup string
}

func (*reindexCmd) Name() string     { return "reindex" }
func (*reindexCmd) Synopsis() string { return "re-sequences the mapping ids to 1..N" }
func (*reindexCmd) Usage() string {
	return `hippo reindex [-backup FILE]

Rewrites the mapping so ids run 1..N in file order, fixing gaps and
duplicates left by manual edits. The previous content is saved to the
backup file first (mapping path + ".bak" by default; empty to skip).

The datasets are NOT rewritten; run 'hippo update' afterwards so the
encodings pick up the new ids.
`
}

func (c *reindexCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.backup, "backup", "", "Backup file for the previous mapping (default: mapping + .bak).")
}

func (c *reindexCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}
	backup := c.backup
	if backup == "" {
		backup = cfg.Paths.Mapping + ".bak"
	}
	n, err := hippo.ReindexMapping(cfg.Paths.Mapping, backup)
	if err != nil {
		return errorf("%v", err)
	}
	fmt.Printf("✅ Reindexed %d entries (backup in %s)\n", n, backup)
	return subcommands.ExitSuccess
}
