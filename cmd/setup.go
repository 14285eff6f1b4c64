package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"gopkg.in/yaml.v3"
)

type setupCmd struct {
	token string
	force bool
}

func (*setupCmd) Name() string     { return "setup" }
func (*setupCmd) Synopsis() string { return "creates the config file, mapping and data directories" }
func (*setupCmd) Usage() string {
	return `hippo setup [-token SESSION_TOKEN] [-force]

Prepares a working directory: writes a config file with the defaults,
creates an empty ticker mapping and the data directories. Existing files
are kept unless -force is given.

The session token, when provided, is stored in the config file; prefer the
HIPPO_SESSION_TOKEN environment variable when the file is committed.
`
}

func (c *setupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "token", "", "Session token to store in the config file.")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing config file.")
}

func (c *setupCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := hippo.LoadConfig("", false)
	if err != nil {
		return errorf("%v", err)
	}
	cfg.SessionToken = c.token

	if _, err := os.Stat(*configFile); os.IsNotExist(err) || c.force {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return errorf("cannot marshal config: %v", err)
		}
		if err := os.WriteFile(*configFile, b, 0o644); err != nil {
			return errorf("cannot write config: %v", err)
		}
		fmt.Printf("✅ Wrote %s\n", *configFile)
	} else {
		fmt.Printf("Keeping existing %s\n", *configFile)
	}

	if err := cfg.Paths.EnsureDirs(); err != nil {
		return errorf("%v", err)
	}
	if _, err := os.Stat(cfg.Paths.Mapping); os.IsNotExist(err) {
		if err := hippo.SaveMapping(cfg.Paths.Mapping, nil); err != nil {
			return errorf("cannot create mapping: %v", err)
		}
		fmt.Printf("✅ Created empty mapping %s\n", cfg.Paths.Mapping)
	}

	fmt.Println("Setup complete. Add tickers with 'hippo fetch -add TICKER' and run 'hippo update'.")
	return subcommands.ExitSuccess
}
