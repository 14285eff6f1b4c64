package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// shell completion handles its own protocol and exits when invoked by
	// the shell.
	completion().Complete("hippo")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	global := map[string]complete.Predictor{
		"config":    predict.Files("*.yaml"),
		"mapping":   predict.Files("*.json"),
		"log-level": predict.Set{"trace", "debug", "info", "warn", "error"},
	}
	return &complete.Command{
		Flags: global,
		Sub: map[string]*complete.Command{
			"setup":     {Flags: map[string]complete.Predictor{"token": predict.Nothing, "force": predict.Nothing}},
			"fetch":     {Flags: map[string]complete.Predictor{"resume": predict.Nothing, "add": predict.Nothing}},
			"convert":   {},
			"update":    {},
			"validate":  {},
			"status":    {},
			"list":      {},
			"analytics": {Flags: map[string]complete.Predictor{"horizon": predict.Something}},
			"reindex":   {Flags: map[string]complete.Predictor{"backup": predict.Files("*")}},
			"topic":     {Args: predict.Set{"readme", "pipeline", "formats", "configuration", "analytics", "*"}},
			"shell":     {Args: predict.Set{"start"}},
		},
	}
}
