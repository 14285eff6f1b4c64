package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type shellCmd struct{}

func (*shellCmd) Name() string     { return "shell" }
func (*shellCmd) Synopsis() string { return "starts an interactive session" }
func (*shellCmd) Usage() string {
	return `hippo shell start

Starts an interactive session: every line is a hippo command without the
leading "hippo" ("fetch AAPL", "status", ...). "help" lists the commands,
"quit" leaves.
`
}

func (c *shellCmd) SetFlags(f *flag.FlagSet) {}

func (c *shellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.Arg(0) != "start" {
		return errorf("usage: hippo shell start")
	}

	byName := map[string]subcommands.Command{}
	for _, cmd := range Commands {
		if cmd.Name() != "shell" {
			byName[cmd.Name()] = cmd
		}
	}

	fmt.Println("hippo interactive session. Type 'help' for commands, 'quit' to leave.")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("hippo> ")
		if !sc.Scan() {
			fmt.Println()
			return subcommands.ExitSuccess
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return subcommands.ExitSuccess
		case "help":
			for _, cmd := range Commands {
				if cmd.Name() != "shell" {
					fmt.Printf("  %-10s %s\n", cmd.Name(), cmd.Synopsis())
				}
			}
			continue
		}

		cmd, ok := byName[fields[0]]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown command %q, try 'help'\n", fields[0])
			continue
		}
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		if err := fs.Parse(fields[1:]); err != nil {
			continue
		}
		cmd.Execute(ctx, fs)
	}
}
