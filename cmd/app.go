// Package cmd implements the CLI application to maintain the dataset.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/compoundeer"
	"github.com/rs/zerolog"
)

// Commands lists every subcommand. A main package registers them all and
// executes the user-selected one.
var Commands = []subcommands.Command{
	&setupCmd{},
	&fetchCmd{},
	&convertCmd{},
	&updateCmd{},
	&validateCmd{},
	&statusCmd{},
	&listCmd{},
	&analyticsCmd{},
	&reindexCmd{},
	&topicCmd{},
	&shellCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "hippo.yaml", "Path to the configuration file")
var mappingFile = flag.String("mapping", "", "Override the ticker mapping file path")
var logLevel = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")

// LoadConfig resolves the application configuration from defaults, the config
// file and the environment, honoring the -mapping override.
func LoadConfig() (*hippo.Config, error) {
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := hippo.LoadConfig(*configFile, explicit)
	if err != nil {
		return nil, err
	}
	if *mappingFile != "" {
		cfg.Paths.Mapping = *mappingFile
	}
	return cfg, nil
}

// Logger returns the application logger configured from the command line.
func Logger() zerolog.Logger {
	return hippo.NewLogger(*logLevel)
}

// NewPipeline wires the full pipeline against the remote provider.
func NewPipeline(cfg *hippo.Config) *hippo.Pipeline {
	log := Logger()
	return hippo.NewPipeline(cfg, compoundeer.New(cfg, log), log)
}

// errorf reports a command failure on stderr with the usual "Error:" prefix.
func errorf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
