package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/hippodata/hippo"
	"github.com/hippodata/hippo/renderer"
)

type analyticsCmd struct {
	horizon int
}

func (*analyticsCmd) Name() string     { return "analytics" }
func (*analyticsCmd) Synopsis() string { return "computes rolling price metrics for a ticker" }
func (*analyticsCmd) Usage() string {
	return `hippo analytics [-horizon N] TICKER

Computes rolling metrics (latest, average, high, low, annualized
volatility, max drawdown) from the ticker's stock price series in the
fetched dataset. The horizon is the number of trailing observations,
63 by default.
`
}

func (c *analyticsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.horizon, "horizon", hippo.DefaultHorizon, "Number of trailing observations to use.")
}

func (c *analyticsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 1 {
		return errorf("exactly one ticker is required")
	}
	ticker := normalizeTicker(f.Arg(0))

	cfg, err := LoadConfig()
	if err != nil {
		return errorf("%v", err)
	}
	recs, err := hippo.ReadNDJSON(cfg.Paths.NDJSON)
	if err != nil {
		return errorf("cannot read the fetched dataset (run 'hippo fetch' first): %v", err)
	}

	var rec *hippo.CompanyRecord
	for i := range recs {
		if recs[i].Ticker == ticker {
			rec = &recs[i]
			break
		}
	}
	if rec == nil {
		return errorf("no record for ticker %q in the dataset", ticker)
	}

	points, err := hippo.PriceSeries(*rec)
	if err != nil {
		return errorf("%v", err)
	}
	metrics, err := hippo.ComputePriceMetrics(points, c.horizon)
	if err != nil {
		return errorf("%v", err)
	}

	currency := "USD"
	if len(points) > 0 && points[len(points)-1].ValueUnit != "" {
		currency = points[len(points)-1].ValueUnit
	}
	printMarkdown(renderer.AnalyticsMarkdown(ticker, metrics, currency))
	return subcommands.ExitSuccess
}
