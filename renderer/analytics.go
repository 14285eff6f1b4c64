package renderer

import (
	"bytes"
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/hippodata/hippo"
	md "github.com/nao1215/markdown"
)

// AnalyticsMarkdown renders the rolling price metrics of one ticker. Prices
// are formatted in the given currency; an unknown or empty code falls back to
// plain numbers.
func AnalyticsMarkdown(ticker string, m hippo.PriceMetrics, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Price Metrics for %s", ticker))
	doc.PlainText(fmt.Sprintf("Over the last %d observations:", m.Observations))

	price := func(v float64) string {
		if c := money.GetCurrency(currency); c != nil {
			return money.New(int64(math.Round(v*100)), currency).Display()
		}
		return fmt.Sprintf("%.2f", v)
	}

	table := md.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Latest", price(m.Latest)},
			{"Average", price(m.Average)},
			{"High", price(m.High)},
			{"Low", price(m.Low)},
			{"Annualized volatility", fmt.Sprintf("%.2f%%", m.Volatility*100)},
			{"Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown)},
			{"Observations", fmt.Sprintf("%d", m.Observations)},
		},
	}
	doc.Table(table)

	return doc.String()
}
