package hippo

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// DefaultHorizon is the number of trailing observations the price metrics
// cover when no horizon is given, roughly one quarter of trading days.
const DefaultHorizon = 63

// tradingDays is the annualization base for volatility.
const tradingDays = 252

// PricePoint is one observation of the stock price series.
type PricePoint struct {
	TS        int64   `json:"ts"`
	Value     float64 `json:"value"`
	Interval  string  `json:"interval,omitempty"`
	ValueUnit string  `json:"valueUnit,omitempty"`
}

// PriceMetrics are the rolling metrics computed over a price window.
type PriceMetrics struct {
	Observations int
	Latest       float64
	Average      float64
	High         float64
	Low          float64
	// Volatility is the annualized standard deviation of simple returns.
	Volatility float64
	// MaxDrawdown is the worst peak-to-trough decline, in percent.
	MaxDrawdown float64
}

// PriceSeries extracts the stock price series from a record's insights,
// oldest first. The series may be a bare array or wrapped in a "series"
// field.
func PriceSeries(rec CompanyRecord) ([]PricePoint, error) {
	raw, ok := rec.Insights["stock_price"]
	if !ok {
		return nil, fmt.Errorf("%s carries no stock_price series", rec.Ticker)
	}
	var points []PricePoint
	if err := json.Unmarshal(raw, &points); err != nil {
		var wrapped struct {
			Series []PricePoint `json:"series"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("unreadable stock_price series for %s: %w", rec.Ticker, err)
		}
		points = wrapped.Series
	}
	slices.SortFunc(points, func(a, b PricePoint) int {
		switch {
		case a.TS < b.TS:
			return -1
		case a.TS > b.TS:
			return 1
		}
		return 0
	})
	return points, nil
}

// ComputePriceMetrics computes the rolling metrics over the last horizon
// observations of points (all of them when fewer). A non-positive horizon
// means DefaultHorizon.
func ComputePriceMetrics(points []PricePoint, horizon int) (PriceMetrics, error) {
	if len(points) == 0 {
		return PriceMetrics{}, fmt.Errorf("empty price series")
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if len(points) > horizon {
		points = points[len(points)-horizon:]
	}

	m := PriceMetrics{
		Observations: len(points),
		Latest:       points[len(points)-1].Value,
		High:         math.Inf(-1),
		Low:          math.Inf(1),
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
		m.High = math.Max(m.High, p.Value)
		m.Low = math.Min(m.Low, p.Value)
	}
	m.Average = sum / float64(len(points))

	if len(points) >= 3 {
		returns := make([]float64, 0, len(points)-1)
		for i := 1; i < len(points); i++ {
			prev := points[i-1].Value
			if prev == 0 {
				continue
			}
			returns = append(returns, points[i].Value/prev-1)
		}
		m.Volatility = sampleStd(returns) * math.Sqrt(tradingDays)
	}

	var peak, worst float64
	for _, p := range points {
		peak = math.Max(peak, p.Value)
		if peak > 0 {
			worst = math.Max(worst, (peak-p.Value)/peak)
		}
	}
	m.MaxDrawdown = worst * 100
	return m, nil
}

// sampleStd is the sample standard deviation (N-1 denominator).
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
