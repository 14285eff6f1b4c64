package hippo

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// CompanyRecord is the canonical shape of one company in the dataset.
//
// Identity (ID, Name, Ticker) always comes from the mapping entry the record
// was fetched for; the remote payload only contributes the descriptive fields,
// aggregations and insights. Exchanges and Indices are kept sorted so that
// serializing a record is deterministic.
type CompanyRecord struct {
	ID          int64                      `json:"id"`
	Name        string                     `json:"name"`
	Ticker      string                     `json:"ticker"`
	Sector      string                     `json:"sector"`
	Industry    string                     `json:"industry"`
	Description string                     `json:"description"`
	Exchanges   []string                   `json:"exchanges"`
	Indices     []string                   `json:"indices"`
	LastUpdated map[string]string          `json:"lastUpdated"`
	// Aggregations maps metric name to a nullable numeric value. Keys beyond
	// the known schema columns are preserved in the structural encodings.
	Aggregations map[string]Metric          `json:"aggregations"`
	// Insights carries the raw per-category series (notably "stock_price")
	// used by analytics. Flattened encodings do not include it.
	Insights map[string]json.RawMessage `json:"insights,omitempty"`
}

// Metric is a nullable numeric value. The zero Metric is null.
//
// It marshals to a bare JSON number (or null), not to the quoted string that
// decimal.Decimal produces, so that encodings stay numeric.
type Metric struct {
	dec   decimal.Decimal
	valid bool
}

// MetricFrom wraps a decimal into a non-null Metric.
func MetricFrom(d decimal.Decimal) Metric { return Metric{dec: d, valid: true} }

// MetricFromFloat wraps a float64 into a non-null Metric.
func MetricFromFloat(f float64) Metric { return MetricFrom(decimal.NewFromFloat(f)) }

// Valid reports whether the metric carries a value.
func (m Metric) Valid() bool { return m.valid }

// Decimal returns the underlying value; zero when the metric is null.
func (m Metric) Decimal() decimal.Decimal { return m.dec }

// Float64 returns the value as a float64, losing precision beyond what a
// float can hold. Null metrics return 0.
func (m Metric) Float64() float64 {
	f, _ := m.dec.Float64()
	return f
}

// String renders the canonical numeric text of the metric, or "" when null.
func (m Metric) String() string {
	if !m.valid {
		return ""
	}
	return m.dec.String()
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.valid {
		return []byte("null"), nil
	}
	return []byte(m.dec.String()), nil
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*m = Metric{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return fmt.Errorf("invalid metric %s: %w", string(b), err)
		}
		if s == "" {
			*m = Metric{}
			return nil
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid metric %s: %w", string(b), err)
	}
	*m = MetricFrom(d)
	return nil
}

// metricFromAny converts a decoded JSON value to a Metric. Anything that is
// not a number (or a numeric string) is null.
func metricFromAny(v any) Metric {
	switch x := v.(type) {
	case float64:
		return MetricFromFloat(x)
	case json.Number:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return MetricFrom(d)
		}
	case string:
		if d, err := decimal.NewFromString(x); err == nil {
			return MetricFrom(d)
		}
	case int:
		return MetricFrom(decimal.NewFromInt(int64(x)))
	case int64:
		return MetricFrom(decimal.NewFromInt(x))
	}
	return Metric{}
}

// AssembleRecord builds the canonical record for a mapping entry from the
// decoded `company` object of the remote payload. A nil or incomplete payload
// yields a record with empty descriptive fields, never an error: identity is
// already known from the mapping.
func AssembleRecord(entry MappingEntry, company map[string]any) CompanyRecord {
	rec := CompanyRecord{
		ID:           entry.ID,
		Name:         entry.Name,
		Ticker:       entry.Ticker,
		Exchanges:    []string{},
		Indices:      []string{},
		LastUpdated:  map[string]string{},
		Aggregations: map[string]Metric{},
	}
	if company == nil {
		return rec
	}

	rec.Sector = stringField(company, "sector")
	rec.Industry = stringField(company, "industry")
	rec.Description = stringField(company, "description")
	rec.Exchanges = stringSet(company["exchanges"])
	rec.Indices = stringSet(company["indices"])

	if lu, ok := company["lastUpdated"].(map[string]any); ok {
		for k, v := range lu {
			rec.LastUpdated[k] = scalarString(v)
		}
	}
	if aggs, ok := company["aggregations"].(map[string]any); ok {
		for k, v := range aggs {
			rec.Aggregations[k] = metricFromAny(v)
		}
	}
	if ins, ok := company["insights"].(map[string]any); ok {
		rec.Insights = make(map[string]json.RawMessage, len(ins))
		for k, v := range ins {
			if b, err := json.Marshal(v); err == nil {
				rec.Insights[k] = b
			}
		}
	}
	return rec
}

// SortRecords orders records by id, the canonical dataset order.
func SortRecords(recs []CompanyRecord) {
	slices.SortFunc(recs, func(a, b CompanyRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stringSet flattens a JSON array of strings (or of objects carrying a
// name/symbol field) into a sorted, de-duplicated slice.
func stringSet(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	set := make([]string, 0, len(arr))
	for _, item := range arr {
		switch x := item.(type) {
		case string:
			if x != "" {
				set = append(set, x)
			}
		case map[string]any:
			for _, key := range []string{"name", "symbol"} {
				if s, _ := x[key].(string); s != "" {
					set = append(set, s)
					break
				}
			}
		}
	}
	slices.Sort(set)
	return slices.Compact(set)
}

// scalarString renders a decoded JSON scalar the way it appeared on the wire,
// trimming the ".0" float artefact off integral timestamps.
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// AggregationColumn describes one column of the flattened schema shared by
// the CSV, SQL and Parquet encodings.
type AggregationColumn struct {
	Key     string
	SQLType string
}

const (
	sqlDecimal = "DECIMAL(20,6)"
	sqlBigint  = "BIGINT"
)

// AggregationColumns is the fixed column order of the flattened encodings.
// Money amounts and share counts are BIGINT; ratios, margins, growth rates
// and scores are DECIMAL.
var AggregationColumns = []AggregationColumn{
	{"marketCap", sqlBigint},
	{"enterpriseValue", sqlBigint},
	{"revenue", sqlBigint},
	{"grossProfit", sqlBigint},
	{"ebit", sqlBigint},
	{"ebitda", sqlBigint},
	{"netIncome", sqlBigint},
	{"earnings", sqlBigint},
	{"freeCashFlow", sqlBigint},
	{"operatingCashFlow", sqlBigint},
	{"totalAssets", sqlBigint},
	{"totalLiabilities", sqlBigint},
	{"totalEquity", sqlBigint},
	{"totalDebt", sqlBigint},
	{"cash", sqlBigint},
	{"sharesOutstanding", sqlBigint},
	{"pe", sqlDecimal},
	{"forwardPe", sqlDecimal},
	{"peg", sqlDecimal},
	{"priceToBook", sqlDecimal},
	{"priceToSales", sqlDecimal},
	{"evToEbitda", sqlDecimal},
	{"evToRevenue", sqlDecimal},
	{"roe", sqlDecimal},
	{"roa", sqlDecimal},
	{"roic", sqlDecimal},
	{"grossMargin", sqlDecimal},
	{"operatingMargin", sqlDecimal},
	{"netMargin", sqlDecimal},
	{"fcfMargin", sqlDecimal},
	{"revenueGrowth", sqlDecimal},
	{"revenueGrowth3y", sqlDecimal},
	{"earningsGrowth", sqlDecimal},
	{"earningsGrowth3y", sqlDecimal},
	{"fcfGrowth", sqlDecimal},
	{"dividendYield", sqlDecimal},
	{"payoutRatio", sqlDecimal},
	{"currentRatio", sqlDecimal},
	{"quickRatio", sqlDecimal},
	{"debtToEquity", sqlDecimal},
	{"interestCoverage", sqlDecimal},
	{"assetTurnover", sqlDecimal},
	{"inventoryTurnover", sqlDecimal},
	{"beta", sqlDecimal},
	{"eps", sqlDecimal},
	{"bookValuePerShare", sqlDecimal},
	{"fcfPerShare", sqlDecimal},
	{"revenuePerShare", sqlDecimal},
	{"qualityScore", sqlDecimal},
	{"valueScore", sqlDecimal},
	{"growthScore", sqlDecimal},
	{"momentumScore", sqlDecimal},
	{"piotroskiScore", sqlDecimal},
	{"altmanZScore", sqlDecimal},
}
