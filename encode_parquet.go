package hippo

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// parquetCompany is the flattened columnar row. The aggregation fields MUST
// stay in AggregationColumns order right after LastUpdated: the conversion
// walks both in lockstep by field index.
type parquetCompany struct {
	ID          int64  `parquet:"id"`
	Name        string `parquet:"name"`
	Ticker      string `parquet:"ticker"`
	Sector      string `parquet:"sector"`
	Industry    string `parquet:"industry"`
	Description string `parquet:"description"`
	Exchanges   string `parquet:"exchanges"`
	Indices     string `parquet:"indices"`
	LastUpdated string `parquet:"last_updated"`

	MarketCap         *int64   `parquet:"marketCap,optional"`
	EnterpriseValue   *int64   `parquet:"enterpriseValue,optional"`
	Revenue           *int64   `parquet:"revenue,optional"`
	GrossProfit       *int64   `parquet:"grossProfit,optional"`
	Ebit              *int64   `parquet:"ebit,optional"`
	Ebitda            *int64   `parquet:"ebitda,optional"`
	NetIncome         *int64   `parquet:"netIncome,optional"`
	Earnings          *int64   `parquet:"earnings,optional"`
	FreeCashFlow      *int64   `parquet:"freeCashFlow,optional"`
	OperatingCashFlow *int64   `parquet:"operatingCashFlow,optional"`
	TotalAssets       *int64   `parquet:"totalAssets,optional"`
	TotalLiabilities  *int64   `parquet:"totalLiabilities,optional"`
	TotalEquity       *int64   `parquet:"totalEquity,optional"`
	TotalDebt         *int64   `parquet:"totalDebt,optional"`
	Cash              *int64   `parquet:"cash,optional"`
	SharesOutstanding *int64   `parquet:"sharesOutstanding,optional"`
	Pe                *float64 `parquet:"pe,optional"`
	ForwardPe         *float64 `parquet:"forwardPe,optional"`
	Peg               *float64 `parquet:"peg,optional"`
	PriceToBook       *float64 `parquet:"priceToBook,optional"`
	PriceToSales      *float64 `parquet:"priceToSales,optional"`
	EvToEbitda        *float64 `parquet:"evToEbitda,optional"`
	EvToRevenue       *float64 `parquet:"evToRevenue,optional"`
	Roe               *float64 `parquet:"roe,optional"`
	Roa               *float64 `parquet:"roa,optional"`
	Roic              *float64 `parquet:"roic,optional"`
	GrossMargin       *float64 `parquet:"grossMargin,optional"`
	OperatingMargin   *float64 `parquet:"operatingMargin,optional"`
	NetMargin         *float64 `parquet:"netMargin,optional"`
	FcfMargin         *float64 `parquet:"fcfMargin,optional"`
	RevenueGrowth     *float64 `parquet:"revenueGrowth,optional"`
	RevenueGrowth3y   *float64 `parquet:"revenueGrowth3y,optional"`
	EarningsGrowth    *float64 `parquet:"earningsGrowth,optional"`
	EarningsGrowth3y  *float64 `parquet:"earningsGrowth3y,optional"`
	FcfGrowth         *float64 `parquet:"fcfGrowth,optional"`
	DividendYield     *float64 `parquet:"dividendYield,optional"`
	PayoutRatio       *float64 `parquet:"payoutRatio,optional"`
	CurrentRatio      *float64 `parquet:"currentRatio,optional"`
	QuickRatio        *float64 `parquet:"quickRatio,optional"`
	DebtToEquity      *float64 `parquet:"debtToEquity,optional"`
	InterestCoverage  *float64 `parquet:"interestCoverage,optional"`
	AssetTurnover     *float64 `parquet:"assetTurnover,optional"`
	InventoryTurnover *float64 `parquet:"inventoryTurnover,optional"`
	Beta              *float64 `parquet:"beta,optional"`
	Eps               *float64 `parquet:"eps,optional"`
	BookValuePerShare *float64 `parquet:"bookValuePerShare,optional"`
	FcfPerShare       *float64 `parquet:"fcfPerShare,optional"`
	RevenuePerShare   *float64 `parquet:"revenuePerShare,optional"`
	QualityScore      *float64 `parquet:"qualityScore,optional"`
	ValueScore        *float64 `parquet:"valueScore,optional"`
	GrowthScore       *float64 `parquet:"growthScore,optional"`
	MomentumScore     *float64 `parquet:"momentumScore,optional"`
	PiotroskiScore    *float64 `parquet:"piotroskiScore,optional"`
	AltmanZScore      *float64 `parquet:"altmanZScore,optional"`
}

// index of the first aggregation field in parquetCompany.
const parquetAggOffset = 9

func toParquetRow(r CompanyRecord) parquetCompany {
	row := parquetCompany{
		ID:          r.ID,
		Name:        r.Name,
		Ticker:      r.Ticker,
		Sector:      r.Sector,
		Industry:    r.Industry,
		Description: r.Description,
		Exchanges:   strings.Join(r.Exchanges, ";"),
		Indices:     strings.Join(r.Indices, ";"),
		LastUpdated: flattenLastUpdated(r.LastUpdated),
	}
	rv := reflect.ValueOf(&row).Elem()
	for i, col := range AggregationColumns {
		m := r.Aggregations[col.Key]
		if !m.Valid() {
			continue
		}
		f := rv.Field(parquetAggOffset + i)
		if col.SQLType == sqlBigint {
			v := m.Decimal().IntPart()
			f.Set(reflect.ValueOf(&v))
		} else {
			v := m.Float64()
			f.Set(reflect.ValueOf(&v))
		}
	}
	return row
}

func fromParquetRow(row parquetCompany) CompanyRecord {
	rec := CompanyRecord{
		ID:           row.ID,
		Name:         row.Name,
		Ticker:       row.Ticker,
		Sector:       row.Sector,
		Industry:     row.Industry,
		Description:  row.Description,
		Exchanges:    splitSet(row.Exchanges),
		Indices:      splitSet(row.Indices),
		LastUpdated:  parseLastUpdated(row.LastUpdated),
		Aggregations: map[string]Metric{},
	}
	rv := reflect.ValueOf(row)
	for i, col := range AggregationColumns {
		f := rv.Field(parquetAggOffset + i)
		if f.IsNil() {
			continue
		}
		if col.SQLType == sqlBigint {
			rec.Aggregations[col.Key] = MetricFrom(decimal.NewFromInt(f.Elem().Int()))
		} else {
			rec.Aggregations[col.Key] = MetricFromFloat(f.Elem().Float())
		}
	}
	return rec
}

// WriteParquet writes the flattened dataset as a Parquet file with the same
// column order as the CSV and SQL encodings.
func WriteParquet(path string, recs []CompanyRecord) error {
	if len(recs) == 0 {
		return &EmptyDatasetError{Encoding: string(EncodingParquet)}
	}
	sorted := append([]CompanyRecord(nil), recs...)
	SortRecords(sorted)
	rows := make([]parquetCompany, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, toParquetRow(r))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s dataset: %w", EncodingParquet, err)
	}
	if err := parquet.Write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s dataset: %w", EncodingParquet, err)
	}
	return f.Close()
}

// ReadParquet reads back a Parquet dataset written by WriteParquet.
func ReadParquet(path string) ([]CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingParquet, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot read %s dataset: %w", EncodingParquet, err)
	}
	rows, err := parquet.Read[parquetCompany](f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("invalid %s dataset %q: %w", EncodingParquet, path, err)
	}
	recs := make([]CompanyRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, fromParquetRow(row))
	}
	return recs, nil
}
