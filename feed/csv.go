// Package feed loads per-ticker daily bars and signal flags from CSV.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/swingtrader/indicators"
	"github.com/rustyeddy/swingtrader/market"
)

// Required price columns, then the indicator columns the engine reads.
var (
	PriceColumns     = []string{"date", "open", "high", "low", "close", "volume"}
	IndicatorColumns = []string{"atr", "vwap", "swing_low", "swing_high", "cmf", "cmf_z", "atr_z"}
)

// Options control how a CSV is turned into a series.
type Options struct {
	// From and To restrict bars to [From, To); zero values are unbounded.
	From time.Time
	To   time.Time

	// Enrich recomputes every indicator column from OHLCV instead of
	// requiring them in the file.
	Enrich     bool
	Indicators indicators.Params
}

// File is a CSV of one ticker's bars. It satisfies the backtest source
// contract.
type File struct {
	Path   string
	Symbol string
	Opts   Options
}

func (f File) Ticker() string { return f.Symbol }

func (f File) Load() (*market.Series, error) {
	return LoadFile(f.Path, f.Symbol, f.Opts)
}

// TickerFromPath derives the ticker from a file name: data/AAPL.csv -> AAPL.
func TickerFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Discover returns a File for every *.csv in dir, sorted by ticker.
func Discover(dir string, opts Options) ([]File, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no csv files in %s", dir)
	}
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		files = append(files, File{Path: p, Symbol: TickerFromPath(p), Opts: opts})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Symbol < files[j].Symbol })
	return files, nil
}

// LoadFile reads path as ticker's series. An empty ticker is derived from
// the file name.
func LoadFile(path, ticker string, opts Options) (*market.Series, error) {
	if ticker == "" {
		ticker = TickerFromPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, ticker, opts)
}

// Read parses CSV bars from r. The first row must be a header naming the
// columns; order is free and names are case-insensitive. Parse failures are
// returned as *market.DataError.
func Read(r io.Reader, ticker string, opts Options) (*market.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &market.DataError{Ticker: ticker, Index: -1, Reason: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", ticker, err)
	}
	cols, err := columnIndex(ticker, header, opts.Enrich)
	if err != nil {
		return nil, err
	}

	s := &market.Series{Ticker: ticker}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", ticker, line, err)
		}
		if blank(row) {
			continue
		}

		bar, sig, err := parseRow(row, cols)
		if err != nil {
			return nil, &market.DataError{Ticker: ticker, Index: len(s.Bars), Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		s.Bars = append(s.Bars, bar)
		s.Signals = append(s.Signals, sig)
	}

	// Enrich before trimming to the date range so bars before From still
	// warm the indicators up.
	if opts.Enrich {
		p := opts.Indicators
		if p == (indicators.Params{}) {
			p = indicators.DefaultParams()
		}
		s.Bars = indicators.Enrich(s.Bars, p)
	}
	s.Trim(func(b market.Bar) bool { return inRange(b.Date, opts.From, opts.To) })
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func columnIndex(ticker string, header []string, enrich bool) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := PriceColumns
	if !enrich {
		required = append(append([]string(nil), PriceColumns...), IndicatorColumns...)
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, &market.DataError{Ticker: ticker, Index: -1, Reason: "missing column " + c}
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (market.Bar, market.Signal, error) {
	var b market.Bar
	var sig market.Signal

	cell := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	ds, _ := cell("date")
	d, err := parseDate(ds)
	if err != nil {
		return b, sig, err
	}
	b.Date = d

	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
		{"volume", &b.Volume},
		{"atr", &b.ATR}, {"vwap", &b.VWAP},
		{"swing_low", &b.SwingLow}, {"swing_high", &b.SwingHigh},
		{"cmf", &b.CMF}, {"cmf_z", &b.CMFZ}, {"atr_z", &b.ATRZ},
	}
	for _, f := range fields {
		v, _ := cell(f.name)
		x, err := parseFloat(v)
		if err != nil {
			return b, sig, fmt.Errorf("bad %s %q: %w", f.name, v, err)
		}
		*f.dst = x
	}
	if math.IsNaN(b.Volume) {
		b.Volume = 0
	}

	for _, f := range []struct {
		name string
		dst  *bool
	}{{"entry", &sig.Entry}, {"exit", &sig.Exit}} {
		v, _ := cell(f.name)
		if v == "" {
			continue
		}
		x, err := strconv.ParseBool(v)
		if err != nil {
			return b, sig, fmt.Errorf("bad %s flag %q", f.name, v)
		}
		*f.dst = x
	}
	return b, sig, nil
}

// parseFloat maps an empty cell or NaN to NaN: a gap bar for prices, a
// warmup value for indicators.
func parseFloat(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
