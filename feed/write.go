package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/rustyeddy/swingtrader/market"
)

// Write emits s in the column layout Read expects, indicators and signal
// flags included. NaN values are written as empty cells.
func Write(w io.Writer, s *market.Series) error {
	cw := csv.NewWriter(w)
	header := append(append([]string(nil), PriceColumns...), IndicatorColumns...)
	header = append(header, "entry", "exit")
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, b := range s.Bars {
		sig := s.Signal(i)
		row := []string{b.Date.Format("2006-01-02")}
		for _, v := range []float64{
			b.Open, b.High, b.Low, b.Close, b.Volume,
			b.ATR, b.VWAP, b.SwingLow, b.SwingHigh, b.CMF, b.CMFZ, b.ATRZ,
		} {
			row = append(row, formatFloat(v))
		}
		row = append(row, strconv.FormatBool(sig.Entry), strconv.FormatBool(sig.Exit))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write bar %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
