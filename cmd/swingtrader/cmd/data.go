package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/swingtrader/config"
	"github.com/rustyeddy/swingtrader/feed"
	"github.com/rustyeddy/swingtrader/indicators"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Prepare bar files",
}

var dataEnrichCmd = &cobra.Command{
	Use:   "enrich <in.csv>",
	Short: "Add indicator columns to a raw OHLCV CSV",
	Long: `Enrich reads date,open,high,low,close,volume rows, computes ATR, VWAP,
swing low/high, CMF and the CMF and ATR z-scores, and writes a CSV the
backtester can load without --enrich. Indicator lookbacks come from the
config's indicators block when --config points at a readable file.

Example:
  swingtrader data enrich raw/AAPL.csv -o data/daily/AAPL.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runDataEnrich,
}

var dataEnrichOutput string

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataEnrichCmd)

	dataEnrichCmd.Flags().StringVarP(&dataEnrichOutput, "output", "o", "", "output CSV path (required)")
	_ = dataEnrichCmd.MarkFlagRequired("output")
}

func runDataEnrich(cmd *cobra.Command, args []string) error {
	params := indicators.DefaultParams()
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return err
		}
		params = cfg.IndicatorParams()
	}

	s, err := feed.LoadFile(args[0], "", feed.Options{Enrich: true, Indicators: params})
	if err != nil {
		return err
	}

	fh, err := os.Create(dataEnrichOutput)
	if err != nil {
		return err
	}
	if err := feed.Write(fh, s); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", dataEnrichOutput, err)
	}
	if err := fh.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d bars -> %s\n", s.Ticker, s.Len(), dataEnrichOutput)
	return nil
}
