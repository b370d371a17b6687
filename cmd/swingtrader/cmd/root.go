package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swingtrader",
	Short: "Risk-managed swing trade backtester for daily US equity bars",
	Long: `Swingtrader replays daily bars through a risk-managed trade lifecycle:
fixed-fractional sizing, pluggable stop strategies, time stops, partial
profit taking with a trailing stop, and slippage and commission costs.

It provides tools for:
  - Backtesting one or many tickers with isolated or shared equity
  - Enriching raw OHLCV files with the indicators the stops need
  - Journaling runs and trades to SQLite or CSV
  - Exporting runs as Org-mode notes`,
	SilenceUsage: true,
}

var (
	cfgPath  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "swingtrader.yaml", "path to YAML or JSON config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}
