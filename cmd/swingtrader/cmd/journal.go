package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/swingtrader/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite trade journal",
	Long: `Query runs and trades recorded in the SQLite journal.

Subcommands:
  runs    - List recent backtest runs
  trades  - List the trades of a run as Org-mode
  trade   - Show one trade of a run
  day     - List trades closed on a specific day, across runs
  export  - Write a run and its trades as an Org-mode document

Examples:
  swingtrader journal runs -n 5
  swingtrader journal trades 01HZY3P9K6Q5V7R8S2T4W6X8Y0
  swingtrader journal trade 01HZY3P9K6Q5V7R8S2T4W6X8Y0 12
  swingtrader journal day 2024-01-15
  swingtrader journal export 01HZY3P9K6Q5V7R8S2T4W6X8Y0 -o run.org`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent backtest runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <run-id> <transaction-number>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run as Org-mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalExport,
}

var (
	journalDBPath string
	journalLimit  int
	journalOutput string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalExportCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "./swingtrader.sqlite", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of runs to list (0 = all)")
	journalExportCmd.Flags().StringVarP(&journalOutput, "output", "o", "", "write to file instead of stdout")
}

func openJournal() (*journal.SQLite, error) {
	if _, err := os.Stat(journalDBPath); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-26s  %-16s  %-12s  %-8s  %6s  %8s  %12s\n",
		"RUN ID", "CREATED", "STOP", "EQUITY", "TRADES", "MEDIAN R", "NET P/L")
	for _, r := range runs {
		fmt.Fprintf(out, "%-26s  %-16s  %-12s  %-8s  %6d  %8.3f  %12s\n",
			r.RunID, r.Created.Format("2006-01-02 15:04"), r.StopStrategy, r.EquityMode,
			r.Trades, r.MedianR, r.NetPnL.StringFixed(2))
	}
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTrades(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(trades))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	txn, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("transaction number: %w", err)
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	t, err := j.GetTrade(cmd.Context(), args[0], txn)
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(t))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	start, end, err := dayBounds(args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(trades))
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	doc, err := j.ExportRunOrg(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if journalOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	}
	return os.WriteFile(journalOutput, []byte(doc), 0o644)
}

// dayBounds is the UTC day containing day; bar dates are stored in UTC.
func dayBounds(day string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}
