package cmd

import (
	"fmt"

	"github.com/rustyeddy/swingtrader/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate the reference configuration
  validate - Validate an existing configuration file

Examples:
  swingtrader config init -o swingtrader.yaml
  swingtrader config validate -c swingtrader.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the reference configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "swingtrader.yaml", "output config file path (.yaml or .json)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  swingtrader backtest -c %s --data <dir>\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", cfgPath)
	fmt.Fprintf(out, "  Account: $%.2f (%s equity)\n", cfg.AccountValue, equityMode(cfg))
	fmt.Fprintf(out, "  Stop: %s (Risk: %.2f%% per trade)\n", cfg.StopStrategy, cfg.RiskPctPerTrade)
	fmt.Fprintf(out, "  Exits: time stop %d bars, target %.1fR (%.0f%%), trail %d bars\n",
		cfg.TimeStopBars, cfg.ProfitTargetR, cfg.ProfitExitPct*100, cfg.TrailLookbackBars)
	fmt.Fprintf(out, "  Costs: %v (slippage %.3f%%, $%.4f/share)\n",
		cfg.TransactionCosts.Enabled, cfg.TransactionCosts.SlippagePct, cfg.TransactionCosts.CommissionPerShare)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}

func equityMode(cfg *config.Config) string {
	if cfg.Shared() {
		return config.EquityShared
	}
	return config.EquityIsolated
}
