package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quantcrew/internal/config"
	"quantcrew/internal/display"
	"quantcrew/internal/storage"
	"quantcrew/internal/trading"
)

const version = "0.2.0"

// NewRootCmd builds the quantcrew command tree. Flags override the values
// loaded from the environment and .env.
func NewRootCmd() *cobra.Command {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "quantcrew",
		Short: "Multi-agent trading analysis",
		Long: `quantcrew runs a team of specialist analysts over a stock symbol, debates
their findings, and produces a BUY/SELL/HOLD decision.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug output")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var (
		date     string
		analysts []string
		parallel bool
		workers  int
		timeout  int
		retries  int
	)

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run a full analysis for a stock symbol",
		Long: `Run a full analysis for a stock ticker symbol.
Example: quantcrew analyze AAPL --date=2025-03-14 --parallel --workers=4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			if cmd.Flags().Changed("analysts") {
				cfg.SelectedAnalysts = analysts
			}
			if cmd.Flags().Changed("parallel") {
				cfg.ParallelAnalysts = parallel
			}
			if cmd.Flags().Changed("workers") {
				cfg.MaxParallelWorkers = workers
			}
			if cmd.Flags().Changed("timeout") {
				cfg.AnalystTimeout = time.Duration(timeout) * time.Second
			}
			if cmd.Flags().Changed("retries") {
				cfg.AnalystRetries = retries
			}

			session := trading.NewSession(cfg, symbol, date)
			if err := session.Execute(cmd.Context()); err != nil {
				display.Error("analysis", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "analysis date in YYYY-MM-DD format (default today)")
	cmd.Flags().StringSliceVar(&analysts, "analysts", cfg.SelectedAnalysts, "analysts to run (market,fundamentals,news,social,china_market)")
	cmd.Flags().BoolVar(&parallel, "parallel", cfg.ParallelAnalysts, "run analysts concurrently")
	cmd.Flags().IntVar(&workers, "workers", cfg.MaxParallelWorkers, "max concurrent analysts when parallel")
	cmd.Flags().IntVar(&timeout, "timeout", int(cfg.AnalystTimeout/time.Second), "per-analyst timeout in seconds")
	cmd.Flags().IntVar(&retries, "retries", cfg.AnalystRetries, "retries per analyst after a failed attempt")

	return cmd
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewStore(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded yet")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%4d  %-8s %s  %-4s %.0f%%  %s\n",
					r.ID, r.Symbol, r.TradeDate, r.Action, r.Confidence*100,
					r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quantcrew %s\n", version)
		},
	}
}
