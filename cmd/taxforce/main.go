// Command taxforce runs agent-based SME tax-compliance simulations.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/malakkhan/taxforce/internal/api"
	"github.com/malakkhan/taxforce/internal/config"
	"github.com/malakkhan/taxforce/internal/engine"
	"github.com/malakkhan/taxforce/internal/history"
)

// version is set by ldflags at build time.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "taxforce",
		Short:   "Agent-based SME tax-compliance simulator",
		Version: version,
	}
	root.AddCommand(newRunCmd(), newHistoryCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		seed       int64
		periods    int
		population int
		dbPath     string
		serve      bool
		port       int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)

			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("periods") {
				cfg.Horizon = periods
			}
			if cmd.Flags().Changed("n") {
				cfg.N = population
			}

			sim, err := engine.New(cfg)
			if err != nil {
				return err
			}
			res, err := sim.Run()
			if err != nil {
				return err
			}
			printSummary(cfg, res)

			if dbPath != "" {
				store, err := history.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				id, err := store.SaveRun(cfg, res)
				if err != nil {
					return err
				}
				slog.Info("run saved", "id", id, "db", dbPath)
			}

			if serve {
				srv := &api.Server{Sim: sim, Port: port}
				srv.Start()
				waitForSignal()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults used if omitted)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override random seed")
	cmd.Flags().IntVar(&periods, "periods", 0, "override simulation horizon")
	cmd.Flags().IntVar(&population, "n", 0, "override population size")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to record the run in")
	cmd.Flags().BoolVar(&serve, "serve", false, "serve run state over HTTP after completion")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP API port")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "per-period debug logging")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(false)
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  seed=%d n=%d horizon=%d  compliance=%.1f%%  revenue=%s\n",
					r.ID, r.CreatedAt, r.Seed, r.N, r.Horizon,
					r.ComplianceRate*100,
					humanize.CommafWithDigits(r.TotalRevenue, 0),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "taxforce.db", "SQLite history file")
	return cmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func printSummary(cfg config.Config, res engine.Result) {
	final := res.Final()
	fmt.Printf("run complete: %d agents, %d periods, seed %d\n", cfg.N, res.Periods, res.Seed)
	fmt.Printf("  compliance rate   %.1f%%\n", final.ComplianceRate*100)
	fmt.Printf("  total revenue     %s\n", humanize.CommafWithDigits(final.TotalRevenue, 0))
	fmt.Printf("  tax gap           %s\n", humanize.CommafWithDigits(final.TaxGap, 0))
	fmt.Printf("  mean morale       %.3f\n", final.MeanMorale)
	fmt.Printf("  mean trust        %.3f\n", final.MeanTrust)
	fmt.Printf("  audits (final)    %d\n", final.AuditsPerformed)
	fmt.Printf("  covenants active  %d\n", final.CovenantsActive)
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
}
