package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/meghashyamc/searchdesk/bench"
	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/spf13/cobra"
)

func main() {
	godotenv.Load()

	root := &cobra.Command{
		Use:   "bench",
		Short: "Load test the search engine",
	}
	root.AddCommand(runCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		concurrency int
		duration    time.Duration
		output      string
		rps         float64
		solrURL     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send random queries concurrently and record queries per second",
		Long: `Runs N workers that send queries picked at random from a fixed list to
the configured Solr core until the duration elapses. Per-second samples are
written as a timestamp,qps CSV, which the dashboard page reads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.New(cfg.GetLogLevel())

			if output == "" {
				output = cfg.GetBenchResultsPath()
			}
			if solrURL == "" {
				solrURL = cfg.GetSolrURL()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			solr := searchdb.NewSolrWithClient(log, solrURL, cfg.GetSuggester(), &http.Client{Timeout: cfg.GetRequestTimeout()})
			defer solr.Close()

			report, err := bench.Run(ctx, log, solr, bench.Options{
				Concurrency:       concurrency,
				Duration:          duration,
				RequestsPerSecond: rps,
				Rows:              cfg.GetPageSize(),
			})
			if err != nil {
				return err
			}

			if err := bench.WriteSamples(output, report.Samples); err != nil {
				return err
			}

			fmt.Printf("Concurrency: %d\n", concurrency)
			fmt.Printf("Duration: %s\n", report.Elapsed.Round(time.Millisecond))
			fmt.Printf("Successful requests: %d\n", report.Succeeded)
			fmt.Printf("Failed requests: %d\n", report.Failed)
			fmt.Printf("QPS: %.2f\n", report.QPS)
			fmt.Printf("Latency p50/p95/p99: %s / %s / %s\n", report.P50, report.P95, report.P99)
			fmt.Printf("Samples written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 10, "number of concurrent workers")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 30*time.Second, "how long to run")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file for per-second samples (default from config)")
	cmd.Flags().Float64Var(&rps, "rps", 0, "cap on total requests per second, 0 for unlimited")
	cmd.Flags().StringVar(&solrURL, "solr-url", "", "Solr core URL (default from config)")

	return cmd
}
