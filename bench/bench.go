package bench

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"golang.org/x/time/rate"
)

// DefaultQueries are sent when no query list is given.
var DefaultQueries = []string{
	"sample", "document", "test", "example", "author",
	"category", "tag", "content", "purpose", "functionality",
}

type Searcher interface {
	Search(ctx context.Context, query searchdb.Query) (*searchdb.Response, error)
}

type Options struct {
	Concurrency int
	Duration    time.Duration
	// RequestsPerSecond caps the combined rate of all workers. Zero is unlimited.
	RequestsPerSecond float64
	Rows              int
	Queries           []string
}

type Report struct {
	Samples   []Sample      `json:"samples"`
	Succeeded int64         `json:"succeeded"`
	Failed    int64         `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	QPS       float64       `json:"qps"`
	P50       time.Duration `json:"p50"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
}

var ErrInvalidOptions = errors.New("concurrency and duration must be positive")

// Run keeps Concurrency workers querying until Duration elapses or ctx is
// done, sampling completed queries once per second.
func Run(ctx context.Context, logger logger.Logger, searcher Searcher, options Options) (*Report, error) {
	if options.Concurrency <= 0 || options.Duration <= 0 {
		return nil, ErrInvalidOptions
	}
	queries := options.Queries
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	rows := options.Rows
	if rows <= 0 {
		rows = 10
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}

	runCtx, cancel := context.WithTimeout(ctx, options.Duration)
	defer cancel()

	var succeeded, failed, completedThisSecond atomic.Int64
	latencies := make([][]time.Duration, options.Concurrency)

	logger.Info("starting benchmark", "concurrency", options.Concurrency, "duration", options.Duration.String())
	start := time.Now()

	var workerWG sync.WaitGroup
	for worker := range options.Concurrency {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for {
				if err := limiter.Wait(runCtx); err != nil {
					return
				}
				query := searchdb.Query{Text: queries[rand.IntN(len(queries))], Rows: rows}

				requestStart := time.Now()
				_, err := searcher.Search(runCtx, query)
				if runCtx.Err() != nil {
					// Cut off by the end of the run
					return
				}
				latencies[worker] = append(latencies[worker], time.Since(requestStart))
				completedThisSecond.Add(1)
				if err != nil {
					failed.Add(1)
					logger.Debug("benchmark query failed", "query", query.Text, "err", err.Error())
					continue
				}
				succeeded.Add(1)
			}
		}()
	}

	var samples []Sample
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

sampling:
	for {
		select {
		case tick := <-ticker.C:
			samples = append(samples, Sample{
				Timestamp: tick.Format(timestampLayout),
				QPS:       float64(completedThisSecond.Swap(0)),
			})
		case <-runCtx.Done():
			break sampling
		}
	}

	workerWG.Wait()
	elapsed := time.Since(start)

	var all []time.Duration
	for _, workerLatencies := range latencies {
		all = append(all, workerLatencies...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	report := &Report{
		Samples:   samples,
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		Elapsed:   elapsed,
		P50:       percentile(all, 50),
		P95:       percentile(all, 95),
		P99:       percentile(all, 99),
	}
	if elapsed > 0 {
		report.QPS = float64(report.Succeeded+report.Failed) / elapsed.Seconds()
	}

	logger.Info("benchmark finished", "succeeded", report.Succeeded, "failed", report.Failed, "qps", report.QPS)
	return report, nil
}

// percentile expects sorted durations.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := (len(sorted)*p+99)/100 - 1
	return sorted[max(0, min(index, len(sorted)-1))]
}
