package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var benchFlags struct {
	baseURL     string
	concurrency int
	duration    time.Duration
	units       []string
	checkin     string
	nights      int
	adults      int
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load a running API with quote requests",
	Long: `Sends POST /api/quotes from --concurrency workers for --duration and reports
throughput, error count and latency percentiles.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchFlags.baseURL, "base-url", "http://localhost:8080", "API base URL")
	f.IntVar(&benchFlags.concurrency, "concurrency", 8, "number of concurrent workers")
	f.DurationVar(&benchFlags.duration, "duration", 10*time.Second, "how long to send requests")
	f.StringSliceVar(&benchFlags.units, "unit", nil, "unit id to quote (repeatable)")
	f.StringVar(&benchFlags.checkin, "checkin", "", "check-in date, YYYY-MM-DD (default: today)")
	f.IntVar(&benchFlags.nights, "nights", 3, "nights per quote")
	f.IntVar(&benchFlags.adults, "adults", 2, "adults per quote")
	_ = benchCmd.MarkFlagRequired("unit")
}

type benchStats struct {
	count     int64
	errCount  int64
	latencies []time.Duration
	elapsed   time.Duration
}

func (s benchStats) rps() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.count) / s.elapsed.Seconds()
}

// percentile expects sorted latencies.
func (s benchStats) percentile(p float64) time.Duration {
	if len(s.latencies) == 0 {
		return 0
	}
	idx := int(p * float64(len(s.latencies)-1))
	return s.latencies[idx]
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.concurrency < 1 {
		return fmt.Errorf("--concurrency must be positive")
	}
	checkin := civil.DateOf(time.Now())
	if benchFlags.checkin != "" {
		var err error
		if checkin, err = civil.ParseDate(benchFlags.checkin); err != nil {
			return fmt.Errorf("invalid --checkin: %w", err)
		}
	}
	body, err := benchPayload(checkin, benchFlags.nights)
	if err != nil {
		return err
	}

	url := benchFlags.baseURL + "/api/quotes"
	logger.Info("bench started",
		zap.String("url", url),
		zap.Int("concurrency", benchFlags.concurrency),
		zap.Duration("duration", benchFlags.duration),
	)
	stats, err := perfLoad(cmd.Context(), &http.Client{Timeout: 10 * time.Second}, url, body, benchFlags.concurrency, benchFlags.duration)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "requests=%d errors=%d rps=%.1f p50=%s p95=%s p99=%s\n",
		stats.count, stats.errCount, stats.rps(),
		stats.percentile(0.50), stats.percentile(0.95), stats.percentile(0.99),
	)
	return nil
}

func benchPayload(checkin civil.Date, nights int) ([]byte, error) {
	units := make([]map[string]any, 0, len(benchFlags.units))
	for _, id := range benchFlags.units {
		units = append(units, map[string]any{"id": id})
	}
	return json.Marshal(map[string]any{
		"checkin":  checkin.String(),
		"checkout": checkin.AddDays(nights).String(),
		"guests":   map[string]any{"adults": benchFlags.adults},
		"units":    units,
	})
}

// perfLoad posts body to url from n workers until d elapses or ctx is cancelled.
// Non-2xx responses count as errors. An unusable url fails before any worker starts.
func perfLoad(ctx context.Context, client *http.Client, url string, body []byte, n int, d time.Duration) (benchStats, error) {
	if _, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil); err != nil {
		return benchStats{}, fmt.Errorf("invalid bench url: %w", err)
	}
	start := time.Now()
	end := start.Add(d)
	var (
		mu    sync.Mutex
		stats benchStats
		wg    sync.WaitGroup
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
				if err != nil {
					mu.Lock()
					stats.errCount++
					mu.Unlock()
					return
				}
				req.Header.Set("Content-Type", "application/json")
				sent := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					mu.Lock()
					stats.errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				latency := time.Since(sent)

				mu.Lock()
				stats.count++
				if resp.StatusCode >= 300 {
					stats.errCount++
				}
				stats.latencies = append(stats.latencies, latency)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stats.elapsed = time.Since(start)
	slices.Sort(stats.latencies)
	return stats, nil
}
