// Command loadtest drives a running search server: it optionally seeds
// generated documents, then issues concurrent searches for a fixed duration
// and prints throughput, latency percentiles and the cache hit ratio.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var vocabulary = []string{
	"cat", "dog", "starling", "parrot", "fluffy", "groomed", "curly", "white",
	"black", "collar", "tail", "eyes", "expressive", "fashionable", "city",
	"garden", "river", "tiny", "loud", "quiet", "sleepy", "hungry", "striped",
}

var statuses = []string{"active", "active", "active", "irrelevant", "banned", "removed"}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Seed        int
	Parallel    bool
	Queries     []string
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	emptyResults  atomic.Int64

	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.mu.Lock()
	s.latencies = append(s.latencies, duration)
	s.statusCodes[statusCode]++
	s.mu.Unlock()
}

type searchResponse struct {
	Results  []json.RawMessage `json:"results"`
	CacheHit bool              `json:"cache_hit"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search server")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	seed := flag.Int("seed", 0, "number of generated documents to add before searching")
	parallel := flag.Bool("parallel", false, "request the parallel search path")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Seed:        *seed,
		Parallel:    *parallel,
		Queries: []string{
			"cat",
			"fluffy cat",
			"groomed dog -collar",
			"white cat fashionable collar",
			"curly -starling",
			"tiny loud parrot",
			"sleepy striped cat -dog",
			"river garden",
			"hungry -cat -dog",
			"expressive eyes",
			"quiet city starling",
			"black tail -fluffy",
		},
	}

	fmt.Println("=== Search Server Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Printf("Parallel:    %t\n", cfg.Parallel)
	fmt.Println()

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	if cfg.Seed > 0 {
		added, err := seedDocuments(context.Background(), client, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %d documents\n\n", added)
	}

	stats := runLoadTest(client, cfg)
	printReport(stats, cfg.Duration)
}

// seedDocuments adds cfg.Seed generated documents with ids 0..Seed-1. Ids
// that already exist are skipped.
func seedDocuments(ctx context.Context, client *http.Client, cfg Config) (int64, error) {
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 42))
	docs := make([]map[string]any, cfg.Seed)
	for i := range docs {
		words := make([]string, 3+rng.IntN(8))
		for j := range words {
			words[j] = vocabulary[rng.IntN(len(vocabulary))]
		}
		ratings := make([]int, rng.IntN(5))
		for j := range ratings {
			ratings[j] = rng.IntN(21) - 10
		}
		docs[i] = map[string]any{
			"id":      i,
			"text":    strings.Join(words, " "),
			"status":  statuses[rng.IntN(len(statuses))],
			"ratings": ratings,
		}
	}

	var added atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for _, doc := range docs {
		g.Go(func() error {
			body, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/v1/documents", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			switch resp.StatusCode {
			case http.StatusCreated, http.StatusOK:
				added.Add(1)
			case http.StatusConflict:
			default:
				return fmt.Errorf("adding document %v: status %d", doc["id"], resp.StatusCode)
			}
			return nil
		})
	}
	err := g.Wait()
	return added.Load(), err
}

func runLoadTest(client *http.Client, cfg Config) *Stats {
	stats := NewStats()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var g errgroup.Group
	fmt.Print("Running")
	for w := range cfg.Concurrency {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				params := url.Values{"q": {query}}
				if i%5 == 0 {
					params.Set("status", "irrelevant")
				}
				if cfg.Parallel {
					params.Set("parallel", "true")
				}
				search(ctx, client, cfg.BaseURL+"/api/v1/search?"+params.Encode(), stats)
			}
			return nil
		})
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	_ = g.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func search(ctx context.Context, client *http.Client, rawURL string, stats *Stats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		stats.RecordRequest(0, 0, err)
		return
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			stats.RecordRequest(time.Since(start), 0, err)
		}
		return
	}
	defer resp.Body.Close()

	var body searchResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	stats.RecordRequest(time.Since(start), resp.StatusCode, nil)
	if decodeErr == nil && resp.StatusCode == http.StatusOK {
		if body.CacheHit {
			stats.cacheHits.Add(1)
		}
		if len(body.Results) == 0 {
			stats.emptyResults.Add(1)
		}
	}
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errCount := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errCount)
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(errCount)/float64(total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}
	if success > 0 {
		fmt.Printf("Cache Hit Rate:  %.2f%%\n", float64(stats.cacheHits.Load())/float64(success)*100)
		fmt.Printf("Empty Results:   %d\n", stats.emptyResults.Load())
	}

	stats.mu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	stats.mu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	sort.Ints(codes)
	stats.mu.Lock()
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, stats.statusCodes[code])
	}
	stats.mu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the server running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
