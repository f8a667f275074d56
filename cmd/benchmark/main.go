package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	targetURL   string
	token       string
	concurrency int
	duration    time.Duration
	workload    string
	senderKey   string
	accounts    []string
	amount      int64
)

// Tallies by response class.
var (
	totalRequests uint64
	success201    uint64
	reject422     uint64
	unavail503    uint64
	limited429    uint64
	failOther     uint64
)

var rootCmd = &cobra.Command{
	Use:   "hederaops-benchmark",
	Short: "Drive HBAR transfers against the API and report throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(accounts) < 2 {
			return fmt.Errorf("at least two --accounts are required")
		}
		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()

		log.Info("starting benchmark",
			zap.String("workload", workload),
			zap.Int("workers", concurrency),
			zap.Duration("duration", duration))

		start := time.Now()
		var wg sync.WaitGroup
		wg.Add(concurrency)
		for i := 0; i < concurrency; i++ {
			go worker(&wg, start)
		}
		wg.Wait()
		return printResults(time.Since(start))
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&targetURL, "url", "http://localhost:8080", "API base URL")
	f.StringVar(&token, "token", os.Getenv("HEDERAOPS_TOKEN"), "admin bearer token")
	f.IntVar(&concurrency, "workers", 10, "number of concurrent workers")
	f.DurationVar(&duration, "duration", 30*time.Second, "test duration")
	f.StringVar(&workload, "workload", "uniform", "workload type: uniform | hotspot")
	f.StringVar(&senderKey, "sender-key", "", "private key shared by the benchmark accounts")
	f.StringSliceVar(&accounts, "accounts", nil, "ledger account ids to transfer between")
	f.Int64Var(&amount, "amount", 1, "tinybars per transfer")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 30 * time.Second}

	for time.Since(start) < duration {
		from, to := pickAccounts()
		body, _ := json.Marshal(map[string]string{
			"sender_id":    from,
			"sender_key":   senderKey,
			"recipient_id": to,
			"amount":       strconv.FormatInt(amount, 10),
		})

		req, _ := http.NewRequest(http.MethodPost, targetURL+"/api/v1/hbar/transfers", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusCreated:
			atomic.AddUint64(&success201, 1)
		case http.StatusUnprocessableEntity:
			atomic.AddUint64(&reject422, 1)
		case http.StatusServiceUnavailable:
			atomic.AddUint64(&unavail503, 1)
		case http.StatusTooManyRequests:
			atomic.AddUint64(&limited429, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

// pickAccounts returns two distinct accounts. The hotspot workload sends
// 90% of traffic between the first two.
func pickAccounts() (string, string) {
	if workload == "hotspot" && rand.Float32() < 0.90 {
		if rand.Float32() < 0.5 {
			return accounts[0], accounts[1]
		}
		return accounts[1], accounts[0]
	}

	a := rand.Intn(len(accounts))
	b := rand.Intn(len(accounts))
	for a == b {
		b = rand.Intn(len(accounts))
	}
	return accounts[a], accounts[b]
}

func printResults(d time.Duration) error {
	total := atomic.LoadUint64(&totalRequests)
	created := atomic.LoadUint64(&success201)

	successRate := 0.0
	if total > 0 {
		successRate = float64(created) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":         workload,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_tps":   float64(total) / d.Seconds(),
		"success_created":  created,
		"rejected":         atomic.LoadUint64(&reject422),
		"unavailable":      atomic.LoadUint64(&unavail503),
		"rate_limited":     atomic.LoadUint64(&limited429),
		"errors":           atomic.LoadUint64(&failOther),
		"success_rate_pct": successRate,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	file, err := os.Create(fmt.Sprintf("results_%s.json", workload))
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(results)
}
