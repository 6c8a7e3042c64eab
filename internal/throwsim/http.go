package throwsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/oche/pkg/logger"
)

// Submission outcomes.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON fetches url and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitThrows posts throws concurrently using a worker pool. Throws rejected
// with 429 are retried with a short backoff.
func submitThrows(ctx context.Context, cfg *Config, throws []Throw, stats *Stats) {
	log := logger.Get().Named("throwsim")
	log.Info(ctx, "submitting throws", logger.Int("count", len(throws)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/throws"

	var accepted, duplicate, failed, retried, submitted atomic.Int64

	throwChan := make(chan Throw, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range throwChan {
				if ctx.Err() != nil {
					return
				}
				result, retries := submitSingleThrow(ctx, client, url, t)
				submitted.Add(1)
				retried.Add(int64(retries))
				switch result {
				case resultAccepted:
					accepted.Add(1)
				case resultDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
				}
				if cfg.Verbose {
					log.Debug(ctx, "throw submitted",
						logger.String("throw_id", t.ThrowID),
						logger.String("result", result))
				}
			}
		}()
	}

	go func() {
		defer close(throwChan)
		for _, t := range throws {
			select {
			case <-ctx.Done():
				return
			case throwChan <- t:
			}
		}
	}()

	wg.Wait()

	stats.ThrowsSubmitted += int(submitted.Load())
	stats.ThrowsAccepted += int(accepted.Load())
	stats.ThrowsDuplicate += int(duplicate.Load())
	stats.ThrowsFailed += int(failed.Load())
	stats.ThrowsRetried += int(retried.Load())

	log.Info(ctx, "throw submission completed",
		logger.Int("accepted", int(accepted.Load())),
		logger.Int("duplicate", int(duplicate.Load())),
		logger.Int("failed", int(failed.Load())),
		logger.Int("retried", int(retried.Load())))
}

// submitSingleThrow submits one throw and returns the outcome and the number
// of retries it took.
func submitSingleThrow(ctx context.Context, client *HTTPClient, url string, t Throw) (string, int) {
	for attempt := range maxSubmitAttempts {
		resp, err := client.Post(ctx, url, t)
		if err != nil {
			return resultFailed, attempt
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return resultFailed, attempt
		}

		switch resp.StatusCode {
		case http.StatusAccepted:
			return resultAccepted, attempt
		case http.StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
				return resultDuplicate, attempt
			}
			return resultFailed, attempt
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return resultFailed, attempt
			case <-time.After(retryBackoff * time.Duration(attempt+1)):
			}
		default:
			return resultFailed, attempt
		}
	}
	return resultFailed, maxSubmitAttempts
}
