// Package compoundeer implements the remote data provider: a client for the
// compoundeer batched-RPC API serving per-ticker company payloads.
package compoundeer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/hippodata/hippo"
	"github.com/rs/zerolog"
)

// Client fetches company payloads. Zero values fall back to sane defaults;
// use New to build one from the application config.
type Client struct {
	BaseURL      string
	SessionToken string
	UserAgent    string
	MaxRetries   int
	RequestDelay time.Duration
	Concurrency  int

	HTTP *http.Client
	Log  zerolog.Logger
}

// New builds a client from the application config. The HTTP client carries
// the request timeout and a daily disk cache, so re-running a pipeline the
// same day does not hammer the remote API.
func New(cfg *hippo.Config, log zerolog.Logger) *Client {
	return &Client{
		BaseURL:      cfg.BaseURL,
		SessionToken: cfg.SessionToken,
		UserAgent:    cfg.UserAgent,
		MaxRetries:   cfg.MaxRetries,
		RequestDelay: cfg.RequestDelay,
		Concurrency:  cfg.Concurrency,
		HTTP: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: &diskCache{base: http.DefaultTransport, log: log},
		},
		Log: log,
	}
}

// requestURL builds the batched-RPC query for one ticker: the input parameter
// is a JSON object keyed by batch index.
func (c *Client) requestURL(ticker string) string {
	input := fmt.Sprintf(`{"0":{"json":%q}}`, ticker)
	return c.BaseURL + "?batch=1&input=" + url.QueryEscape(input)
}

// Fetch retrieves and unwraps the company object for one ticker, without
// retrying. The error is one of the hippo failure kinds.
func (c *Client) Fetch(ctx context.Context, ticker string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(ticker), nil)
	if err != nil {
		return nil, &hippo.MalformedResponseError{Ticker: ticker, Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("x-trpc-source", "nextjs-react")
	if c.SessionToken != "" {
		req.AddCookie(&http.Cookie{Name: "compoundeer.session-token", Value: c.SessionToken})
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &hippo.TransientNetworkError{Ticker: ticker, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &hippo.TransientNetworkError{Ticker: ticker, Err: fmt.Errorf("http %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, &hippo.RemoteAPIError{Ticker: ticker, Message: "http " + resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &hippo.TransientNetworkError{Ticker: ticker, Err: err}
	}
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, &hippo.MalformedResponseError{Ticker: ticker, Reason: "not JSON: " + err.Error()}
	}

	// the error shape carries a top-level error object per batch index
	if jval, err := jsonpath.Get("$[0].error.json.message", jobj); err == nil {
		if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
			jval = jlist[0]
		}
		msg, _ := jval.(string)
		if msg == "" {
			msg = "unspecified remote error"
		}
		return nil, &hippo.RemoteAPIError{Ticker: ticker, Message: msg}
	}

	jval, err := jsonpath.Get("$[0].result.data.json.company", jobj)
	if err != nil {
		return nil, &hippo.MalformedResponseError{Ticker: ticker, Reason: "payload carries no company object"}
	}
	// jsonpath may wrap the answer in a one-element list
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	company, ok := jval.(map[string]any)
	if !ok {
		return nil, &hippo.MalformedResponseError{Ticker: ticker, Reason: "company is not an object"}
	}
	return company, nil
}

// FetchTicker is Fetch with retries: transient failures back off
// exponentially (capped, jittered) up to MaxRetries extra attempts. Other
// failures return immediately.
func (c *Client) FetchTicker(ctx context.Context, ticker string) (map[string]any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			c.Log.Debug().Str("ticker", ticker).Int("attempt", attempt).Dur("delay", delay).Msg("retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		company, err := c.Fetch(ctx, ticker)
		if err == nil {
			return company, nil
		}
		lastErr = err
		var transient *hippo.TransientNetworkError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// FetchAll fetches every entry with a bounded worker pool, pacing each worker
// by RequestDelay. Results come back in mapping order. It implements
// hippo.Fetcher; the returned error is only non-nil when the context ends the
// run early.
func (c *Client) FetchAll(ctx context.Context, entries []hippo.MappingEntry) ([]hippo.FetchResult, []hippo.FetchFailure, error) {
	type slot struct {
		company map[string]any
		err     error
	}
	slots := make([]slot, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.concurrency(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for i := range jobs {
				if !first && c.RequestDelay > 0 {
					select {
					case <-time.After(c.RequestDelay):
					case <-ctx.Done():
						slots[i].err = ctx.Err()
						continue
					}
				}
				first = false
				e := entries[i]
				c.Log.Info().Str("ticker", e.Ticker).Msg("fetching")
				slots[i].company, slots[i].err = c.FetchTicker(ctx, e.Ticker)
			}
		}()
	}
	for i := range entries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			slots[i].err = ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	var results []hippo.FetchResult
	var failures []hippo.FetchFailure
	for i, s := range slots {
		switch {
		case s.err != nil:
			failures = append(failures, hippo.FetchFailure{Entry: entries[i], Err: s.err})
		case s.company != nil:
			results = append(results, hippo.FetchResult{Entry: entries[i], Company: s.company})
		}
	}
	if err := ctx.Err(); err != nil {
		return results, failures, err
	}
	return results, failures, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return "hippo"
}

func (c *Client) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return 1
}

// backoff returns the pause before retry attempt n: 500ms doubling per
// attempt, capped at 8s, plus up to 250ms of jitter.
func backoff(attempt int) time.Duration {
	d := 500 * time.Millisecond << (attempt - 1)
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d + time.Duration(rand.Int63n(int64(250*time.Millisecond)))
}

// NoCache strips the disk cache off the client's transport, for callers that
// must see the live remote state.
func (c *Client) NoCache() *Client {
	clone := *c
	clone.HTTP = &http.Client{Timeout: c.httpClient().Timeout}
	return &clone
}

var _ hippo.Fetcher = (*Client)(nil)
