package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTPProber struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client

	// Server is written to the log in place of URL when set.
	Server string
}

func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		URL:     url,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Probe issues one GET. Failed requests report the time actually spent,
// not the timeout.
func (h *HTTPProber) Probe(ctx context.Context) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return latencyOnly(h.server(), false, elapsedMs(start)), nil
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := elapsedMs(start)
	if err != nil {
		// Client.Timeout also bounds the body read.
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return latencyOnly(h.server(), false, latency), nil
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	return latencyOnly(h.server(), ok, latency), nil
}

func (h *HTTPProber) server() string {
	if h.Server != "" {
		return h.Server
	}
	return h.URL
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
