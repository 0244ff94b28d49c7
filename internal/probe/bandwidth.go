package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/showwin/speedtest-go/speedtest"
)

// SpeedResult is what a speed test backend reports for one run.
type SpeedResult struct {
	PingMs       float64
	DownloadMbps float64
	UploadMbps   float64
	ShareLink    string
}

// SpeedTester measures throughput against some speed test service.
type SpeedTester interface {
	Run(ctx context.Context) (SpeedResult, error)
}

type BandwidthProber struct {
	Timeout time.Duration
	Tester  SpeedTester

	// Server is written to the log in place of "speedtest" when set.
	Server string
}

// Probe runs one speed test. Any backend error is an ordinary failed
// sample with zeroed throughput.
func (b *BandwidthProber) Probe(ctx context.Context) (Outcome, error) {
	tctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	res, err := b.Tester.Run(tctx)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{
			Target:    b.server(),
			Success:   false,
			LatencyMs: timeoutMs(b.Timeout),
		}, nil
	}

	return Outcome{
		Target:       b.server(),
		Success:      true,
		LatencyMs:    res.PingMs,
		DownloadMbps: res.DownloadMbps,
		UploadMbps:   res.UploadMbps,
		ShareLink:    res.ShareLink,
	}, nil
}

func (b *BandwidthProber) server() string {
	if b.Server != "" {
		return b.Server
	}
	return BandwidthTarget
}

// SpeedtestNet runs tests against the speedtest.net server list.
type SpeedtestNet struct {
	// ServerIDs restricts server selection; empty considers the nearest
	// servers from the published list.
	ServerIDs []int
}

// candidateServers bounds how many servers are latency tested per run.
const candidateServers = 5

func (s *SpeedtestNet) Run(ctx context.Context) (SpeedResult, error) {
	client := speedtest.New()

	servers, err := client.FetchServerListContext(ctx)
	if err != nil {
		return SpeedResult{}, fmt.Errorf("fetch server list: %w", err)
	}
	targets := servers
	if len(s.ServerIDs) > 0 {
		targets, err = servers.FindServer(s.ServerIDs)
		if err != nil {
			return SpeedResult{}, fmt.Errorf("find server: %w", err)
		}
	}
	if len(targets) > candidateServers {
		targets = targets[:candidateServers]
	}

	best, err := lowestLatency(len(targets), func(i int) (time.Duration, error) {
		srv := targets[i]
		if err := srv.PingTestContext(ctx, func(time.Duration) {}); err != nil {
			return 0, err
		}
		return srv.Latency, nil
	})
	if err != nil {
		return SpeedResult{}, err
	}
	srv := targets[best]

	if err := srv.DownloadTestContext(ctx); err != nil {
		return SpeedResult{}, fmt.Errorf("download %s: %w", srv.Host, err)
	}
	if err := srv.UploadTestContext(ctx); err != nil {
		return SpeedResult{}, fmt.Errorf("upload %s: %w", srv.Host, err)
	}

	// speedtest.net share links need an authenticated result upload, which
	// the library does not perform.
	return SpeedResult{
		PingMs:       float64(srv.Latency.Microseconds()) / 1000,
		DownloadMbps: srv.DLSpeed.Mbps(),
		UploadMbps:   srv.ULSpeed.Mbps(),
	}, nil
}

// lowestLatency pings n candidates and returns the index of the fastest one.
// Candidates that fail to answer are skipped.
func lowestLatency(n int, ping func(i int) (time.Duration, error)) (int, error) {
	best := -1
	var bestRTT time.Duration
	var lastErr error
	for i := 0; i < n; i++ {
		rtt, err := ping(i)
		if err != nil {
			lastErr = err
			continue
		}
		if best < 0 || rtt < bestRTT {
			best, bestRTT = i, rtt
		}
	}
	if best < 0 {
		if lastErr != nil {
			return 0, fmt.Errorf("no speed test server answered: %w", lastErr)
		}
		return 0, fmt.Errorf("no speed test server available")
	}
	return best, nil
}
