package probe

import (
	"context"
	"errors"
	"time"
)

// NoThroughput marks the download/upload fields of latency-only outcomes.
const NoThroughput = -1.0

var ErrBandwidthUnavailable = errors.New("bandwidth probe requested but no speed test backend is configured")

// Outcome is the result of one probe.
type Outcome struct {
	Time         time.Time
	Target       string
	Success      bool
	LatencyMs    float64
	DownloadMbps float64
	UploadMbps   float64
	ShareLink    string
}

// HasThroughput reports whether the outcome carries bandwidth fields.
func (o Outcome) HasThroughput() bool {
	return o.DownloadMbps >= 0 && o.UploadMbps >= 0
}

// Prober runs a single check. A non-nil error means the probing mechanism
// itself is broken; an unreachable target is reported through Outcome.Success.
type Prober interface {
	Probe(ctx context.Context) (Outcome, error)
}

func timeoutMs(timeout time.Duration) float64 {
	return float64(timeout.Milliseconds())
}

func latencyOnly(target string, ok bool, ms float64) Outcome {
	return Outcome{
		Target:       target,
		Success:      ok,
		LatencyMs:    ms,
		DownloadMbps: NoThroughput,
		UploadMbps:   NoThroughput,
	}
}
