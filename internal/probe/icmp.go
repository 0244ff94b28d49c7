package probe

import (
	"context"
	"time"
)

// Pinger sends one echo request. ok is false when the host did not answer
// in time; err is reserved for failures of the pinging mechanism itself.
type Pinger interface {
	Ping(ctx context.Context, host string, timeout time.Duration) (rttMs float64, ok bool, err error)
}

type ICMPProber struct {
	Host    string
	Timeout time.Duration
	Pinger  Pinger

	// Server is written to the log in place of Host when set.
	Server string
}

func (p *ICMPProber) Probe(ctx context.Context) (Outcome, error) {
	rtt, ok, err := p.Pinger.Ping(ctx, p.Host, p.Timeout)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return latencyOnly(p.server(), false, timeoutMs(p.Timeout)), nil
	}
	return latencyOnly(p.server(), true, rtt), nil
}

func (p *ICMPProber) server() string {
	if p.Server != "" {
		return p.Server
	}
	return p.Host
}
