package probe

import (
	"fmt"
	"time"
)

// ICMP backends selectable through configuration.
const (
	ICMPModeExec = "exec"
	ICMPModeRaw  = "raw"
	ICMPModeUDP  = "udp"
)

type Options struct {
	Timeout  time.Duration
	ICMPMode string
	// Resolver is the nameserver used by the raw backend; empty means the
	// system resolver.
	Resolver string
	// SpeedTester must be set for bandwidth targets.
	SpeedTester SpeedTester
}

// New builds the Prober matching t.Kind.
func New(t Target, opts Options) (Prober, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = t.Kind.DefaultTimeout()
	}

	switch t.Kind {
	case KindHTTP:
		hp := NewHTTPProber(t.URL.String(), timeout)
		hp.Server = t.Raw
		return hp, nil
	case KindBandwidth:
		if opts.SpeedTester == nil {
			return nil, ErrBandwidthUnavailable
		}
		return &BandwidthProber{Timeout: timeout, Tester: opts.SpeedTester, Server: t.Raw}, nil
	}

	var pinger Pinger
	switch opts.ICMPMode {
	case "", ICMPModeExec:
		pinger = NewExecPinger()
	case ICMPModeRaw:
		var r Resolver
		if opts.Resolver != "" {
			r = NewDNSResolver(opts.Resolver, timeout)
		}
		pinger = NewRawPinger(r)
	case ICMPModeUDP:
		pinger = UDPPinger{}
	default:
		return nil, fmt.Errorf("unknown icmp mode %q", opts.ICMPMode)
	}

	return &ICMPProber{Host: t.Host, Timeout: timeout, Pinger: pinger, Server: t.Raw}, nil
}
