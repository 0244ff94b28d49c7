package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseTargetDispatch(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
		host string
	}{
		{"http://x", KindHTTP, "x"},
		{"https://example.com/health", KindHTTP, "example.com"},
		{"HTTP://X", KindHTTP, "X"},
		{"Https://example.com", KindHTTP, "example.com"},
		{" 8.8.8.8 ", KindICMP, "8.8.8.8"},
		{"speedtest\t", KindBandwidth, ""},
		{"speedtest", KindBandwidth, ""},
		{"8.8.8.8", KindICMP, "8.8.8.8"},
		{"www.google.com", KindICMP, "www.google.com"},
		{"httpbin.org", KindICMP, "httpbin.org"},
		{"speedtest.net", KindICMP, "speedtest.net"},
	}

	for _, tc := range cases {
		got, err := ParseTarget(tc.raw)
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", tc.raw, err)
		}
		if got.Kind != tc.kind {
			t.Fatalf("ParseTarget(%q) kind = %s, want %s", tc.raw, got.Kind, tc.kind)
		}
		if got.Host != tc.host {
			t.Fatalf("ParseTarget(%q) host = %q, want %q", tc.raw, got.Host, tc.host)
		}
		if got.Raw != tc.raw {
			t.Fatalf("ParseTarget(%q) raw = %q", tc.raw, got.Raw)
		}
	}
}

func TestParseTargetRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "http://"} {
		if _, err := ParseTarget(raw); err == nil {
			t.Fatalf("ParseTarget(%q): expected error", raw)
		}
	}
}

type hostRecorder struct{ host string }

func (h *hostRecorder) Ping(ctx context.Context, host string, timeout time.Duration) (float64, bool, error) {
	h.host = host
	return 5, true, nil
}

func TestNewKeepsServerTextVerbatim(t *testing.T) {
	pinger := &hostRecorder{}
	icmp, _ := ParseTarget(" 8.8.8.8 ")
	p, err := New(icmp, Options{})
	if err != nil {
		t.Fatalf("new icmp: %v", err)
	}
	ip := p.(*ICMPProber)
	ip.Pinger = pinger
	out, err := ip.Probe(context.Background())
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if out.Target != " 8.8.8.8 " {
		t.Fatalf("target = %q, want the configured text", out.Target)
	}
	if pinger.host != "8.8.8.8" {
		t.Fatalf("pinged %q, want trimmed host", pinger.host)
	}

	web, _ := ParseTarget("HTTP://example.com/health")
	p, err = New(web, Options{})
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	hp := p.(*HTTPProber)
	if hp.URL != "http://example.com/health" || hp.Server != "HTTP://example.com/health" {
		t.Fatalf("unexpected http prober url=%q server=%q", hp.URL, hp.Server)
	}
}

func TestKindDefaults(t *testing.T) {
	if KindICMP.DefaultInterval() != 10*time.Second {
		t.Fatalf("icmp interval = %s", KindICMP.DefaultInterval())
	}
	if KindHTTP.DefaultInterval() != 60*time.Second {
		t.Fatalf("http interval = %s", KindHTTP.DefaultInterval())
	}
	if KindBandwidth.DefaultInterval() != time.Hour {
		t.Fatalf("bandwidth interval = %s", KindBandwidth.DefaultInterval())
	}
}

func TestNewSelectsVariant(t *testing.T) {
	icmp, _ := ParseTarget("8.8.8.8")
	p, err := New(icmp, Options{})
	if err != nil {
		t.Fatalf("new icmp: %v", err)
	}
	ip, ok := p.(*ICMPProber)
	if !ok {
		t.Fatalf("expected *ICMPProber, got %T", p)
	}
	if _, ok := ip.Pinger.(*ExecPinger); !ok {
		t.Fatalf("default icmp mode should use the ping tool, got %T", ip.Pinger)
	}
	if ip.Timeout != 10*time.Second {
		t.Fatalf("default timeout = %s", ip.Timeout)
	}

	p, err = New(icmp, Options{ICMPMode: ICMPModeRaw, Resolver: "127.0.0.1"})
	if err != nil {
		t.Fatalf("new raw: %v", err)
	}
	raw := p.(*ICMPProber).Pinger.(*RawPinger)
	if r, ok := raw.Resolver.(*DNSResolver); !ok || r.Server != "127.0.0.1:53" {
		t.Fatalf("unexpected resolver %#v", raw.Resolver)
	}

	if _, err := New(icmp, Options{ICMPMode: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown icmp mode")
	}

	web, _ := ParseTarget("http://x")
	p, err = New(web, Options{Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	if hp, ok := p.(*HTTPProber); !ok || hp.Timeout != 3*time.Second {
		t.Fatalf("unexpected http prober %#v", p)
	}

	bw, _ := ParseTarget("speedtest")
	if _, err := New(bw, Options{}); !errors.Is(err, ErrBandwidthUnavailable) {
		t.Fatalf("expected ErrBandwidthUnavailable, got %v", err)
	}
	p, err = New(bw, Options{SpeedTester: &fakeSpeedTester{}})
	if err != nil {
		t.Fatalf("new bandwidth: %v", err)
	}
	if bp, ok := p.(*BandwidthProber); !ok || bp.Timeout != 120*time.Second {
		t.Fatalf("unexpected bandwidth prober %#v", p)
	}
}
