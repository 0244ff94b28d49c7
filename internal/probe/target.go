package probe

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Kind int

const (
	KindICMP Kind = iota
	KindHTTP
	KindBandwidth
)

// BandwidthTarget is the literal server value that selects the speed test.
const BandwidthTarget = "speedtest"

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindBandwidth:
		return "bandwidth"
	default:
		return "icmp"
	}
}

// DefaultInterval is the sampling period used when none is configured.
func (k Kind) DefaultInterval() time.Duration {
	switch k {
	case KindHTTP:
		return 60 * time.Second
	case KindBandwidth:
		return 3600 * time.Second
	default:
		return 10 * time.Second
	}
}

// DefaultTimeout bounds a single probe when none is configured.
func (k Kind) DefaultTimeout() time.Duration {
	if k == KindBandwidth {
		return 120 * time.Second
	}
	return 10 * time.Second
}

// Target is the parsed form of a configured server string.
type Target struct {
	Kind Kind
	Raw  string
	Host string
	URL  *url.URL
}

// ParseTarget classifies raw by its text: an http:// or https:// prefix
// (any case) is a URL, the literal "speedtest" is a bandwidth test, anything
// else is pinged. Surrounding whitespace is ignored for classification but
// Raw keeps the string exactly as given.
func ParseTarget(raw string) (Target, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Target{}, fmt.Errorf("empty target")
	}

	switch {
	case hasPrefixFold(text, "http://"), hasPrefixFold(text, "https://"):
		u, err := url.Parse(text)
		if err != nil {
			return Target{}, fmt.Errorf("parse url %q: %w", text, err)
		}
		if u.Host == "" {
			return Target{}, fmt.Errorf("url %q has no host", text)
		}
		return Target{Kind: KindHTTP, Raw: raw, Host: u.Hostname(), URL: u}, nil
	case text == BandwidthTarget:
		return Target{Kind: KindBandwidth, Raw: raw}, nil
	default:
		return Target{Kind: KindICMP, Raw: raw, Host: text}, nil
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
