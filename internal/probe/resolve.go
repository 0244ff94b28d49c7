package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolver turns a host name into an IPv4 address.
type Resolver interface {
	Resolve(ctx context.Context, host string) (*net.IPAddr, error)
}

type systemResolver struct{}

func (systemResolver) Resolve(ctx context.Context, host string) (*net.IPAddr, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no A record for %s", host)
	}
	return &net.IPAddr{IP: ips[0]}, nil
}

// DNSResolver queries a fixed nameserver for A records instead of going
// through the system resolver.
type DNSResolver struct {
	Server string
	client *dns.Client
}

func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSResolver{
		Server: server,
		client: &dns.Client{Timeout: timeout},
	}
}

func (r *DNSResolver) Resolve(ctx context.Context, host string) (*net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return &net.IPAddr{IP: ip}, nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.Server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("query %s: %s", r.Server, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return &net.IPAddr{IP: a.A}, nil
		}
	}
	return nil, fmt.Errorf("no A record for %s", host)
}
