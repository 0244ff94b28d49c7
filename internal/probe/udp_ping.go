package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// UDPPinger uses unprivileged ICMP datagram sockets, which Linux allows for
// groups listed in net.ipv4.ping_group_range.
type UDPPinger struct{}

func (UDPPinger) Ping(ctx context.Context, host string, timeout time.Duration) (float64, bool, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		// resolution failure
		return 0, false, nil
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		return 0, false, fmt.Errorf("udp ping %s: %w", host, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, false, nil
	}
	return float64(stats.AvgRtt.Microseconds()) / 1000, true, nil
}
