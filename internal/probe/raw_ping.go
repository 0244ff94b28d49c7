package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// RawPinger sends ICMP echo requests over a raw socket. It needs root or
// CAP_NET_RAW.
type RawPinger struct {
	Resolver Resolver
	seq      int

	listen func() (net.PacketConn, error)
}

func NewRawPinger(r Resolver) *RawPinger {
	if r == nil {
		r = systemResolver{}
	}
	return &RawPinger{Resolver: r, listen: listenICMP}
}

func listenICMP() (net.PacketConn, error) {
	return icmp.ListenPacket("ip4:icmp", "0.0.0.0")
}

func (p *RawPinger) Ping(ctx context.Context, host string, timeout time.Duration) (float64, bool, error) {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	ipAddr, err := p.Resolver.Resolve(rctx, host)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		return 0, false, nil
	}

	listen := p.listen
	if listen == nil {
		listen = listenICMP
	}
	conn, err := listen()
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return 0, false, fmt.Errorf("icmp listen requires root or CAP_NET_RAW: %w", err)
		}
		return 0, false, fmt.Errorf("icmp listen: %w", err)
	}
	defer conn.Close()

	id := os.Getpid() & 0xffff
	p.seq = (p.seq + 1) & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  p.seq,
			Data: []byte("pinglog"),
		},
	}
	b, err := msg.Marshal(nil)
	if err != nil {
		return 0, false, fmt.Errorf("icmp marshal: %w", err)
	}

	start := time.Now()
	deadline := start.Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if _, err := conn.WriteTo(b, ipAddr); err != nil {
		return 0, false, nil
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return 0, false, fmt.Errorf("icmp set deadline: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return 0, false, ctx.Err()
			}
			return 0, false, nil
		}
		elapsed := time.Since(start)

		recv, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), buf[:n])
		if err != nil || recv.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// The socket sees every echo reply on the host.
		if echo, ok := recv.Body.(*icmp.Echo); ok && echo.ID == id && echo.Seq == p.seq {
			return float64(elapsed.Microseconds()) / 1000, true, nil
		}
	}
}
