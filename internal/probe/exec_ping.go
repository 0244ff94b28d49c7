package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

var rttField = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?) ms`)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ExecPinger shells out to the system ping tool.
type ExecPinger struct {
	Binary string
	Run    Runner
}

func NewExecPinger() *ExecPinger {
	return &ExecPinger{Binary: "ping", Run: runCommand}
}

func (p *ExecPinger) Ping(ctx context.Context, host string, timeout time.Duration) (float64, bool, error) {
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	args := []string{"-c", "1", "-W", strconv.Itoa(secs), host}

	out, err := p.Run(ctx, p.Binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("run %s: %w", p.Binary, err)
	}

	return parseRTT(string(out), timeout), true, nil
}

// parseRTT returns the first number followed by " ms" in out, or the
// timeout in milliseconds when the output carries none.
func parseRTT(out string, timeout time.Duration) float64 {
	m := rttField.FindStringSubmatch(out)
	if len(m) < 2 {
		return timeoutMs(timeout)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return timeoutMs(timeout)
	}
	return v
}
