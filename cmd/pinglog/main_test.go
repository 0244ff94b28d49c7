package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iaserrat/pinglog/internal/config"
	"github.com/iaserrat/pinglog/internal/probe"
	"github.com/iaserrat/pinglog/internal/record"
)

func parse(t *testing.T, args ...string) config.Config {
	t.Helper()
	fs := flag.NewFlagSet("pinglog", flag.ContinueOnError)
	opts := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := config.Default()
	cfg.Probe.IntervalSecs = 42
	applyFlags(fs, opts, &cfg)
	return cfg
}

func TestApplyFlagsOverridesOnlyGivenFlags(t *testing.T) {
	cfg := parse(t, "--run", "--server", "https://example.com", "--db", "x.csv", "--rate-limit", "--success-prescale", "360")

	if !cfg.Run || cfg.Plot {
		t.Fatalf("mode flags not applied: run=%v plot=%v", cfg.Run, cfg.Plot)
	}
	if cfg.Probe.Server != "https://example.com" || cfg.Record.DB != "x.csv" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if !cfg.Record.RateLimit || cfg.Record.SuccessPrescale != 360 || cfg.Record.FailurePrescale != 1 {
		t.Fatalf("rate limit flags not applied: %+v", cfg.Record)
	}
	if cfg.Probe.IntervalSecs != 42 {
		t.Fatalf("unset -interval must keep the file value, got %v", cfg.Probe.IntervalSecs)
	}
}

func TestRunWithoutModeIsAnError(t *testing.T) {
	dir := t.TempDir()
	cfg := parse(t, "--db", filepath.Join(dir, "log.csv"))

	err := run(context.Background(), cfg, &bytes.Buffer{})
	if !errors.Is(err, config.ErrNoMode) {
		t.Fatalf("expected ErrNoMode, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "log.csv")); !os.IsNotExist(err) {
		t.Fatalf("no log should be created, stat err = %v", err)
	}
}

func TestRunBandwidthWithoutBackendFailsBeforeHeader(t *testing.T) {
	dir := t.TempDir()
	cfg := parse(t, "--run", "--server", "speedtest", "--db", filepath.Join(dir, "bw.csv"))
	cfg.Bandwidth.Enabled = false

	err := run(context.Background(), cfg, &bytes.Buffer{})
	if !errors.Is(err, probe.ErrBandwidthUnavailable) {
		t.Fatalf("expected ErrBandwidthUnavailable, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bw.csv")); !os.IsNotExist(err) {
		t.Fatalf("no log should be created, stat err = %v", err)
	}
}

func TestRunSamplesUntilCancelled(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	db := filepath.Join(t.TempDir(), "web.csv")
	cfg := parse(t, "--run", "--server", s.URL, "--db", db, "--interval", "0.02", "--timeout", "1")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := run(ctx, cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	outcomes, err := record.ReadFile(db)
	if err != nil {
		t.Fatalf("read db: %v", err)
	}
	if len(outcomes) < 2 {
		t.Fatalf("expected several samples, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Success || o.Target != s.URL || o.HasThroughput() {
			t.Fatalf("unexpected outcome %+v", o)
		}
	}
}

func TestRunPlotPrintsSummaryAndCharts(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "8.8.8.8.csv")
	log := strings.Join([]string{
		record.Header(false),
		"2024-01-01_00:00:00,8.8.8.8,1,23",
		"2024-01-01_00:00:10,8.8.8.8,0,10000",
		"2024-01-01_00:00:20,8.8.8.8,1,25",
		"2024-01-01_00:00:30,8.8.8.8,1,21",
	}, "\n") + "\n"
	if err := os.WriteFile(db, []byte(log), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	fig := filepath.Join(dir, "ping.png")
	cfg := parse(t, "--plot", "--db", db, "--fig-name", fig)

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "4 (3 ok, 1 failed)") {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}
	for _, path := range []string{fig, filepath.Join(dir, "ping_uptime.png")} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("chart %s not written: %v", path, err)
		}
	}
}

func TestRunPlotMissingDB(t *testing.T) {
	cfg := parse(t, "--plot", "--db", filepath.Join(t.TempDir(), "nope.csv"))
	if err := run(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for missing db")
	}
}
