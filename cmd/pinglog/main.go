package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iaserrat/pinglog/internal/analyze"
	"github.com/iaserrat/pinglog/internal/chart"
	"github.com/iaserrat/pinglog/internal/config"
	"github.com/iaserrat/pinglog/internal/logging"
	"github.com/iaserrat/pinglog/internal/probe"
	"github.com/iaserrat/pinglog/internal/record"
	"github.com/iaserrat/pinglog/internal/sampler"
)

var version = "dev"

type options struct {
	config      string
	showVersion bool

	run      bool
	plot     bool
	server   string
	interval float64
	timeout  float64
	db       string
	figName  string
	icmpMode string
	resolver string

	rateLimit       bool
	successPrescale int
	failurePrescale int

	logDir   string
	logLevel string
}

func bindFlags(fs *flag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.config, "config", "", "Path to a TOML or YAML config file")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&o.run, "run", false, "Probe periodically and append results to the db")
	fs.BoolVar(&o.plot, "plot", false, "Summarize the db and exit")
	fs.StringVar(&o.server, "server", "", `Target: host to ping, http(s) URL, or "speedtest"`)
	fs.Float64Var(&o.interval, "interval", 0, "Seconds between probes (default depends on the target)")
	fs.Float64Var(&o.timeout, "timeout", 0, "Probe timeout in seconds (default depends on the target)")
	fs.StringVar(&o.db, "db", "", "Log file (default derived from -server)")
	fs.StringVar(&o.figName, "fig-name", "", "With -plot, write PNG charts to this path")
	fs.StringVar(&o.icmpMode, "icmp-mode", "", "ICMP backend: exec, raw or udp")
	fs.StringVar(&o.resolver, "resolver", "", "Nameserver used by the raw ICMP backend")
	fs.BoolVar(&o.rateLimit, "rate-limit", false, "Record only the first sample of each run of equal outcomes")
	fs.IntVar(&o.successPrescale, "success-prescale", 0, "With -rate-limit, re-record a success run every N samples")
	fs.IntVar(&o.failurePrescale, "failure-prescale", 0, "With -rate-limit, re-record a failure run every N samples")
	fs.StringVar(&o.logDir, "log-dir", "", "Directory for the rotating diagnostic log")
	fs.StringVar(&o.logLevel, "log-level", "", "Diagnostic log level")
	return o
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(fs *flag.FlagSet, o *options, cfg *config.Config) {
	cfg.Run = o.run
	cfg.Plot = o.plot
	cfg.FigName = o.figName

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Probe.Server = o.server
		case "interval":
			cfg.Probe.IntervalSecs = o.interval
		case "timeout":
			cfg.Probe.TimeoutSecs = o.timeout
		case "db":
			cfg.Record.DB = o.db
		case "icmp-mode":
			cfg.Probe.ICMPMode = o.icmpMode
		case "resolver":
			cfg.Probe.Resolver = o.resolver
		case "rate-limit":
			cfg.Record.RateLimit = o.rateLimit
		case "success-prescale":
			cfg.Record.SuccessPrescale = o.successPrescale
		case "failure-prescale":
			cfg.Record.FailurePrescale = o.failurePrescale
		case "log-dir":
			cfg.Logging.Dir = o.logDir
		case "log-level":
			cfg.Logging.Level = o.logLevel
		}
	})
}

func main() {
	fs := flag.NewFlagSet("pinglog", flag.ExitOnError)
	opts := bindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if opts.showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(opts.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(fs, opts, &cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		MaxMB:      cfg.Logging.MaxMB,
		MaxFiles:   cfg.Logging.MaxFiles,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Plot {
		return plot(cfg, logger, stdout)
	}
	return sample(ctx, cfg, logger)
}

func sample(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	target, err := cfg.Target()
	if err != nil {
		return err
	}

	opts := probe.Options{
		Timeout:  cfg.Timeout(target.Kind),
		ICMPMode: cfg.Probe.ICMPMode,
		Resolver: cfg.Probe.Resolver,
	}
	if cfg.Bandwidth.Enabled {
		opts.SpeedTester = &probe.SpeedtestNet{ServerIDs: cfg.Bandwidth.ServerIDs}
	}

	prober, err := probe.New(target, opts)
	if err != nil {
		return err
	}

	file, err := record.NewFile(cfg.DBPath(), target.Kind == probe.KindBandwidth)
	if err != nil {
		return err
	}
	var rec record.Recorder = file
	if cfg.Record.RateLimit {
		rec = record.NewThrottle(file, cfg.Record.SuccessPrescale, cfg.Record.FailurePrescale)
	}

	logger.Info("sampling",
		zap.String("server", target.Raw),
		zap.Stringer("kind", target.Kind),
		zap.String("db", file.Path),
		zap.Duration("timeout", opts.Timeout),
		zap.Bool("rate_limit", cfg.Record.RateLimit),
	)

	return sampler.New(prober, rec, cfg.Interval(target.Kind), logger).Run(ctx)
}

func plot(cfg config.Config, logger *zap.Logger, stdout io.Writer) error {
	path := cfg.DBPath()
	outcomes, err := record.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	summary := analyze.Summarize(outcomes)
	if err := analyze.WriteText(stdout, summary); err != nil {
		return err
	}

	if cfg.FigName == "" {
		return nil
	}
	if err := chart.Render(cfg.FigName, outcomes, summary); err != nil {
		return err
	}
	logger.Info("charts_written",
		zap.String("latency", cfg.FigName),
		zap.String("uptime", chart.PiePath(cfg.FigName)),
	)
	return nil
}
