package sampler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iaserrat/pinglog/internal/probe"
	"github.com/iaserrat/pinglog/internal/record"
)

// Sampler probes once, records the outcome, then sleeps for Interval. The
// sleep starts after the record is written, so a cycle lasts the probe time
// plus Interval.
type Sampler struct {
	Prober   probe.Prober
	Recorder record.Recorder
	Interval time.Duration
	Logger   *zap.Logger

	now func() time.Time
}

func New(p probe.Prober, r record.Recorder, interval time.Duration, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		Prober:   p,
		Recorder: r,
		Interval: interval,
		Logger:   logger,
		now:      time.Now,
	}
}

// Run loops until ctx is cancelled, which is not an error. It returns early
// only when probing or recording is broken.
func (s *Sampler) Run(ctx context.Context) error {
	s.Logger.Info("sampler_started", zap.Duration("interval", s.Interval))

	for {
		if ctx.Err() != nil {
			s.Logger.Info("sampler_stopped")
			return nil
		}

		if err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				s.Logger.Info("sampler_stopped")
				return nil
			}
			return err
		}

		timer := time.NewTimer(s.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.Logger.Info("sampler_stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Tick performs exactly one probe and one record.
func (s *Sampler) Tick(ctx context.Context) error {
	issued := s.now().Truncate(time.Second)

	out, err := s.Prober.Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	out.Time = issued

	if err := s.Recorder.Record(out); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	fields := []zap.Field{
		zap.String("target", out.Target),
		zap.Bool("success", out.Success),
		zap.Float64("latency_ms", out.LatencyMs),
	}
	if out.HasThroughput() {
		fields = append(fields,
			zap.Float64("download_mbps", out.DownloadMbps),
			zap.Float64("upload_mbps", out.UploadMbps),
		)
	}
	if out.Success {
		s.Logger.Debug("sample", fields...)
	} else {
		s.Logger.Info("sample_failed", fields...)
	}
	return nil
}
