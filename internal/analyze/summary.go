package analyze

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/iaserrat/pinglog/internal/probe"
)

// Outage is a run of consecutive failed samples. It ends at the next
// successful sample, or at the last sample when the run is still open.
type Outage struct {
	Start   time.Time
	End     time.Time
	Samples int
	Open    bool
}

func (o Outage) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

type Summary struct {
	Target    string
	Samples   int
	Successes int
	Failures  int
	First     time.Time
	Last      time.Time

	// Each gap between two samples counts towards the state of the earlier one.
	Uptime    time.Duration
	Downtime  time.Duration
	UptimePct float64

	LatencyAvgMs float64
	LatencyP95Ms float64
	LatencyMaxMs float64

	BandwidthSamples int
	DownloadAvgMbps  float64
	UploadAvgMbps    float64

	Outages []Outage
}

// Summarize expects outcomes in log order.
func Summarize(outcomes []probe.Outcome) Summary {
	var s Summary
	if len(outcomes) == 0 {
		return s
	}

	s.Target = outcomes[0].Target
	s.Samples = len(outcomes)
	s.First = outcomes[0].Time
	s.Last = outcomes[len(outcomes)-1].Time

	var rtts []float64
	var dlSum, ulSum float64
	var current *Outage

	for i, o := range outcomes {
		if o.Success {
			s.Successes++
			rtts = append(rtts, o.LatencyMs)
		} else {
			s.Failures++
		}

		if o.HasThroughput() && o.Success {
			s.BandwidthSamples++
			dlSum += o.DownloadMbps
			ulSum += o.UploadMbps
		}

		if i > 0 {
			gap := o.Time.Sub(outcomes[i-1].Time)
			if outcomes[i-1].Success {
				s.Uptime += gap
			} else {
				s.Downtime += gap
			}
		}

		switch {
		case !o.Success && current == nil:
			current = &Outage{Start: o.Time, End: o.Time, Samples: 1}
		case !o.Success:
			current.Samples++
			current.End = o.Time
		case current != nil:
			current.End = o.Time
			s.Outages = append(s.Outages, *current)
			current = nil
		}
	}
	if current != nil {
		current.Open = true
		s.Outages = append(s.Outages, *current)
	}

	if total := s.Uptime + s.Downtime; total > 0 {
		s.UptimePct = round2(float64(s.Uptime) / float64(total) * 100)
	}

	if len(rtts) > 0 {
		var sum float64
		for _, r := range rtts {
			sum += r
		}
		sort.Float64s(rtts)
		idx := int(float64(len(rtts)-1) * 0.95)
		s.LatencyP95Ms = rtts[idx]
		s.LatencyMaxMs = rtts[len(rtts)-1]
		s.LatencyAvgMs = round2(sum / float64(len(rtts)))
	}

	if s.BandwidthSamples > 0 {
		s.DownloadAvgMbps = round3(dlSum / float64(s.BandwidthSamples))
		s.UploadAvgMbps = round3(ulSum / float64(s.BandwidthSamples))
	}

	return s
}

// WriteText prints s as an aligned report.
func WriteText(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "target\t%s\n", s.Target)
	fmt.Fprintf(tw, "samples\t%d (%d ok, %d failed)\n", s.Samples, s.Successes, s.Failures)
	if s.Samples > 0 {
		fmt.Fprintf(tw, "period\t%s .. %s\n", s.First.Format(time.DateTime), s.Last.Format(time.DateTime))
	}
	fmt.Fprintf(tw, "uptime\t%s (%.2f%%)\n", s.Uptime, s.UptimePct)
	fmt.Fprintf(tw, "downtime\t%s\n", s.Downtime)
	fmt.Fprintf(tw, "latency\tavg %.2f ms, p95 %.0f ms, max %.0f ms\n", s.LatencyAvgMs, s.LatencyP95Ms, s.LatencyMaxMs)
	if s.BandwidthSamples > 0 {
		fmt.Fprintf(tw, "throughput\tdown %.3f Mbps, up %.3f Mbps\n", s.DownloadAvgMbps, s.UploadAvgMbps)
	}
	fmt.Fprintf(tw, "outages\t%d\n", len(s.Outages))
	for _, o := range s.Outages {
		state := ""
		if o.Open {
			state = " (ongoing)"
		}
		fmt.Fprintf(tw, "\t%s  %s  %d samples%s\n", o.Start.Format(time.DateTime), o.Duration(), o.Samples, state)
	}

	return tw.Flush()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
