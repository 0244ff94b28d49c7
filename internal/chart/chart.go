package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/iaserrat/pinglog/internal/analyze"
	"github.com/iaserrat/pinglog/internal/probe"
)

// PiePath names the uptime chart written next to the latency chart.
func PiePath(figName string) string {
	ext := filepath.Ext(figName)
	return strings.TrimSuffix(figName, ext) + "_uptime" + ext
}

// Render writes the latency series to figName and the uptime pie to
// PiePath(figName), both as PNG.
func Render(figName string, outcomes []probe.Outcome, s analyze.Summary) error {
	if len(outcomes) < 2 {
		return fmt.Errorf("need at least two samples to plot, have %d", len(outcomes))
	}
	graph := latencyChart(outcomes)
	if err := writePNG(figName, graph.Render); err != nil {
		return err
	}
	pie := uptimePie(s)
	return writePNG(PiePath(figName), pie.Render)
}

func latencyChart(outcomes []probe.Outcome) gochart.Chart {
	xs := make([]time.Time, len(outcomes))
	ys := make([]float64, len(outcomes))
	top := 1.0
	for i, o := range outcomes {
		xs[i] = o.Time
		ys[i] = o.LatencyMs
		top = max(top, o.LatencyMs)
	}

	series := []gochart.Series{
		gochart.TimeSeries{
			Name:    "ping time (ms)",
			XValues: xs,
			YValues: ys,
		},
	}

	var dx []time.Time
	var dl []float64
	dtop := 1.0
	for _, o := range outcomes {
		if o.HasThroughput() {
			dx = append(dx, o.Time)
			dl = append(dl, o.DownloadMbps)
			dtop = max(dtop, o.DownloadMbps)
		}
	}
	if len(dx) > 1 {
		series = append(series, gochart.TimeSeries{
			Name:    "download (Mbps)",
			YAxis:   gochart.YAxisSecondary,
			XValues: dx,
			YValues: dl,
		})
	}

	graph := gochart.Chart{
		Title: outcomes[0].Target,
		XAxis: gochart.XAxis{
			Name:           "time",
			ValueFormatter: gochart.TimeMinuteValueFormatter,
		},
		// a flat series would otherwise give go-chart an empty range
		YAxis: gochart.YAxis{
			Name:  "ms",
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		YAxisSecondary: gochart.YAxis{
			Name:  "Mbps",
			Range: &gochart.ContinuousRange{Min: 0, Max: dtop * 1.1},
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	return graph
}

func uptimePie(s analyze.Summary) gochart.PieChart {
	values := []gochart.Value{
		{Label: "uptime", Value: s.Uptime.Seconds()},
		{Label: "downtime", Value: s.Downtime.Seconds()},
	}
	// go-chart refuses to draw a pie without any positive slice
	if s.Uptime+s.Downtime == 0 {
		values[0].Value = 1
	}
	return gochart.PieChart{
		Title:  fmt.Sprintf("%s uptime %.2f%%", s.Target, s.UptimePct),
		Width:  512,
		Height: 512,
		Values: values,
	}
}

func writePNG(path string, render func(gochart.RendererProvider, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(gochart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
