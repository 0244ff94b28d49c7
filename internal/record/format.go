package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iaserrat/pinglog/internal/probe"
)

// TimeLayout is the local-time timestamp format of the first column.
const TimeLayout = "2006-01-02_15:04:05"

var (
	latencyColumns   = []string{"timestamp", "server", "ping_success", "ping_time"}
	bandwidthColumns = []string{"download", "upload", "link"}
)

// Header returns the first line of a new log. Bandwidth logs name the three
// throughput columns as well.
func Header(bandwidth bool) string {
	cols := latencyColumns
	if bandwidth {
		cols = append(append([]string(nil), latencyColumns...), bandwidthColumns...)
	}
	return strings.Join(cols, ",")
}

// Fields converts o to its row. Latency-only outcomes produce four fields,
// bandwidth outcomes seven.
func Fields(o probe.Outcome) []string {
	success := "0"
	if o.Success {
		success = "1"
	}
	row := []string{
		o.Time.Local().Format(TimeLayout),
		o.Target,
		success,
		strconv.FormatFloat(o.LatencyMs, 'f', 0, 64),
	}
	if !o.HasThroughput() {
		return row
	}
	return append(row,
		strconv.FormatFloat(o.DownloadMbps, 'f', 3, 64),
		strconv.FormatFloat(o.UploadMbps, 'f', 3, 64),
		o.ShareLink,
	)
}

// ParseFields is the inverse of Fields.
func ParseFields(fields []string) (probe.Outcome, error) {
	if len(fields) != len(latencyColumns) && len(fields) != len(latencyColumns)+len(bandwidthColumns) {
		return probe.Outcome{}, fmt.Errorf("expected 4 or 7 fields, got %d", len(fields))
	}

	ts, err := time.ParseInLocation(TimeLayout, fields[0], time.Local)
	if err != nil {
		return probe.Outcome{}, fmt.Errorf("timestamp: %w", err)
	}

	var success bool
	switch fields[2] {
	case "1":
		success = true
	case "0":
	default:
		return probe.Outcome{}, fmt.Errorf("ping_success: invalid value %q", fields[2])
	}

	latency, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return probe.Outcome{}, fmt.Errorf("ping_time: %w", err)
	}

	o := probe.Outcome{
		Time:         ts,
		Target:       fields[1],
		Success:      success,
		LatencyMs:    latency,
		DownloadMbps: probe.NoThroughput,
		UploadMbps:   probe.NoThroughput,
	}
	if len(fields) == len(latencyColumns) {
		return o, nil
	}

	if o.DownloadMbps, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return probe.Outcome{}, fmt.Errorf("download: %w", err)
	}
	if o.UploadMbps, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return probe.Outcome{}, fmt.Errorf("upload: %w", err)
	}
	o.ShareLink = fields[6]

	return o, nil
}
