package record

import (
	"math"
	"strings"
	"testing"

	"github.com/iaserrat/pinglog/internal/probe"
)

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func TestReadLogMixedShapes(t *testing.T) {
	log := strings.Join([]string{
		"timestamp,server,ping_success,ping_time",
		"2024-01-01_00:00:00,8.8.8.8,1,23",
		"2024-01-01_00:00:10,speedtest,1,15,94.123,11.400,abc",
		"2024-01-01_00:00:20,8.8.8.8,0,60000",
		"2024-01-01_00:00:30,speedtest,0,120000,0.000,0.000,",
		"",
	}, "\n")

	got, err := ReadLog(strings.NewReader(log))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(got))
	}

	if got[0].HasThroughput() || got[0].DownloadMbps != probe.NoThroughput || got[0].ShareLink != "" {
		t.Fatalf("latency row should report absent throughput: %+v", got[0])
	}
	if !got[1].HasThroughput() || got[1].DownloadMbps != 94.123 || got[1].UploadMbps != 11.4 || got[1].ShareLink != "abc" {
		t.Fatalf("unexpected bandwidth row: %+v", got[1])
	}
	if got[2].Success || got[2].LatencyMs != 60000 {
		t.Fatalf("unexpected failure row: %+v", got[2])
	}
	if got[3].Success || !got[3].HasThroughput() || got[3].DownloadMbps != 0 {
		t.Fatalf("unexpected bandwidth failure row: %+v", got[3])
	}
	if got[1].Time.Sub(got[0].Time).Seconds() != 10 {
		t.Fatalf("timestamps not parsed: %v %v", got[0].Time, got[1].Time)
	}
}

func TestReadLogRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"field count": "2024-01-01_00:00:00,8.8.8.8,1\n",
		"timestamp":   "20240101000000,8.8.8.8,1,23\n",
		"success":     "2024-01-01_00:00:00,8.8.8.8,yes,23\n",
		"latency":     "2024-01-01_00:00:00,8.8.8.8,1,fast\n",
		"download":    "2024-01-01_00:00:00,speedtest,1,20,x,1.0,\n",
	}

	for name, body := range cases {
		log := Header(false) + "\n" + body
		_, err := ReadLog(strings.NewReader(log))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("%s: error should name the line: %v", name, err)
		}
	}
}

func TestReadLogEmpty(t *testing.T) {
	got, err := ReadLog(strings.NewReader(Header(true) + "\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(got))
	}
}
