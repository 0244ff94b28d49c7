package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iaserrat/pinglog/internal/probe"
)

// ReadLog parses a log written by File. Four and seven column rows may be
// mixed; the header line is skipped wherever it appears.
func ReadLog(r io.Reader) ([]probe.Outcome, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var out []probe.Outcome
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		if len(fields) > 0 && fields[0] == latencyColumns[0] {
			continue
		}

		o, err := ParseFields(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, o)
	}
}

func ReadFile(path string) ([]probe.Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadLog(f)
}
