package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iaserrat/pinglog/internal/probe"
)

// Recorder persists one outcome.
type Recorder interface {
	Record(o probe.Outcome) error
}

// File appends rows to a CSV log. The file is opened and closed for every
// row and synced before Record returns.
type File struct {
	Path   string
	header string
}

// NewFile prepares path for appending, creating it with a header line when
// it does not exist yet.
func NewFile(path string, bandwidth bool) (*File, error) {
	f := &File{Path: path, header: Header(bandwidth)}
	if err := f.Ensure(); err != nil {
		return nil, err
	}
	return f, nil
}

// Ensure creates the log with its header. An existing file is left alone.
func (f *File) Ensure() error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	fh, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	if _, err := fh.WriteString(f.header + "\n"); err != nil {
		fh.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return fmt.Errorf("sync log: %w", err)
	}
	return fh.Close()
}

func (f *File) Record(o probe.Outcome) error {
	fh, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	if err := f.append(fh, o); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func (f *File) append(fh *os.File, o probe.Outcome) error {
	info, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := fh.WriteString(f.header + "\n"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	w := csv.NewWriter(fh)
	if err := w.Write(Fields(o)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	if err := fh.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}
