package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// CSVFile appends rows to a CSV file. The header is written only when the
// file is empty, so repeated runs accumulate in one file.
type CSVFile struct {
	mu        sync.Mutex
	path      string
	columns   int
	f         *os.File
	w         *csv.Writer
	flushEach bool
}

func OpenCSV(path string, header []string, flushEach bool) (*CSVFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("telemetry: stat %s: %w", path, err)
	}
	c := &CSVFile{path: path, columns: len(header), f: f, w: csv.NewWriter(f), flushEach: flushEach}
	if info.Size() == 0 {
		if err := c.w.Write(header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("telemetry: write header %s: %w", path, err)
		}
		c.w.Flush()
		if err := c.w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("telemetry: write header %s: %w", path, err)
		}
	}
	return c, nil
}

func (c *CSVFile) Path() string {
	return c.path
}

func (c *CSVFile) WriteRow(row []string) error {
	if len(row) != c.columns {
		return fmt.Errorf("telemetry: %s: row has %d columns, header has %d", c.path, len(row), c.columns)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.w.Write(row); err != nil {
		return err
	}
	if c.flushEach {
		c.w.Flush()
		return c.w.Error()
	}
	return nil
}

func (c *CSVFile) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVFile) Close() error {
	if err := c.Flush(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}
