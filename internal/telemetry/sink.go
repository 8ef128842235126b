package telemetry

import (
	"errors"
	"path/filepath"
)

const (
	DefaultSamplesFile = "harness_poc_timeseries.csv"
	DefaultCyclesFile  = "harness_poc_cycles.csv"
)

// Recorder receives harness telemetry.
type Recorder interface {
	RecordSample(Sample) error
	RecordCycle(CycleSummary) error
}

type Config struct {
	Dir         string
	SamplesFile string
	CyclesFile  string
	// FlushEachSample flushes the time-series file after every row.
	FlushEachSample bool
}

// Sink writes samples and cycle summaries to two append-mode CSV files.
type Sink struct {
	samples *CSVFile
	cycles  *CSVFile
}

var _ Recorder = (*Sink)(nil)

func Open(cfg Config) (*Sink, error) {
	if cfg.SamplesFile == "" {
		cfg.SamplesFile = DefaultSamplesFile
	}
	if cfg.CyclesFile == "" {
		cfg.CyclesFile = DefaultCyclesFile
	}
	samples, err := OpenCSV(join(cfg.Dir, cfg.SamplesFile), SampleColumns, cfg.FlushEachSample)
	if err != nil {
		return nil, err
	}
	cycles, err := OpenCSV(join(cfg.Dir, cfg.CyclesFile), CycleColumns, false)
	if err != nil {
		_ = samples.Close()
		return nil, err
	}
	return &Sink{samples: samples, cycles: cycles}, nil
}

func join(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func (s *Sink) SamplesPath() string { return s.samples.Path() }
func (s *Sink) CyclesPath() string  { return s.cycles.Path() }

func (s *Sink) RecordSample(sample Sample) error {
	return s.samples.WriteRow(sample.Row())
}

// RecordCycle appends the summary and flushes both files.
func (s *Sink) RecordCycle(summary CycleSummary) error {
	row, err := summary.Row()
	if err != nil {
		return err
	}
	if err := s.cycles.WriteRow(row); err != nil {
		return err
	}
	return errors.Join(s.samples.Flush(), s.cycles.Flush())
}

func (s *Sink) Close() error {
	return errors.Join(s.samples.Close(), s.cycles.Close())
}

// Discard drops all telemetry.
type Discard struct{}

func (Discard) RecordSample(Sample) error      { return nil }
func (Discard) RecordCycle(CycleSummary) error { return nil }
