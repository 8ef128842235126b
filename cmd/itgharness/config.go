package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/harness"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol/session"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/telemetry"
	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/transport/ws"
)

// runConfig is everything `itgharness run` wires together.
type runConfig struct {
	Server    ws.ServerConfig
	Session   session.Config
	Harness   harness.Config
	Telemetry telemetry.Config
	Archive   telemetry.ArchiveConfig
}

func defaultRunConfig() runConfig {
	return runConfig{
		Server:  ws.ServerConfig{Addr: ws.DefaultListenAddr},
		Session: session.DefaultConfig(),
		Harness: harness.DefaultConfig(),
		Telemetry: telemetry.Config{
			SamplesFile: telemetry.DefaultSamplesFile,
			CyclesFile:  telemetry.DefaultCyclesFile,
		},
	}
}

// itgharness config.toml key mapping. Durations are in seconds.
type fileConfig struct {
	ListenAddr       string    `toml:"listen_addr"`
	Metrics          bool      `toml:"metrics"`
	AuthToken        string    `toml:"auth_token"`
	Cycles           int       `toml:"cycles"`
	StatsDuration    float64   `toml:"stats_duration"`
	PollInterval     float64   `toml:"poll_interval"`
	PauseResume      bool      `toml:"pause_resume"`
	SongLimit        int       `toml:"song_limit"`
	SongFilter       string    `toml:"song_filter"`
	FlushEachSample  bool      `toml:"flush_each_sample"`
	TelemetryDir     string    `toml:"telemetry_dir"`
	TimeseriesCSV    string    `toml:"timeseries_csv"`
	CyclesCSV        string    `toml:"cycles_csv"`
	ReadyTimeout     float64   `toml:"ready_timeout"`
	RequestTimeout   float64   `toml:"request_timeout"`
	HelloTimeouts    []float64 `toml:"hello_timeouts"`
	HelloMaxAttempts int       `toml:"hello_max_attempts"`
	HelloPause       float64   `toml:"hello_pause"`
	SecurityMode     string    `toml:"security_mode"`
	TLSEnabled       bool      `toml:"tls_enabled"`
	TLSMutual        bool      `toml:"tls_mutual"`
	TLSCertFile      string    `toml:"tls_cert_file"`
	TLSKeyFile       string    `toml:"tls_key_file"`
	TLSCAFile        string    `toml:"tls_ca_file"`
	ArchiveBucket    string    `toml:"archive_bucket"`
	ArchivePrefix    string    `toml:"archive_prefix"`
	ArchiveRegion    string    `toml:"archive_region"`
	ArchiveEndpoint  string    `toml:"archive_endpoint"`
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// loadRunConfig overlays the keys present in path onto the defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load itgharness config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runConfig{}, fmt.Errorf("load itgharness config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen_addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("metrics") {
		cfg.Server.Metrics = raw.Metrics
	}
	if meta.IsDefined("auth_token") {
		cfg.Server.AuthToken = strings.TrimSpace(raw.AuthToken)
	}
	if meta.IsDefined("cycles") {
		cfg.Harness.Cycles = raw.Cycles
	}
	if meta.IsDefined("stats_duration") {
		cfg.Harness.StatsDuration = seconds(raw.StatsDuration)
	}
	if meta.IsDefined("poll_interval") {
		cfg.Harness.PollInterval = seconds(raw.PollInterval)
	}
	if meta.IsDefined("pause_resume") {
		cfg.Harness.PauseResume = raw.PauseResume
	}
	if meta.IsDefined("song_limit") {
		cfg.Harness.SongLimit = raw.SongLimit
	}
	if meta.IsDefined("song_filter") {
		cfg.Harness.SongFilter = raw.SongFilter
	}
	if meta.IsDefined("flush_each_sample") {
		cfg.Telemetry.FlushEachSample = raw.FlushEachSample
	}
	if meta.IsDefined("telemetry_dir") {
		cfg.Telemetry.Dir = strings.TrimSpace(raw.TelemetryDir)
	}
	if meta.IsDefined("timeseries_csv") {
		cfg.Telemetry.SamplesFile = strings.TrimSpace(raw.TimeseriesCSV)
	}
	if meta.IsDefined("cycles_csv") {
		cfg.Telemetry.CyclesFile = strings.TrimSpace(raw.CyclesCSV)
	}
	if meta.IsDefined("ready_timeout") {
		cfg.Harness.ReadyTimeout = seconds(raw.ReadyTimeout)
	}
	if meta.IsDefined("request_timeout") {
		cfg.Session.RequestTimeout = seconds(raw.RequestTimeout)
	}
	if meta.IsDefined("hello_timeouts") {
		schedule := make([]time.Duration, 0, len(raw.HelloTimeouts))
		for _, v := range raw.HelloTimeouts {
			if v <= 0 {
				return runConfig{}, fmt.Errorf("load itgharness config: hello_timeouts entries must be positive, got %g", v)
			}
			schedule = append(schedule, seconds(v))
		}
		cfg.Session.HelloTimeouts = schedule
	}
	if meta.IsDefined("hello_max_attempts") {
		cfg.Session.HelloMaxAttempts = raw.HelloMaxAttempts
	}
	if meta.IsDefined("hello_pause") {
		cfg.Session.HelloPause = seconds(raw.HelloPause)
	}
	if meta.IsDefined("security_mode") {
		cfg.Session.SecurityMode = session.SecurityMode(strings.TrimSpace(raw.SecurityMode))
	}
	if meta.IsDefined("tls_enabled") {
		cfg.Session.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_mutual") {
		cfg.Session.TLS.Mutual = raw.TLSMutual
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.Session.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.Session.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}
	if meta.IsDefined("tls_ca_file") {
		cfg.Session.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}
	if meta.IsDefined("archive_bucket") {
		cfg.Archive.Bucket = strings.TrimSpace(raw.ArchiveBucket)
	}
	if meta.IsDefined("archive_prefix") {
		cfg.Archive.Prefix = strings.TrimSpace(raw.ArchivePrefix)
	}
	if meta.IsDefined("archive_region") {
		cfg.Archive.Region = strings.TrimSpace(raw.ArchiveRegion)
	}
	if meta.IsDefined("archive_endpoint") {
		cfg.Archive.Endpoint = strings.TrimSpace(raw.ArchiveEndpoint)
	}

	return cfg.finalize()
}

func (c runConfig) finalize() (runConfig, error) {
	c.Session = c.Session.WithDefaults()
	c.Harness = c.Harness.WithDefaults()
	if err := c.Session.ValidateListener(); err != nil {
		return runConfig{}, fmt.Errorf("itgharness config: %w", err)
	}
	return c, nil
}

// runFlags are command-line overrides. Only flags the user set are applied.
type runFlags struct {
	configPath      string
	listenAddr      string
	metrics         bool
	cycles          int
	statsDuration   time.Duration
	pollInterval    time.Duration
	noPauseResume   bool
	songFilter      string
	flushEachSample bool
	telemetryDir    string
	archiveBucket   string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a TOML config file")
	fs.StringVar(&f.listenAddr, "listen", ws.DefaultListenAddr, "address the game client connects to")
	fs.BoolVar(&f.metrics, "metrics", false, "serve Prometheus metrics at /metrics")
	fs.IntVar(&f.cycles, "cycles", harness.DefaultConfig().Cycles, "number of test cycles to run")
	fs.DurationVar(&f.statsDuration, "stats-duration", harness.DefaultConfig().StatsDuration, "live stats collection window")
	fs.DurationVar(&f.pollInterval, "poll-interval", harness.DefaultConfig().PollInterval, "status poll interval during stats collection")
	fs.BoolVar(&f.noPauseResume, "no-pause-resume", false, "skip the pause and resume cases")
	fs.StringVar(&f.songFilter, "song-filter", "", "only consider songs matching this filter")
	fs.BoolVar(&f.flushEachSample, "flush-each-sample", false, "flush the time-series CSV after every sample")
	fs.StringVar(&f.telemetryDir, "telemetry-dir", "", "directory for the CSV files")
	fs.StringVar(&f.archiveBucket, "archive-bucket", "", "upload the CSV files to this S3 bucket after the run")
}

func (f *runFlags) apply(fs *pflag.FlagSet, cfg *runConfig) {
	if fs.Changed("listen") {
		cfg.Server.Addr = strings.TrimSpace(f.listenAddr)
	}
	if fs.Changed("metrics") {
		cfg.Server.Metrics = f.metrics
	}
	if fs.Changed("cycles") {
		cfg.Harness.Cycles = f.cycles
	}
	if fs.Changed("stats-duration") {
		cfg.Harness.StatsDuration = f.statsDuration
	}
	if fs.Changed("poll-interval") {
		cfg.Harness.PollInterval = f.pollInterval
	}
	if fs.Changed("no-pause-resume") {
		cfg.Harness.PauseResume = !f.noPauseResume
	}
	if fs.Changed("song-filter") {
		cfg.Harness.SongFilter = f.songFilter
	}
	if fs.Changed("flush-each-sample") {
		cfg.Telemetry.FlushEachSample = f.flushEachSample
	}
	if fs.Changed("telemetry-dir") {
		cfg.Telemetry.Dir = strings.TrimSpace(f.telemetryDir)
	}
	if fs.Changed("archive-bucket") {
		cfg.Archive.Bucket = strings.TrimSpace(f.archiveBucket)
	}
}

// resolve loads the config file when one was given, then applies flags.
func (f *runFlags) resolve(fs *pflag.FlagSet) (runConfig, error) {
	cfg := defaultRunConfig()
	if path := strings.TrimSpace(f.configPath); path != "" {
		loaded, err := loadRunConfig(path)
		if err != nil {
			return runConfig{}, err
		}
		cfg = loaded
	}
	f.apply(fs, &cfg)
	return cfg.finalize()
}
