package manager

import (
	"fmt"
	"time"

	cfgpkg "github.com/elastic/elastic-agent-libs/config"
)

// Config mirrors spec §6's config table, unpackable from a
// github.com/elastic/elastic-agent-libs/config.C the way
// scripts/cmd/stress_pipeline/main.go unpacks its own config struct via
// `cfg.Unpack(&config)`.
type Config struct {
	BasePath     string `config:"base_path"`
	BaseFilename string `config:"base_filename"`

	MaxSegmentSize uint64 `config:"max_segment_size"`

	QueueCapacity        int           `config:"queue_capacity"`
	MaxExplicitProducers int           `config:"max_explicit_producers"`
	BatchSize            int           `config:"batch_size"`
	NumWriterThreads     int           `config:"num_writer_threads"`
	MaxOpenFiles         int           `config:"max_open_files"`
	MaxAttempts          int           `config:"max_attempts"`
	BaseRetryDelay       time.Duration `config:"base_retry_delay"`
	AppendTimeout        time.Duration `config:"append_timeout"`

	UseEncryption    bool   `config:"use_encryption"`
	EncryptionKey    []byte `config:"-"` // out of scope for file-based config; supplied at construction (spec §6)
	CompressionLevel int    `config:"compression_level"`

	// SegmentTimestampLayout overrides the Go time layout segment
	// filenames embed (storage/filename.go); empty keeps the compact
	// YYYYMMDD_HHMMSS default.
	SegmentTimestampLayout string `config:"segment_timestamp_layout"`
}

// DefaultConfig returns a Config with every field at its spec-reasonable
// default, for embedders that construct a Manager without a config file
// (mirrors the teacher's struct-literal DefaultConfig idiom).
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// LoadConfig unpacks a Config from cfg (the "manager" section of a
// process's merged configuration, the way pipeline.LoadWithSettings
// unpacks config.Queue), filling unset fields via WithDefaults. A nil
// cfg is treated as empty, yielding DefaultConfig().
func LoadConfig(cfg *cfgpkg.C) (Config, error) {
	c := Config{}
	if cfg != nil {
		if err := cfg.Unpack(&c); err != nil {
			return Config{}, fmt.Errorf("manager: unpacking config: %w", err)
		}
	}
	return c.WithDefaults(), nil
}

// WithDefaults fills zero-valued fields with spec-reasonable defaults,
// the way a Manager embedded without a full config file still works.
func (c Config) WithDefaults() Config {
	if c.BaseFilename == "" {
		c.BaseFilename = "audit"
	}
	if c.MaxSegmentSize == 0 {
		c.MaxSegmentSize = 64 << 20
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 4096
	}
	if c.BatchSize == 0 {
		c.BatchSize = 64
	}
	if c.NumWriterThreads == 0 {
		c.NumWriterThreads = 2
	}
	if c.MaxOpenFiles == 0 {
		c.MaxOpenFiles = 32
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.BaseRetryDelay == 0 {
		c.BaseRetryDelay = time.Millisecond
	}
	if c.AppendTimeout == 0 {
		c.AppendTimeout = 500 * time.Millisecond
	}
	return c
}
