package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"srtmerge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with repository defaults and quiet
// JSON logging, then applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Logging.Format = "json"
	cfgVal.Logging.Level = "warn"

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithInputEncodings overrides the bottom and top source encodings.
func WithInputEncodings(bottom, top string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoding.Bottom = bottom
		b.cfg.Encoding.Top = top
	}
}

// WithOutputEncoding overrides the output encoding.
func WithOutputEncoding(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoding.Output = name
	}
}

// WithLineEnding overrides output.line_ending.
func WithLineEnding(value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.LineEnding = value
	}
}

// WithLogLevel overrides logging.level.
func WithLogLevel(level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Level = level
	}
}

// WriteConfig marshals cfg as TOML into a fresh temp directory and returns
// the file path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "srtmerge.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
