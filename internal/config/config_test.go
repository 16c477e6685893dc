package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"srtmerge/internal/config"
)

func TestLoadDefaultConfigWhenAbsent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	wantPath := filepath.Join(tempHome, ".config", "srtmerge", "config.toml")
	if resolved != wantPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, wantPath)
	}
	def := config.Default()
	if cfg.Sync != def.Sync {
		t.Fatalf("unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Encoding.Output != "utf-8" || cfg.Encoding.Bottom != "utf-8" {
		t.Fatalf("unexpected encoding defaults: %+v", cfg.Encoding)
	}
	if cfg.Output.FontName != "Arial" || cfg.Output.FontSize != 16 {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.LineEndingSequence() != "\r\n" {
		t.Fatalf("expected CRLF by default")
	}
}

func TestLoadProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "srtmerge.toml"), []byte("[output]\nfont_size = 22\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "srtmerge.toml" {
		t.Fatalf("expected project config, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Output.FontSize != 22 {
		t.Fatalf("font size = %d", cfg.Output.FontSize)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv(config.OutputEncodingEnv, "")
	configPath := filepath.Join(t.TempDir(), "srtmerge.toml")

	custom := config.Default()
	custom.Encoding.Top = "GBK"
	custom.Encoding.Output = "UTF-16LE"
	custom.Sync.MinOffset = -30
	custom.Sync.MaxOffset = 30
	custom.Sync.Step = 0.1
	custom.Output.FontName = "  Noto Sans  "
	custom.Output.LineEnding = "LF"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Encoding.Top != "gbk" || cfg.Encoding.Output != "utf-16le" {
		t.Fatalf("encodings not normalized: %+v", cfg.Encoding)
	}
	if cfg.Sync.MinOffset != -30 || cfg.Sync.MaxOffset != 30 || cfg.Sync.Step != 0.1 {
		t.Fatalf("unexpected sync: %+v", cfg.Sync)
	}
	if cfg.Output.FontName != "Noto Sans" {
		t.Fatalf("font name not trimmed: %q", cfg.Output.FontName)
	}
	if cfg.LineEndingSequence() != "\n" {
		t.Fatal("expected LF line endings")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("log format = %q", cfg.Logging.Format)
	}
}

func TestEnvVarOverridesConfigFileForOutputEncoding(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "srtmerge.toml")
	if err := os.WriteFile(configPath, []byte("[encoding]\noutput = \"utf-8\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.OutputEncodingEnv, "Windows-1252")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Encoding.Output != "windows-1252" {
		t.Fatalf("expected output encoding from env, got %q", cfg.Encoding.Output)
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Output.FontSize != 16 {
		t.Fatalf("expected defaults, got %+v", cfg.Output)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown encoding", "[encoding]\ntop = \"klingon\"\n", "encoding.top"},
		{"auto output", "[encoding]\noutput = \"auto\"\n", "encoding.output"},
		{"zero step", "[sync]\nstep = 0.0\n", "sync.step"},
		{"inverted range", "[sync]\nmin_offset = 5.0\nmax_offset = -5.0\n", "sync.max_offset"},
		{"negative window", "[sync]\nwindow = -1.0\n", "sync.window"},
		{"negative font", "[output]\nfont_size = -4\n", "output.font_size"},
		{"line ending", "[output]\nline_ending = \"cr\"\n", "output.line_ending"},
		{"log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"log level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"unknown key", "[output]\ncolour = \"red\"\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.OutputEncodingEnv, "")
			path := filepath.Join(t.TempDir(), "srtmerge.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestAutoInputEncodingIsValid(t *testing.T) {
	cfg := config.Default()
	cfg.Encoding.Bottom = "auto"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("auto input encoding rejected: %v", err)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv(config.OutputEncodingEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if *cfg != def {
		t.Fatalf("sample config differs from defaults: %+v", *cfg)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/subs/out.ass")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "subs", "out.ass") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if empty, err := config.ExpandPath(""); err != nil || empty != "" {
		t.Fatalf("ExpandPath(\"\") = %q, %v", empty, err)
	}
}
