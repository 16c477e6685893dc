package config

import (
	"errors"
	"fmt"

	"srtmerge/internal/textenc"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoding() error {
	inputs := map[string]string{
		"encoding.bottom": c.Encoding.Bottom,
		"encoding.top":    c.Encoding.Top,
	}
	for key, value := range inputs {
		if value == textenc.AutoDetect {
			continue
		}
		if _, _, err := textenc.Lookup(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if _, _, err := textenc.Lookup(c.Encoding.Output); err != nil {
		return fmt.Errorf("encoding.output: %w", err)
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Step <= 0 {
		return errors.New("sync.step must be positive")
	}
	if c.Sync.MaxOffset < c.Sync.MinOffset {
		return fmt.Errorf("sync.max_offset (%v) must not be less than sync.min_offset (%v)", c.Sync.MaxOffset, c.Sync.MinOffset)
	}
	if c.Sync.Window <= 0 {
		return errors.New("sync.window must be positive")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.FontSize <= 0 {
		return errors.New("output.font_size must be positive")
	}
	switch c.Output.LineEnding {
	case LineEndingCRLF, LineEndingLF:
		return nil
	default:
		return fmt.Errorf("output.line_ending: unsupported value %q (want %q or %q)", c.Output.LineEnding, LineEndingCRLF, LineEndingLF)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
