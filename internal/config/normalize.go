package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() {
	c.normalizeEncoding()
	c.normalizeOutput()
	c.normalizeLogging()
}

func (c *Config) normalizeEncoding() {
	if value, ok := os.LookupEnv(OutputEncodingEnv); ok && strings.TrimSpace(value) != "" {
		c.Encoding.Output = value
	}
	c.Encoding.Bottom = normalizeEncodingName(c.Encoding.Bottom)
	c.Encoding.Top = normalizeEncodingName(c.Encoding.Top)
	c.Encoding.Output = normalizeEncodingName(c.Encoding.Output)
}

func normalizeEncodingName(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return defaultEncoding
	}
	return value
}

func (c *Config) normalizeOutput() {
	c.Output.FontName = strings.TrimSpace(c.Output.FontName)
	if c.Output.FontName == "" {
		c.Output.FontName = defaultFontName
	}
	if c.Output.FontSize == 0 {
		c.Output.FontSize = defaultFontSize
	}
	c.Output.LineEnding = strings.ToLower(strings.TrimSpace(c.Output.LineEnding))
	if c.Output.LineEnding == "" {
		c.Output.LineEnding = LineEndingCRLF
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
