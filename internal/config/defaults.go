package config

const (
	defaultEncoding   = "utf-8"
	defaultMinOffset  = -10.0
	defaultMaxOffset  = 10.0
	defaultSyncStep   = 0.05
	defaultSyncWindow = 8.0
	defaultFontName   = "Arial"
	defaultFontSize   = 16
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"

	// LineEndingCRLF and LineEndingLF are the accepted output.line_ending values.
	LineEndingCRLF = "crlf"
	LineEndingLF   = "lf"

	// OutputEncodingEnv overrides encoding.output when set.
	OutputEncodingEnv = "SRTMERGE_OUTPUT_ENCODING"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Encoding: Encoding{
			Bottom: defaultEncoding,
			Top:    defaultEncoding,
			Output: defaultEncoding,
		},
		Sync: Sync{
			MinOffset: defaultMinOffset,
			MaxOffset: defaultMaxOffset,
			Step:      defaultSyncStep,
			Window:    defaultSyncWindow,
		},
		Output: Output{
			FontName:   defaultFontName,
			FontSize:   defaultFontSize,
			LineEnding: LineEndingCRLF,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
