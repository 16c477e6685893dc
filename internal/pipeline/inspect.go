package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"srtmerge/internal/logging"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/textenc"
)

// Report describes one subtitle file for the inspect command.
type Report struct {
	Path      string               `json:"path" yaml:"path"`
	Encoding  string               `json:"encoding" yaml:"encoding"`
	Detected  textenc.Detection    `json:"detected" yaml:"detected"`
	Stats     subtitles.TrackStats `json:"stats" yaml:"stats"`
	FirstText string               `json:"first_text,omitempty" yaml:"first_text,omitempty"`
	LastText  string               `json:"last_text,omitempty" yaml:"last_text,omitempty"`
}

// Inspect loads path and reports its encoding and timing summary. Detection
// always runs, so the report shows what "auto" would pick even when an
// explicit encoding is given.
func Inspect(ctx context.Context, logger *slog.Logger, path, encoding string) (Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		marker := services.ErrIO
		if errors.Is(err, os.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return Report{}, services.Wrap(marker, StageLoad, "read input", path, err)
	}
	detected, err := textenc.Detect(raw)
	if err != nil {
		logging.NewComponentLogger(logger, "inspect").Debug("charset detection failed", logging.Error(err))
	}
	loaded, err := LoadTrack(ctx, logger, "input", path, encoding)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Path:     path,
		Encoding: loaded.Encoding,
		Detected: detected,
		Stats:    subtitles.Stats(loaded.Track),
	}
	report.FirstText = loaded.Track[0].Text
	report.LastText = loaded.Track[len(loaded.Track)-1].Text
	return report, nil
}
