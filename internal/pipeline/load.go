package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"srtmerge/internal/logging"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/textenc"
)

// Input describes one subtitle file feeding a lane.
type Input struct {
	Path     string
	Encoding string
	Shift    float64
}

// Present reports whether the input names a file.
func (in *Input) Present() bool {
	return in != nil && strings.TrimSpace(in.Path) != ""
}

// LoadedTrack is a parsed track together with the encoding it was read in.
type LoadedTrack struct {
	Path     string
	Encoding string
	Track    subtitles.Track
}

// LoadTrack reads path, decodes it from encoding into UTF-8 and parses it.
// An empty encoding means UTF-8; "auto" runs charset detection. A track with
// no cues is rejected with subtitles.ErrEmptyTrack.
func LoadTrack(ctx context.Context, logger *slog.Logger, label, path, encoding string) (LoadedTrack, error) {
	if err := ctx.Err(); err != nil {
		return LoadedTrack{}, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(encoding) == "" {
		encoding = textenc.UTF8
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		marker := services.ErrIO
		if errors.Is(err, os.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return LoadedTrack{}, services.Wrap(marker, StageLoad, "read "+label, path, err)
	}
	text, resolved, err := textenc.Decode(raw, encoding)
	if err != nil {
		return LoadedTrack{}, services.Wrap(services.ErrValidation, StageLoad, "decode "+label, path, err)
	}
	if !textenc.Same(resolved, encoding) {
		logger.Info("source encoding resolved",
			logging.String("requested_encoding", encoding),
			logging.String("encoding", resolved),
		)
	}

	track, err := subtitles.ParseTrack(strings.NewReader(text))
	if err != nil {
		return LoadedTrack{}, services.Wrap(services.ErrValidation, StageLoad, "parse "+label, path, err)
	}
	if err := subtitles.RequireCues(track, label); err != nil {
		return LoadedTrack{}, services.Wrap(services.ErrValidation, StageLoad, "parse "+label, path, err)
	}

	stats := subtitles.Stats(track)
	if stats.OutOfOrder > 0 {
		logging.WarnWithContext(logger, "subtitles out of time order", "track_unsorted",
			logging.String("path", path),
			logging.Int("out_of_order", stats.OutOfOrder),
			logging.String(logging.FieldImpact, "alignment sorts a copy; output is ordered by start time"),
		)
	}
	if stats.Inverted > 0 {
		logging.WarnWithContext(logger, "subtitles end before they start", "track_inverted",
			logging.String("path", path),
			logging.Int("inverted", stats.Inverted),
			logging.String(logging.FieldImpact, "players may skip these subtitles"),
		)
	}
	logger.Info("track loaded",
		logging.String("path", path),
		logging.String("encoding", resolved),
		logging.Int("cues", stats.Cues),
		logging.String("first_start", subtitles.FormatASSTimestamp(stats.FirstStart)),
		logging.String("last_stop", subtitles.FormatASSTimestamp(stats.LastStop)),
	)
	return LoadedTrack{Path: path, Encoding: resolved, Track: track}, nil
}

// loadLane expects logger to already carry the stage context fields.
func loadLane(ctx context.Context, logger *slog.Logger, lane subtitles.Lane, in *Input) (LoadedTrack, error) {
	return LoadTrack(services.WithLane(ctx, lane.String()), laneLogger(logger, lane), lane.String(), in.Path, in.Encoding)
}

func laneLogger(logger *slog.Logger, lane subtitles.Lane) *slog.Logger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return logger.With(logging.String(logging.FieldLane, lane.String()))
}
