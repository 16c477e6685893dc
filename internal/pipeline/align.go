package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"srtmerge/internal/logging"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
)

// AlignOptions configures AlignFiles. Shifts on the inputs are applied
// before the search, as in a merge.
type AlignOptions struct {
	Bottom Input
	Top    Input
	Search subtitles.SearchAligner
	Logger *slog.Logger
}

// AlignFiles runs the offset search between two files without writing
// anything. The returned alignment keeps the full candidate list.
func AlignFiles(ctx context.Context, opts AlignOptions) (subtitles.Alignment, error) {
	if !opts.Bottom.Present() || !opts.Top.Present() {
		return subtitles.Alignment{}, services.Wrap(services.ErrValidation, StagePreflight, "align", "requires both bottom and top subtitles", nil)
	}
	ctx = services.WithRequestID(ctx, newRunID())
	logger := logging.NewComponentLogger(opts.Logger, "align")

	var bottom, top LoadedTrack
	err := runStage(ctx, logger, StageLoad, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		if bottom, err = loadLane(ctx, logger, subtitles.LaneBottom, &opts.Bottom); err != nil {
			return err
		}
		top, err = loadLane(ctx, logger, subtitles.LaneTop, &opts.Top)
		return err
	})
	if err != nil {
		return subtitles.Alignment{}, err
	}
	subtitles.Shift(top.Track, opts.Top.Shift)
	subtitles.Shift(bottom.Track, opts.Bottom.Shift)

	var alignment subtitles.Alignment
	err = runStage(ctx, logger, StageAutoSync, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		alignment, err = Options{Search: opts.Search}.searchAligner(logger).Align(ctx, bottom.Track, top.Track)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrValidation, StageAutoSync, "search offset", "", err)
		}
		return err
	})
	if err != nil {
		return subtitles.Alignment{}, err
	}
	logging.WithContext(ctx, logger).Info("alignment found",
		logging.Float64("offset_seconds", alignment.Offset),
		logging.Float64("distance", alignment.Distance),
		logging.Int("candidates", len(alignment.Candidates)),
	)
	return alignment, nil
}
