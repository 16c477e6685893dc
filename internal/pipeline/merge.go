package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"srtmerge/internal/fileutil"
	"srtmerge/internal/logging"
	"srtmerge/internal/preflight"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/textenc"
)

// IndexPair pins bottom[Bottom] and top[Top] to the same start time.
type IndexPair struct {
	Bottom int
	Top    int
}

// ParseIndexPair parses "BOTTOM_IDX,TOP_IDX".
func ParseIndexPair(value string) (IndexPair, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return IndexPair{}, fmt.Errorf("expected BOTTOM_IDX,TOP_IDX, got %q", value)
	}
	bottom, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return IndexPair{}, fmt.Errorf("invalid bottom index %q", parts[0])
	}
	top, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return IndexPair{}, fmt.Errorf("invalid top index %q", parts[1])
	}
	return IndexPair{Bottom: bottom, Top: top}, nil
}

// Options configures a merge run.
type Options struct {
	Bottom         *Input
	Top            *Input
	OutputPath     string
	OutputEncoding string
	SyncIndex      *IndexPair
	AutoSync       bool
	Search         subtitles.SearchAligner
	Render         subtitles.RenderOptions
	Logger         *slog.Logger
}

// Result summarises a completed merge.
type Result struct {
	RunID          string
	Bottom         TrackSummary
	Top            TrackSummary
	IndexSync      *subtitles.Alignment
	AutoSync       *subtitles.Alignment
	Entries        int
	OutputPath     string
	OutputEncoding string
	Bytes          int
}

// TrackSummary describes one lane after loading.
type TrackSummary struct {
	Path     string
	Encoding string
	Cues     int
	Shift    float64
}

func (o Options) validate() error {
	if !o.Bottom.Present() && !o.Top.Present() {
		return services.Wrap(services.ErrValidation, StagePreflight, "inputs", "at least one of the bottom or top subtitle files is required", nil)
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, StagePreflight, "output", "output path is required", nil)
	}
	both := o.Bottom.Present() && o.Top.Present()
	if o.SyncIndex != nil && !both {
		return services.Wrap(services.ErrValidation, StagePreflight, "index sync", "requires both bottom and top subtitles", nil)
	}
	if o.AutoSync && !both {
		return services.Wrap(services.ErrValidation, StagePreflight, "auto sync", "requires both bottom and top subtitles", nil)
	}
	return nil
}

func (o Options) searchAligner(logger *slog.Logger) subtitles.SearchAligner {
	search := o.Search
	if search.Step == 0 && search.Window == 0 && search.Min == 0 && search.Max == 0 {
		search = subtitles.DefaultSearchAligner()
	}
	search.Logger = logger
	return search
}

// Run merges the configured tracks into one ASS script at OutputPath.
//
// Order: load both lanes, index sync, manual shifts (top then bottom),
// automatic alignment, merge, render, encode and write. Sync offsets are
// always applied to the top track. Nothing is written unless every step
// succeeds.
func Run(ctx context.Context, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	runID := newRunID()
	ctx = services.WithRequestID(ctx, runID)
	logger := logging.NewComponentLogger(opts.Logger, "merge")

	outputEncoding := strings.TrimSpace(opts.OutputEncoding)
	if outputEncoding == "" {
		outputEncoding = textenc.UTF8
	}
	result := Result{RunID: runID, OutputPath: opts.OutputPath}

	err := runStage(ctx, logger, StagePreflight, func(_ context.Context, _ *slog.Logger) error {
		_, canonical, err := textenc.Lookup(outputEncoding)
		if err != nil {
			return services.Wrap(services.ErrValidation, StagePreflight, "output encoding", outputEncoding, err)
		}
		result.OutputEncoding = canonical
		inputs := []preflight.Input{}
		if opts.Bottom.Present() {
			inputs = append(inputs, preflight.Input{Name: "Bottom subtitles", Path: opts.Bottom.Path})
		}
		if opts.Top.Present() {
			inputs = append(inputs, preflight.Input{Name: "Top subtitles", Path: opts.Top.Path})
		}
		return preflight.Err(preflight.RunAll(inputs, opts.OutputPath))
	})
	if err != nil {
		return Result{}, err
	}

	var bottom, top subtitles.Track
	err = runStage(ctx, logger, StageLoad, func(ctx context.Context, logger *slog.Logger) error {
		if opts.Bottom.Present() {
			loaded, err := loadLane(ctx, logger, subtitles.LaneBottom, opts.Bottom)
			if err != nil {
				return err
			}
			bottom = loaded.Track
			result.Bottom = TrackSummary{Path: loaded.Path, Encoding: loaded.Encoding, Cues: len(bottom)}
			logTranscode(logger, subtitles.LaneBottom, loaded.Encoding, result.OutputEncoding)
		}
		if opts.Top.Present() {
			loaded, err := loadLane(ctx, logger, subtitles.LaneTop, opts.Top)
			if err != nil {
				return err
			}
			top = loaded.Track
			result.Top = TrackSummary{Path: loaded.Path, Encoding: loaded.Encoding, Cues: len(top)}
			logTranscode(logger, subtitles.LaneTop, loaded.Encoding, result.OutputEncoding)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if opts.SyncIndex != nil {
		err = runStage(ctx, logger, StageIndexSync, func(ctx context.Context, logger *slog.Logger) error {
			aligner := subtitles.IndexAligner{Reference: opts.SyncIndex.Bottom, Other: opts.SyncIndex.Top}
			alignment, err := aligner.Align(ctx, bottom, top)
			if err != nil {
				return services.Wrap(services.ErrValidation, StageIndexSync, "pin cues", fmt.Sprintf("bottom %d, top %d", opts.SyncIndex.Bottom, opts.SyncIndex.Top), err)
			}
			logger.Info("index sync",
				logging.Int("bottom_index", opts.SyncIndex.Bottom),
				logging.String("bottom_text", bottom[opts.SyncIndex.Bottom].Text),
				logging.Int("top_index", opts.SyncIndex.Top),
				logging.String("top_text", top[opts.SyncIndex.Top].Text),
				logging.Float64("offset_seconds", alignment.Offset),
			)
			subtitles.Shift(top, alignment.Offset)
			result.IndexSync = &alignment
			return nil
		})
		if err != nil {
			return Result{}, err
		}
	}

	err = runStage(ctx, logger, StageShift, func(_ context.Context, logger *slog.Logger) error {
		if opts.Top.Present() && opts.Top.Shift != 0 {
			subtitles.Shift(top, opts.Top.Shift)
			result.Top.Shift = opts.Top.Shift
			laneLogger(logger, subtitles.LaneTop).Info("track shifted", logging.Float64("shift_seconds", opts.Top.Shift))
		}
		if opts.Bottom.Present() && opts.Bottom.Shift != 0 {
			subtitles.Shift(bottom, opts.Bottom.Shift)
			result.Bottom.Shift = opts.Bottom.Shift
			laneLogger(logger, subtitles.LaneBottom).Info("track shifted", logging.Float64("shift_seconds", opts.Bottom.Shift))
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if opts.AutoSync {
		err = runStage(ctx, logger, StageAutoSync, func(ctx context.Context, logger *slog.Logger) error {
			alignment, err := opts.searchAligner(logger).Align(ctx, bottom, top)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return services.Wrap(services.ErrValidation, StageAutoSync, "search offset", "", err)
			}
			subtitles.Shift(top, alignment.Offset)
			alignment.Candidates = nil
			result.AutoSync = &alignment
			logger.Info("auto sync",
				logging.Float64("offset_seconds", alignment.Offset),
				logging.Float64("distance", alignment.Distance),
			)
			return nil
		})
		if err != nil {
			return Result{}, err
		}
	}

	var payload []byte
	err = runStage(ctx, logger, StageRender, func(_ context.Context, logger *slog.Logger) error {
		entries := subtitles.Merge(bottom, top)
		if early := subtitles.StartingBeforeZero(entries); early > 0 {
			logging.WarnWithContext(logger, "subtitles start before zero", "negative_times",
				logging.Int("entries", early),
				logging.String(logging.FieldErrorHint, "check the shift and sync options"),
				logging.String(logging.FieldImpact, "players may show these lines near the start"),
			)
		}
		var buf bytes.Buffer
		if err := subtitles.RenderASS(&buf, entries, opts.Render); err != nil {
			return services.Wrap(services.ErrIO, StageRender, "render ass", "", err)
		}
		encoded, err := textenc.Encode(buf.String(), result.OutputEncoding)
		if err != nil {
			return services.Wrap(services.ErrValidation, StageRender, "encode output", result.OutputEncoding, err)
		}
		payload = encoded
		result.Entries = len(entries)
		logger.Debug("script rendered",
			logging.Int("entries", len(entries)),
			logging.Int("bytes", len(payload)),
		)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	err = runStage(ctx, logger, StageWrite, func(_ context.Context, logger *slog.Logger) error {
		if err := fileutil.WriteFileAtomic(opts.OutputPath, payload, 0o644); err != nil {
			return services.Wrap(services.ErrIO, StageWrite, "write output", opts.OutputPath, err)
		}
		result.Bytes = len(payload)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logging.WithContext(ctx, logger).Info("merge completed",
		logging.String("output", opts.OutputPath),
		logging.String("output_encoding", result.OutputEncoding),
		logging.Int("entries", result.Entries),
		logging.Int("bottom_cues", result.Bottom.Cues),
		logging.Int("top_cues", result.Top.Cues),
	)
	return result, nil
}

func newRunID() string {
	return uuid.NewString()
}

func logTranscode(logger *slog.Logger, lane subtitles.Lane, source, output string) {
	if textenc.Same(source, output) {
		return
	}
	laneLogger(logger, lane).Info("transcoding track",
		logging.String("source_encoding", source),
		logging.String("output_encoding", output),
	)
}
