package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"srtmerge/internal/fileutil"
	"srtmerge/internal/logging"
	"srtmerge/internal/preflight"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/textenc"
)

// ShiftOptions configures ShiftFile.
type ShiftOptions struct {
	Input          Input
	OutputPath     string
	OutputEncoding string
	Logger         *slog.Logger
}

// ShiftResult summarises a shifted SRT file.
type ShiftResult struct {
	Cues           int
	Shift          float64
	OutputPath     string
	OutputEncoding string
}

// ShiftFile moves every cue of the input by Input.Shift seconds and writes
// the result as SRT. An empty output encoding keeps the source encoding.
func ShiftFile(ctx context.Context, opts ShiftOptions) (ShiftResult, error) {
	if !opts.Input.Present() || strings.TrimSpace(opts.OutputPath) == "" {
		return ShiftResult{}, services.Wrap(services.ErrValidation, StagePreflight, "shift", "input and output paths are required", nil)
	}
	ctx = services.WithRequestID(ctx, newRunID())
	logger := logging.NewComponentLogger(opts.Logger, "shift")

	var loaded LoadedTrack
	err := runStage(ctx, logger, StagePreflight, func(context.Context, *slog.Logger) error {
		return preflight.Err(preflight.RunAll([]preflight.Input{{Name: "Input subtitles", Path: opts.Input.Path}}, opts.OutputPath))
	})
	if err != nil {
		return ShiftResult{}, err
	}
	err = runStage(ctx, logger, StageLoad, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		loaded, err = LoadTrack(ctx, logger, "input", opts.Input.Path, opts.Input.Encoding)
		return err
	})
	if err != nil {
		return ShiftResult{}, err
	}

	outputEncoding := strings.TrimSpace(opts.OutputEncoding)
	if outputEncoding == "" {
		outputEncoding = loaded.Encoding
	}
	var payload []byte
	err = runStage(ctx, logger, StageShift, func(_ context.Context, logger *slog.Logger) error {
		subtitles.Shift(loaded.Track, opts.Input.Shift)
		if clamped := subtitles.ClampAtZero(loaded.Track); clamped > 0 {
			logging.WarnWithContext(logger, "subtitles shifted before zero", "cues_clamped",
				logging.Int("cues", clamped),
				logging.String(logging.FieldErrorHint, "use a smaller negative shift"),
				logging.String(logging.FieldImpact, "cues start at 00:00:00,000"),
			)
		}
		var buf bytes.Buffer
		if err := subtitles.WriteSRT(&buf, loaded.Track); err != nil {
			return services.Wrap(services.ErrIO, StageShift, "render srt", "", err)
		}
		encoded, err := textenc.Encode(buf.String(), outputEncoding)
		if err != nil {
			return services.Wrap(services.ErrValidation, StageShift, "encode output", outputEncoding, err)
		}
		payload = encoded
		logger.Info("track shifted",
			logging.Float64("shift_seconds", opts.Input.Shift),
			logging.Int("cues", len(loaded.Track)),
		)
		return nil
	})
	if err != nil {
		return ShiftResult{}, err
	}
	err = runStage(ctx, logger, StageWrite, func(context.Context, *slog.Logger) error {
		if err := fileutil.WriteFileAtomic(opts.OutputPath, payload, 0o644); err != nil {
			return services.Wrap(services.ErrIO, StageWrite, "write output", opts.OutputPath, err)
		}
		return nil
	})
	if err != nil {
		return ShiftResult{}, err
	}
	return ShiftResult{
		Cues:           len(loaded.Track),
		Shift:          opts.Input.Shift,
		OutputPath:     opts.OutputPath,
		OutputEncoding: textenc.Canonical(outputEncoding),
	}, nil
}
