package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"srtmerge/internal/logging"
	"srtmerge/internal/services"
)

// Stage names used in logs and wrapped errors.
const (
	StagePreflight = "preflight"
	StageLoad      = "load"
	StageIndexSync = "index-sync"
	StageShift     = "shift"
	StageAutoSync  = "auto-sync"
	StageRender    = "render"
	StageWrite     = "write"
)

type stageFunc func(ctx context.Context, logger *slog.Logger) error

// runStage executes fn with the stage bound to the context and logger.
func runStage(ctx context.Context, logger *slog.Logger, name string, fn stageFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()
	if err := fn(stageCtx, stageLogger); err != nil {
		return handleFailure(stageLogger, err)
	}
	stageLogger.Debug(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func handleFailure(logger *slog.Logger, stageErr error) error {
	class := services.FailureClass(stageErr)
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("error_class", class),
		logging.String("error_message", strings.TrimSpace(stageErr.Error())),
		logging.String(logging.FieldErrorHint, failureHint(class)),
		logging.Error(stageErr),
	)
	return stageErr
}

func failureHint(class string) string {
	switch class {
	case services.FailureValidation:
		return "check the subtitle files, encodings and sync indexes"
	case services.FailureNotFound:
		return "check the input paths"
	case services.FailureCanceled:
		return "run the command again"
	default:
		return "check permissions on the output directory"
	}
}
