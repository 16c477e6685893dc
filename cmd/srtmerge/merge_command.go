package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"srtmerge/internal/config"
	"srtmerge/internal/pipeline"
	"srtmerge/internal/subtitles"
)

type mergeFlags struct {
	output         string
	bottom         string
	top            string
	bottomEncoding string
	topEncoding    string
	outputEncoding string
	bottomShift    float64
	topShift       float64
	syncIndex      string
	autoSync       bool
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:   "merge -o out.ass [-b bottom.srt] [-t top.srt]",
		Short: "Merge bottom and top SRT tracks into one ASS script",
		Long: `Merge renders up to two SRT tracks into an ASS script with a "Bot" style at
the bottom of the screen and a "Top" style at the top.

Steps run in this order: decode and parse both tracks, pin a cue pair
(--sync-tb), apply manual shifts (top then bottom), search for the best top
offset (--auto-sync-tb), then merge and write. Sync offsets always move the
top track.

Long-form aliases: --bottom-enc, --top-enc, --output-enc, --bottom-tshift,
--top-tshift, --sync-top-to-bottom, --auto-sync-top-to-bottom.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, cfg)
			if err != nil {
				return err
			}
			opts.Logger = ctx.loggerValue()

			result, err := pipeline.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printMergeSummary(cmd, result)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeFlagAliases)
	fs.StringVarP(&flags.output, "output", "o", "", "Output ASS file")
	fs.StringVarP(&flags.bottom, "bottom", "b", "", "SRT file shown at the bottom of the screen")
	fs.StringVarP(&flags.top, "top", "t", "", "SRT file shown at the top of the screen")
	fs.StringVar(&flags.bottomEncoding, "b-enc", "", "Bottom file encoding, or \"auto\" (default from encoding.bottom)")
	fs.StringVar(&flags.topEncoding, "t-enc", "", "Top file encoding, or \"auto\" (default from encoding.top)")
	fs.StringVar(&flags.outputEncoding, "o-enc", "", "Output encoding (default from encoding.output or "+config.OutputEncodingEnv+")")
	fs.Float64Var(&flags.bottomShift, "b-shift", 0, "Seconds added to every bottom subtitle")
	fs.Float64Var(&flags.topShift, "t-shift", 0, "Seconds added to every top subtitle")
	fs.StringVar(&flags.syncIndex, "sync-tb", "", "Move the top track so top[TOP_IDX] starts with bottom[BOTTOM_IDX]; value is BOTTOM_IDX,TOP_IDX (0-based)")
	fs.BoolVar(&flags.autoSync, "auto-sync-tb", false, "Search for the offset that best aligns the top track with the bottom track")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (f mergeFlags) options(cmd *cobra.Command, cfg *config.Config) (pipeline.Options, error) {
	opts := pipeline.Options{
		OutputPath:     strings.TrimSpace(f.output),
		OutputEncoding: encodingFlag(cmd, "o-enc", f.outputEncoding, cfg.Encoding.Output),
		AutoSync:       f.autoSync,
		Search:         searchAligner(cfg),
		Render:         renderOptions(cfg),
	}
	if path := strings.TrimSpace(f.bottom); path != "" {
		opts.Bottom = &pipeline.Input{
			Path:     path,
			Encoding: encodingFlag(cmd, "b-enc", f.bottomEncoding, cfg.Encoding.Bottom),
			Shift:    f.bottomShift,
		}
	}
	if path := strings.TrimSpace(f.top); path != "" {
		opts.Top = &pipeline.Input{
			Path:     path,
			Encoding: encodingFlag(cmd, "t-enc", f.topEncoding, cfg.Encoding.Top),
			Shift:    f.topShift,
		}
	}
	if opts.Bottom == nil && opts.Top == nil {
		return opts, fmt.Errorf("provide at least one subtitle file with --bottom or --top")
	}
	if strings.TrimSpace(f.syncIndex) != "" {
		pair, err := pipeline.ParseIndexPair(f.syncIndex)
		if err != nil {
			return opts, fmt.Errorf("--sync-tb: %w", err)
		}
		opts.SyncIndex = &pair
	}
	if (opts.SyncIndex != nil || opts.AutoSync) && (opts.Bottom == nil || opts.Top == nil) {
		return opts, fmt.Errorf("--sync-tb and --auto-sync-tb need both --bottom and --top")
	}
	return opts, nil
}

func searchAligner(cfg *config.Config) subtitles.SearchAligner {
	return subtitles.SearchAligner{
		Min:    cfg.Sync.MinOffset,
		Max:    cfg.Sync.MaxOffset,
		Step:   cfg.Sync.Step,
		Window: cfg.Sync.Window,
	}
}

func renderOptions(cfg *config.Config) subtitles.RenderOptions {
	return subtitles.RenderOptions{
		FontName:   cfg.Output.FontName,
		FontSize:   cfg.Output.FontSize,
		LineEnding: cfg.LineEndingSequence(),
	}
}

func printMergeSummary(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s (%d subtitles, %s)\n", result.OutputPath, result.Entries, result.OutputEncoding)
	if result.Bottom.Path != "" {
		fmt.Fprintf(out, "  bottom: %s (%d subtitles, %s, shift %s)\n", result.Bottom.Path, result.Bottom.Cues, result.Bottom.Encoding, formatSeconds(result.Bottom.Shift))
	}
	if result.Top.Path != "" {
		fmt.Fprintf(out, "  top:    %s (%d subtitles, %s, shift %s)\n", result.Top.Path, result.Top.Cues, result.Top.Encoding, formatSeconds(result.Top.Shift))
	}
	if result.IndexSync != nil {
		fmt.Fprintf(out, "  index sync: top moved %s\n", formatSeconds(result.IndexSync.Offset))
	}
	if result.AutoSync != nil {
		fmt.Fprintf(out, "  auto sync:  top moved %s (distance %.3f)\n", formatSeconds(result.AutoSync.Offset), result.AutoSync.Distance)
	}
}
