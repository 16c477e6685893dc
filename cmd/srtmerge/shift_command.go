package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"srtmerge/internal/pipeline"
)

func newShiftCommand(ctx *commandContext) *cobra.Command {
	var input, output string
	var inputEncoding, outputEncoding string
	var seconds float64

	cmd := &cobra.Command{
		Use:   "shift -i in.srt -o out.srt --seconds S",
		Short: "Move every subtitle of an SRT file by a fixed number of seconds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := pipeline.ShiftFile(cmd.Context(), pipeline.ShiftOptions{
				Input: pipeline.Input{
					Path:     strings.TrimSpace(input),
					Encoding: encodingFlag(cmd, "encoding", inputEncoding, cfg.Encoding.Bottom),
					Shift:    seconds,
				},
				OutputPath:     strings.TrimSpace(output),
				OutputEncoding: strings.TrimSpace(outputEncoding),
				Logger:         ctx.loggerValue(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d subtitles shifted %s, %s)\n",
				result.OutputPath, result.Cues, formatSeconds(result.Shift), result.OutputEncoding)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "SRT file to shift")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination SRT file")
	cmd.Flags().StringVar(&inputEncoding, "encoding", "", "Input encoding, or \"auto\" (default: encoding.bottom from config)")
	cmd.Flags().StringVar(&outputEncoding, "o-enc", "", "Output encoding (default: same as input)")
	cmd.Flags().Float64Var(&seconds, "seconds", 0, "Seconds to add; negative values move subtitles earlier")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("seconds")

	return cmd
}
