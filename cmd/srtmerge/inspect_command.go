package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"srtmerge/internal/pipeline"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/textenc"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var encoding string
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <file.srt>...",
		Short: "Summarise encoding, subtitle count and timing of SRT files",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("provide at least one SRT file. Example: srtmerge inspect movie.en.srt")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			reports := make([]pipeline.Report, 0, len(args))
			for _, path := range args {
				report, err := pipeline.Inspect(cmd.Context(), ctx.loggerValue(), strings.TrimSpace(path), encoding)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}
			if outFormat != formatTable {
				return writeStructured(cmd, outFormat, reports)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInspectTable(reports))
			return nil
		},
	}

	cmd.Flags().StringVar(&encoding, "encoding", textenc.AutoDetect, "Encoding used to parse the files, or \"auto\"")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	return cmd
}

func renderInspectTable(reports []pipeline.Report) string {
	rows := make([][]string, 0, len(reports))
	for _, report := range reports {
		detected := "-"
		if report.Detected.Charset != "" {
			detected = fmt.Sprintf("%s (%d%%)", report.Detected.Charset, report.Detected.Confidence)
		}
		rows = append(rows, []string{
			report.Path,
			report.Encoding,
			detected,
			strconv.Itoa(report.Stats.Cues),
			subtitles.FormatASSTimestamp(report.Stats.FirstStart),
			subtitles.FormatASSTimestamp(report.Stats.LastStop),
			strconv.Itoa(report.Stats.OutOfOrder),
			strconv.Itoa(report.Stats.Inverted),
		})
	}
	return renderTable(
		[]string{"File", "Encoding", "Detected", "Subtitles", "First", "Last", "Unordered", "Inverted"},
		rows,
		4, 5, 6, 7, 8,
	)
}
