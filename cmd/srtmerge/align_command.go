package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"srtmerge/internal/pipeline"
	"srtmerge/internal/subtitles"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var bottom, top string
	var bottomEncoding, topEncoding string
	var bottomShift, topShift float64
	var format string
	var limit int

	cmd := &cobra.Command{
		Use:   "align -b bottom.srt -t top.srt",
		Short: "Preview the automatic offset search without writing output",
		Long: `Align runs the same offset search as merge --auto-sync-tb and prints the
best offset for the top track together with the closest candidates. Nothing
is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			alignment, err := pipeline.AlignFiles(cmd.Context(), pipeline.AlignOptions{
				Bottom: pipeline.Input{
					Path:     strings.TrimSpace(bottom),
					Encoding: encodingFlag(cmd, "b-enc", bottomEncoding, cfg.Encoding.Bottom),
					Shift:    bottomShift,
				},
				Top: pipeline.Input{
					Path:     strings.TrimSpace(top),
					Encoding: encodingFlag(cmd, "t-enc", topEncoding, cfg.Encoding.Top),
					Shift:    topShift,
				},
				Search: searchAligner(cfg),
				Logger: ctx.loggerValue(),
			})
			if err != nil {
				return err
			}
			if outFormat != formatTable {
				return writeStructured(cmd, outFormat, alignment)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Best offset for top track: %s (distance %.3f, %d candidates)\n",
				formatSeconds(alignment.Offset), alignment.Distance, len(alignment.Candidates))
			fmt.Fprintln(out, renderCandidateTable(alignment, limit))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeFlagAliases)
	fs.StringVarP(&bottom, "bottom", "b", "", "Reference SRT file (bottom lane)")
	fs.StringVarP(&top, "top", "t", "", "SRT file to align (top lane)")
	fs.StringVar(&bottomEncoding, "b-enc", "", "Bottom file encoding, or \"auto\"")
	fs.StringVar(&topEncoding, "t-enc", "", "Top file encoding, or \"auto\"")
	fs.Float64Var(&bottomShift, "b-shift", 0, "Seconds added to every bottom subtitle before the search")
	fs.Float64Var(&topShift, "t-shift", 0, "Seconds added to every top subtitle before the search")
	fs.StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	fs.IntVar(&limit, "limit", 10, "Number of candidates shown in the table (0 for all)")
	_ = cmd.MarkFlagRequired("bottom")
	_ = cmd.MarkFlagRequired("top")

	return cmd
}

// renderCandidateTable lists the best candidates by total distance, keeping
// grid order among ties.
func renderCandidateTable(alignment subtitles.Alignment, limit int) string {
	candidates := append([]subtitles.Candidate(nil), alignment.Candidates...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Total() < candidates[j].Total()
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		marker := ""
		if c.Offset == alignment.Offset {
			marker = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(c.Offset),
			strconv.FormatFloat(c.Forward, 'f', 3, 64),
			strconv.FormatFloat(c.Backward, 'f', 3, 64),
			strconv.FormatFloat(c.Total(), 'f', 3, 64),
			marker,
		})
	}
	return renderTable(
		[]string{"#", "Offset", "Forward", "Backward", "Total", "Best"},
		rows,
		1, 2, 3, 4, 5,
	)
}
