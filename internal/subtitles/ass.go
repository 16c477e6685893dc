package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Lane identifies which of the two fixed display styles an entry uses.
type Lane int

const (
	LaneBottom Lane = iota
	LaneTop
)

// String returns the lane name used in logs and reports.
func (l Lane) String() string {
	switch l {
	case LaneTop:
		return "top"
	default:
		return "bottom"
	}
}

// Style returns the ASS style name bound to the lane.
func (l Lane) Style() string {
	switch l {
	case LaneTop:
		return "Top"
	default:
		return "Bot"
	}
}

// Entry is a cue lifted into the merged output.
type Entry struct {
	Lane  Lane
	Start float64
	Stop  float64
	Text  string
}

// Merge tags bottom and top cues with their lane and orders them by start.
// The sort is stable: equal starts keep file order with bottom before top.
func Merge(bottom, top Track) []Entry {
	entries := make([]Entry, 0, len(bottom)+len(top))
	entries = appendLane(entries, bottom, LaneBottom)
	entries = appendLane(entries, top, LaneTop)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
	return entries
}

func appendLane(dst []Entry, track Track, lane Lane) []Entry {
	for _, cue := range track {
		dst = append(dst, Entry{Lane: lane, Start: cue.Start, Stop: cue.Stop, Text: cue.Text})
	}
	return dst
}

// Line endings accepted by RenderOptions.
const (
	LineEndingCRLF = "\r\n"
	LineEndingLF   = "\n"
)

// RenderOptions controls the fixed ASS header.
type RenderOptions struct {
	FontName   string
	FontSize   int
	LineEnding string
}

// DefaultRenderOptions matches the header players have been fed so far:
// Arial 16 with CRLF line endings.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{FontName: "Arial", FontSize: 16, LineEnding: LineEndingCRLF}
}

func (o RenderOptions) withDefaults() RenderOptions {
	def := DefaultRenderOptions()
	if strings.TrimSpace(o.FontName) == "" {
		o.FontName = def.FontName
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	if o.LineEnding == "" {
		o.LineEnding = def.LineEnding
	}
	return o
}

// RenderASS writes the script header, the Top/Bot styles and one Dialogue
// event per entry.
func RenderASS(w io.Writer, entries []Entry, opts RenderOptions) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
		bw.WriteString(opts.LineEnding)
	}

	line("[Script Info]")
	line("ScriptType: v4.00+")
	line("Collisions: Normal")
	line("PlayDepth: 0")
	line("Timer: 100,0000")
	line("Video Aspect Ratio: 0")
	line("WrapStyle: 0")
	line("ScaledBorderAndShadow: no")
	line("")
	line("[V4+ Styles]")
	line("Format: Name,Fontname,Fontsize,PrimaryColour,SecondaryColour,OutlineColour,BackColour,Bold,Italic,Underline,StrikeOut,ScaleX,ScaleY,Spacing,Angle,BorderStyle,Outline,Shadow,Alignment,MarginL,MarginR,MarginV,Encoding")
	line("Style: %s,%s,%d,&H00F9FFFF,&H00FFFFFF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,3,0,8,10,10,10,0", LaneTop.Style(), opts.FontName, opts.FontSize)
	line("Style: %s,%s,%d,&H00F9FFF9,&H00FFFFFF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,3,0,2,10,10,10,0", LaneBottom.Style(), opts.FontName, opts.FontSize)
	line("")
	line("[Events]")
	line("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")
	for _, entry := range entries {
		line("Dialogue: 0,%s,%s,%s,,0000,0000,0000,,%s",
			FormatASSTimestamp(entry.Start),
			FormatASSTimestamp(entry.Stop),
			entry.Lane.Style(),
			ASSText(entry.Text),
		)
	}
	return bw.Flush()
}

var assTextReplacer = strings.NewReplacer(
	"\r\n", `\N`,
	"\n", `\N`,
	"\r", "",
	"<i>", `{\i1}`, "</i>", `{\i0}`,
	"<I>", `{\i1}`, "</I>", `{\i0}`,
	"<b>", `{\b1}`, "</b>", `{\b0}`,
	"<B>", `{\b1}`, "</B>", `{\b0}`,
	"<u>", `{\u1}`, "</u>", `{\u0}`,
	"<U>", `{\u1}`, "</U>", `{\u0}`,
)

// ASSText maps SRT line breaks and basic HTML emphasis tags to ASS overrides.
func ASSText(text string) string {
	return assTextReplacer.Replace(text)
}

// MergeAndRender merges both tracks and returns the ASS document using the
// default header options.
func MergeAndRender(bottom, top Track) (string, error) {
	var sb strings.Builder
	if err := RenderASS(&sb, Merge(bottom, top), DefaultRenderOptions()); err != nil {
		return "", err
	}
	return sb.String(), nil
}
