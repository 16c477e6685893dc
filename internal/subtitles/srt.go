package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dimchansky/utfbom"
)

const timingSeparator = "-->"

// maxLineBytes bounds a single SRT line; bufio's 64 KiB default is too small
// for some machine-generated files.
const maxLineBytes = 1 << 20

// Cue is a single numbered subtitle record.
type Cue struct {
	Index int
	Start float64
	Stop  float64
	Text  string
}

// Track is an ordered list of cues in file order.
type Track []Cue

type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(utfbom.SkipOnly(r))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &lineReader{scanner: scanner}
}

// next returns the following line without its line terminator. Carriage
// returns are stripped regardless of platform.
func (lr *lineReader) next() (string, bool) {
	if !lr.scanner.Scan() {
		return "", false
	}
	lr.line++
	return strings.TrimRight(lr.scanner.Text(), "\r"), true
}

// ParseTrack reads SRT records until the stream ends or a blank line appears
// where an index is expected. Any malformed record aborts the whole track.
func ParseTrack(r io.Reader) (Track, error) {
	lr := newLineReader(r)
	var track Track
	for {
		line, ok := lr.next()
		if !ok || isBlank(line) {
			break
		}
		var cue Cue
		// Unnumbered or garbled indexes are tolerated; the index is informational.
		if index, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
			cue.Index = index
		}

		timing, ok := lr.next()
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing timing line after index %q", ErrMalformedHeader, lr.line+1, line)
		}
		start, stop, err := parseTiming(timing)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lr.line, err)
		}
		cue.Start = start
		cue.Stop = stop

		var text []string
		for {
			line, ok := lr.next()
			if !ok || isBlank(line) {
				break
			}
			text = append(text, line)
		}
		cue.Text = strings.Join(text, "\n")
		track = append(track, cue)
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return track, nil
}

func parseTiming(line string) (float64, float64, error) {
	idx := strings.Index(line, timingSeparator)
	if idx < 0 {
		return 0, 0, fmt.Errorf("%w: no %q in %q", ErrMalformedHeader, timingSeparator, line)
	}
	start, err := ParseTimestamp(line[:idx])
	if err != nil {
		return 0, 0, fmt.Errorf("start time: %w", err)
	}
	// Some encoders append positioning hints (X1:... Y2:...) after the stop time.
	stopText := strings.TrimSpace(line[idx+len(timingSeparator):])
	if fields := strings.Fields(stopText); len(fields) > 0 {
		stopText = fields[0]
	}
	stop, err := ParseTimestamp(stopText)
	if err != nil {
		return 0, 0, fmt.Errorf("stop time: %w", err)
	}
	return start, stop, nil
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// ReadTrackFile parses the SRT file at path. The content must already be in
// the working encoding (UTF-8).
func ReadTrackFile(path string) (Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer file.Close()
	return ParseTrack(file)
}

// RequireCues reports ErrEmptyTrack when track has no cues.
func RequireCues(track Track, label string) error {
	if len(track) == 0 {
		return fmt.Errorf("%s: %w", label, ErrEmptyTrack)
	}
	return nil
}

// Clone returns an independent copy of the track.
func (t Track) Clone() Track {
	if t == nil {
		return nil
	}
	out := make(Track, len(t))
	copy(out, t)
	return out
}

// SortedByStart returns a copy ordered by start time. Equal starts keep file order.
func SortedByStart(track Track) Track {
	out := track.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// IsSortedByStart reports whether cues are in non-decreasing start order.
func IsSortedByStart(track Track) bool {
	return sort.SliceIsSorted(track, func(i, j int) bool { return track[i].Start < track[j].Start })
}

// TrackStats summarizes a track for inspection output.
type TrackStats struct {
	Cues       int     `json:"cues" yaml:"cues"`
	FirstStart float64 `json:"first_start" yaml:"first_start"`
	LastStop   float64 `json:"last_stop" yaml:"last_stop"`
	OutOfOrder int     `json:"out_of_order" yaml:"out_of_order"`
	Inverted   int     `json:"inverted" yaml:"inverted"`
}

// Stats computes the bounds and ordering anomalies of a track.
func Stats(track Track) TrackStats {
	stats := TrackStats{Cues: len(track)}
	if len(track) == 0 {
		return stats
	}
	first := math.Inf(1)
	last := math.Inf(-1)
	for i, cue := range track {
		first = math.Min(first, cue.Start)
		last = math.Max(last, cue.Stop)
		if i > 0 && cue.Start < track[i-1].Start {
			stats.OutOfOrder++
		}
		if cue.Start > cue.Stop {
			stats.Inverted++
		}
	}
	stats.FirstStart = first
	stats.LastStop = last
	return stats
}

// WriteSRT writes cues back out in SRT form.
func WriteSRT(w io.Writer, track Track) error {
	bw := bufio.NewWriter(w)
	for i, cue := range track {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n", cue.Index)
		fmt.Fprintf(bw, "%s %s %s\n", FormatSRTTimestamp(cue.Start), timingSeparator, FormatSRTTimestamp(cue.Stop))
		if cue.Text != "" {
			bw.WriteString(cue.Text)
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}
