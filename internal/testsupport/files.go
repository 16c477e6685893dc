package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"srtmerge/internal/subtitles"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteSRT renders track as UTF-8 SRT at path.
func WriteSRT(t testing.TB, path string, track subtitles.Track) string {
	t.Helper()

	var buf bytes.Buffer
	if err := subtitles.WriteSRT(&buf, track); err != nil {
		t.Fatalf("render srt: %v", err)
	}
	return WriteFile(t, path, buf.Bytes())
}

var (
	trackGaps      = []float64{1.3, 2.1, 0.9, 3.2, 1.7, 2.6, 1.1, 2.9, 0.7, 1.9}
	trackDurations = []float64{1.0, 1.4, 0.8, 2.0, 1.2, 0.6, 1.8, 1.1, 0.9, 1.5}
)

// Track builds n cues starting at start seconds with irregular gaps, so only
// one offset superimposes two copies of it. Cue text is prefix plus the
// 1-based index.
func Track(n int, start float64, prefix string) subtitles.Track {
	track := make(subtitles.Track, 0, n)
	for i := 0; i < n; i++ {
		track = append(track, subtitles.Cue{
			Index: i + 1,
			Start: start,
			Stop:  start + trackDurations[i%len(trackDurations)],
			Text:  fmt.Sprintf("%s %d", prefix, i+1),
		})
		start += trackGaps[i%len(trackGaps)]
	}
	return track
}
