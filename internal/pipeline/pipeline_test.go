package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"golang.org/x/text/encoding/simplifiedchinese"

	"srtmerge/internal/fileutil"
	"srtmerge/internal/logging"
	"srtmerge/internal/pipeline"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/testsupport"
	"srtmerge/internal/textenc"
)

type fixture struct {
	dir    string
	bottom string
	top    string
	output string
}

func newFixture(t *testing.T, bottom, top subtitles.Track) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, output: filepath.Join(dir, "merged.ass")}
	if bottom != nil {
		f.bottom = testsupport.WriteSRT(t, filepath.Join(dir, "bottom.srt"), bottom)
	}
	if top != nil {
		f.top = testsupport.WriteSRT(t, filepath.Join(dir, "top.srt"), top)
	}
	return f
}

func (f fixture) options() pipeline.Options {
	opts := pipeline.Options{OutputPath: f.output}
	if f.bottom != "" {
		opts.Bottom = &pipeline.Input{Path: f.bottom}
	}
	if f.top != "" {
		opts.Top = &pipeline.Input{Path: f.top}
	}
	return opts
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func dialogueLines(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\r\n") {
		if strings.HasPrefix(line, "Dialogue: ") {
			lines = append(lines, line)
		}
	}
	return lines
}

func findDialogue(t *testing.T, script, text string) string {
	t.Helper()
	for _, line := range dialogueLines(script) {
		if strings.HasSuffix(line, ",,"+text) {
			return line
		}
	}
	t.Fatalf("no dialogue for %q in:\n%s", text, script)
	return ""
}

func TestRunMergesBothTracks(t *testing.T) {
	f := newFixture(t, testsupport.Track(5, 10, "bottom"), testsupport.Track(5, 10.5, "top"))

	result, err := pipeline.Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if result.Entries != 10 || result.Bottom.Cues != 5 || result.Top.Cues != 5 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.OutputEncoding != textenc.UTF8 {
		t.Fatalf("output encoding = %q", result.OutputEncoding)
	}

	script := readOutput(t, f.output)
	if !strings.HasPrefix(script, "[Script Info]\r\n") {
		t.Fatalf("unexpected header: %q", script[:40])
	}
	lines := dialogueLines(script)
	if len(lines) != 10 {
		t.Fatalf("expected 10 dialogue lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], ",Bot,") || !strings.HasSuffix(lines[0], "bottom 1") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], ",Top,") || !strings.HasSuffix(lines[1], "top 1") {
		t.Fatalf("second line = %q", lines[1])
	}
	if _, err := os.Stat(fileutil.LockPath(f.output)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file left behind: %v", err)
	}
}

func TestRunSingleTrack(t *testing.T) {
	f := newFixture(t, nil, testsupport.Track(4, 3, "top"))

	result, err := pipeline.Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Entries != 4 || result.Bottom.Cues != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, line := range dialogueLines(readOutput(t, f.output)) {
		if !strings.Contains(line, ",Top,") {
			t.Fatalf("unexpected lane in %q", line)
		}
	}
}

func TestRunValidatesOptions(t *testing.T) {
	f := newFixture(t, testsupport.Track(3, 1, "b"), nil)
	tests := []struct {
		name string
		edit func(*pipeline.Options)
	}{
		{"no inputs", func(o *pipeline.Options) { o.Bottom = nil }},
		{"no output", func(o *pipeline.Options) { o.OutputPath = "" }},
		{"index sync without top", func(o *pipeline.Options) { o.SyncIndex = &pipeline.IndexPair{} }},
		{"auto sync without top", func(o *pipeline.Options) { o.AutoSync = true }},
		{"unknown output encoding", func(o *pipeline.Options) { o.OutputEncoding = "klingon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := f.options()
			tt.edit(&opts)
			_, err := pipeline.Run(context.Background(), opts)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, statErr := os.Stat(f.output); !errors.Is(statErr, os.ErrNotExist) {
				t.Fatal("output written despite invalid options")
			}
		})
	}
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	opts := pipeline.Options{
		Bottom:     &pipeline.Input{Path: filepath.Join(dir, "missing.srt")},
		OutputPath: filepath.Join(dir, "out.ass"),
	}
	_, err := pipeline.Run(context.Background(), opts)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRunIndexSync(t *testing.T) {
	bottom := testsupport.Track(10, 1, "bottom")
	top := testsupport.Track(10, 1, "top")
	bottom[2].Start, bottom[2].Stop = 10, 11
	top[5].Start, top[5].Stop = 7, 7.5
	f := newFixture(t, bottom, top)

	opts := f.options()
	opts.SyncIndex = &pipeline.IndexPair{Bottom: 2, Top: 5}
	result, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.IndexSync == nil || math.Abs(result.IndexSync.Offset-3) > 1e-9 {
		t.Fatalf("index sync = %+v, want offset 3", result.IndexSync)
	}
	line := findDialogue(t, readOutput(t, f.output), "top 6")
	if !strings.HasPrefix(line, "Dialogue: 0,0:00:10.00,0:00:10.50,Top,") {
		t.Fatalf("top[5] not moved onto bottom[2]: %q", line)
	}
}

func TestRunIndexSyncOutOfRange(t *testing.T) {
	f := newFixture(t, testsupport.Track(3, 1, "b"), testsupport.Track(8, 1, "t"))
	opts := f.options()
	opts.SyncIndex = &pipeline.IndexPair{Bottom: 5, Top: 1}
	_, err := pipeline.Run(context.Background(), opts)
	if !errors.Is(err, subtitles.ErrIndexOutOfRange) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected index out of range, got %v", err)
	}
	if _, statErr := os.Stat(f.output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("output written after failed sync")
	}
}

func TestRunManualShifts(t *testing.T) {
	f := newFixture(t, testsupport.Track(2, 5, "bottom"), testsupport.Track(2, 5, "top"))
	opts := f.options()
	opts.Top.Shift = 1.5
	opts.Bottom.Shift = -0.5
	result, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Top.Shift != 1.5 || result.Bottom.Shift != -0.5 {
		t.Fatalf("shifts not reported: %+v", result)
	}
	script := readOutput(t, f.output)
	if line := findDialogue(t, script, "bottom 1"); !strings.HasPrefix(line, "Dialogue: 0,0:00:04.50,0:00:05.50,Bot,") {
		t.Fatalf("bottom shift not applied: %q", line)
	}
	if line := findDialogue(t, script, "top 1"); !strings.HasPrefix(line, "Dialogue: 0,0:00:06.50,0:00:07.50,Top,") {
		t.Fatalf("top shift not applied: %q", line)
	}
}

func TestRunAutoSync(t *testing.T) {
	bottom := testsupport.Track(60, 30, "bottom")
	top := subtitles.Shifted(testsupport.Track(60, 30, "top"), -4.2)
	f := newFixture(t, bottom, top)

	opts := f.options()
	opts.AutoSync = true
	result, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.AutoSync == nil {
		t.Fatal("expected auto sync result")
	}
	if math.Abs(result.AutoSync.Offset-4.2) > subtitles.DefaultSearchStep {
		t.Fatalf("offset = %v, want ~4.2", result.AutoSync.Offset)
	}
	if result.AutoSync.Candidates != nil {
		t.Fatal("merge result should not carry the candidate table")
	}
	script := readOutput(t, f.output)
	bottomLine := findDialogue(t, script, "bottom 10")
	topLine := findDialogue(t, script, "top 10")
	if bottomLine[len("Dialogue: 0,"):len("Dialogue: 0,0:00:00.00")] != topLine[len("Dialogue: 0,"):len("Dialogue: 0,0:00:00.00")] {
		t.Fatalf("tracks not aligned:\n%s\n%s", bottomLine, topLine)
	}
}

func TestRunRejectsMalformedTrack(t *testing.T) {
	f := newFixture(t, testsupport.Track(2, 1, "b"), nil)
	testsupport.WriteFile(t, f.bottom, []byte("1\n00:00:01,000 00:00:02,000\nbroken\n"))

	_, err := pipeline.Run(context.Background(), f.options())
	if !errors.Is(err, subtitles.ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
	if _, statErr := os.Stat(f.output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("output written for malformed input")
	}
}

func TestRunRejectsEmptyTrack(t *testing.T) {
	f := newFixture(t, testsupport.Track(2, 1, "b"), testsupport.Track(2, 1, "t"))
	testsupport.WriteFile(t, f.top, nil)

	_, err := pipeline.Run(context.Background(), f.options())
	if !errors.Is(err, subtitles.ErrEmptyTrack) {
		t.Fatalf("expected ErrEmptyTrack, got %v", err)
	}
	if !strings.Contains(err.Error(), "top") {
		t.Fatalf("expected lane label in %q", err)
	}
}

func TestRunTranscodes(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("1\n00:00:01,000 --> 00:00:02,000\n你好，世界\n")
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	bottom := testsupport.WriteFile(t, filepath.Join(dir, "zh.srt"), []byte(gbk))

	t.Run("to utf-8", func(t *testing.T) {
		out := filepath.Join(dir, "utf8.ass")
		result, err := pipeline.Run(context.Background(), pipeline.Options{
			Bottom:     &pipeline.Input{Path: bottom, Encoding: "gbk"},
			OutputPath: out,
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.Bottom.Encoding != "gbk" {
			t.Fatalf("source encoding = %q", result.Bottom.Encoding)
		}
		findDialogue(t, readOutput(t, out), "你好，世界")
	})

	t.Run("keeps gbk", func(t *testing.T) {
		out := filepath.Join(dir, "gbk.ass")
		if _, err := pipeline.Run(context.Background(), pipeline.Options{
			Bottom:         &pipeline.Input{Path: bottom, Encoding: "gbk"},
			OutputPath:     out,
			OutputEncoding: "gbk",
		}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		raw, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(raw, []byte(gbk[len("1\n00:00:01,000 --> 00:00:02,000\n"):len(gbk)-1])) {
			t.Fatal("gbk bytes not preserved")
		}
	})

	t.Run("unrepresentable output", func(t *testing.T) {
		_, err := pipeline.Run(context.Background(), pipeline.Options{
			Bottom:         &pipeline.Input{Path: bottom, Encoding: "gbk"},
			OutputPath:     filepath.Join(dir, "latin1.ass"),
			OutputEncoding: "iso-8859-1",
		})
		if !errors.Is(err, textenc.ErrConversionFailure) {
			t.Fatalf("expected conversion failure, got %v", err)
		}
	})

	t.Run("wrong source encoding", func(t *testing.T) {
		_, err := pipeline.Run(context.Background(), pipeline.Options{
			Bottom:     &pipeline.Input{Path: bottom},
			OutputPath: filepath.Join(dir, "bad.ass"),
		})
		if !errors.Is(err, textenc.ErrConversionFailure) {
			t.Fatalf("expected conversion failure, got %v", err)
		}
	})
}

func TestRunHonorsOutputLock(t *testing.T) {
	f := newFixture(t, testsupport.Track(2, 1, "b"), nil)
	lock := flock.New(fileutil.LockPath(f.output))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer lock.Unlock()

	_, err = pipeline.Run(context.Background(), f.options())
	if !errors.Is(err, fileutil.ErrLocked) || !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected locked output, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t, testsupport.Track(2, 1, "b"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pipeline.Run(ctx, f.options()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunLogsStagesWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	f := newFixture(t, testsupport.Track(2, 1, "b"), testsupport.Track(2, 1, "t"))
	opts := f.options()
	opts.Logger = logger
	result, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	completed := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry[logging.FieldCorrelationID] != result.RunID {
			t.Fatalf("log line without run id: %s", line)
		}
		if entry["msg"] == "stage completed" {
			completed[entry[logging.FieldStage].(string)] = true
		}
	}
	for _, stage := range []string{pipeline.StagePreflight, pipeline.StageLoad, pipeline.StageShift, pipeline.StageRender, pipeline.StageWrite} {
		if !completed[stage] {
			t.Errorf("missing completion log for stage %q", stage)
		}
	}
	if completed[pipeline.StageAutoSync] || completed[pipeline.StageIndexSync] {
		t.Error("sync stages ran without being requested")
	}
}

func TestRunWarnsAboutNegativeStarts(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	f := newFixture(t, testsupport.Track(2, 1, "b"), nil)
	opts := f.options()
	opts.Bottom.Shift = -2
	opts.Logger = logger
	if _, err := pipeline.Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), `"event_type":"negative_times"`) {
		t.Fatalf("expected negative time warning, got %s", buf.String())
	}
}

func TestParseIndexPair(t *testing.T) {
	tests := []struct {
		input   string
		want    pipeline.IndexPair
		wantErr bool
	}{
		{"2,5", pipeline.IndexPair{Bottom: 2, Top: 5}, false},
		{" 0 , 12 ", pipeline.IndexPair{Bottom: 0, Top: 12}, false},
		{"2", pipeline.IndexPair{}, true},
		{"2,5,7", pipeline.IndexPair{}, true},
		{"a,5", pipeline.IndexPair{}, true},
		{"2,5x", pipeline.IndexPair{}, true},
	}
	for _, tt := range tests {
		got, err := pipeline.ParseIndexPair(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIndexPair(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIndexPair(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}
