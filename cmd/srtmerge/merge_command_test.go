package main

import (
	"errors"
	"os"
	"strings"
	"testing"

	"srtmerge/internal/config"
	"srtmerge/internal/services"
	"srtmerge/internal/subtitles"
	"srtmerge/internal/testsupport"
)

func TestMergeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(3, 1, "bottom"))
	top := testsupport.WriteSRT(t, env.path("top.srt"), testsupport.Track(3, 1.5, "top"))
	output := env.path("out.ass")

	out, _, err := runCLI(t, []string{"merge", "-b", bottom, "-t", top, "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "Wrote "+output+" (6 subtitles, utf-8)")
	requireContains(t, out, "bottom: "+bottom)

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	script := string(data)
	requireContains(t, script, "Style: Top,Arial,16,")
	requireContains(t, script, "Dialogue: 0,0:00:01.00,0:00:02.00,Bot,,0000,0000,0000,,bottom 1\r\n")
	requireContains(t, script, "Dialogue: 0,0:00:01.50,0:00:02.50,Top,,0000,0000,0000,,top 1\r\n")
}

func TestMergeCommandAliasesAndShifts(t *testing.T) {
	env := setupCLITestEnv(t)
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(2, 10, "bottom"))
	top := testsupport.WriteSRT(t, env.path("top.srt"), testsupport.Track(2, 10, "top"))
	output := env.path("out.ass")

	out, _, err := runCLI(t, []string{
		"merge", "--bottom", bottom, "--top", top, "--output", output,
		"--top-tshift", "2", "--bottom-tshift=-1.5",
	}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "shift +2.000s")
	requireContains(t, out, "shift -1.500s")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, string(data), "Dialogue: 0,0:00:08.50,0:00:09.50,Bot,")
	requireContains(t, string(data), "Dialogue: 0,0:00:12.00,0:00:13.00,Top,")
}

func TestMergeCommandIndexSync(t *testing.T) {
	env := setupCLITestEnv(t)
	bottomTrack := testsupport.Track(6, 1, "bottom")
	topTrack := testsupport.Track(6, 1, "top")
	bottomTrack[2].Start, bottomTrack[2].Stop = 10, 11
	topTrack[5].Start, topTrack[5].Stop = 7, 8
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), bottomTrack)
	top := testsupport.WriteSRT(t, env.path("top.srt"), topTrack)
	output := env.path("out.ass")

	out, _, err := runCLI(t, []string{"merge", "-b", bottom, "-t", top, "-o", output, "--sync-top-to-bottom", "2,5"}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "index sync: top moved +3.000s")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, string(data), "Dialogue: 0,0:00:10.00,0:00:11.00,Top,,0000,0000,0000,,top 6")
}

func TestMergeCommandAutoSync(t *testing.T) {
	env := setupCLITestEnv(t)
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(40, 20, "bottom"))
	top := testsupport.WriteSRT(t, env.path("top.srt"), subtitles.Shifted(testsupport.Track(40, 20, "top"), 6))

	out, _, err := runCLI(t, []string{"merge", "-b", bottom, "-t", top, "-o", env.path("out.ass"), "--auto-sync-tb"}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "auto sync:  top moved -6.000s")
}

func TestMergeCommandValidation(t *testing.T) {
	env := setupCLITestEnv(t)
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(2, 1, "b"))
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing output", []string{"merge", "-b", bottom}, `required flag(s) "output" not set`},
		{"no inputs", []string{"merge", "-o", env.path("x.ass")}, "at least one subtitle file"},
		{"sync without top", []string{"merge", "-b", bottom, "-o", env.path("x.ass"), "--auto-sync-tb"}, "need both"},
		{"bad index pair", []string{"merge", "-b", bottom, "-t", bottom, "-o", env.path("x.ass"), "--sync-tb", "3"}, "BOTTOM_IDX,TOP_IDX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if err == nil {
				t.Fatal("expected error")
			}
			requireContains(t, err.Error(), tt.want)
		})
	}
}

func TestMergeCommandIndexOutOfRange(t *testing.T) {
	env := setupCLITestEnv(t)
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(3, 1, "b"))
	top := testsupport.WriteSRT(t, env.path("top.srt"), testsupport.Track(8, 1, "t"))

	_, stderr, err := runCLI(t, []string{"merge", "-b", bottom, "-t", top, "-o", env.path("out.ass"), "--sync-tb", "7,1"}, env.configPath)
	if !errors.Is(err, subtitles.ErrIndexOutOfRange) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected index out of range, got %v", err)
	}
	requireContains(t, stderr, "stage failed")
}

func TestMergeCommandEncodingPrecedence(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithOutputEncoding("utf-16le"))
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(1, 1, "b"))

	t.Setenv(config.OutputEncodingEnv, "utf-16be")
	out, _, err := runCLI(t, []string{"merge", "-b", bottom, "-o", env.path("env.ass")}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "utf-16be")

	out, _, err = runCLI(t, []string{"merge", "-b", bottom, "-o", env.path("flag.ass"), "--output-enc", "utf-8"}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "(1 subtitles, utf-8)")
}

func TestMergeCommandLineEndingFromConfig(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithLineEnding(config.LineEndingLF))
	bottom := testsupport.WriteSRT(t, env.path("bottom.srt"), testsupport.Track(1, 1, "b"))
	output := env.path("out.ass")

	if _, _, err := runCLI(t, []string{"merge", "-b", bottom, "-o", output}, env.configPath); err != nil {
		t.Fatalf("merge: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\r\n") {
		t.Fatal("expected LF line endings")
	}
}
