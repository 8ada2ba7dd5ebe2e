package frames

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/ducklive/internal/testutil/testlog"
)

func writeFrames(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLoadPadsEveryFrameToMaxHeight(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writeFrames(t, dir, map[string]string{
		"01.txt": "ab\ncd\nef",
		"02.txt": "xy",
		"03.txt": "12\n34",
	})

	set, err := Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Len() != 3 || set.Height != 3 {
		t.Fatalf("unexpected set shape: len=%d height=%d", set.Len(), set.Height)
	}
	for i := 0; i < set.Len(); i++ {
		for _, frame := range [][]byte{set.Original[i], set.Flipped[i]} {
			if got := len(strings.Split(string(frame), "\n")); got != set.Height {
				t.Fatalf("frame %d (%q) has %d lines, want %d", i, frame, got, set.Height)
			}
		}
	}
	if got := string(set.Original[1]); got != "xy\n  \n  " {
		t.Fatalf("unexpected padded frame: %q", got)
	}
	if got := string(set.Flipped[1]); got != "yx\n  \n  " {
		t.Fatalf("unexpected padded flipped frame: %q", got)
	}
}

func TestLoadFlippedIsFullStringReverse(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	sources := map[string]string{
		"a.txt": "/\\_\n|o>\n---",
		"b.txt": "<o|\n_/\\",
	}
	writeFrames(t, dir, sources)

	set, err := Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := string(set.Flipped[0]), Reverse(string(set.Original[0])); got != want {
		t.Fatalf("full height frame: flipped=%q want %q", got, want)
	}
	if got := string(set.Flipped[0]); got != "---\n>o|\n_\\/" {
		t.Fatalf("unexpected flipped text: %q", got)
	}
	// shorter frames are reversed before padding
	if !strings.HasPrefix(string(set.Flipped[1]), Reverse(sources["b.txt"])) {
		t.Fatalf("flipped frame %q does not start with reversed source", set.Flipped[1])
	}
}

func TestLoadPadWidthComesFromFirstLine(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writeFrames(t, dir, map[string]string{
		"a.txt": "abc\ndef\nghi\n",
		"b.txt": "ab\n",
	})

	set, err := Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Height != 4 {
		t.Fatalf("expected trailing newline to count as a line, height=%d", set.Height)
	}
	if got := string(set.Original[1]); got != "ab\n\n  \n  " {
		t.Fatalf("unexpected original padding: %q", got)
	}
	// the reversed frame starts with the empty trailing line
	if got := string(set.Flipped[1]); got != "\nba\n\n" {
		t.Fatalf("unexpected flipped padding: %q", got)
	}
}

func TestLoadNormalizesLineEndingsAndCombiningMarks(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writeFrames(t, dir, map[string]string{
		"a.txt": "e\u0301x\r\nyz",
	})

	set, err := Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := string(set.Original[0]); got != "\u00e9x\nyz" {
		t.Fatalf("unexpected normalized frame: %q", got)
	}
	if got := string(set.Flipped[0]); got != "zy\nx\u00e9" {
		t.Fatalf("unexpected flipped frame: %q", got)
	}
}

func TestLoadOrderIsDeterministic(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writeFrames(t, dir, map[string]string{
		"c.txt": "c",
		"a.txt": "a",
		"b.txt": "b",
	})
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	set, err := Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strings.Join(set.Names, ",") != "a.txt,b.txt,c.txt" {
		t.Fatalf("unexpected order: %v", set.Names)
	}

	writeFrames(t, dir, map[string]string{
		"frames.toml": `order = ["c.txt", "a.txt"]`,
	})
	set, err = Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load with manifest: %v", err)
	}
	if strings.Join(set.Names, ",") != "c.txt,a.txt" {
		t.Fatalf("unexpected manifest order: %v", set.Names)
	}
	if string(set.Original[0]) != "c" {
		t.Fatalf("unexpected first frame: %q", set.Original[0])
	}
}

func TestLoadManifestNamingMissingFileFails(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writeFrames(t, dir, map[string]string{
		"a.txt":       "a",
		"frames.toml": `order = ["a.txt", "ghost.txt"]`,
	})
	if _, err := Load(context.Background(), dir); err == nil {
		t.Fatalf("expected missing manifest entry error")
	}
}

func TestLoadEmptyDirectoryYieldsEmptySet(t *testing.T) {
	testlog.Start(t)
	set, err := Load(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("expected empty dir to load, got %v", err)
	}
	if set.Len() != 0 || set.Height != 0 || len(set.Select(true)) != 0 {
		t.Fatalf("expected empty set, got %+v", set)
	}
}

func TestLoadErrors(t *testing.T) {
	testlog.Start(t)
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected missing dir error")
	}

	dir := t.TempDir()
	writeFrames(t, dir, map[string]string{"a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, dir); err == nil {
		t.Fatalf("expected canceled load to fail")
	}
}

func TestPadLeavesTallFramesAlone(t *testing.T) {
	if got := Pad("a\nb\nc", 2); got != "a\nb\nc" {
		t.Fatalf("unexpected pad result: %q", got)
	}
	if got := Pad("日本", 2); got != "日本\n  " {
		t.Fatalf("expected rune width padding, got %q", got)
	}
}
