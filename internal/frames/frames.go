package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/ducklive/internal/config"
	"golang.org/x/text/unicode/norm"
)

// Set is the immutable pair of pre-encoded playback sequences built at
// startup. Original[i] and Flipped[i] come from the same source file.
type Set struct {
	Original [][]byte
	Flipped  [][]byte
	Height   int
	Names    []string
}

// Len returns the number of frames per variant.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Original)
}

// Select returns the flipped or original sequence.
func (s *Set) Select(flip bool) [][]byte {
	if s == nil {
		return nil
	}
	if flip {
		return s.Flipped
	}
	return s.Original
}

// Size is the total encoded byte count of both variants.
func (s *Set) Size() uint64 {
	if s == nil {
		return 0
	}
	var n uint64
	for i := range s.Original {
		n += uint64(len(s.Original[i]) + len(s.Flipped[i]))
	}
	return n
}

// Load reads every frame file in dir and builds the padded original and
// mirrored sequences. An empty directory yields an empty Set.
func Load(ctx context.Context, dir string) (*Set, error) {
	names, err := frameNames(dir)
	if err != nil {
		return nil, err
	}

	original := make([]string, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("frames: read %s: %w", name, err)
		}
		original = append(original, normalize(string(raw)))
	}

	flipped := make([]string, len(original))
	height := 0
	for i, frame := range original {
		flipped[i] = Reverse(frame)
		height = max(height, lineCount(frame))
	}

	set := &Set{
		Original: make([][]byte, len(original)),
		Flipped:  make([][]byte, len(flipped)),
		Height:   height,
		Names:    names,
	}
	for i := range original {
		set.Original[i] = []byte(Pad(original[i], height))
		set.Flipped[i] = []byte(Pad(flipped[i], height))
	}
	return set, nil
}

// frameNames lists regular files in name order, or in manifest order when
// dir carries a frames.toml with a non-empty order.
func frameNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("frames: list %s: %w", dir, err)
	}
	manifest, ok, err := config.LoadFramesManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}

	files := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == config.ManifestName {
			continue
		}
		files[entry.Name()] = struct{}{}
		names = append(names, entry.Name())
	}
	if !ok || len(manifest.Order) == 0 {
		return names, nil
	}

	ordered := make([]string, 0, len(manifest.Order))
	for _, raw := range manifest.Order {
		name := strings.TrimSpace(raw)
		if _, exists := files[name]; !exists {
			return nil, fmt.Errorf("frames: manifest lists %q but %s has no such file", name, dir)
		}
		ordered = append(ordered, name)
	}
	return ordered, nil
}

// normalize folds CRLF line endings and composes combining sequences so
// that reversal keeps accents on their base characters.
func normalize(frame string) string {
	frame = strings.ReplaceAll(frame, "\r\n", "\n")
	return norm.NFC.String(frame)
}

// Reverse returns frame with its full rune sequence reversed. Lines are not
// reversed independently: line order flips along with the characters.
func Reverse(frame string) string {
	runes := []rune(frame)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Pad appends blank lines until frame has height lines. Blank lines are as
// wide as the frame's first line, which assumes rectangular frames.
func Pad(frame string, height int) string {
	lines := strings.Split(frame, "\n")
	if len(lines) >= height {
		return frame
	}
	blank := strings.Repeat(" ", len([]rune(lines[0])))
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines, "\n")
}

func lineCount(frame string) int {
	return strings.Count(frame, "\n") + 1
}
