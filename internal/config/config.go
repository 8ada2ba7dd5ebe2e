package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the optional file inside a frames directory that pins
// playback order.
const ManifestName = "frames.toml"

type FramesManifest struct {
	Name  string   `toml:"name"`
	Order []string `toml:"order"`
}

// LoadFramesManifest reads dir/frames.toml. A missing manifest is not an
// error: ok is false and callers fall back to directory order.
func LoadFramesManifest(dir string) (FramesManifest, bool, error) {
	path := filepath.Join(dir, ManifestName)
	var m FramesManifest
	if err := loadToml(path, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FramesManifest{}, false, nil
		}
		return FramesManifest{}, false, err
	}
	if err := ValidateFramesManifest(m); err != nil {
		return FramesManifest{}, false, fmt.Errorf("manifest invalid (%s): %w", path, err)
	}
	return m, true, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateFramesManifest(m FramesManifest) error {
	seen := make(map[string]struct{}, len(m.Order))
	for i, raw := range m.Order {
		name := strings.TrimSpace(raw)
		if name == "" {
			return fmt.Errorf("order[%d] is empty", i)
		}
		if name == ManifestName {
			return fmt.Errorf("order[%d] names the manifest itself", i)
		}
		if filepath.Base(name) != name {
			return fmt.Errorf("order[%d] %q must be a file name, not a path", i, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("order[%d] %q listed twice", i, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
