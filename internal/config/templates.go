package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "service":
		return serviceTemplate, nil
	case "manifest":
		return manifestTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serviceTemplate = `id = "ducklive"
# addr pins the listener; leave empty to probe from start_port upward.
addr = ""
host = ""
start_port = 3000
port_attempts = 100
frames_dir = "frames"
frame_interval_ms = 100
ready_timeout_ms = 2000
shutdown_timeout_ms = 5000
redirect_url = "https://github.com/PatoFlamejanteTV/duck.live"
cors_origins = ["*"]
`

const manifestTemplate = `name = "duck"
# order lists frame files in playback order; omit to play in file name order.
order = []
`
