package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ducklive/internal/service"
	"github.com/spf13/pflag"
)

// duckctl config.toml key mapping to service settings.
type fileConfig struct {
	ID                string   `toml:"id"`
	Addr              string   `toml:"addr"`
	Host              string   `toml:"host"`
	StartPort         int      `toml:"start_port"`
	PortAttempts      int      `toml:"port_attempts"`
	FramesDir         string   `toml:"frames_dir"`
	FrameIntervalMS   int64    `toml:"frame_interval_ms"`
	ReadyTimeoutMS    int64    `toml:"ready_timeout_ms"`
	ShutdownTimeoutMS int64    `toml:"shutdown_timeout_ms"`
	RedirectURL       string   `toml:"redirect_url"`
	CorsOrigins       []string `toml:"cors_origins"`
}

type flagOptions struct {
	configPath *string
	addr       *string
	framesDir  *string
	port       *int
}

func registerFlags(fs *pflag.FlagSet) flagOptions {
	return flagOptions{
		configPath: fs.StringP("config", "c", "", "path to a TOML config file"),
		addr:       fs.String("addr", "", "fixed listen address, disables port probing"),
		framesDir:  fs.StringP("frames", "f", "", "directory holding frame files"),
		port:       fs.IntP("port", "p", 0, "first port to probe"),
	}
}

// Defaults, then the config file, then explicitly set flags.
func resolveConfig(fs *pflag.FlagSet, opts flagOptions) (service.ServiceConfig, error) {
	cfg := service.DefaultServiceConfig()
	if path := strings.TrimSpace(*opts.configPath); path != "" {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			return service.ServiceConfig{}, err
		}
		cfg = loaded
	}
	if fs.Changed("addr") {
		cfg.ListenAddr = strings.TrimSpace(*opts.addr)
	}
	if fs.Changed("frames") {
		cfg.FramesDir = strings.TrimSpace(*opts.framesDir)
	}
	if fs.Changed("port") {
		cfg.StartPort = *opts.port
	}
	if err := cfg.Validate(); err != nil {
		return service.ServiceConfig{}, err
	}
	return cfg, nil
}

// duckctl loader for TOML config with default overlay.
func loadServiceConfig(path string) (service.ServiceConfig, error) {
	cfg := service.DefaultServiceConfig()

	if _, err := os.Stat(path); err != nil {
		return service.ServiceConfig{}, fmt.Errorf("load duckctl config: %w", err)
	}
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return service.ServiceConfig{}, fmt.Errorf("load duckctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return service.ServiceConfig{}, fmt.Errorf("load duckctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("id") {
		cfg.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("host") {
		cfg.ListenHost = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("start_port") {
		cfg.StartPort = raw.StartPort
	}
	if meta.IsDefined("port_attempts") {
		cfg.PortAttempts = raw.PortAttempts
	}
	if meta.IsDefined("frames_dir") {
		cfg.FramesDir = strings.TrimSpace(raw.FramesDir)
	}
	if meta.IsDefined("frame_interval_ms") {
		cfg.FrameInterval = time.Duration(raw.FrameIntervalMS) * time.Millisecond
	}
	if meta.IsDefined("ready_timeout_ms") {
		cfg.ReadyTimeout = time.Duration(raw.ReadyTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("shutdown_timeout_ms") {
		cfg.ShutdownTimeout = time.Duration(raw.ShutdownTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("redirect_url") {
		cfg.RedirectURL = strings.TrimSpace(raw.RedirectURL)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}

	if err := cfg.Validate(); err != nil {
		return service.ServiceConfig{}, fmt.Errorf("load duckctl config: %w", err)
	}
	return cfg, nil
}
