package main

import (
	"fmt"
	"os"

	"github.com/danmuck/ducklive/internal/observability"
	"github.com/danmuck/ducklive/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	observability.InitLogger("duckctl")

	flags := pflag.NewFlagSet("duckctl", pflag.ExitOnError)
	opts := registerFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := resolveConfig(flags, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "duckctl: %v\n", err)
		os.Exit(1)
	}
	log.Info().
		Str("frames_dir", cfg.FramesDir).
		Str("addr", cfg.ListenAddr).
		Int("start_port", cfg.StartPort).
		Dur("interval", cfg.FrameInterval).
		Msg("loaded config")

	svc := service.NewServiceWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "duckctl: %v\n", err)
		os.Exit(1)
	}
}
