package main

import (
	"path/filepath"

	"github.com/danmuck/ducklive/internal/config"
	"github.com/danmuck/ducklive/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	observability.InitLogger("configgen")
	kind := pflag.String("kind", "service", "config kind: service|manifest")
	output := pflag.String("output", "", "output path for config template")
	validate := pflag.Bool("validate", false, "validate the manifest of an existing frames directory")
	framesDir := pflag.String("frames", "frames", "frames directory for manifest output and validation")
	force := pflag.Bool("force", false, "overwrite existing config file")
	pflag.Parse()

	if *validate {
		m, ok, err := config.LoadFramesManifest(*framesDir)
		if err != nil {
			log.Fatal().Err(err).Msg("manifest validation failed")
		}
		if !ok {
			log.Info().Str("dir", *framesDir).Msg("no manifest; frames play in file name order")
			return
		}
		log.Info().Str("dir", *framesDir).Str("name", m.Name).Int("frames", len(m.Order)).Msg("validated manifest")
		return
	}

	target := *output
	if target == "" {
		switch *kind {
		case "service":
			target = "cmd/duckctl/config.toml"
		case "manifest":
			target = filepath.Join(*framesDir, config.ManifestName)
		default:
			log.Fatal().Str("kind", *kind).Msg("unknown kind")
		}
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}
