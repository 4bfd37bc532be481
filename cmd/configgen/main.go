package main

import (
	"flag"

	"github.com/danmuck/pmsense/internal/config"
	"github.com/danmuck/pmsense/internal/observability"
)

func main() {
	output := flag.String("output", "cmd/pmsensectl/config.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to -output)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	logger := observability.InitLogger("configgen")

	if *validate {
		path := *input
		if path == "" {
			path = *output
		}
		if _, err := config.Load(path); err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("invalid config")
		}
		logger.Info().Str("path", path).Msg("validated config")
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		logger.Fatal().Err(err).Msg("write config template")
	}
	logger.Info().Str("path", *output).Msg("wrote config template")
}
