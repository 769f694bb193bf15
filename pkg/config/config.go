package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/lib"
	"github.com/yomuapp/yomu/pkg/lib/log"
	"github.com/yomuapp/yomu/pkg/library"
	"github.com/yomuapp/yomu/pkg/search"
)

type Config struct {
	Log     log.Config     `env:""`
	Catalog catalog.Config `env:""`
	Search  search.Config  `env:""`
	Library library.Config `env:""`
	Sources SourcesConfig  `env:""`
}

type SourcesConfig struct {
	// DefinitionsPath points at the YAML file listing installed
	// JSON-API source deployments.
	DefinitionsPath string `env:"SOURCES_FILE,default=sources.yaml" validate:"required"`
}

func Load() (*Config, error) {
	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
