package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is m1ctl's on-disk configuration, loaded with --config and
// overridable per-invocation by flags of the same name.
type config struct {
	Port string `yaml:"port"`
	Baud uint32 `yaml:"baud"`
}

// defaultBaud mirrors internal/uart.DefaultBaud: m1ctl does not import
// the target-side uart package directly, since that would pull in
// internal/asm's arm64-only assembly into a host binary that may be
// built for an entirely different GOARCH.
const defaultBaud = 1_500_000

func defaultConfig() config {
	return config{Port: "/dev/ttyUSB0", Baud: defaultBaud}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
