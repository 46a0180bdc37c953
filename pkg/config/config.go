// Package config loads server configuration from defaults, an optional
// graphlens.toml, GRAPHLENS_* environment variables and command-line
// flags, in increasing priority.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Physics mirrors the simulation parameters. Zero values fall back to
// the engine defaults.
type Physics struct {
	Repulsion  float64 `koanf:"repulsion"`
	Attraction float64 `koanf:"attraction"`
	Damping    float64 `koanf:"damping"`
	CenterPull float64 `koanf:"centerpull"`
	MaxSpeed   float64 `koanf:"maxspeed"`
	SleepBelow float64 `koanf:"sleep"`
	Cutoff     float64 `koanf:"cutoff"`
	MinSpring  float64 `koanf:"minspring"`
}

// View holds camera bounds and screen geometry.
type View struct {
	MinZoom float64 `koanf:"minzoom"`
	MaxZoom float64 `koanf:"maxzoom"`
	Width   float64 `koanf:"width"`
	Height  float64 `koanf:"height"`
}

// Config is the full server configuration. Key names are single words so
// every key is reachable through GRAPHLENS_* environment variables.
type Config struct {
	Dataset   string   `koanf:"dataset"`
	Positions string   `koanf:"positions"`
	Web       bool     `koanf:"web"`
	Port      int      `koanf:"port"`
	Watch     bool     `koanf:"watch"`
	TickMS    int      `koanf:"tick"`
	HubKinds  []string `koanf:"hubs"`
	TreeKind  string   `koanf:"treekind"`
	Layout    string   `koanf:"layout"`
	JSONLogs  bool     `koanf:"json"`
	Verbose   int      `koanf:"verbose"`
	Physics   Physics  `koanf:"physics"`
	View      View     `koanf:"view"`
}

// Load merges configuration sources. Priority: flags > env > file >
// defaults. f may be nil in tests.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"dataset":   "graph.json",
		"positions": "positions.json",
		"web":       false,
		"port":      8080,
		"watch":     false,
		"tick":      30,
		"hubs":      []string{},
		"treekind":  "parent",
		"layout":    "spring",
		"json":      false,
		"verbose":   0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// The config file is optional.
	_ = k.Load(file.Provider("graphlens.toml"), toml.Parser())

	// GRAPHLENS_PORT=9090, GRAPHLENS_PHYSICS_DAMPING=0.9, ...
	if err := k.Load(env.Provider("GRAPHLENS_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "GRAPHLENS_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.TickMS < 1 {
		return fmt.Errorf("tick interval must be positive, got %d", c.TickMS)
	}
	if c.Dataset == "" {
		return fmt.Errorf("dataset path is empty")
	}
	return nil
}

type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
