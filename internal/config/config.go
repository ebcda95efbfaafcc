// Package config holds the explicit runtime configuration for the pricer.
// There is no process-wide mutable default state: callers load a Config once
// and pass it down.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Defaults are the pricing inputs substituted when a web form or JSON caller
// omits a field.
type Defaults struct {
	Spot       float64 `yaml:"spot"`
	Rate       float64 `yaml:"rate"`
	Volatility float64 `yaml:"volatility"`
	Maturity   float64 `yaml:"maturity"`
	Dividend   float64 `yaml:"dividend"`
	Paths      int     `yaml:"paths"`
	Payoff     string  `yaml:"payoff"`
}

// Config is the full application configuration.
type Config struct {
	ListenAddr string   `yaml:"listen_addr"` // web server listen address
	Verbosity  int      `yaml:"verbosity"`   // 0=errors 1=info 2=debug 3=trace
	Defaults   Defaults `yaml:"defaults"`
}

// Default returns the built-in configuration used when no config file is
// supplied.
func Default() Config {
	return Config{
		ListenAddr: ":8000",
		Verbosity:  1,
		Defaults: Defaults{
			Spot:       100.0,
			Rate:       0.05,
			Volatility: 0.2,
			Maturity:   1.0,
			Dividend:   0.0,
			Paths:      20000,
			Payoff:     "max(s - 100, 0)",
		},
	}
}

// Load reads a YAML config file. Keys absent from the file keep their
// built-in defaults. An empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
