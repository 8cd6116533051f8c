// Package config holds the spiritgen CLI settings and the named run
// presets.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/spiritgen/internal/inputcfg"
)

const (
	DefaultDataDir   = ".spiritgen"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type Config struct {
	DataDir   string `yaml:"data_dir"`
	Template  string `yaml:"template"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// CutoffRadius applies to jobs that leave their own cutoff at zero.
	CutoffRadius float64 `yaml:"cutoff_radius"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:   DefaultDataDir,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// TemplateLines returns the configured template, or the embedded one
// when none is set.
func (c *Config) TemplateLines() ([]string, error) {
	if c.Template == "" {
		return inputcfg.DefaultTemplate(), nil
	}
	return inputcfg.LoadTemplate(c.Template)
}
