package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every regiondump setting. Flags override file values.
type Config struct {
	Output      string `yaml:"output"`
	Stdout      bool   `yaml:"stdout"`
	Compact     bool   `yaml:"compact"`
	Quiet       bool   `yaml:"quiet"`
	SummaryOnly bool   `yaml:"summary_only"`
	NoBlocks    bool   `yaml:"no_blocks"`
	Workers     int    `yaml:"workers"`
}

func defaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

func loadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set flag values over the file-loaded config.
func (c *Config) applyFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "output":
			c.Output, _ = flags.GetString("output")
		case "stdout":
			c.Stdout, _ = flags.GetBool("stdout")
		case "compact":
			c.Compact, _ = flags.GetBool("compact")
		case "quiet":
			c.Quiet, _ = flags.GetBool("quiet")
		case "summary-only":
			c.SummaryOnly, _ = flags.GetBool("summary-only")
		case "no-blocks":
			c.NoBlocks, _ = flags.GetBool("no-blocks")
		case "workers":
			c.Workers, _ = flags.GetInt("workers")
		}
	})
	if c.Workers < 1 {
		c.Workers = 1
	}
}
