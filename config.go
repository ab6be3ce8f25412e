package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	DefaultOutputDir    = "output"
	DefaultPackRoot     = "Template"
	DefaultFunctionPath = "{{ .Root }}/functions/NBO_{{ .Name }}/{{ .Index }}.mcfunction"

	envPrefix = "NOTEBLOCK_"
)

var (
	ErrMissingMIDI  = errors.New("an input MIDI file is required (--midi)")
	ErrMissingName  = errors.New("a pack name is required (--name)")
	ErrInvalidName  = errors.New("pack name must not contain path separators")
	configFileNames = []string{"noteblock.yaml", "noteblock.yml"}
)

// Config holds the settings for a build
type Config struct {
	MIDIPath        string `koanf:"midi"`
	Name            string `koanf:"name"`
	TemplatePath    string `koanf:"template"`
	InstrumentsPath string `koanf:"instruments"`
	OutputDir       string `koanf:"output_dir"`
	PackRoot        string `koanf:"pack_root"`
	FunctionPath    string `koanf:"function_path"`
	Verbose         bool   `koanf:"verbose"`

	// ConfigFile is the config file that was loaded, if any
	ConfigFile string `koanf:"-"`
}

// findConfigFile finds the config file to use.
// Priority: explicit path > noteblock.yaml > noteblock.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadConfig loads configuration from defaults, a config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"output_dir":    DefaultOutputDir,
		"pack_root":     DefaultPackRoot,
		"function_path": DefaultFunctionPath,
		"verbose":       false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed := findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment: NOTEBLOCK_OUTPUT_DIR -> output_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = configFileUsed

	return &cfg, nil
}

// Validate checks the settings needed to build a pack
func (c *Config) Validate() error {
	if c.MIDIPath == "" {
		return ErrMissingMIDI
	}
	if c.Name == "" {
		return ErrMissingName
	}
	if strings.ContainsAny(c.Name, `/\`) || c.Name == "." || c.Name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if c.PackRoot == "" {
		return fmt.Errorf("pack root must not be empty")
	}
	if _, err := newFunctionNamer(c.FunctionPath); err != nil {
		return err
	}
	return nil
}

// OutputPath is where the finished pack is written
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.Name+".mcpack")
}

// ManifestPath is the manifest entry inside the pack
func (c *Config) ManifestPath() string {
	return c.PackRoot + "/manifest.json"
}
