package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("instruments", "", "")
	flags.BoolP("verbose", "v", false, "")
	addBuildFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", newTestFlags(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultPackRoot, cfg.PackRoot)
	assert.Equal(t, DefaultFunctionPath, cfg.FunctionPath)
	assert.Empty(t, cfg.MIDIPath)
	assert.Empty(t, cfg.Name)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", newTestFlags(t, "-i", "song.mid", "-n", "song", "--output-dir", "packs", "-v"))
	require.NoError(t, err)

	assert.Equal(t, "song.mid", cfg.MIDIPath)
	assert.Equal(t, "song", cfg.Name)
	assert.Equal(t, "packs", cfg.OutputDir)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, filepath.Join("packs", "song.mcpack"), cfg.OutputPath())
	assert.Equal(t, "Template/manifest.json", cfg.ManifestPath())
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "noteblock.yaml"), []byte(`
midi: from_file.mid
name: file_name
output_dir: file_output
pack_root: FilePack
`), 0o644))

	t.Setenv("NOTEBLOCK_OUTPUT_DIR", "env_output")
	t.Setenv("NOTEBLOCK_NAME", "env_name")

	cfg, err := LoadConfig("", newTestFlags(t, "--name", "flag_name"))
	require.NoError(t, err)

	assert.Equal(t, "noteblock.yaml", cfg.ConfigFile)
	assert.Equal(t, "from_file.mid", cfg.MIDIPath)
	assert.Equal(t, "FilePack", cfg.PackRoot)
	assert.Equal(t, "env_output", cfg.OutputDir)
	assert.Equal(t, "flag_name", cfg.Name)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: custom\nverbose: true\n"), 0o644))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "custom", cfg.Name)
	assert.True(t, cfg.Verbose)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			MIDIPath:     "song.mid",
			Name:         "song",
			OutputDir:    DefaultOutputDir,
			PackRoot:     DefaultPackRoot,
			FunctionPath: DefaultFunctionPath,
		}
	}

	tests := []struct {
		name      string
		modify    func(*Config)
		wantErr   error
		errSubstr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing midi", modify: func(c *Config) { c.MIDIPath = "" }, wantErr: ErrMissingMIDI},
		{name: "missing name", modify: func(c *Config) { c.Name = "" }, wantErr: ErrMissingName},
		{name: "name with slash", modify: func(c *Config) { c.Name = "a/b" }, wantErr: ErrInvalidName},
		{name: "name with backslash", modify: func(c *Config) { c.Name = `a\b` }, wantErr: ErrInvalidName},
		{name: "dot dot name", modify: func(c *Config) { c.Name = ".." }, wantErr: ErrInvalidName},
		{name: "empty pack root", modify: func(c *Config) { c.PackRoot = "" }, errSubstr: "pack root"},
		{name: "broken function path", modify: func(c *Config) { c.FunctionPath = "{{ .Index" }, errSubstr: "invalid function path template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errSubstr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestFunctionNamer(t *testing.T) {
	namer, err := newFunctionNamer(DefaultFunctionPath)
	require.NoError(t, err)

	path, err := namer.Path("Template", "song", 3)
	require.NoError(t, err)
	assert.Equal(t, "Template/functions/NBO_song/3.mcfunction", path)

	// sprig functions are available to custom layouts
	namer, err = newFunctionNamer(`{{ .Root }}/functions/{{ .Name | lower }}/part_{{ printf "%03d" .Index }}.mcfunction`)
	require.NoError(t, err)

	path, err = namer.Path("BP", "MySong", 12)
	require.NoError(t, err)
	assert.Equal(t, "BP/functions/mysong/part_012.mcfunction", path)

	namer, err = newFunctionNamer("  ")
	require.NoError(t, err)
	_, err = namer.Path("BP", "song", 1)
	assert.Error(t, err)
}
