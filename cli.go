package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time
var Version = "0.1.0"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates the noteblock command tree. Running the root command
// without a subcommand builds a pack, the same as "noteblock build".
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "noteblock",
		Short: "Convert MIDI files into note block behavior packs",
		Long: `noteblock turns a MIDI file into a Bedrock behavior pack of functions that
play every note with playsound, timed by the "music" scoreboard objective.

Each player's music score is the current tick (20 per second). Every command
fires for players whose score equals its tick, and a final command resets the
score once the song is over.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.ConfigFile != "" {
				logger.Debug("using config file", "path", cfg.ConfigFile)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		Args:          cobra.NoArgs,
		RunE:          runBuild,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./noteblock.yaml)")
	rootCmd.PersistentFlags().String("instruments", "", "instrument table YAML (default: built-in table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	addBuildFlags(rootCmd.Flags())

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func addBuildFlags(flags *pflag.FlagSet) {
	flags.StringP("midi", "i", "", "Input MIDI file (.mid, or .sng song package)")
	flags.StringP("name", "n", "", "Pack name, also used for the output file and function folder")
	flags.String("template", "", "Template .mcpack (default: built-in template)")
	flags.StringP("output-dir", "o", "", "Directory to write <name>.mcpack into")
	flags.String("pack-root", "", "Top-level pack folder inside the archive")
	flags.String("function-path", "", "Template for function file paths")
}

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a behavior pack from a MIDI file",
		Example: `  noteblock build -i song.mid -n song
  noteblock build --midi song.mid --name song --output-dir packs`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
	addBuildFlags(cmd.Flags())
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd.Context())

	summary, err := BuildPack(cfg, getLogger(cmd.Context()))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	return nil
}

func newInspectCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the tracks of a MIDI file and how they map to sounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())

			instruments, err := LoadInstrumentMap(cfg.InstrumentsPath)
			if err != nil {
				return err
			}

			perf, err := LoadPerformance(args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return printPerformanceJSON(cmd.OutOrStdout(), perf)
			}

			printPerformance(cmd.OutOrStdout(), args[0], perf, instruments)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the decoded performance as JSON")
	return cmd
}

func printPerformanceJSON(w io.Writer, perf *Performance) error {
	jsonData, err := json.MarshalIndent(perf, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func printPerformance(w io.Writer, filename string, perf *Performance, instruments *InstrumentMap) {
	_, _ = fmt.Fprintf(w, "MIDI File: %s\n", filename)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "Channel", "Program", "Instrument", "Sound", "Notes"})

	for i, track := range perf.Tracks {
		sound, ok := instruments.Lookup(track.Program)
		if !ok {
			sound = "-"
		}

		channel := "-"
		if track.Channel >= 0 {
			channel = fmt.Sprint(track.Channel)
		}

		t.AppendRow(table.Row{i, track.Name, channel, track.Program, gmProgramName(track.Program), sound, len(track.Notes)})
	}

	t.Render()

	_, _ = fmt.Fprintf(w, "Duration: %.2f seconds (%d ticks)\n", perf.Duration, secondsToTick(perf.Duration))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "noteblock v%s\n", Version)
		},
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// getConfig retrieves the config from the command context
func getConfig(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return &Config{
		OutputDir:    DefaultOutputDir,
		PackRoot:     DefaultPackRoot,
		FunctionPath: DefaultFunctionPath,
	}
}

// getLogger retrieves the logger from the command context
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
