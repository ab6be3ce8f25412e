package main

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
)

// functionNamer renders the archive path of each function file
type functionNamer struct {
	tmpl *template.Template
}

type functionPathData struct {
	Root  string
	Name  string
	Index int // 1-based
}

func newFunctionNamer(pattern string) (*functionNamer, error) {
	tmpl, err := template.New("function_path").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid function path template: %w", err)
	}
	return &functionNamer{tmpl: tmpl}, nil
}

func (n *functionNamer) Path(root, name string, index int) (string, error) {
	var b strings.Builder
	if err := n.tmpl.Execute(&b, functionPathData{Root: root, Name: name, Index: index}); err != nil {
		return "", fmt.Errorf("failed to render function path: %w", err)
	}

	path := strings.TrimSpace(b.String())
	if path == "" {
		return "", fmt.Errorf("function path template rendered an empty path for file %d", index)
	}
	return path, nil
}

// BuildPack converts the configured MIDI file into a behavior pack and writes
// it to the output directory. Nothing is written unless every step succeeds.
func BuildPack(cfg *Config, logger *slog.Logger) (*RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	namer, err := newFunctionNamer(cfg.FunctionPath)
	if err != nil {
		return nil, err
	}

	instruments, err := LoadInstrumentMap(cfg.InstrumentsPath)
	if err != nil {
		return nil, err
	}

	perf, err := LoadPerformance(cfg.MIDIPath)
	if err != nil {
		return nil, err
	}

	logger.Info("decoded performance",
		"file", cfg.MIDIPath,
		"tracks", len(perf.Tracks),
		"notes", perf.NoteCount(),
		"duration", perf.Duration)

	result := NewTranspiler(instruments, logger).Transpile(perf)

	pack, err := OpenTemplate(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded pack template", "template", templateSource(cfg.TemplatePath), "files", len(pack.ListFiles()))

	if err := writeFunctions(pack, namer, cfg, result.Groups, logger); err != nil {
		return nil, err
	}

	manifestText, err := pack.ReadAsText(cfg.ManifestPath())
	if err != nil {
		return nil, err
	}

	manifest, err := PatchManifest([]byte(manifestText), cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ManifestPath(), err)
	}

	if err := pack.UpdateFile(cfg.ManifestPath(), manifest); err != nil {
		return nil, err
	}

	outputPath := cfg.OutputPath()
	if err := pack.WriteZip(outputPath); err != nil {
		return nil, err
	}

	logger.Info("wrote pack", "path", outputPath)

	return &result.Summary, nil
}

func writeFunctions(pack *Pack, namer *functionNamer, cfg *Config, groups []FunctionGroup, logger *slog.Logger) error {
	seen := make(map[string]bool, len(groups))

	for i, group := range groups {
		path, err := namer.Path(cfg.PackRoot, cfg.Name, i+1)
		if err != nil {
			return err
		}
		if seen[path] {
			return fmt.Errorf("function path template produced %s twice; include {{ .Index }}", path)
		}
		seen[path] = true

		pack.AddFile(path, []byte(strings.Join(group, "\n")))
		logger.Debug("added function", "path", path, "commands", len(group))
	}
	return nil
}

func templateSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
