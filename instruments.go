package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed instruments.yaml
var defaultInstrumentTable []byte

// InstrumentMap resolves a General MIDI program number to the note block
// sound that plays it. It is built once and never modified afterwards.
type InstrumentMap struct {
	sounds map[int]string
}

// LoadInstrumentMap reads an instrument table from path, or the embedded
// default table when path is empty.
func LoadInstrumentMap(path string) (*InstrumentMap, error) {
	if path == "" {
		return ParseInstrumentMap(defaultInstrumentTable)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument table: %w", err)
	}

	m, err := ParseInstrumentMap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseInstrumentMap inverts a sound -> programs table into program -> sound.
// Entries are applied in document order, so when a program is listed twice
// the later sound wins.
func ParseInstrumentMap(data []byte) (*InstrumentMap, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid instrument table: %w", err)
	}

	m := &InstrumentMap{sounds: make(map[int]string)}

	// an empty document decodes to a zero node
	if len(doc.Content) == 0 {
		return m, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("instrument table must be a mapping of sound to programs (line %d)", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		var programs []int
		if err := value.Decode(&programs); err != nil {
			return nil, fmt.Errorf("programs for %q must be a list of integers (line %d)", key.Value, value.Line)
		}

		for _, program := range programs {
			m.sounds[program] = key.Value
		}
	}

	return m, nil
}

// Lookup returns the sound for a program. Unmapped programs are not an error.
func (m *InstrumentMap) Lookup(program int) (string, bool) {
	sound, ok := m.sounds[program]
	return sound, ok
}

// Len returns the number of mapped programs.
func (m *InstrumentMap) Len() int {
	return len(m.sounds)
}
