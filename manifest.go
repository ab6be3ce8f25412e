package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PatchManifest renames a pack and gives its header and every module a new
// random UUID, so the generated pack never collides with the template or
// with other packs built from it. Unknown fields are preserved.
func PatchManifest(data []byte, name string) ([]byte, error) {
	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	header, ok := manifest["header"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid manifest: missing header")
	}

	header["name"] = name
	header["uuid"] = uuid.NewString()

	if raw, exists := manifest["modules"]; exists {
		modules, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("invalid manifest: modules must be a list")
		}

		for i, m := range modules {
			module, ok := m.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid manifest: module %d is not an object", i)
			}
			module["uuid"] = uuid.NewString()
		}
	}

	return json.Marshal(manifest)
}
