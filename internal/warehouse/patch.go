package warehouse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SetProfileThreads rewrites the thread count of every output of the named
// profile in place. The backfill runner bumps it before a historical replay.
func SetProfileThreads(path, profile string, threads int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}

	prof, ok := doc[profile].(map[string]any)
	if !ok {
		return fmt.Errorf("profile %q not found in %s", profile, path)
	}
	outputs, ok := prof["outputs"].(map[string]any)
	if !ok {
		return fmt.Errorf("profile %q has no outputs", profile)
	}
	for name, out := range outputs {
		target, ok := out.(map[string]any)
		if !ok {
			return fmt.Errorf("output %q of profile %q is malformed", name, profile)
		}
		target["threads"] = threads
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to render profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
