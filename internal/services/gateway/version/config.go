package version

import (
	"encoding/json"
	"fmt"
	"time"
)

// entryConfig is the JSON shape of one configured threshold.
type entryConfig struct {
	Version     string   `json:"version"`
	DeprecateAt string   `json:"deprecate_at"`
	Methods     []string `json:"methods"`
	Suffix      string   `json:"suffix"`
}

// ParseEntries decodes a JSON array of threshold entries. Deprecation
// dates use RFC 3339; an absent date means the threshold never deprecates.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var configs []entryConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse version overrides: %w", err)
	}
	entries := make([]Entry, 0, len(configs))
	for _, cfg := range configs {
		entry := Entry{
			Version: cfg.Version,
			Methods: cfg.Methods,
			Suffix:  cfg.Suffix,
		}
		if cfg.DeprecateAt != "" {
			deprecateAt, err := time.Parse(time.RFC3339, cfg.DeprecateAt)
			if err != nil {
				return nil, fmt.Errorf("parse deprecate_at for %q: %w", cfg.Version, err)
			}
			entry.DeprecateAt = deprecateAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
