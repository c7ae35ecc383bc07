package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads and compiles the policy document for one guild, stored as
// <dir>/<guildID>.json.
func LoadFile(dir, guildID string) (*GuildPolicy, error) {
	path := filepath.Join(dir, guildID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guild policy %s: %w", path, err)
	}
	pol, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("guild %s: %w", guildID, err)
	}
	return pol, nil
}

// DiscoverGuilds lists the guild IDs which have a policy document in dir.
func DiscoverGuilds(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning policy dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	return out, nil
}
