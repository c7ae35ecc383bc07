package policy

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Store maps guild IDs to compiled policies. Reads are lock-free; a reload
// replaces one guild's policy wholesale, so readers never observe a
// half-updated policy and never block on another guild's reload.
type Store struct {
	policies *xsync.MapOf[string, *GuildPolicy]
}

func NewStore() *Store {
	return &Store{
		policies: xsync.NewMapOf[string, *GuildPolicy](),
	}
}

func (s *Store) Get(guildID string) (*GuildPolicy, bool) {
	return s.policies.Load(guildID)
}

// Set installs a compiled policy for a guild, replacing any previous one.
func (s *Store) Set(guildID string, pol *GuildPolicy) {
	s.policies.Store(guildID, pol)
}

func (s *Store) Remove(guildID string) {
	s.policies.Delete(guildID)
}

// GuildIDs returns a snapshot of the configured guilds.
func (s *Store) GuildIDs() []string {
	var out []string
	s.policies.Range(func(guildID string, _ *GuildPolicy) bool {
		out = append(out, guildID)
		return true
	})
	return out
}
