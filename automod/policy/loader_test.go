package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAndDiscoverGuilds(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.json"), validPolicyJSON, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "456.json"), []byte(`{"default_actions": [{"action": "delete"}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a policy"), 0o644))

	guilds, err := DiscoverGuilds(dir)
	assert.NoError(err)
	assert.ElementsMatch([]string{"123", "456"}, guilds)

	pol, err := LoadFile(dir, "123")
	assert.NoError(err)
	assert.Len(pol.Messages, 2)

	_, err = LoadFile(dir, "999")
	assert.Error(err)
}

func TestLoadFileInvalidDocument(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.json"), []byte(`{"spam": {"interval": 0}}`), 0o644))

	pol, err := LoadFile(dir, "123")
	assert.Nil(pol)
	assert.ErrorContains(err, "guild 123")
}

func TestStore(t *testing.T) {
	assert := assert.New(t)

	s := NewStore()
	_, ok := s.Get("g1")
	assert.False(ok)

	pol, err := Parse(validPolicyJSON)
	require.NoError(t, err)

	s.Set("g1", pol)
	got, ok := s.Get("g1")
	assert.True(ok)
	assert.Same(pol, got)

	// replacement is whole-policy
	other := &GuildPolicy{}
	s.Set("g1", other)
	got, _ = s.Get("g1")
	assert.Same(other, got)

	s.Set("g2", pol)
	assert.ElementsMatch([]string{"g1", "g2"}, s.GuildIDs())

	s.Remove("g1")
	_, ok = s.Get("g1")
	assert.False(ok)
	assert.ElementsMatch([]string{"g2"}, s.GuildIDs())
}
