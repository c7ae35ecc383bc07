package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopingApplies(t *testing.T) {
	assert := assert.New(t)

	var nilScope *Scoping
	assert.True(nilScope.Applies("any-channel", []string{"any-role"}))

	include := &Scoping{IncludeChannels: []string{"c1", "c2"}}
	assert.True(include.Applies("c1", nil))
	assert.True(include.Applies("c2", nil))
	assert.False(include.Applies("c3", nil))

	exclude := &Scoping{ExcludeChannels: []string{"c1"}}
	assert.False(exclude.Applies("c1", nil))
	assert.True(exclude.Applies("c2", nil))

	roles := &Scoping{ExcludeRoles: []string{"mod"}}
	assert.False(roles.Applies("c1", []string{"member", "mod"}))
	assert.True(roles.Applies("c1", []string{"member"}))

	// role exclusion layers on top of channel inclusion
	both := &Scoping{IncludeChannels: []string{"c1"}, ExcludeRoles: []string{"mod"}}
	assert.True(both.Applies("c1", []string{"member"}))
	assert.False(both.Applies("c1", []string{"mod"}))
	assert.False(both.Applies("c2", []string{"member"}))
}

func TestEffectiveScoping(t *testing.T) {
	assert := assert.New(t)

	def := &Scoping{ExcludeChannels: []string{"c9"}}
	specific := &Scoping{IncludeChannels: []string{"c1"}}
	pol := &GuildPolicy{DefaultScoping: def}

	assert.Same(specific, pol.EffectiveScoping(specific))
	assert.Same(def, pol.EffectiveScoping(nil))

	bare := &GuildPolicy{}
	assert.Nil(bare.EffectiveScoping(nil))
}
