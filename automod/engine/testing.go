package engine

import (
	"log/slog"

	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
)

var fixturePolicyJSON = []byte(`{
	"default_actions": [
		{"action": "delete"}
	],
	"messages": [
		{
			"name": "bad-words",
			"rules": [
				{"type": "words", "words": ["spam", "scam"]}
			]
		}
	],
	"include_bots": false
}`)

// EngineTestFixture builds an engine with one configured guild ("guild-1"):
// a default delete action and a single word-list message filter.
func EngineTestFixture() *Engine {
	pol, err := policy.Parse(fixturePolicyJSON)
	if err != nil {
		panic(err)
	}
	store := policy.NewStore()
	store.Set("guild-1", pol)

	eng := &Engine{
		Logger:   slog.Default(),
		Policies: store,
		Spam:     spamwindow.NewMemStore(),
	}
	eng.Arm()
	return eng
}
