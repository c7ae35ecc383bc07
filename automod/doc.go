// Policy evaluation engine for automated guild content moderation.
//
// This package (`github.com/amaranth-bot/amaranth/automod`) contains the rules engine behind the amaranth moderation bot. Each guild supplies a declarative JSON policy: named filters over messages and reactions, sliding-window spam thresholds, username rules, and the automated actions (delete, warn, log) to take on a violation. The engine evaluates inbound events against the current policy and selects actions; it never calls the chat platform itself.
//
// See `cmd/amaranth` for the daemon built on this package, and the `discord` package for the platform glue which feeds events in and executes the selected actions.
package automod
