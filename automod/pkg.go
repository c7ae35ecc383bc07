package automod

import (
	"github.com/amaranth-bot/amaranth/automod/engine"
	"github.com/amaranth-bot/amaranth/automod/policy"
	"github.com/amaranth-bot/amaranth/automod/spamwindow"
)

type Engine = engine.Engine
type Outcome = engine.Outcome
type Violation = engine.Violation
type TestReport = engine.TestReport
type FilterTestResult = engine.FilterTestResult

type MessageEvent = engine.MessageEvent
type ReactionEvent = engine.ReactionEvent
type UsernameEvent = engine.UsernameEvent
type Sticker = engine.Sticker

type GuildPolicy = policy.GuildPolicy
type Action = policy.Action
type Scoping = policy.Scoping

var (
	ActionDelete      = policy.ActionDelete
	ActionSendMessage = policy.ActionSendMessage
	ActionSendLog     = policy.ActionSendLog

	KindEmoji      = spamwindow.KindEmoji
	KindDuplicate  = spamwindow.KindDuplicate
	KindLink       = spamwindow.KindLink
	KindAttachment = spamwindow.KindAttachment
	KindSpoiler    = spamwindow.KindSpoiler
	KindMention    = spamwindow.KindMention
)
