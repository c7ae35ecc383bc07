package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "amaranth_event_duration_sec",
	Help: "Total duration of moderation event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "amaranth_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "amaranth_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var violationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "amaranth_violations",
	Help: "Number of detected content violations",
}, []string{"type"})

var actionResolvedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "amaranth_actions_resolved",
	Help: "Number of actions selected for execution",
}, []string{"action"})
