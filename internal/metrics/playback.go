// Package metrics exposes Prometheus instruments for seek handling and sessions.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	seekDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapback_seek_decisions_total",
		Help: "Total number of intercepted seeks by mode and outcome",
	}, []string{"mode", "outcome"})

	correctiveSeeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapback_corrective_seeks_total",
		Help: "Total number of corrective seeks issued by the event that triggered them",
	}, []string{"trigger"})

	malformedCuepointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapback_malformed_cuepoint_updates_total",
		Help: "Total number of cuepoint updates that failed validation and were applied best effort",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapback_active_sessions",
		Help: "Number of playback sessions currently registered",
	})

	bookmarksSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapback_bookmarks_saved_total",
		Help: "Total number of bookmark save attempts by result",
	}, []string{"result"})
)

// RecordSeekDecision records one intercepted seek.
func RecordSeekDecision(mode, outcome string) {
	seekDecisionsTotal.WithLabelValues(normalizeModeLabel(mode), normalizeOutcomeLabel(outcome)).Inc()
}

// RecordCorrectiveSeeks records n corrective seeks caused by one event.
// Break-end resumes are labelled ad_break_ended, scan snapbacks scan_ended.
func RecordCorrectiveSeeks(trigger string, n int) {
	if n <= 0 {
		return
	}
	correctiveSeeksTotal.WithLabelValues(normalizeTriggerLabel(trigger)).Add(float64(n))
}

// RecordMalformedCuepoints records a cuepoint list that failed validation.
func RecordMalformedCuepoints() {
	malformedCuepointsTotal.Inc()
}

// SessionStarted increments the active session gauge.
func SessionStarted() {
	activeSessions.Inc()
}

// SessionEnded decrements the active session gauge.
func SessionEnded() {
	activeSessions.Dec()
}

// RecordBookmarkSave records a bookmark save, success or failure.
func RecordBookmarkSave(ok bool) {
	result := "success"
	if !ok {
		result = "error"
	}
	bookmarksSavedTotal.WithLabelValues(result).Inc()
}

// RecordBookmarkSkipped records a session end whose stream could no longer take a bookmark.
func RecordBookmarkSkipped() {
	bookmarksSavedTotal.WithLabelValues("skipped").Inc()
}

func normalizeModeLabel(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "live", "vod":
		return strings.ToLower(strings.TrimSpace(mode))
	default:
		return "unknown"
	}
}

func normalizeOutcomeLabel(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "honored", "redirected", "refused":
		return strings.ToLower(strings.TrimSpace(outcome))
	default:
		return "unknown"
	}
}

func normalizeTriggerLabel(trigger string) string {
	switch strings.ToLower(strings.TrimSpace(trigger)) {
	case "ad_break_ended", "scan_ended":
		return strings.ToLower(strings.TrimSpace(trigger))
	default:
		return "other"
	}
}
