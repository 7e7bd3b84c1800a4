// Package metrics holds the named metric emitters for the onboarding gate.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/rithish08/fyke-connect-india-sub001/internal/observability/errors"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultInvalid = "invalid"
	ResultBusy    = "busy"
)

// Metric names.
const (
	NameGuardRedirect = "guard.redirect"
	NameTransition    = "onboarding.transition"
	NameCommit        = "onboarding.commit"
	NameCommitLatency = "onboarding.commit.duration"
)

// EmitGuardRedirect counts one redirect issued by the access guard.
func EmitGuardRedirect(sink statsd.Sink, reason, target string) {
	if sink == nil {
		return
	}
	sink.Count(NameGuardRedirect, 1, map[string]string{"reason": reason, "target": target})
}

// Transition describes one wizard move for metric emission.
type Transition struct {
	// Kind is next, back or save.
	Kind   string
	Step   string
	Result string
	Err    error
}

// EmitTransition counts a wizard transition.
func EmitTransition(sink statsd.Sink, in Transition) {
	if sink == nil {
		return
	}
	sink.Count(NameTransition, 1, withErrorClass(map[string]string{
		"kind":   in.Kind,
		"step":   in.Step,
		"result": in.Result,
	}, in.Result, in.Err))
}

// Commit describes a commit attempt.
type Commit struct {
	Result   string
	Duration time.Duration
	Err      error
	// Mixed is set when the committed wages used more than one period.
	Mixed bool
}

// EmitCommit counts a commit attempt and records its latency.
func EmitCommit(sink statsd.Sink, in Commit) {
	if sink == nil {
		return
	}
	tags := withErrorClass(map[string]string{"result": in.Result}, in.Result, in.Err)
	if in.Mixed {
		tags["mixed_periods"] = "true"
	}
	sink.Count(NameCommit, 1, tags)
	if in.Duration > 0 {
		sink.Timing(NameCommitLatency, in.Duration, maps.Clone(tags))
	}
}

func withErrorClass(tags map[string]string, result string, err error) map[string]string {
	if err != nil && result == ResultError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	return tags
}
