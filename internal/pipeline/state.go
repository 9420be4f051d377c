// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package pipeline

// State tracks where a run is in its fixed step sequence. Transitions are
// strictly forward; any failure before Completed moves the run to Failed and
// skips the remaining steps.
type State int

const (
	StateNotStarted State = iota
	StateValidatingEnvironment
	StateBindingSubscription
	StatePreparingOutput
	StateExporting
	StateSummarizing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateValidatingEnvironment:
		return "ValidatingEnvironment"
	case StateBindingSubscription:
		return "BindingSubscription"
	case StatePreparingOutput:
		return "PreparingOutput"
	case StateExporting:
		return "Exporting"
	case StateSummarizing:
		return "Summarizing"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
