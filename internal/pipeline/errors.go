// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package pipeline

import "fmt"

// Kind classifies what failed inside a pipeline step.
type Kind int

const (
	KindPrerequisite Kind = iota + 1
	KindAuthentication
	KindSubscriptionBinding
	KindIO
	KindQuery
	KindSerialization
)

// String returns the kind name used in logs and error text.
func (k Kind) String() string {
	switch k {
	case KindPrerequisite:
		return "prerequisite"
	case KindAuthentication:
		return "authentication"
	case KindSubscriptionBinding:
		return "subscription binding"
	case KindIO:
		return "io"
	case KindQuery:
		return "query"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// StepError is a fatal pipeline error tagged with the failing step's label.
// The pipeline aborts on the first StepError; the last log line before exit
// names the step.
type StepError struct {
	Step string
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step string, kind Kind, err error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: err}
}
