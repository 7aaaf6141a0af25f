package provider

import (
	"context"
	"errors"
)

// Status classifies how a single poll ended.
type Status int

const (
	// StatusOK means the poll completed and stored zero or more readings.
	StatusOK Status = iota
	// StatusTransient means the poll was abandoned with no writes; the next
	// scheduled tick retries independently.
	StatusTransient
	// StatusCanceled means the process-wide cancellation signal fired; the
	// scheduler stops the affected loop and never logs it as an error.
	StatusCanceled
)

// Outcome is the typed result of one poll. Polls never panic the scheduler;
// every failure mode is represented here instead of being thrown upward.
type Outcome struct {
	Status Status
	Stored int
	Err    error
}

// OK reports a completed poll that stored n readings.
func OK(n int) Outcome {
	return Outcome{Status: StatusOK, Stored: n}
}

// Failed classifies err into a transient failure or a cancellation.
func Failed(err error) Outcome {
	if errors.Is(err, context.Canceled) {
		return Outcome{Status: StatusCanceled, Err: err}
	}
	return Outcome{Status: StatusTransient, Err: err}
}

// Collector is one external feed. Poll fetches the provider's current
// snapshot, filters and normalizes it, and bulk-writes the resulting batch.
// A failed poll writes nothing.
type Collector interface {
	Name() string
	Poll(ctx context.Context) Outcome
}
