// Package pu implements the processing-unit abstraction (§4.D): the
// uniform contract every PU obeys, plus the concrete PUs (Fram,
// Accumulator, Multiplier, Divider, Shift, SPI).
package pu

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// EndpointOption pairs a role with the time constraint a PU currently
// offers for it.
type EndpointOption struct {
	Role       process.Role
	Constraint value.TimeConstraint
}

// EndpointDecision pairs a role with the concrete interval a caller
// wants to commit it to.
type EndpointDecision struct {
	Role process.Role
	At   value.Interval
}

// PU is the contract every processing unit satisfies (§4.D). Every
// method that "changes" the PU returns a new PU value; implementations
// must never mutate the receiver, so that model states remain immutable
// snapshots (spec.md §8 invariant 4).
type PU interface {
	// Tag identifies this PU instance within a microarchitecture.
	Tag() string

	// TryBind reports whether f can be admitted to this PU and, on
	// success, returns the PU snapshot with f stored (possibly
	// tentatively, finalized only once its last endpoint is decided).
	TryBind(f *ir.Function) (PU, error)

	// EndpointOptions returns the Target/Source roles this PU currently
	// offers, with their time constraints.
	EndpointOptions() []EndpointOption

	// EndpointDecision commits a decision that must lie within some
	// offered option, returning the updated PU.
	EndpointDecision(d EndpointDecision) (PU, error)

	// Process returns this PU's own scheduling history.
	Process() *process.Record

	// MicrocodeAt returns the control-signal bundle effective at tick
	// t; t outside any scheduled instruction yields the PU's no-op
	// word.
	MicrocodeAt(t value.Tick) MicrocodeWord

	// Locks returns this PU's current inter-variable ordering
	// constraints.
	Locks() []ir.Lock
}

// ErrBindRejected is returned by TryBind when no admission rule of the
// PU matches f. Reason carries the PU-specific explanation; the bus
// network wraps the rejecting PU's error when a bind decision fails.
type ErrBindRejected struct {
	Tag    string
	Reason string
}

func (e *ErrBindRejected) Error() string {
	return fmt.Sprintf("pu %s: bind rejected: %s", e.Tag, e.Reason)
}

// ErrOptionViolation is returned by EndpointDecision when the requested
// decision does not lie within any currently-offered option. Per
// spec.md §7 this is fatal — it indicates an engine bug, not recoverable
// caller input.
type ErrOptionViolation struct {
	Tag      string
	Decision EndpointDecision
}

func (e *ErrOptionViolation) Error() string {
	return fmt.Sprintf("pu %s: decision %+v does not lie within any offered option", e.Tag, e.Decision)
}
