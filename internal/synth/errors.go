// Package synth implements the synthesis driver (§4.F, §4.G): the
// search loop that walks the tree of possible (options, decision) model
// states down to a completed schedule.
package synth

import (
	"errors"
	"fmt"

	"github.com/nitta-corp/nitta/internal/pu"
)

// Sentinel errors name the six error kinds of §7 so callers can branch
// on kind with errors.Is while still getting a state-specific message
// via %w.
var (
	ErrBindRejected    = errors.New("synth: no PU can host this function")
	ErrTimeWrap        = errors.New("synth: decision start precedes next_tick")
	ErrOptionViolation = errors.New("synth: decision does not lie within any offered option")
	ErrDeadlock        = errors.New("synth: no options remain while work is unfinished")
	ErrSimulation      = errors.New("synth: functional simulation could not satisfy a variable")
	ErrRepetitionLimit = errors.New("synth: refactor would exceed the buffer-repetition bound")
)

// WrapBindRejected attaches PU-specific reasons to ErrBindRejected
// (§7's "surfaced to the caller with the concatenation of each PU's
// reason").
func WrapBindRejected(reasons []string) error {
	msg := ""
	for i, r := range reasons {
		if i > 0 {
			msg += "; "
		}
		msg += r
	}
	return fmt.Errorf("%w: %s", ErrBindRejected, msg)
}

// Err maps a terminal Status to its §7 error kind, for callers that
// want an errors.Is-compatible failure rather than the bare Status
// string. It returns nil for Complete and a non-sentinel error for
// InProgress, which the search returns when it stops before a terminal
// state: the deadline passed, or every remaining option was filtered
// out or failed to apply.
func (s Status) Err() error {
	switch s {
	case Complete:
		return nil
	case Dead:
		return ErrDeadlock
	default:
		return fmt.Errorf("synth: search stopped in progress, at depth that reached no terminal state")
	}
}

// classifyApplyErr narrows an Option.Apply failure down to the §7 error
// kind it corresponds to, so pruning logs carry a kind a caller could
// match with errors.Is rather than an opaque PU-specific message.
func classifyApplyErr(err error) error {
	var bindErr *pu.ErrBindRejected
	if errors.As(err, &bindErr) {
		return fmt.Errorf("%w: %s", ErrBindRejected, bindErr.Reason)
	}
	var optErr *pu.ErrOptionViolation
	if errors.As(err, &optErr) {
		return fmt.Errorf("%w: %s", ErrOptionViolation, optErr.Error())
	}
	return err
}
