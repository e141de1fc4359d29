package pu

import (
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// Shift is the serial PU that realizes shiftL and shiftR (§4.D).
type Shift struct {
	core serialCore
}

// NewShift builds an empty shift unit tagged tag.
func NewShift(tag string) *Shift {
	return &Shift{core: newSerialCore(tag, "SHIFT", func(k ir.Kind) bool {
		return k == ir.ShiftL || k == ir.ShiftR
	})}
}

func (s *Shift) Tag() string { return s.core.tag }

func (s *Shift) TryBind(f *ir.Function) (PU, error) {
	next, err := s.core.tryBind(f)
	if err != nil {
		return nil, &ErrBindRejected{Tag: s.core.tag, Reason: err.Error()}
	}
	return &Shift{core: next}, nil
}

func (s *Shift) EndpointOptions() []EndpointOption { return s.core.endpointOptions() }

func (s *Shift) EndpointDecision(d EndpointDecision) (PU, error) {
	next, err := s.core.endpointDecision(d)
	if err != nil {
		return nil, err
	}
	return &Shift{core: next}, nil
}

func (s *Shift) Process() *process.Record { return s.core.proc }

func (s *Shift) Locks() []ir.Lock { return s.core.locks() }

func (s *Shift) MicrocodeAt(t value.Tick) MicrocodeWord {
	for _, instr := range s.core.proc.InstructionAt(t) {
		if _, ok := instr.(OperInstr); ok {
			return MicrocodeWord{Signal(s.core.tag + "_EN"): true}
		}
	}
	return NoOp()
}
