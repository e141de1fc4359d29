package pu

import (
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// Multiplier is the serial PU that realizes mul (§4.D).
type Multiplier struct {
	core serialCore
}

// NewMultiplier builds an empty multiplier tagged tag.
func NewMultiplier(tag string) *Multiplier {
	return &Multiplier{core: newSerialCore(tag, "MUL", func(k ir.Kind) bool { return k == ir.Mul })}
}

func (m *Multiplier) Tag() string { return m.core.tag }

func (m *Multiplier) TryBind(f *ir.Function) (PU, error) {
	next, err := m.core.tryBind(f)
	if err != nil {
		return nil, &ErrBindRejected{Tag: m.core.tag, Reason: err.Error()}
	}
	return &Multiplier{core: next}, nil
}

func (m *Multiplier) EndpointOptions() []EndpointOption { return m.core.endpointOptions() }

func (m *Multiplier) EndpointDecision(d EndpointDecision) (PU, error) {
	next, err := m.core.endpointDecision(d)
	if err != nil {
		return nil, err
	}
	return &Multiplier{core: next}, nil
}

func (m *Multiplier) Process() *process.Record { return m.core.proc }

func (m *Multiplier) Locks() []ir.Lock { return m.core.locks() }

func (m *Multiplier) MicrocodeAt(t value.Tick) MicrocodeWord {
	for _, instr := range m.core.proc.InstructionAt(t) {
		if _, ok := instr.(OperInstr); ok {
			return MicrocodeWord{Signal(m.core.tag + "_EN"): true}
		}
	}
	return NoOp()
}
