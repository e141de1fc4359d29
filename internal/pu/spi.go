package pu

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// SyncMode names how SPI synchronizes with the external word stream
// (§4.D). SPI records the mode it is built with, but its endpoint
// options and decisions are the same in every mode: no mode gates an
// endpoint on a ready flag or drops data, and the external word stream
// is not modelled.
type SyncMode int

const (
	// Sync names ready-flag synchronization.
	Sync SyncMode = iota
	// Async names synchronization without a ready flag.
	Async
	// OnBoard names synchronization left to on-board hardware.
	OnBoard
)

func (m SyncMode) String() string {
	switch m {
	case Sync:
		return "sync"
	case Async:
		return "async"
	default:
		return "onboard"
	}
}

// SPI is the half-duplex master/slave PU (§4.D): send and receive
// functions bind to a ring of external words and are scheduled strictly
// in ring order, one function in flight at a time like the generic
// serial PUs, but additionally tracking ring position.
type SPI struct {
	tag      string
	ringSize int
	mode     SyncMode

	remains []*ir.Function
	current *ir.Function
	started value.Tick
	contrib []process.StepID
	slot    int

	proc *process.Record
}

// NewSPI builds an empty SPI PU with the given ring size and sync mode.
func NewSPI(tag string, ringSize int, mode SyncMode) *SPI {
	return &SPI{tag: tag, ringSize: ringSize, mode: mode, proc: process.New()}
}

func (s *SPI) Tag() string { return s.tag }

func (s *SPI) clone() *SPI {
	cp := *s
	cp.remains = append([]*ir.Function(nil), s.remains...)
	cp.contrib = append([]process.StepID(nil), s.contrib...)
	return &cp
}

func (s *SPI) TryBind(f *ir.Function) (PU, error) {
	if f.Kind != ir.Send && f.Kind != ir.Receive {
		return nil, &ErrBindRejected{Tag: s.tag, Reason: fmt.Sprintf("spi cannot host function kind %v", f.Kind)}
	}
	next := s.clone()
	next.remains = append(next.remains, f)
	return next, nil
}

func (s *SPI) promote() *SPI {
	if s.current != nil || len(s.remains) == 0 {
		return s
	}
	next := s.clone()
	next.current = next.remains[0]
	next.remains = next.remains[1:]
	next.contrib = nil
	return next
}

func (s *SPI) EndpointOptions() []EndpointOption {
	p := s.promote()
	if p.current == nil {
		return nil
	}
	avail := value.NewInterval(p.proc.NextTick(), value.BoundedMax)
	if p.current.Kind == ir.Send {
		return []EndpointOption{{
			Role:       process.TargetRole(p.current.Inputs()[0]),
			Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, 1)},
		}}
	}
	return []EndpointOption{{
		Role:       process.SourceRole(p.current.Outputs()...),
		Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, 1)},
	}}
}

func (s *SPI) EndpointDecision(d EndpointDecision) (PU, error) {
	p := s.promote()
	if p.current == nil {
		return nil, fmt.Errorf("spi %s: no function in flight for decision %+v", s.tag, d)
	}
	if !admits(p.EndpointOptions(), d) {
		return nil, &ErrOptionViolation{Tag: s.tag, Decision: d}
	}

	next := p.clone()
	instrID := next.emitInstr(d)
	withRole, roleID := next.proc.AddStep(d.At, process.EndpointRoleDesc{Role: d.Role})
	next.proc = withRole
	next.proc = next.proc.UpdateTick(d.At.Sup() + 1)
	next.contrib = append(next.contrib, instrID, roleID)

	withFn, fnID := next.proc.AddStep(value.NewInterval(d.At.Inf(), d.At.Sup()), process.FunctionDesc{Function: next.current})
	next.proc = withFn
	for _, id := range next.contrib {
		next.proc = next.proc.AddRelation(fnID, id)
	}
	next.slot = (next.slot + 1) % next.ringSize
	next.current = nil
	next.contrib = nil
	return next, nil
}

func (s *SPI) emitInstr(d EndpointDecision) process.StepID {
	withInstr, id := s.proc.AddStep(d.At, process.InstructionDesc{Op: SPIInstr{Send: s.current.Kind == ir.Send, Slot: s.slot}})
	s.proc = withInstr
	return id
}

func (s *SPI) Process() *process.Record { return s.proc }

func (s *SPI) Locks() []ir.Lock {
	p := s.promote()
	if p.current == nil {
		return nil
	}
	return p.current.Locks()
}

func (s *SPI) MicrocodeAt(t value.Tick) MicrocodeWord {
	w := NoOp()
	for _, instr := range s.proc.InstructionAt(t) {
		if op, ok := instr.(SPIInstr); ok {
			w[Signal(s.tag+"_EN")] = true
			if op.Send {
				w[Signal(s.tag+"_DIR_OUT")] = true
			}
		}
	}
	return w
}
