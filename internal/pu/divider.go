package pu

import (
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// Divider is the serial PU that realizes div. Unlike the other serial
// PUs its quotient/remainder endpoint is not available the tick after
// its last input: it models a pipeline of depth Pipeline plus a fixed
// Latency, and the result is flagged "rotten" (its availability window
// closes) RottenSlack ticks after it first becomes ready, to prevent a
// synthesis branch from silently reading stale pipeline output (§4.D).
type Divider struct {
	core serialCore

	Pipeline    int
	Latency     int
	RottenSlack value.Tick
}

// NewDivider builds an empty divider tagged tag with the given pipeline
// depth, latency and rotten-window slack (in ticks).
func NewDivider(tag string, pipeline, latency int, rottenSlack value.Tick) *Divider {
	return &Divider{
		core:        newSerialCore(tag, "DIV", func(k ir.Kind) bool { return k == ir.Div }),
		Pipeline:    pipeline,
		Latency:     latency,
		RottenSlack: rottenSlack,
	}
}

func (d *Divider) Tag() string { return d.core.tag }

func (d *Divider) TryBind(f *ir.Function) (PU, error) {
	next, err := d.core.tryBind(f)
	if err != nil {
		return nil, &ErrBindRejected{Tag: d.core.tag, Reason: err.Error()}
	}
	return &Divider{core: next, Pipeline: d.Pipeline, Latency: d.Latency, RottenSlack: d.RottenSlack}, nil
}

func (d *Divider) EndpointOptions() []EndpointOption {
	c := d.core.promote()
	if c.current == nil {
		return nil
	}
	if len(c.pendingInputs) > 0 {
		return c.endpointOptions()
	}

	ready := c.started + value.Tick(d.Pipeline+d.Latency)
	deadline := ready + d.RottenSlack
	return []EndpointOption{{
		Role:       process.SourceRole(c.pendingOutputs...),
		Constraint: value.TimeConstraint{Available: value.NewInterval(ready, deadline), Duration: value.NewInterval(1, 1)},
	}}
}

func (d *Divider) EndpointDecision(decision EndpointDecision) (PU, error) {
	if !admits(d.EndpointOptions(), decision) {
		return nil, &ErrOptionViolation{Tag: d.core.tag, Decision: decision}
	}
	next, err := d.core.endpointDecision(decision)
	if err != nil {
		return nil, err
	}
	return &Divider{core: next, Pipeline: d.Pipeline, Latency: d.Latency, RottenSlack: d.RottenSlack}, nil
}

func (d *Divider) Process() *process.Record { return d.core.proc }

func (d *Divider) Locks() []ir.Lock { return d.core.locks() }

func (d *Divider) MicrocodeAt(t value.Tick) MicrocodeWord {
	for _, instr := range d.core.proc.InstructionAt(t) {
		if _, ok := instr.(OperInstr); ok {
			return MicrocodeWord{Signal(d.core.tag + "_EN"): true}
		}
	}
	return NoOp()
}
