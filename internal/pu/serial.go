package pu

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// serialCore implements the generic "at most one function in flight"
// admission and endpoint-scheduling pattern shared by Accumulator,
// Multiplier, Shift and Divider (§4.D NEW), grounded on the teacher's
// single-function-in-flight core execution loop
// (core/core.go's runProgram/emu.RunInstructionGroup): a PU enqueues
// bound functions in remains, promotes the head to current on its first
// endpoint, accumulates its inputs in declared order, then emits its
// outputs and finalizes.
type serialCore struct {
	tag     string
	opName  string
	accepts func(ir.Kind) bool

	remains []*ir.Function

	current        *ir.Function
	started        value.Tick
	pendingInputs  []ir.Variable
	pendingOutputs []ir.Variable
	contribIDs     []process.StepID

	proc *process.Record
}

func newSerialCore(tag, opName string, accepts func(ir.Kind) bool) serialCore {
	return serialCore{tag: tag, opName: opName, accepts: accepts, proc: process.New()}
}

func (c serialCore) clone() serialCore {
	cp := c
	cp.remains = append([]*ir.Function(nil), c.remains...)
	cp.pendingInputs = append([]ir.Variable(nil), c.pendingInputs...)
	cp.pendingOutputs = append([]ir.Variable(nil), c.pendingOutputs...)
	cp.contribIDs = append([]process.StepID(nil), c.contribIDs...)
	return cp
}

func (c serialCore) tryBind(f *ir.Function) (serialCore, error) {
	if !c.accepts(f.Kind) {
		return serialCore{}, fmt.Errorf("%s: function %q is not a %s-family kind", c.tag, f, c.opName)
	}
	next := c.clone()
	next.remains = append(next.remains, f)
	return next, nil
}

// promote moves the head of remains into current, if current is free.
func (c serialCore) promote() serialCore {
	if c.current != nil || len(c.remains) == 0 {
		return c
	}
	next := c.clone()
	next.current = next.remains[0]
	next.remains = next.remains[1:]
	next.pendingInputs = append([]ir.Variable(nil), next.current.Inputs()...)
	next.pendingOutputs = append([]ir.Variable(nil), next.current.Outputs()...)
	next.contribIDs = nil
	return next
}

func (c serialCore) endpointOptions() []EndpointOption {
	c = c.promote()
	if c.current == nil {
		return nil
	}
	avail := value.NewInterval(c.proc.NextTick(), value.BoundedMax)
	if len(c.pendingInputs) > 0 {
		return []EndpointOption{{
			Role:       process.TargetRole(c.pendingInputs[0]),
			Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, 1)},
		}}
	}
	return []EndpointOption{{
		Role:       process.SourceRole(c.pendingOutputs...),
		Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, value.BoundedMax)},
	}}
}

func (c serialCore) endpointDecision(d EndpointDecision) (serialCore, error) {
	c = c.promote()
	if c.current == nil {
		return serialCore{}, fmt.Errorf("%s: no function in flight for decision %+v", c.tag, d)
	}

	opts := c.endpointOptions()
	if !admits(opts, d) {
		return serialCore{}, &ErrOptionViolation{Tag: c.tag, Decision: d}
	}

	next := c.clone()
	if d.Role.IsSource {
		return next.commitSource(d)
	}
	return next.commitTarget(d)
}

func (c serialCore) commitTarget(d EndpointDecision) (serialCore, error) {
	withRole, roleID := c.proc.AddStep(d.At, process.EndpointRoleDesc{Role: d.Role})
	c.proc = withRole
	c.proc = c.proc.UpdateTick(d.At.Sup() + 1)
	c.contribIDs = append(c.contribIDs, roleID)
	if len(c.contribIDs) == 1 {
		c.started = d.At.Inf()
	}
	c.pendingInputs = c.pendingInputs[1:]
	return c, nil
}

func (c serialCore) commitSource(d EndpointDecision) (serialCore, error) {
	withInstr, instrID := c.proc.AddStep(d.At, process.InstructionDesc{Op: OperInstr{Op: c.opName}})
	withRole, roleID := withInstr.AddStep(d.At, process.EndpointRoleDesc{Role: d.Role})
	c.proc = withRole
	c.proc = c.proc.UpdateTick(d.At.Sup() + 1)
	c.contribIDs = append(c.contribIDs, instrID, roleID)

	c.pendingOutputs = remove(c.pendingOutputs, d.Role.Sources)
	if len(c.pendingOutputs) == 0 {
		return c.finalize(d.At.Sup())
	}
	return c, nil
}

func (c serialCore) finalize(endTick value.Tick) (serialCore, error) {
	f := c.current
	withFn, fnID := c.proc.AddStep(value.NewInterval(c.started, endTick), process.FunctionDesc{Function: f})
	c.proc = withFn
	for _, id := range c.contribIDs {
		c.proc = c.proc.AddRelation(fnID, id)
	}
	c.current = nil
	c.contribIDs = nil
	return c, nil
}

func admits(opts []EndpointOption, d EndpointDecision) bool {
	for _, o := range opts {
		if roleCompatible(o.Role, d.Role) && o.Constraint.Admits(d.At) {
			return true
		}
	}
	return false
}

// roleCompatible reports whether decision role r matches option role o:
// a Target decision must name exactly the offered variable; a Source
// decision must name a non-empty subset of the offered variables.
func roleCompatible(o, r process.Role) bool {
	if o.IsSource != r.IsSource {
		return false
	}
	if !o.IsSource {
		return o.Target == r.Target
	}
	if len(r.Sources) == 0 {
		return false
	}
	offered := map[ir.Variable]bool{}
	for _, v := range o.Sources {
		offered[v] = true
	}
	for _, v := range r.Sources {
		if !offered[v] {
			return false
		}
	}
	return true
}

func remove(from []ir.Variable, vs []ir.Variable) []ir.Variable {
	drop := map[ir.Variable]bool{}
	for _, v := range vs {
		drop[v] = true
	}
	out := make([]ir.Variable, 0, len(from))
	for _, v := range from {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}

func (c serialCore) locks() []ir.Lock {
	c = c.promote()
	if c.current == nil {
		return nil
	}
	return c.current.Locks()
}
