package pu

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// framCell is one addressed memory cell of a Fram PU, with the three
// reservation slots of §4.D: input (offers Source), current (offers
// Target then Source) and output (offers Target). framInput occupies
// the input slot; constant occupies the input slot and also blocks the
// output slot; framOutput occupies the output slot; loop occupies both
// input and output; reg occupies current.
type framCell struct {
	inputFn   *ir.Function
	currentFn *ir.Function
	outputFn  *ir.Function

	initial   value.Value
	lastWrite *value.Tick
}

func (c framCell) clone() framCell {
	cp := c
	if c.lastWrite != nil {
		t := *c.lastWrite
		cp.lastWrite = &t
	}
	return cp
}

func (c framCell) fullyFree() bool {
	return c.inputFn == nil && c.currentFn == nil && c.outputFn == nil
}

// obligation tracks how many endpoint actions a bound function still
// needs before it finalizes into a covering Function step. Most
// functions need exactly one (a single Source or Target); reg needs two
// (Target then Source); loop needs two (one Source on the input slot,
// one Target on the output slot, in either order).
type obligation struct {
	need     int
	contrib  []process.StepID
	started  value.Tick
	startSet bool
}

func (o *obligation) clone() *obligation {
	cp := *o
	cp.contrib = append([]process.StepID(nil), o.contrib...)
	return &cp
}

// Fram is the framed-memory PU (§4.D): a fixed-size array of cells, each
// with its own initial value and three admission slots.
type Fram struct {
	tag   string
	cells []framCell

	pending map[*ir.Function]*obligation

	proc *process.Record
}

// NewFram builds an empty Fram with size cells, tagged tag.
func NewFram(tag string, size int) *Fram {
	return &Fram{
		tag:     tag,
		cells:   make([]framCell, size),
		pending: map[*ir.Function]*obligation{},
		proc:    process.New(),
	}
}

func (f *Fram) Tag() string { return f.tag }

func (f *Fram) clone() *Fram {
	cells := make([]framCell, len(f.cells))
	for i, c := range f.cells {
		cells[i] = c.clone()
	}
	pending := make(map[*ir.Function]*obligation, len(f.pending))
	for k, v := range f.pending {
		pending[k] = v.clone()
	}
	return &Fram{tag: f.tag, cells: cells, pending: pending, proc: f.proc}
}

func (f *Fram) availableOutputCells() int {
	n := 0
	for _, c := range f.cells {
		if c.outputFn == nil {
			n++
		}
	}
	return n
}

func (f *Fram) regCount() int {
	n := 0
	for fn, ob := range f.pending {
		if fn.Kind == ir.Reg && ob.need > 0 {
			n++
		}
	}
	return n
}

func (f *Fram) TryBind(fn *ir.Function) (PU, error) {
	switch fn.Kind {
	case ir.FramInput:
		for i, c := range f.cells {
			if c.inputFn == nil {
				return f.bindAt(i, fn, slotInput)
			}
		}
		return nil, &ErrBindRejected{Tag: f.tag, Reason: "no cell with a free input slot"}

	case ir.FramOutput:
		for i, c := range f.cells {
			if c.outputFn == nil {
				return f.bindAt(i, fn, slotOutput)
			}
		}
		return nil, &ErrBindRejected{Tag: f.tag, Reason: "no cell with a free output slot"}

	case ir.Reg:
		if f.regCount()+1 > f.availableOutputCells() {
			return nil, &ErrBindRejected{Tag: f.tag, Reason: "admitting another reg would exceed available output capacity"}
		}
		for i, c := range f.cells {
			if c.currentFn == nil && c.outputFn == nil {
				return f.bindAt(i, fn, slotCurrent)
			}
		}
		return nil, &ErrBindRejected{Tag: f.tag, Reason: "no cell with a free current slot and unblocked output"}

	case ir.Loop:
		for i, c := range f.cells {
			if c.inputFn == nil && c.outputFn == nil {
				return f.bindLoopAt(i, fn)
			}
		}
		return nil, &ErrBindRejected{Tag: f.tag, Reason: "no cell with both input and output free"}

	case ir.Constant:
		for i, c := range f.cells {
			if c.fullyFree() {
				return f.bindConstantAt(i, fn)
			}
		}
		return nil, &ErrBindRejected{Tag: f.tag, Reason: "no fully-free cell"}

	default:
		return nil, &ErrBindRejected{Tag: f.tag, Reason: fmt.Sprintf("fram cannot host function kind %v", fn.Kind)}
	}
}

type slotKind int

const (
	slotInput slotKind = iota
	slotCurrent
	slotOutput
)

func (f *Fram) bindAt(idx int, fn *ir.Function, slot slotKind) (*Fram, error) {
	next := f.clone()
	c := next.cells[idx]
	switch slot {
	case slotInput:
		c.inputFn = fn
	case slotCurrent:
		c.currentFn = fn
	case slotOutput:
		c.outputFn = fn
	}
	next.cells[idx] = c

	need := 1
	if slot == slotCurrent {
		need = 2
	}
	next.pending[fn] = &obligation{need: need}
	return next, nil
}

func (f *Fram) bindLoopAt(idx int, fn *ir.Function) (*Fram, error) {
	next := f.clone()
	c := next.cells[idx]
	c.inputFn = fn
	c.outputFn = fn
	c.initial = fn.Literal
	next.cells[idx] = c
	next.pending[fn] = &obligation{need: 2}
	return next, nil
}

func (f *Fram) bindConstantAt(idx int, fn *ir.Function) (*Fram, error) {
	next := f.clone()
	c := next.cells[idx]
	c.inputFn = fn
	c.outputFn = fn
	c.initial = fn.Literal
	next.cells[idx] = c
	next.pending[fn] = &obligation{need: 1}
	return next, nil
}

// EndpointOptions enumerates the Source/Target offers across every cell
// (§4.D's per-cell ordering: input slot offers Source; current slot
// offers Target then Source; output slot offers Target).
func (f *Fram) EndpointOptions() []EndpointOption {
	var out []EndpointOption
	avail := value.NewInterval(f.proc.NextTick(), value.BoundedMax)
	for _, c := range f.cells {
		if c.inputFn != nil {
			if ob := f.pending[c.inputFn]; ob != nil && f.inputSlotRemaining(c.inputFn) {
				out = append(out, EndpointOption{
					Role:       process.SourceRole(c.inputFn.Outputs()...),
					Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, value.BoundedMax)},
				})
			}
		}
		if c.currentFn != nil {
			if opt, ok := f.currentSlotOption(c.currentFn, avail); ok {
				out = append(out, opt)
			}
		}
		if c.outputFn != nil {
			if f.outputSlotRemaining(c.outputFn) {
				out = append(out, EndpointOption{
					Role:       process.TargetRole(c.outputFn.Inputs()[0]),
					Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, 1)},
				})
			}
		}
	}
	return out
}

// inputSlotRemaining reports whether fn's input-slot Source action (its
// sole obligation for framInput/constant, or its first-or-second for
// loop) has not yet been committed.
func (f *Fram) inputSlotRemaining(fn *ir.Function) bool {
	ob := f.pending[fn]
	if ob == nil {
		return false
	}
	if fn.Kind == ir.Loop {
		return !f.loopSourceDone(fn)
	}
	return ob.need > 0
}

func (f *Fram) outputSlotRemaining(fn *ir.Function) bool {
	if len(fn.Inputs()) == 0 {
		// constant occupies the output slot only to block it; it has
		// no Target obligation there.
		return false
	}
	ob := f.pending[fn]
	if ob == nil {
		return false
	}
	if fn.Kind == ir.Loop {
		return !f.loopTargetDone(fn)
	}
	return ob.need > 0
}

func (f *Fram) loopSourceDone(fn *ir.Function) bool {
	return f.loopHalfDone(fn, true)
}

func (f *Fram) loopTargetDone(fn *ir.Function) bool {
	return f.loopHalfDone(fn, false)
}

// loopHalfDone reports whether the named half of a loop function's two
// obligations has already been committed. Each committed half pushes its
// marker id (loopSourceMarker or loopTargetMarker) onto the obligation's
// contrib, and this looks for that marker.
func (f *Fram) loopHalfDone(fn *ir.Function, source bool) bool {
	ob := f.pending[fn]
	if ob == nil {
		return true
	}
	for _, id := range ob.contrib {
		if source && id == loopSourceMarker {
			return true
		}
		if !source && id == loopTargetMarker {
			return true
		}
	}
	return false
}

const (
	loopSourceMarker process.StepID = "$loop-source-done"
	loopTargetMarker process.StepID = "$loop-target-done"
)

func (f *Fram) currentSlotOption(fn *ir.Function, avail value.Interval) (EndpointOption, bool) {
	ob := f.pending[fn]
	if ob == nil {
		return EndpointOption{}, false
	}
	if ob.need == 2 {
		return EndpointOption{
			Role:       process.TargetRole(fn.Inputs()[0]),
			Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, 1)},
		}, true
	}
	if ob.need == 1 {
		return EndpointOption{
			Role:       process.SourceRole(fn.Outputs()...),
			Constraint: value.TimeConstraint{Available: avail, Duration: value.NewInterval(1, value.BoundedMax)},
		}, true
	}
	return EndpointOption{}, false
}

func (f *Fram) cellIndexFor(role process.Role) (int, bool) {
	for i, c := range f.cells {
		if c.inputFn != nil && roleNamesFunction(role, c.inputFn) {
			return i, true
		}
		if c.currentFn != nil && roleNamesFunction(role, c.currentFn) {
			return i, true
		}
		if c.outputFn != nil && roleNamesFunction(role, c.outputFn) {
			return i, true
		}
	}
	return 0, false
}

func roleNamesFunction(role process.Role, fn *ir.Function) bool {
	if role.IsSource {
		return sameVarSet(role.Sources, fn.Outputs())
	}
	return len(fn.Inputs()) > 0 && role.Target == fn.Inputs()[0]
}

func sameVarSet(a, b []ir.Variable) bool {
	if len(a) == 0 || len(a) > len(b) {
		return false
	}
	set := map[ir.Variable]bool{}
	for _, v := range b {
		set[v] = true
	}
	for _, v := range a {
		if !set[v] {
			return false
		}
	}
	return true
}

// EndpointDecision commits d, which must lie within some currently
// offered option, emitting the Load/Save microinstruction and updating
// the occupying cell's bookkeeping (§4.D).
func (f *Fram) EndpointDecision(d EndpointDecision) (PU, error) {
	opts := f.EndpointOptions()
	if !admits(opts, d) {
		return nil, &ErrOptionViolation{Tag: f.tag, Decision: d}
	}

	idx, ok := f.cellIndexFor(d.Role)
	if !ok {
		return nil, &ErrOptionViolation{Tag: f.tag, Decision: d}
	}

	next := f.clone()
	c := next.cells[idx]

	if d.Role.IsSource {
		next.proc, _ = next.proc.AddStep(value.Point(d.At.Inf()-1), process.InstructionDesc{Op: LoadInstr{Addr: idx}})
		c.lastWrite = nil
	} else {
		next.proc, _ = next.proc.AddStep(d.At, process.InstructionDesc{Op: SaveInstr{Addr: idx}})
		t := d.At.Sup()
		c.lastWrite = &t
	}
	withRole, roleID := next.proc.AddStep(d.At, process.EndpointRoleDesc{Role: d.Role})
	next.proc = withRole
	next.proc = next.proc.UpdateTick(d.At.Sup() + 1)
	next.cells[idx] = c

	fn := occupantFor(c, d.Role)
	if err := next.progress(fn, d.Role, roleID, d.At); err != nil {
		return nil, err
	}
	return next, nil
}

func occupantFor(c framCell, role process.Role) *ir.Function {
	for _, fn := range []*ir.Function{c.inputFn, c.currentFn, c.outputFn} {
		if fn != nil && roleNamesFunction(role, fn) {
			return fn
		}
	}
	return nil
}

func (f *Fram) progress(fn *ir.Function, role process.Role, stepID process.StepID, at value.Interval) error {
	ob := f.pending[fn]
	if ob == nil {
		return fmt.Errorf("fram %s: no pending obligation for %q", f.tag, fn)
	}
	if !ob.startSet {
		ob.started = at.Inf()
		ob.startSet = true
	}
	ob.contrib = append(ob.contrib, stepID)

	if fn.Kind == ir.Loop {
		if role.IsSource {
			ob.contrib = append(ob.contrib, loopSourceMarker)
		} else {
			ob.contrib = append(ob.contrib, loopTargetMarker)
		}
		if f.loopSourceDone(fn) && f.loopTargetDone(fn) {
			return f.finalize(fn, ob, at.Sup())
		}
		return nil
	}

	ob.need--
	if ob.need == 0 {
		return f.finalize(fn, ob, at.Sup())
	}
	return nil
}

func (f *Fram) finalize(fn *ir.Function, ob *obligation, endTick value.Tick) error {
	withFn, fnID := f.proc.AddStep(value.NewInterval(ob.started, endTick), process.FunctionDesc{Function: fn})
	f.proc = withFn
	for _, id := range ob.contrib {
		if id == loopSourceMarker || id == loopTargetMarker {
			continue
		}
		f.proc = f.proc.AddRelation(fnID, id)
	}
	delete(f.pending, fn)
	return nil
}

// InitialValues returns the preloaded value of every cell that has one,
// keyed by address.
func (f *Fram) InitialValues() map[int]value.Value {
	out := map[int]value.Value{}
	for i, c := range f.cells {
		if c.initial != nil {
			out[i] = c.initial
		}
	}
	return out
}

func (f *Fram) Process() *process.Record { return f.proc }

func (f *Fram) Locks() []ir.Lock {
	var out []ir.Lock
	for fn := range f.pending {
		out = append(out, fn.Locks()...)
	}
	return out
}

func (f *Fram) MicrocodeAt(t value.Tick) MicrocodeWord {
	w := NoOp()
	for _, instr := range f.proc.InstructionAt(t) {
		switch op := instr.(type) {
		case LoadInstr:
			w[Signal(fmt.Sprintf("%s_ADDR", f.tag))] = true
			w[Signal(fmt.Sprintf("%s_LOAD_%d", f.tag, op.Addr))] = true
		case SaveInstr:
			w[Signal(fmt.Sprintf("%s_ADDR", f.tag))] = true
			w[Signal(fmt.Sprintf("%s_SAVE_%d", f.tag, op.Addr))] = true
		}
	}
	return w
}
