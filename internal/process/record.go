// Package process implements the append-only process record (§3): the
// sole authoritative witness of how an algorithm was scheduled.
package process

import (
	"github.com/rs/xid"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/value"
)

// StepID globally identifies a step. xid values are lexically sortable
// by creation time, so ids sort in creation order; the id values
// themselves differ from run to run.
type StepID string

func newStepID() StepID { return StepID(xid.New().String()) }

// Role is the endpoint action a step's EndpointRole description names.
type Role struct {
	// IsSource is false for Target(v), true for Source(vs).
	IsSource bool
	Target   ir.Variable
	Sources  []ir.Variable
}

// TargetRole builds a Target(v) role.
func TargetRole(v ir.Variable) Role { return Role{Target: v} }

// SourceRole builds a Source(vs) role.
func SourceRole(vs ...ir.Variable) Role { return Role{IsSource: true, Sources: vs} }

// Description is the sum type a Step carries. Concrete types below
// implement it as a marker method, mirroring the tagged-union guidance
// of spec.md §9 for the process payload.
type Description interface {
	describe()
}

// CAD is free-form scheduling metadata, e.g. "bind f to PU".
type CAD string

func (CAD) describe() {}

// FunctionDesc marks the interval during which f is realized.
type FunctionDesc struct{ Function *ir.Function }

func (FunctionDesc) describe() {}

// EndpointRoleDesc marks an endpoint action.
type EndpointRoleDesc struct{ Role Role }

func (EndpointRoleDesc) describe() {}

// Instruction is a PU-specific microinstruction payload; concrete PUs
// define their own instruction types implementing InstructionString.
type Instruction interface {
	InstructionString() string
}

// InstructionDesc wraps a PU-specific microinstruction.
type InstructionDesc struct{ Op Instruction }

func (InstructionDesc) describe() {}

// NestedDesc records the import of a sub-PU step into a parent
// timeline.
type NestedDesc struct {
	OuterID StepID
	PUTag   string
	Inner   StepID
}

func (NestedDesc) describe() {}

// Step is one entry of a process record.
type Step struct {
	ID   StepID
	At   value.Interval
	Desc Description
}

// Record is an immutable, append-only log of scheduling steps. Every
// mutating-looking method returns a new *Record; the receiver is never
// modified, satisfying spec.md §8 invariant 4 (Immutability).
type Record struct {
	steps     []Step
	relations map[StepID][]StepID // high id -> low ids it abstracts
	nextTick  value.Tick
}

// New builds an empty process record.
func New() *Record {
	return &Record{relations: map[StepID][]StepID{}}
}

// NextTick is the smallest tick strictly greater than any scheduled
// activity.
func (r *Record) NextTick() value.Tick { return r.nextTick }

// Steps returns every step, in append order. The returned slice must
// not be mutated by callers.
func (r *Record) Steps() []Step { return r.steps }

// AddStep appends a new step and returns the updated record and the new
// step's id.
func (r *Record) AddStep(at value.Interval, desc Description) (*Record, StepID) {
	id := newStepID()
	next := r.clone()
	next.steps = append(next.steps, Step{ID: id, At: at, Desc: desc})
	return next, id
}

// AddRelation records that highID is an abstraction of lowID.
func (r *Record) AddRelation(highID, lowID StepID) *Record {
	next := r.clone()
	next.relations = cloneRelations(r.relations)
	next.relations[highID] = append(append([]StepID(nil), next.relations[highID]...), lowID)
	return next
}

// UpdateTick advances next_tick. It is a contract violation (spec.md §7
// Time-wrap) for t to move the tick backwards; callers are expected to
// have already validated that before calling, so this panics rather
// than returning an error — like spec.md §5 says, a wrap is always an
// engine bug, not recoverable caller input.
func (r *Record) UpdateTick(t value.Tick) *Record {
	if t < r.nextTick {
		panic("process: next_tick would move backwards")
	}
	next := r.clone()
	next.nextTick = t
	return next
}

// Nest records the vertical relation import of an inner step from a
// sub-PU's own process into the caller's timeline, returning the id of
// the newly-created outer step.
func (r *Record) Nest(at value.Interval, puTag string, inner StepID) (*Record, StepID) {
	withStep, outerID := r.AddStep(at, NestedDesc{PUTag: puTag, Inner: inner})
	withStep.relations = cloneRelations(withStep.relations)
	// Fill OuterID now that it is known.
	for i := range withStep.steps {
		if withStep.steps[i].ID == outerID {
			nd := withStep.steps[i].Desc.(NestedDesc)
			nd.OuterID = outerID
			withStep.steps[i].Desc = nd
		}
	}
	return withStep.AddRelation(outerID, inner), outerID
}

// Relations returns the low-ids that highID abstracts.
func (r *Record) Relations(highID StepID) []StepID { return r.relations[highID] }

func (r *Record) clone() *Record {
	return &Record{
		steps:     append([]Step(nil), r.steps...),
		relations: r.relations,
		nextTick:  r.nextTick,
	}
}

func cloneRelations(m map[StepID][]StepID) map[StepID][]StepID {
	out := make(map[StepID][]StepID, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
