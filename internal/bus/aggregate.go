package bus

import (
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
)

// nestedStep records, for one sub-PU step imported into the parent
// record, the outer step id it was given and its original description
// (kept around so Aggregate can recognize FunctionDesc/EndpointRoleDesc
// steps without re-reading the sub-PU's own record).
type nestedStep struct {
	id   process.StepID
	desc process.Description
}

// Aggregate assembles the network's own process (CAD/bind metadata and
// Transport steps) together with every bound sub-PU's process into one
// final schedule (§4.E). Every sub-PU step is imported under a
// NestedDesc step tagged with the sub-PU's tag, preserving that sub-PU's
// own internal relations, and two further classes of vertical relation
// are added on top:
//
//   - Transport-to-endpoint: a Transport instruction step is related to
//     the nested endpoint-role step (Source or Target) on the sub-PU
//     side that actually carried it.
//   - Function-to-transport: a nested FunctionDesc step is related to
//     every Transport step that moved one of its input or output
//     variables, so a reader can walk from "this function ran" down to
//     "here is how its operands arrived."
func (n *Network) Aggregate() *process.Record {
	rec := n.proc

	nested := map[string]map[process.StepID]nestedStep{}
	for _, tag := range n.order {
		sub := n.pus[tag].Process()
		inner := make(map[process.StepID]nestedStep, len(sub.Steps()))
		for _, step := range sub.Steps() {
			withStep, outerID := rec.Nest(step.At, tag, step.ID)
			rec = withStep
			inner[step.ID] = nestedStep{id: outerID, desc: step.Desc}
		}
		for _, step := range sub.Steps() {
			for _, lowID := range sub.Relations(step.ID) {
				rec = rec.AddRelation(inner[step.ID].id, inner[lowID].id)
			}
		}
		nested[tag] = inner
	}

	for _, step := range rec.Steps() {
		instrDesc, ok := step.Desc.(process.InstructionDesc)
		if !ok {
			continue
		}
		t, ok := instrDesc.Op.(TransportInstr)
		if !ok {
			continue
		}

		if endpointID, ok := sourceEndpointFor(nested[t.SrcTag], t.Var); ok {
			rec = rec.AddRelation(step.ID, endpointID)
		}
		if endpointID, ok := targetEndpointFor(nested[t.DstTag], t.Var); ok {
			rec = rec.AddRelation(step.ID, endpointID)
		}

		for _, tag := range [2]string{t.SrcTag, t.DstTag} {
			for _, ns := range nested[tag] {
				fn, ok := ns.desc.(process.FunctionDesc)
				if ok && usesVariable(fn.Function, t.Var) {
					rec = rec.AddRelation(ns.id, step.ID)
				}
			}
		}
	}

	return rec
}

func sourceEndpointFor(steps map[process.StepID]nestedStep, v ir.Variable) (process.StepID, bool) {
	for _, ns := range steps {
		role, ok := ns.desc.(process.EndpointRoleDesc)
		if !ok || !role.Role.IsSource {
			continue
		}
		for _, sv := range role.Role.Sources {
			if sv == v {
				return ns.id, true
			}
		}
	}
	return "", false
}

func targetEndpointFor(steps map[process.StepID]nestedStep, v ir.Variable) (process.StepID, bool) {
	for _, ns := range steps {
		role, ok := ns.desc.(process.EndpointRoleDesc)
		if ok && !role.Role.IsSource && role.Role.Target == v {
			return ns.id, true
		}
	}
	return "", false
}

func usesVariable(f *ir.Function, v ir.Variable) bool {
	for _, in := range f.Inputs() {
		if in == v {
			return true
		}
	}
	for _, out := range f.Outputs() {
		if out == v {
			return true
		}
	}
	return false
}
