package synth

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/bus"
	"github.com/nitta-corp/nitta/internal/value"
)

// Option is one scoreable, applicable move out of a model state: a bind,
// a dataflow transfer, or one of the three refactors the bus network
// exports (§4.F treats these five problem kinds uniformly).
type Option interface {
	Kind() string
	String() string
	Apply(n *bus.Network) (*bus.Network, error)
}

// GlobalMetrics are the node-wide option counts §4.G's scoring formula
// reads alongside each option's own specific metrics.
type GlobalMetrics struct {
	Bindings  int
	Dataflows int
	Refactors int
}

// scored pairs an option with the score it earned at the node it was
// offered from; policies sort by this when they pick.
type scored struct {
	opt   Option
	score int
	index int // decision_index within this node, per §5 ordering guarantee
}

type bindOption struct{ bus.BindOption }

func (o bindOption) Kind() string { return "bind" }
func (o bindOption) String() string {
	return fmt.Sprintf("bind %s to %s", o.Function, o.PUTag)
}
func (o bindOption) Apply(n *bus.Network) (*bus.Network, error) {
	return n.BindDecision(o.BindOption)
}

// score implements the Binding formula of §4.G.
func (o bindOption) score() int {
	m := o.Metric
	switch {
	case m.Critical:
		return 2000
	case m.Alternatives == 1:
		return 500
	default:
		return 200 + 10*m.Enablement - 2*int(m.Restlessness)
	}
}

type dataflowOption struct {
	bus.DataflowOption
	nextTick value.Tick
}

func (o dataflowOption) Kind() string { return "dataflow" }
func (o dataflowOption) String() string {
	return fmt.Sprintf("dataflow %s from %s", o.Vars(), o.SrcTag)
}
func (o dataflowOption) Apply(n *bus.Network) (*bus.Network, error) {
	return n.DataflowDecision(o.DataflowOption)
}

func (o dataflowOption) restrictedTime() bool {
	return o.SrcOpt.Constraint.Available.Sup() < value.BoundedMax
}

// score implements the Dataflow formula of §4.G. waitCount is how many
// dataflow options this node offered in total.
func (o dataflowOption) score(waitCount int) int {
	wait := int(o.EarliestStart - o.nextTick)
	switch {
	case waitCount >= 2:
		return 10000 + 200 - wait
	case o.restrictedTime():
		return 300
	default:
		return 200 - wait
	}
}

const (
	breakLoopBase          = 400
	optimizeAccumulateBase = 350
	resolveDeadlockBase    = 5000
	refactorLockBonus      = 50
)

type breakLoopOption struct{ bus.BreakLoopOption }

func (o breakLoopOption) Kind() string   { return "breakLoop" }
func (o breakLoopOption) String() string { return fmt.Sprintf("breakLoop %s", o.Function) }
func (o breakLoopOption) Apply(n *bus.Network) (*bus.Network, error) {
	return n.BreakLoopDecision(o.BreakLoopOption)
}
func (o breakLoopOption) score() int { return breakLoopBase + refactorLockBonus*o.Locks }

type optimizeAccumulateOption struct{ bus.OptimizeAccumulateOption }

func (o optimizeAccumulateOption) Kind() string   { return "optimizeAccumulate" }
func (o optimizeAccumulateOption) String() string { return fmt.Sprintf("optimizeAccumulate %v", o.Chain) }
func (o optimizeAccumulateOption) Apply(n *bus.Network) (*bus.Network, error) {
	return n.OptimizeAccumulateDecision(o.OptimizeAccumulateOption)
}
func (o optimizeAccumulateOption) score() int {
	return optimizeAccumulateBase + refactorLockBonus*o.Locks
}

type resolveDeadlockOption struct{ bus.ResolveDeadlockOption }

func (o resolveDeadlockOption) Kind() string   { return "resolveDeadlock" }
func (o resolveDeadlockOption) String() string { return fmt.Sprintf("resolveDeadlock %s", o.Variable) }
func (o resolveDeadlockOption) Apply(n *bus.Network) (*bus.Network, error) {
	return n.ResolveDeadlockDecision(o.ResolveDeadlockOption)
}
func (o resolveDeadlockOption) score() int {
	return resolveDeadlockBase + refactorLockBonus*o.Locks
}

// isRefactor reports whether kind is one of the three control-flow
// refactor problems, for the driver's repetition filter.
func isRefactor(kind string) bool {
	return kind == "breakLoop" || kind == "optimizeAccumulate" || kind == "resolveDeadlock"
}
