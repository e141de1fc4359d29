package ir

import (
	"fmt"
	"strings"

	"github.com/nitta-corp/nitta/internal/value"
)

// Kind enumerates the closed set of function tags (§3).
type Kind int

const (
	Constant Kind = iota
	Reg
	Add
	Sub
	Mul
	Div
	ShiftL
	ShiftR
	Loop
	Send
	Receive
	FramInput
	FramOutput

	// Accumulate, LoopBegin and LoopEnd are not part of the algorithm's
	// original closed tag set: they are produced by the refactors of
	// §4.B (optimize-accumulate merges an add/sub chain into a single
	// Accumulate; break-loop splits a Loop leaf into a LoopBegin/LoopEnd
	// pseudo-function pair) and behave like any other function from
	// that point on.
	Accumulate
	LoopBegin
	LoopEnd
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "const"
	case Reg:
		return "reg"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case ShiftL:
		return "shiftL"
	case ShiftR:
		return "shiftR"
	case Loop:
		return "loop"
	case Send:
		return "send"
	case Receive:
		return "receive"
	case FramInput:
		return "framInput"
	case FramOutput:
		return "framOutput"
	case Accumulate:
		return "accumulate"
	case LoopBegin:
		return "loopBegin"
	case LoopEnd:
		return "loopEnd"
	default:
		return "unknown"
	}
}

// Context is what a Function's Simulate needs from its caller: the
// current cycle's already-known input values, the previous cycle's
// output values (for Loop), and hooks for the two functions that talk
// to the outside world.
type Context interface {
	// Input returns the current-cycle value bound to v, or false if it
	// has not been computed yet.
	Input(v Variable) (value.Value, bool)
	// PrevOutput returns the previous cycle's value produced for v, or
	// false on the first cycle.
	PrevOutput(v Variable) (value.Value, bool)
	// Send publishes a value for a send function.
	Send(f *Function, v value.Value) error
	// Receive pulls the next value for a receive function. ok is false
	// when the external queue is empty.
	Receive(f *Function) (v value.Value, ok bool)
}

// Function is a typed record over the closed function-tag set of §3.
// It is a tagged union in spirit: fields not meaningful for a given
// Kind are simply left at their zero value.
type Function struct {
	Kind Kind

	inputs  []Variable
	outputs []Variable

	// Literal holds the constant/initial value for Constant and Loop,
	// nil otherwise.
	Literal value.Value
	// ShiftAmount holds the shift width for ShiftL/ShiftR.
	ShiftAmount int
	// Addr holds the memory address for FramInput/FramOutput.
	Addr int
	// DropOnEmpty allows Receive to yield the function's Literal (nil
	// for a receive built by NewReceive) instead of failing when the
	// external queue is empty.
	DropOnEmpty bool

	// signs selects add vs. subtract per input for Accumulate.
	signs []bool

	// label distinguishes structurally-identical functions in
	// different positions, since equality is by external presentation
	// (spec.md §3): two functions with the same kind/vars/literal but
	// different labels compare unequal.
	label string
}

func newFunction(kind Kind, inputs, outputs []Variable) *Function {
	return &Function{Kind: kind, inputs: inputs, outputs: outputs}
}

// NewConstant builds a constant(x, outs) function.
func NewConstant(x value.Value, out Variable) *Function {
	f := newFunction(Constant, nil, []Variable{out})
	f.Literal = x
	return f
}

// NewReg builds a reg(in, outs) function.
func NewReg(in Variable, outs ...Variable) *Function {
	return newFunction(Reg, []Variable{in}, outs)
}

// NewAdd builds an add(a, b, outs) function; every output carries the
// same sum (fan-out).
func NewAdd(a, b Variable, outs ...Variable) *Function {
	return newFunction(Add, []Variable{a, b}, outs)
}

// NewSub builds a sub(a, b, outs) function.
func NewSub(a, b Variable, outs ...Variable) *Function {
	return newFunction(Sub, []Variable{a, b}, outs)
}

// NewMul builds a mul(a, b, outs) function.
func NewMul(a, b Variable, outs ...Variable) *Function {
	return newFunction(Mul, []Variable{a, b}, outs)
}

// NewDiv builds a div(a, b, outs) function. outs[0] is the quotient;
// outs[1], if present, is the remainder.
func NewDiv(a, b Variable, outs ...Variable) *Function {
	return newFunction(Div, []Variable{a, b}, outs)
}

// NewShiftL builds a shiftL(in, amount, outs) function.
func NewShiftL(in Variable, amount int, outs ...Variable) *Function {
	f := newFunction(ShiftL, []Variable{in}, outs)
	f.ShiftAmount = amount
	return f
}

// NewShiftR builds a shiftR(in, amount, outs) function.
func NewShiftR(in Variable, amount int, outs ...Variable) *Function {
	f := newFunction(ShiftR, []Variable{in}, outs)
	f.ShiftAmount = amount
	return f
}

// NewLoop builds a loop(x0, in, out) function: out is x0 on the first
// cycle and the previous cycle's value of in thereafter.
func NewLoop(x0 value.Value, in, out Variable) *Function {
	f := newFunction(Loop, []Variable{in}, []Variable{out})
	f.Literal = x0
	return f
}

// NewSend builds a send(v) function.
func NewSend(v Variable) *Function {
	return newFunction(Send, []Variable{v}, nil)
}

// NewReceive builds a receive(out) function.
func NewReceive(out Variable, dropOnEmpty bool) *Function {
	f := newFunction(Receive, nil, []Variable{out})
	f.DropOnEmpty = dropOnEmpty
	return f
}

// NewFramInput builds a framInput(addr, outs) function.
func NewFramInput(addr int, outs ...Variable) *Function {
	f := newFunction(FramInput, nil, outs)
	f.Addr = addr
	return f
}

// NewFramOutput builds a framOutput(addr, in) function.
func NewFramOutput(addr int, in Variable) *Function {
	f := newFunction(FramOutput, []Variable{in}, nil)
	f.Addr = addr
	return f
}

// NewAccumulate builds the function optimize-accumulate (§4.B) produces
// when it merges a connected chain of add/sub nodes: signs[i] selects
// whether inputs[i] is added (true) or subtracted (false).
func NewAccumulate(inputs []Variable, signs []bool, outs ...Variable) *Function {
	f := newFunction(Accumulate, inputs, outs)
	f.signs = append([]bool(nil), signs...)
	return f
}

// NewLoopBegin builds the head pseudo-function break-loop (§4.B) splits
// a Loop leaf into: it behaves like the original Loop for the purpose
// of evaluation-order breaking, producing out from x0/prevIn.
func NewLoopBegin(x0 value.Value, prevIn, out Variable) *Function {
	f := newFunction(LoopBegin, []Variable{prevIn}, []Variable{out})
	f.Literal = x0
	return f
}

// NewLoopEnd builds the tail pseudo-function break-loop produces: it
// forwards the loop's driving input through to the variable LoopBegin
// reads as prevIn on the following cycle.
func NewLoopEnd(in, nextPrevIn Variable) *Function {
	return newFunction(LoopEnd, []Variable{in}, []Variable{nextPrevIn})
}

// WithLabel attaches a disambiguating label and returns the receiver,
// so structurally-identical functions bound to different positions
// remain distinguishable by external presentation.
func (f *Function) WithLabel(label string) *Function {
	f.label = label
	return f
}

// Inputs returns the function's input variables, in declared order.
func (f *Function) Inputs() []Variable { return f.inputs }

// Outputs returns the function's output variables, in declared order.
func (f *Function) Outputs() []Variable { return f.outputs }

// BreaksEvaluationLoop reports whether this function is the kind that
// legitimately breaks a cyclic dependency in the evaluation order by
// reading a previous-cycle value instead of the current one.
func (f *Function) BreaksEvaluationLoop() bool { return f.Kind == Loop || f.Kind == LoopBegin }

// MayCauseInternalLock reports whether this function's admission can
// create a mutual-wait between two PUs: true for the binary arithmetic
// kinds, whose two inputs might each be produced by a PU waiting on the
// other (spec.md §3's Lock mechanism exists precisely to detect this).
func (f *Function) MayCauseInternalLock() bool {
	switch f.Kind {
	case Add, Sub, Mul, Div, Accumulate:
		return true
	default:
		return false
	}
}

// Locks returns the ordering constraints this function's admission to a
// PU would export: for binary arithmetic, the second input is locked
// behind the first being available, matching §3's `locked_var is lockBy
// another_var` shape and the declared input evaluation order.
func (f *Function) Locks() []Lock {
	if !f.MayCauseInternalLock() || len(f.inputs) < 2 {
		return nil
	}
	locks := make([]Lock, 0, len(f.inputs)-1)
	for i := 1; i < len(f.inputs); i++ {
		locks = append(locks, Lock{Locked: f.inputs[i], By: f.inputs[0]})
	}
	return locks
}

// Patch substitutes variables according to d: input-side renames apply
// to Inputs(), output-side renames apply to Outputs(). Entries in d
// that don't name one of this function's variables are no-ops.
func (f *Function) Patch(d Diff) *Function {
	patched := *f
	patched.inputs = renameAll(f.inputs, d.InputRenames)
	patched.outputs = renameAll(f.outputs, d.OutputRenames)
	return &patched
}

// Equal reports structural equality by external presentation (spec.md
// §3): same string form, independent of pointer identity.
func (f *Function) Equal(other *Function) bool {
	return f.String() == other.String()
}

// String renders the function the way the scenario examples in
// spec.md §8/S4 do: "outputs = ... = inputs op".
func (f *Function) String() string {
	lhs := strings.Join(varStrings(f.outputs), " = ")
	var rhs string
	switch f.Kind {
	case Constant:
		rhs = fmt.Sprintf("%v", f.Literal)
	case Reg:
		rhs = varStrings(f.inputs)[0]
	case Add:
		rhs = strings.Join(varStrings(f.inputs), " + ")
	case Sub:
		rhs = strings.Join(varStrings(f.inputs), " - ")
	case Mul:
		rhs = strings.Join(varStrings(f.inputs), " * ")
	case Div:
		rhs = strings.Join(varStrings(f.inputs), " / ")
	case ShiftL:
		rhs = fmt.Sprintf("%s << %d", f.inputs[0], f.ShiftAmount)
	case ShiftR:
		rhs = fmt.Sprintf("%s >> %d", f.inputs[0], f.ShiftAmount)
	case Loop:
		rhs = fmt.Sprintf("loop(%v, %s)", f.Literal, f.inputs[0])
	case Send:
		lhs = "send"
		rhs = string(f.inputs[0])
	case Receive:
		rhs = "receive()"
	case FramInput:
		rhs = fmt.Sprintf("framInput(%d)", f.Addr)
	case FramOutput:
		lhs = fmt.Sprintf("framOutput(%d)", f.Addr)
		rhs = string(f.inputs[0])
	case Accumulate:
		terms := make([]string, len(f.inputs))
		for i, v := range f.inputs {
			sign := "+"
			if i < len(f.signs) && !f.signs[i] {
				sign = "-"
			}
			if i == 0 && sign == "+" {
				terms[i] = string(v)
			} else {
				terms[i] = sign + " " + string(v)
			}
		}
		rhs = strings.Join(terms, " ")
	case LoopBegin:
		rhs = fmt.Sprintf("loopBegin(%v, %s)", f.Literal, f.inputs[0])
	case LoopEnd:
		rhs = fmt.Sprintf("loopEnd(%s)", f.inputs[0])
	default:
		rhs = "?"
	}
	if f.label != "" {
		return fmt.Sprintf("%s = %s {%s}", lhs, rhs, f.label)
	}
	return fmt.Sprintf("%s = %s", lhs, rhs)
}

func varStrings(vs []Variable) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
