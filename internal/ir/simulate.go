package ir

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/value"
)

// SimulationError wraps a per-cycle functional-simulation failure
// (spec.md §7's Simulation-failure kind), e.g. a receive on an empty
// channel with drop-on-empty disabled.
type SimulationError struct {
	Function *Function
	Reason   string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("ir: simulation failed for %q: %s", e.Function, e.Reason)
}

// Simulate maps f's inputs to its outputs using ctx, per the semantics
// declared in spec.md §4.B for each kind.
func (f *Function) Simulate(ctx Context) (map[Variable]value.Value, error) {
	switch f.Kind {
	case Constant:
		return f.out1(f.Literal), nil

	case Reg:
		in, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "input not yet available"}
		}
		return f.fanOut(in), nil

	case Add, Sub, Mul, Div:
		a, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "first operand not yet available"}
		}
		b, ok := ctx.Input(f.inputs[1])
		if !ok {
			return nil, &SimulationError{f, "second operand not yet available"}
		}
		return f.arith(a, b)

	case ShiftL:
		in, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "input not yet available"}
		}
		return f.fanOut(in.Shl(f.ShiftAmount)), nil

	case ShiftR:
		in, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "input not yet available"}
		}
		return f.fanOut(in.Shr(f.ShiftAmount)), nil

	case Loop, LoopBegin:
		if prev, ok := ctx.PrevOutput(f.inputs[0]); ok {
			return f.out1(prev), nil
		}
		return f.out1(f.Literal), nil

	case LoopEnd:
		in, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "input not yet available"}
		}
		return f.out1(in), nil

	case Accumulate:
		acc, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "first operand not yet available"}
		}
		for i := 1; i < len(f.inputs); i++ {
			v, ok := ctx.Input(f.inputs[i])
			if !ok {
				return nil, &SimulationError{f, "operand not yet available"}
			}
			if i < len(f.signs) && !f.signs[i] {
				acc = acc.Sub(v)
			} else {
				acc = acc.Add(v)
			}
		}
		return f.fanOut(acc), nil

	case Send:
		v, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "value to send not yet available"}
		}
		if err := ctx.Send(f, v); err != nil {
			return nil, &SimulationError{f, err.Error()}
		}
		return nil, nil

	case Receive:
		v, ok := ctx.Receive(f)
		if !ok {
			if f.DropOnEmpty {
				return f.out1(f.Literal), nil
			}
			return nil, &SimulationError{f, "receive queue empty"}
		}
		return f.out1(v), nil

	case FramInput:
		v, ok := ctx.Input(Variable(fmt.Sprintf("$fram[%d]", f.Addr)))
		if !ok {
			return nil, &SimulationError{f, "cell has no preloaded value"}
		}
		return f.fanOut(v), nil

	case FramOutput:
		// The value travels to memory, not to another algorithm
		// variable, so there is no output map entry; it is still
		// observable externally (spec.md §8 invariant 5 tracks
		// send/framOutput variables alike), so it goes through Send too.
		v, ok := ctx.Input(f.inputs[0])
		if !ok {
			return nil, &SimulationError{f, "input not yet available"}
		}
		if err := ctx.Send(f, v); err != nil {
			return nil, &SimulationError{f, err.Error()}
		}
		return nil, nil

	default:
		return nil, &SimulationError{f, "unknown function kind"}
	}
}

func (f *Function) arith(a, b value.Value) (map[Variable]value.Value, error) {
	switch f.Kind {
	case Add:
		return f.fanOut(a.Add(b)), nil
	case Sub:
		return f.fanOut(a.Sub(b)), nil
	case Mul:
		return f.fanOut(a.Mul(b)), nil
	case Div:
		q, r := a.Div(b)
		out := map[Variable]value.Value{}
		if len(f.outputs) > 0 {
			out[f.outputs[0]] = q
		}
		if len(f.outputs) > 1 {
			out[f.outputs[1]] = r
		}
		return out, nil
	default:
		return nil, &SimulationError{f, "not an arithmetic kind"}
	}
}

func (f *Function) out1(v value.Value) map[Variable]value.Value {
	if len(f.outputs) == 0 {
		return nil
	}
	return map[Variable]value.Value{f.outputs[0]: v}
}

func (f *Function) fanOut(v value.Value) map[Variable]value.Value {
	out := make(map[Variable]value.Value, len(f.outputs))
	for _, o := range f.outputs {
		out[o] = v
	}
	return out
}
