package ir

import (
	"testing"

	"github.com/nitta-corp/nitta/internal/value"
)

// stubContext is a minimal Context for unit-testing a single function's
// Simulate in isolation.
type stubContext struct {
	inputs  map[Variable]value.Value
	prev    map[Variable]value.Value
	sent    []value.Value
	recvQ   []value.Value
}

func (c *stubContext) Input(v Variable) (value.Value, bool) {
	val, ok := c.inputs[v]
	return val, ok
}

func (c *stubContext) PrevOutput(v Variable) (value.Value, bool) {
	val, ok := c.prev[v]
	return val, ok
}

func (c *stubContext) Send(f *Function, v value.Value) error {
	c.sent = append(c.sent, v)
	return nil
}

func (c *stubContext) Receive(f *Function) (value.Value, bool) {
	if len(c.recvQ) == 0 {
		return nil, false
	}
	v := c.recvQ[0]
	c.recvQ = c.recvQ[1:]
	return v, true
}

func TestSimulateAddFansOutToAllOutputs(t *testing.T) {
	kind := value.IntKind{Width: 32, Signed: true, Policy: value.Saturate}
	f := NewAdd("a", "b", "c", "d")
	ctx := &stubContext{inputs: map[Variable]value.Value{
		"a": kind.Literal(2),
		"b": kind.Literal(3),
	}}

	out, err := f.Simulate(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["c"].Bits() != 5 || out["d"].Bits() != 5 {
		t.Fatalf("expected both outputs to be 5, got c=%v d=%v", out["c"], out["d"])
	}
}

func TestSimulateLoopUsesPreviousCycleValue(t *testing.T) {
	kind := value.IntKind{Width: 32, Signed: true, Policy: value.Saturate}
	f := NewLoop(kind.Literal(0), "in", "out")

	first, err := f.Simulate(&stubContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first["out"].Bits() != 0 {
		t.Fatalf("expected x0=0 on first cycle, got %v", first["out"])
	}

	ctx := &stubContext{prev: map[Variable]value.Value{"in": kind.Literal(7)}}
	second, err := f.Simulate(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second["out"].Bits() != 7 {
		t.Fatalf("expected previous cycle value 7, got %v", second["out"])
	}
}

func TestSimulateReceiveFailsOnEmptyWithoutDrop(t *testing.T) {
	f := NewReceive("out", false)
	_, err := f.Simulate(&stubContext{})
	if err == nil {
		t.Fatalf("expected simulation-failure error on empty queue")
	}
}

func TestFibonacciInternal(t *testing.T) {
	// Two feedback loops plus an add wired to reproduce the Fibonacci
	// sequence described in spec.md's S1 scenario: a1(t)=c(t-1),
	// b1(t)=a1(t-1), c(t)=a1(t)+b1(t), with a1(0)=0, b1(0)=1.
	kind := value.IntKind{Width: 32, Signed: true, Policy: value.Saturate}
	loopA := NewLoop(kind.Literal(0), "c", "a1")
	loopB := NewLoop(kind.Literal(1), "a1", "b1")
	add := NewAdd("a1", "b1", "c")

	prev := map[Variable]value.Value{}
	got := make([]int64, 0, 5)
	for cycle := 0; cycle < 5; cycle++ {
		ctx := &stubContext{inputs: map[Variable]value.Value{}, prev: prev}
		outA, err := loopA.Simulate(ctx)
		if err != nil {
			t.Fatalf("cycle %d loopA: %v", cycle, err)
		}
		for k, v := range outA {
			ctx.inputs[k] = v
		}
		outB, err := loopB.Simulate(ctx)
		if err != nil {
			t.Fatalf("cycle %d loopB: %v", cycle, err)
		}
		for k, v := range outB {
			ctx.inputs[k] = v
		}
		outC, err := add.Simulate(ctx)
		if err != nil {
			t.Fatalf("cycle %d add: %v", cycle, err)
		}

		got = append(got, ctx.inputs["a1"].Bits())
		prev = map[Variable]value.Value{
			"c":  outC["c"],
			"a1": ctx.inputs["a1"],
		}
	}

	want := []int64{0, 1, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cycle %d: got a1=%d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}
