package pu

import (
	"testing"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

func TestAccumulatorRejectsNonMatchingKind(t *testing.T) {
	acc := NewAccumulator("ACC1")
	mul := ir.NewMul("a", "b", "c")
	if _, err := acc.TryBind(mul); err == nil {
		t.Fatalf("expected bind rejection for a mul function on an accumulator")
	}
}

func TestAccumulatorRunsOneFunctionInFlight(t *testing.T) {
	acc := NewAccumulator("ACC1")
	add := ir.NewAdd("a", "b", "c")

	bound, err := acc.TryBind(add)
	if err != nil {
		t.Fatalf("unexpected bind rejection: %v", err)
	}

	opts := bound.EndpointOptions()
	if len(opts) != 1 || opts[0].Role.IsSource || opts[0].Role.Target != "a" {
		t.Fatalf("expected a Target(a) option first, got %+v", opts)
	}

	afterA, err := bound.EndpointDecision(EndpointDecision{
		Role: process.TargetRole("a"),
		At:   value.Point(0),
	})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}

	opts = afterA.EndpointOptions()
	if len(opts) != 1 || opts[0].Role.IsSource || opts[0].Role.Target != "b" {
		t.Fatalf("expected a Target(b) option second, got %+v", opts)
	}

	afterB, err := afterA.EndpointDecision(EndpointDecision{
		Role: process.TargetRole("b"),
		At:   value.Point(1),
	})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}

	opts = afterB.EndpointOptions()
	if len(opts) != 1 || !opts[0].Role.IsSource || len(opts[0].Role.Sources) != 1 || opts[0].Role.Sources[0] != "c" {
		t.Fatalf("expected a Source(c) option once both inputs are committed, got %+v", opts)
	}

	done, err := afterB.EndpointDecision(EndpointDecision{
		Role: process.SourceRole("c"),
		At:   value.Point(2),
	})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}

	if len(done.EndpointOptions()) != 0 {
		t.Fatalf("expected no remaining options once the function finalizes, got %+v", done.EndpointOptions())
	}
	if len(done.Locks()) != 0 {
		t.Fatalf("expected no current function in flight after finalize, locks=%+v", done.Locks())
	}

	fnSteps := done.Process().FunctionSteps()
	if len(fnSteps) != 1 {
		t.Fatalf("expected exactly one FunctionDesc step, got %d", len(fnSteps))
	}
}

func TestAccumulatorLocksReflectPendingInputOrder(t *testing.T) {
	acc := NewAccumulator("ACC1")
	add := ir.NewAdd("a", "b", "c")
	bound, _ := acc.TryBind(add)

	locks := bound.Locks()
	if len(locks) != 1 || locks[0].Locked != "b" || locks[0].By != "a" {
		t.Fatalf("unexpected locks before any endpoint decision: %+v", locks)
	}
}

func TestMultiplierAndShiftAcceptOnlyTheirOwnKind(t *testing.T) {
	mult := NewMultiplier("MUL1")
	if _, err := mult.TryBind(ir.NewAdd("a", "b", "c")); err == nil {
		t.Fatalf("multiplier should reject add")
	}
	if _, err := mult.TryBind(ir.NewMul("a", "b", "c")); err != nil {
		t.Fatalf("multiplier should accept mul: %v", err)
	}

	shift := NewShift("SHIFT1")
	if _, err := shift.TryBind(ir.NewMul("a", "b", "c")); err == nil {
		t.Fatalf("shift should reject mul")
	}
	if _, err := shift.TryBind(ir.NewShiftL("a", 2, "c")); err != nil {
		t.Fatalf("shift should accept shiftL: %v", err)
	}
}

func TestMicrocodeAtAssertsEnableOnlyDuringTheComputeTick(t *testing.T) {
	mult := NewMultiplier("MUL1")
	bound, _ := mult.TryBind(ir.NewMul("a", "b", "c"))

	afterA, _ := bound.EndpointDecision(EndpointDecision{Role: process.TargetRole("a"), At: value.Point(0)})
	afterB, _ := afterA.EndpointDecision(EndpointDecision{Role: process.TargetRole("b"), At: value.Point(1)})
	done, _ := afterB.EndpointDecision(EndpointDecision{Role: process.SourceRole("c"), At: value.Point(2)})

	if word := done.MicrocodeAt(2); !word["MUL1_EN"] {
		t.Fatalf("expected MUL1_EN asserted at the compute tick, got %+v", word)
	}
	if word := done.MicrocodeAt(0); len(word) != 0 {
		t.Fatalf("expected no-op microcode outside the compute tick, got %+v", word)
	}
}
