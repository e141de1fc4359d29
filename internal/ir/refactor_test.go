package ir

import (
	"testing"

	"github.com/nitta-corp/nitta/internal/value"
)

func TestBreakLoopSplitsIntoBeginEnd(t *testing.T) {
	kind := value.IntKind{Width: 32, Signed: true, Policy: value.Saturate}
	loop := NewLoop(kind.Literal(0), "in", "out")
	other := NewAdd("x", "y", "z")
	algo := &Algorithm{Name: "a", Graph: Cluster(Leaf(loop), Leaf(other))}

	patched, diff, err := BreakLoop(algo, loop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.IsEmpty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}

	fs := patched.Functions()
	if len(fs) != 3 {
		t.Fatalf("expected 3 functions after split, got %d", len(fs))
	}
	var sawBegin, sawEnd bool
	for _, f := range fs {
		if f.Kind == LoopBegin {
			sawBegin = true
			if f.Outputs()[0] != "out" {
				t.Fatalf("expected LoopBegin to keep output variable %q, got %q", "out", f.Outputs()[0])
			}
		}
		if f.Kind == LoopEnd {
			sawEnd = true
			if f.Inputs()[0] != "in" {
				t.Fatalf("expected LoopEnd to keep input variable %q, got %q", "in", f.Inputs()[0])
			}
		}
	}
	if !sawBegin || !sawEnd {
		t.Fatalf("expected both LoopBegin and LoopEnd in result")
	}
}

func TestOptimizeAccumulateMergesChain(t *testing.T) {
	t1 := NewAdd("a", "b", "t1")
	t2 := NewSub("t1", "c", "t2")
	final := NewAdd("t2", "d", "out")
	algo := &Algorithm{Name: "a", Graph: Cluster(Leaf(t1), Leaf(t2), Leaf(final))}

	patched, _, err := OptimizeAccumulate(algo, []*Function{t1, t2, final})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fs := patched.Functions()
	if len(fs) != 1 {
		t.Fatalf("expected single merged function, got %d: %v", len(fs), fs)
	}
	if fs[0].Kind != Accumulate {
		t.Fatalf("expected Accumulate kind, got %v", fs[0].Kind)
	}
	if fs[0].Outputs()[0] != "out" {
		t.Fatalf("expected final output variable %q, got %q", "out", fs[0].Outputs()[0])
	}
	wantInputs := []Variable{"a", "b", "c", "d"}
	if len(fs[0].Inputs()) != len(wantInputs) {
		t.Fatalf("expected inputs %v, got %v", wantInputs, fs[0].Inputs())
	}
	for i, v := range wantInputs {
		if fs[0].Inputs()[i] != v {
			t.Fatalf("input %d: expected %q, got %q", i, v, fs[0].Inputs()[i])
		}
	}
}

func TestOptimizeAccumulateRejectsMultiConsumerIntermediate(t *testing.T) {
	t1 := NewAdd("a", "b", "t1")
	t2 := NewSub("t1", "c", "t2")
	sideUse := NewAdd("t1", "z", "w")
	algo := &Algorithm{Name: "a", Graph: Cluster(Leaf(t1), Leaf(t2), Leaf(sideUse))}

	_, _, err := OptimizeAccumulate(algo, []*Function{t1, t2})
	if err == nil {
		t.Fatalf("expected error because t1 has a second consumer")
	}
}
