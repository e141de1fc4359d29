package ir

import "fmt"

// BreakLoop replaces the given Loop leaf of algo with a LoopBegin/LoopEnd
// pseudo-function pair (spec.md §4.B), connected through a fresh
// internal variable that plays the role of the register cell holding
// the previous cycle's value. The loop's externally-visible output
// variable keeps its identity, so the returned Diff is empty — nothing
// downstream needs to learn a new name.
func BreakLoop(algo *Algorithm, target *Function) (*Algorithm, Diff, error) {
	if target.Kind != Loop {
		return nil, Diff{}, fmt.Errorf("ir: BreakLoop target %q is not a loop function", target)
	}

	prevVar := target.Outputs()[0].Suffixed(".prev")
	begin := NewLoopBegin(target.Literal, prevVar, target.Outputs()[0])
	end := NewLoopEnd(target.Inputs()[0], prevVar)

	found := false
	var leaves []*Graph
	for _, f := range algo.Functions() {
		if f == target {
			found = true
			leaves = append(leaves, Leaf(begin), Leaf(end))
			continue
		}
		leaves = append(leaves, Leaf(f))
	}
	if !found {
		return nil, Diff{}, fmt.Errorf("ir: BreakLoop target %q not found in algorithm %q", target, algo.Name)
	}

	return &Algorithm{Name: algo.Name, Graph: Cluster(leaves...)}, NewDiff(), nil
}

// OptimizeAccumulate merges a connected chain of add/sub functions whose
// intermediate results are each consumed by exactly one downstream
// function into a single Accumulate function (spec.md §4.B). chain must
// be given in evaluation order: chain[i].Inputs()[0] must be
// chain[i-1].Outputs()[0] for i>0. Like BreakLoop, the merge only
// removes intermediate variables that have no other consumer, so the
// returned Diff is empty.
func OptimizeAccumulate(algo *Algorithm, chain []*Function) (*Algorithm, Diff, error) {
	if len(chain) == 0 {
		return nil, Diff{}, fmt.Errorf("ir: OptimizeAccumulate requires a non-empty chain")
	}
	for _, f := range chain {
		if f.Kind != Add && f.Kind != Sub {
			return nil, Diff{}, fmt.Errorf("ir: OptimizeAccumulate chain member %q is not add/sub", f)
		}
	}

	inputs := []Variable{chain[0].Inputs()[0], chain[0].Inputs()[1]}
	signs := []bool{true, chain[0].Kind == Add}

	for i := 1; i < len(chain); i++ {
		prevOut := chain[i-1].Outputs()[0]
		if chain[i].Inputs()[0] != prevOut {
			return nil, Diff{}, fmt.Errorf(
				"ir: OptimizeAccumulate chain not connected at step %d (expected input %q, got %q)",
				i, prevOut, chain[i].Inputs()[0])
		}
		consumers := algo.Consumers(prevOut)
		if len(consumers) != 1 || consumers[0] != chain[i] {
			return nil, Diff{}, fmt.Errorf(
				"ir: OptimizeAccumulate intermediate result %q is not single-consumer", prevOut)
		}
		inputs = append(inputs, chain[i].Inputs()[1])
		signs = append(signs, chain[i].Kind == Add)
	}

	finalOut := chain[len(chain)-1].Outputs()[0]
	merged := NewAccumulate(inputs, signs, finalOut)

	inChain := make(map[*Function]bool, len(chain))
	for _, f := range chain {
		inChain[f] = true
	}

	inserted := false
	var leaves []*Graph
	for _, f := range algo.Functions() {
		if inChain[f] {
			if !inserted {
				leaves = append(leaves, Leaf(merged))
				inserted = true
			}
			continue
		}
		leaves = append(leaves, Leaf(f))
	}

	return &Algorithm{Name: algo.Name, Graph: Cluster(leaves...)}, NewDiff(), nil
}
