package synth

import "sort"

// Policy picks which option(s) a node's children should come from
// (§4.G). All three built-in policies must agree on the final schedule
// whenever the model admits a unique completion — they differ only in
// how eagerly they branch on the way there.
type Policy interface {
	Name() string
	// Choose returns, in priority order, the options worth expanding
	// from node. A policy that never branches returns at most one.
	Choose(node *Node) []scored
}

func sortedByScore(opts []scored) []scored {
	out := append([]scored(nil), opts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		// Metric ties are broken by decision_index (§5 ordering
		// guarantee 2), which collectOptions already assigned in a
		// fixed, deterministic order.
		return out[i].index < out[j].index
	})
	return out
}

// GreedyBestFirst always takes the single top-scoring option.
type GreedyBestFirst struct{}

func (GreedyBestFirst) Name() string { return "greedy-best-first" }

func (GreedyBestFirst) Choose(node *Node) []scored {
	opts := sortedByScore(node.collectOptions())
	if len(opts) == 0 {
		return nil
	}
	return opts[:1]
}

// ObviousBinding takes the lowest-decision_index binding with exactly
// one alternative for as long as any exists, falling back to greedy
// scoring once none remain — an early-commit shortcut for the common
// case where a function has nowhere else to go.
type ObviousBinding struct{}

func (ObviousBinding) Name() string { return "obvious-binding" }

func (ObviousBinding) Choose(node *Node) []scored {
	opts := node.collectOptions()
	for _, o := range opts {
		b, ok := o.opt.(bindOption)
		if ok && b.Metric.Alternatives == 1 {
			return []scored{o}
		}
	}
	ranked := sortedByScore(opts)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[:1]
}

// BoundedAllThreads expands the top K options per node for the first D
// levels of the tree, then behaves like GreedyBestFirst below that
// depth (§4.G).
type BoundedAllThreads struct {
	K int
	D int
}

func (p BoundedAllThreads) Name() string { return "bounded-all-threads" }

func (p BoundedAllThreads) Choose(node *Node) []scored {
	ranked := sortedByScore(node.collectOptions())
	if len(ranked) == 0 {
		return nil
	}
	if node.Depth >= p.D {
		return ranked[:1]
	}
	k := p.K
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
