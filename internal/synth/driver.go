package synth

import (
	"sync"
	"time"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/obslog"
)

// Driver runs a Policy over the search tree rooted at a model state,
// using a shared TreeCache across whatever concurrency the policy
// introduces (§5).
type Driver struct {
	Policy          Policy
	Cache           *TreeCache
	RepetitionLimit int // default 2, per §4.G's termination rule

	mu      sync.Mutex
	history []string // recent refactor decisions' resulting pending-variable-set signatures
}

// NewDriver builds a driver with a fresh cache and the default
// repetition limit.
func NewDriver(policy Policy) *Driver {
	return &Driver{Policy: policy, Cache: NewTreeCache(), RepetitionLimit: 2}
}

// Search walks the tree from root until it finds a complete node, runs
// out of options, or the deadline passes, and returns that node
// together with its final classification (§4.G, §5's cancellation
// rule: on deadline, return the best complete node seen or the deepest
// in-progress node).
func (d *Driver) Search(root *Node, deadline time.Time) (*Node, Status) {
	result := d.explore(root, deadline)
	return result, result.Status()
}

func (d *Driver) explore(node *Node, deadline time.Time) *Node {
	status := node.Status()
	if status == Complete || status == Dead {
		return node
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		obslog.Trace("synth: deadline reached", "depth", node.Depth)
		return node
	}

	opts := d.filterRepetition(node, d.Policy.Choose(node))
	if len(opts) == 0 {
		return node
	}

	if len(opts) == 1 {
		child := d.applyCached(node, opts[0])
		if child == nil {
			return node
		}
		return d.explore(child, deadline)
	}

	results := make([]*Node, len(opts))
	var wg sync.WaitGroup
	for i, o := range opts {
		wg.Add(1)
		go func(i int, o scored) {
			defer wg.Done()
			child := d.applyCached(node, o)
			if child == nil {
				return
			}
			results[i] = d.explore(child, deadline)
		}(i, o)
	}
	wg.Wait()

	// Ordering guarantee 3 of §5: the first complete result in the
	// policy's order of opts wins, regardless of goroutine completion
	// order.
	for _, r := range results {
		if r != nil && r.Status() == Complete {
			return r
		}
	}

	var best *Node
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || deeper(r, best) {
			best = r
		}
	}
	if best == nil {
		return node
	}
	return best
}

func deeper(a, b *Node) bool { return a.Depth > b.Depth }

func (d *Driver) applyCached(node *Node, o scored) *Node {
	hash := Hash(node.Model)
	if cached, ok := d.Cache.Get(hash, o.index); ok {
		return node.child(cached, o.opt)
	}
	child, err := o.opt.Apply(node.Model)
	if err != nil {
		obslog.Trace("synth: option application failed, pruning branch", "option", o.opt.String(), "err", classifyApplyErr(err))
		return nil
	}
	won := d.Cache.PutIfAbsent(hash, o.index, child)
	obslog.Trace("synth: decision applied", "depth", node.Depth+1, "option", o.opt.String())
	return node.child(won, o.opt)
}

// filterRepetition enforces §4.G's termination rule: a break-loop,
// optimize-accumulate or resolve-deadlock decision is rejected if it
// would not change the
// pending variable set relative to the last RepetitionLimit repeated
// refactors.
func (d *Driver) filterRepetition(node *Node, opts []scored) []scored {
	out := make([]scored, 0, len(opts))
	for _, o := range opts {
		if !isRefactor(o.opt.Kind()) {
			out = append(out, o)
			continue
		}
		sig := pendingSignature(node.Model.Remains())
		if d.repeats(sig) {
			obslog.Trace("synth: refactor rejected", "option", o.opt.String(), "err", ErrRepetitionLimit)
			continue
		}
		out = append(out, o)
	}
	return out
}

func pendingSignature(fs []*ir.Function) string {
	s := ""
	for _, f := range fs {
		s += f.String() + "|"
	}
	return s
}

func (d *Driver) repeats(sig string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, h := range d.history {
		if h == sig {
			count++
		}
	}
	d.history = append(d.history, sig)
	if len(d.history) > d.RepetitionLimit*4 {
		d.history = d.history[len(d.history)-d.RepetitionLimit*4:]
	}
	return count >= d.RepetitionLimit
}
