package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/nitta-corp/nitta/internal/bus"
	"github.com/nitta-corp/nitta/internal/ir"
)

// TreeCache maps (parent_state_hash, decision_index) to the already-
// computed child model, so concurrent workers exploring the same tree
// never redo each other's work (§5). The first worker to compute a
// child wins the cache entry; later, identical computations are simply
// discarded in favor of the cached one.
type TreeCache struct {
	entries sync.Map // key: string -> *bus.Network
}

// NewTreeCache builds an empty cache.
func NewTreeCache() *TreeCache { return &TreeCache{} }

func cacheKey(parentHash string, decisionIndex int) string {
	return fmt.Sprintf("%s/%d", parentHash, decisionIndex)
}

// Get returns the cached child for (parentHash, decisionIndex), if any.
func (c *TreeCache) Get(parentHash string, decisionIndex int) (*bus.Network, bool) {
	v, ok := c.entries.Load(cacheKey(parentHash, decisionIndex))
	if !ok {
		return nil, false
	}
	return v.(*bus.Network), true
}

// PutIfAbsent stores child under (parentHash, decisionIndex) unless
// another worker already did, and returns whichever network now sits
// in the slot.
func (c *TreeCache) PutIfAbsent(parentHash string, decisionIndex int, child *bus.Network) *bus.Network {
	actual, _ := c.entries.LoadOrStore(cacheKey(parentHash, decisionIndex), child)
	return actual.(*bus.Network)
}

// Hash derives a deterministic content hash for n, used as the parent
// half of a cache key. It summarizes the queued functions, each sub-PU's
// bound functions and process step count, and the network's own
// next_tick — not pointer identity, so two structurally
// identical networks produced by different code paths hash equal.
func Hash(n *bus.Network) string {
	h := sha256.New()
	fmt.Fprintf(h, "tick=%d\n", n.NextTick())

	remains := functionStrings(n.Remains())
	sort.Strings(remains)
	fmt.Fprintf(h, "remains=%v\n", remains)

	tags := n.Tags()
	sort.Strings(tags)
	for _, tag := range tags {
		bound := functionStrings(n.BoundFunctions(tag))
		sort.Strings(bound)
		fmt.Fprintf(h, "pu[%s].bound=%v steps=%d\n", tag, bound, len(n.PU(tag).Process().Steps()))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func functionStrings(fs []*ir.Function) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}
