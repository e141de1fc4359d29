package pu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nitta-corp/nitta/internal/value"
)

// Signal names a single control wire on the shared bus. Concrete PUs
// declare their own signal names; the bus network (internal/bus)
// projects them through a per-PU port map before merging.
type Signal string

// MicrocodeWord is the control-signal bundle effective at one tick: the
// asserted subset of a PU's (or the network's) signals. Signals absent
// from the word default to logical low, so the empty word is every PU's
// defined no-op (§4.D).
type MicrocodeWord map[Signal]bool

// NoOp is the word every PU and the network fall back to outside any
// scheduled instruction.
func NoOp() MicrocodeWord { return MicrocodeWord{} }

// Merge combines w with other, both effective at tick t. Signals
// asserted by only one side carry through unchanged ("latest-writer-
// wins" has no effect when the sets are disjoint); a signal asserted by
// both sides to different levels is a contract violation and panics
// rather than silently resolving, per spec.md §9's open question on
// microcode merge rules, naming the offending (tick, signal) pair.
func (w MicrocodeWord) Merge(other MicrocodeWord, t value.Tick) MicrocodeWord {
	out := make(MicrocodeWord, len(w)+len(other))
	for s, v := range w {
		out[s] = v
	}
	for s, v := range other {
		if existing, ok := out[s]; ok && existing != v {
			panic(fmt.Sprintf("pu: conflicting microcode at tick %d on signal %q: %v vs %v", t, s, existing, v))
		}
		out[s] = v
	}
	return out
}

// HexDump renders w as a hexadecimal bit-string len(order) bits wide,
// one bit per signal of order with order[0] in the most significant bit
// (§6's microcode dump). Signals of w not present in order are ignored;
// bits for signals missing from w are zero. Only the first 64 signals
// of order are encoded.
func HexDump(w MicrocodeWord, order []Signal) string {
	width := len(order)
	bytes := (width + 3) / 4
	var bits uint64
	for i, s := range order {
		if i >= 64 {
			break
		}
		if w[s] {
			bits |= 1 << uint(width-1-i)
		}
	}
	return fmt.Sprintf("%0*X", bytes, bits)
}

func (w MicrocodeWord) String() string {
	names := make([]string, 0, len(w))
	for s, v := range w {
		if v {
			names = append(names, string(s))
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
