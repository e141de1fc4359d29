package synth

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nitta-corp/nitta/internal/bus"
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/value"
)

func TestSynth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Synth Suite")
}

func varStrings(vs []ir.Variable) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

var _ = Describe("Node classification", func() {
	It("is dead at the root when no sub-PU can host the only function", func() {
		fm := pu.NewFram("FM1", 2)
		model := bus.New("BUS1", 32, []pu.PU{fm})
		model = model.WithAlgorithm(&ir.Algorithm{Name: "s", Graph: ir.Cluster(ir.Leaf(ir.NewMul("a", "b", "c")))})

		node := NewRoot(model, []string{"a", "b", "c"})
		Expect(node.Status()).To(Equal(Dead))
	})

	It("is complete once every variable has been transferred and nothing remains", func() {
		fm := pu.NewFram("FM1", 2)
		acc := pu.NewAccumulator("ACC1")

		model := bus.New("BUS1", 32, []pu.PU{fm, acc})
		algo := &ir.Algorithm{Name: "s1", Graph: ir.Cluster(
			ir.Leaf(ir.NewFramInput(0, "a")),
			ir.Leaf(ir.NewFramInput(1, "b")),
			ir.Leaf(ir.NewAdd("a", "b", "c")),
			ir.Leaf(ir.NewFramOutput(2, "c")),
		)}
		model = model.WithAlgorithm(algo)

		root := NewRoot(model, varStrings(algo.Variables()))
		driver := NewDriver(GreedyBestFirst{})
		result, status := driver.Search(root, time.Now().Add(5*time.Second))

		Expect(status).To(Equal(Complete))
		Expect(result.Model.Remains()).To(BeEmpty())
	})
})

var _ = Describe("TreeCache", func() {
	It("hashes two structurally identical networks the same way", func() {
		build := func() *bus.Network {
			fm := pu.NewFram("FM1", 2)
			acc := pu.NewAccumulator("ACC1")
			return bus.New("BUS1", 32, []pu.PU{fm, acc})
		}
		Expect(Hash(build())).To(Equal(Hash(build())))
	})

	It("hashes networks with different pending work differently", func() {
		fm := pu.NewFram("FM1", 2)
		acc := pu.NewAccumulator("ACC1")
		plain := bus.New("BUS1", 32, []pu.PU{fm, acc})
		withWork := plain.WithAlgorithm(&ir.Algorithm{Name: "s", Graph: ir.Cluster(ir.Leaf(ir.NewAdd("a", "b", "c")))})

		Expect(Hash(plain)).NotTo(Equal(Hash(withWork)))
	})

	It("lets only the first PutIfAbsent for a key win", func() {
		cache := NewTreeCache()
		fm := pu.NewFram("FM1", 2)
		first := bus.New("BUS1", 32, []pu.PU{fm})
		second := bus.New("BUS1", 32, []pu.PU{fm})

		won := cache.PutIfAbsent("h1", 0, first)
		Expect(won).To(BeIdenticalTo(first))

		won = cache.PutIfAbsent("h1", 0, second)
		Expect(won).To(BeIdenticalTo(first))

		got, ok := cache.Get("h1", 0)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(first))
	})
})

var _ = Describe("Policies", func() {
	buildNode := func() *Node {
		shift := pu.NewShift("SHIFT1")
		model := bus.New("BUS1", 32, []pu.PU{shift})

		lit := value.IntKind{Width: 8, Signed: true, Policy: value.Saturate}.Literal(0)
		algo := &ir.Algorithm{Name: "s", Graph: ir.Cluster(
			ir.Leaf(ir.NewShiftL("in", 2, "out")),
			ir.Leaf(ir.NewLoop(lit, "prev", "cur")),
		)}
		model = model.WithAlgorithm(algo)
		return NewRoot(model, varStrings(algo.Variables()))
	}

	It("greedy takes the highest-scoring option, here the sole-alternative bind over breakLoop", func() {
		node := buildNode()
		chosen := GreedyBestFirst{}.Choose(node)
		Expect(chosen).To(HaveLen(1))
		Expect(chosen[0].opt.Kind()).To(Equal("bind"))
	})

	It("obvious binding shortcuts to the sole-alternative bind regardless of score", func() {
		node := buildNode()
		chosen := ObviousBinding{}.Choose(node)
		Expect(chosen).To(HaveLen(1))
		Expect(chosen[0].opt.Kind()).To(Equal("bind"))
	})

	It("bounded-all-threads branches at shallow depth and narrows below D", func() {
		node := buildNode()
		policy := BoundedAllThreads{K: 2, D: 1}

		shallow := policy.Choose(node)
		Expect(shallow).To(HaveLen(2))

		deep := &Node{Model: node.Model, Depth: 1, allVars: node.allVars}
		narrowed := policy.Choose(deep)
		Expect(narrowed).To(HaveLen(1))
	})
})
