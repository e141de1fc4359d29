package bus

import (
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/value"
)

func TestBus(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bus Suite")
}

var _ = Describe("Network binding", func() {
	var ctrl *gomock.Controller

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("only offers placements the sub-PU actually admits", func() {
		add := ir.NewAdd("a", "b", "c")

		accepting := NewMockPU(ctrl)
		accepting.EXPECT().Tag().Return("P1").AnyTimes()
		accepting.EXPECT().TryBind(add).Return(accepting, nil)

		rejecting := NewMockPU(ctrl)
		rejecting.EXPECT().Tag().Return("P2").AnyTimes()
		rejecting.EXPECT().TryBind(add).Return(nil, &pu.ErrBindRejected{Tag: "P2", Reason: "wrong kind"})

		net := New("BUS1", 8, []pu.PU{accepting, rejecting})
		net = net.WithAlgorithm(&ir.Algorithm{Name: "a", Graph: ir.Cluster(ir.Leaf(add))})

		opts := net.BindingOptions()
		Expect(opts).To(HaveLen(1))
		Expect(opts[0].PUTag).To(Equal("P1"))
		Expect(opts[0].Function).To(Equal(add))
	})

	It("propagates the sub-PU's rejection error through BindDecision", func() {
		add := ir.NewAdd("a", "b", "c")

		rejecting := NewMockPU(ctrl)
		rejecting.EXPECT().Tag().Return("P2").AnyTimes()
		rejecting.EXPECT().TryBind(add).Return(nil, &pu.ErrBindRejected{Tag: "P2", Reason: "wrong kind"})

		net := New("BUS1", 8, []pu.PU{rejecting})
		_, err := net.BindDecision(BindOption{Function: add, PUTag: "P2"})
		Expect(err).To(HaveOccurred())
	})

	It("moves the function from remains to the chosen sub-PU on success", func() {
		add := ir.NewAdd("a", "b", "c")
		acc := pu.NewAccumulator("ACC1")

		net := New("BUS1", 8, []pu.PU{acc})
		net = net.WithAlgorithm(&ir.Algorithm{Name: "a", Graph: ir.Cluster(ir.Leaf(add))})

		opts := net.BindingOptions()
		Expect(opts).To(HaveLen(1))

		next, err := net.BindDecision(opts[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Remains()).To(BeEmpty())
		Expect(next.BoundFunctions("ACC1")).To(ConsistOf(add))
	})
})

var _ = Describe("Network dataflow", func() {
	It("transfers a value from one sub-PU's Source to another's Target", func() {
		srcAcc := pu.NewAccumulator("ACC1")
		dstAcc := pu.NewAccumulator("ACC2")

		add := ir.NewAdd("x", "y", "out")
		bound, err := srcAcc.TryBind(add)
		Expect(err).NotTo(HaveOccurred())
		bound, err = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("x"), At: value.Point(0)})
		Expect(err).NotTo(HaveOccurred())
		bound, err = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("y"), At: value.Point(1)})
		Expect(err).NotTo(HaveOccurred())

		consume := ir.NewAdd("out", "z", "w")
		dstBound, err := dstAcc.TryBind(consume)
		Expect(err).NotTo(HaveOccurred())

		net := New("BUS1", 8, []pu.PU{bound, dstBound})

		opts := net.DataflowOptions()
		Expect(opts).NotTo(BeEmpty())

		var chosen DataflowOption
		found := false
		for _, o := range opts {
			if o.SrcTag == "ACC1" {
				chosen = o
				found = true
				break
			}
		}
		Expect(found).To(BeTrue())
		Expect(chosen.Vars()).To(ConsistOf(ir.Variable("out")))

		next, err := net.DataflowDecision(chosen)
		Expect(err).NotTo(HaveOccurred())

		transported := next.TransferredVariables()
		Expect(transported).To(ContainElement("out"))
	})

	It("never offers an option with an empty target set", func() {
		srcAcc := pu.NewAccumulator("ACC1")
		add := ir.NewAdd("x", "y", "out")
		bound, _ := srcAcc.TryBind(add)
		bound, _ = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("x"), At: value.Point(0)})
		bound, _ = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("y"), At: value.Point(1)})

		// No second sub-PU exists to receive "out": no option should be
		// produced at all.
		net := New("BUS1", 8, []pu.PU{bound})
		Expect(net.DataflowOptions()).To(BeEmpty())
	})
})

var _ = Describe("Network refactors", func() {
	It("finds a deadlock as a symmetric pair of mutual locks", func() {
		accA := pu.NewAccumulator("ACC1")
		boundA, _ := accA.TryBind(ir.NewAdd("b", "a", "x"))
		accB := pu.NewAccumulator("ACC2")
		boundB, _ := accB.TryBind(ir.NewAdd("a", "b", "y"))

		net := New("BUS1", 8, []pu.PU{boundA, boundB})
		opts := net.DeadlockOptions()

		var vars []ir.Variable
		for _, o := range opts {
			vars = append(vars, o.Variable)
		}
		Expect(vars).To(ConsistOf(ir.Variable("a"), ir.Variable("b")))
	})

	It("replaces a queued loop with its begin/end pair", func() {
		lit := value.IntKind{Width: 8, Signed: true, Policy: value.Saturate}.Literal(0)
		loop := ir.NewLoop(lit, "prev", "cur")

		net := New("BUS1", 8, nil)
		net = net.WithAlgorithm(&ir.Algorithm{Name: "a", Graph: ir.Cluster(ir.Leaf(loop))})

		opts := net.BreakLoopOptions()
		Expect(opts).To(HaveLen(1))

		next, err := net.BreakLoopDecision(opts[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Remains()).To(HaveLen(2))
		kinds := []ir.Kind{next.Remains()[0].Kind, next.Remains()[1].Kind}
		Expect(kinds).To(ConsistOf(ir.LoopBegin, ir.LoopEnd))
	})

	It("merges a chain of add/sub into one accumulate function", func() {
		f1 := ir.NewAdd("a", "b", "s1")
		f2 := ir.NewSub("s1", "c", "s2")

		net := New("BUS1", 8, nil)
		net = net.WithAlgorithm(&ir.Algorithm{Name: "a", Graph: ir.Cluster(ir.Leaf(f1), ir.Leaf(f2))})

		opts := net.OptimizeAccumulateOptions()
		Expect(opts).To(HaveLen(1))
		Expect(opts[0].Chain).To(Equal([]*ir.Function{f1, f2}))

		next, err := net.OptimizeAccumulateDecision(opts[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Remains()).To(HaveLen(1))
		Expect(next.Remains()[0].Kind).To(Equal(ir.Accumulate))
	})
})

var _ = Describe("Network aggregation", func() {
	It("relates a Transport step to the endpoint roles it bridges", func() {
		srcAcc := pu.NewAccumulator("ACC1")
		add := ir.NewAdd("x", "y", "out")
		bound, _ := srcAcc.TryBind(add)
		bound, _ = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("x"), At: value.Point(0)})
		bound, _ = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("y"), At: value.Point(1)})

		dstAcc := pu.NewAccumulator("ACC2")
		consume := ir.NewAdd("out", "z", "w")
		dstBound, _ := dstAcc.TryBind(consume)

		net := New("BUS1", 8, []pu.PU{bound, dstBound})
		opts := net.DataflowOptions()
		Expect(opts).NotTo(BeEmpty())

		next, err := net.DataflowDecision(opts[0])
		Expect(err).NotTo(HaveOccurred())

		rec := next.Aggregate()
		dtos := rec.MarshalSteps()

		var transportID process.StepID
		for _, d := range dtos {
			if d.Kind == "instruction" {
				transportID = d.ID
			}
		}
		Expect(transportID).NotTo(BeEmpty())

		var transportRelations []process.StepID
		for _, d := range dtos {
			if d.ID == transportID {
				transportRelations = d.Relations
			}
		}
		Expect(transportRelations).NotTo(BeEmpty())
	})

	It("produces a stable step count independent of map iteration order", func() {
		srcAcc := pu.NewAccumulator("ACC1")
		add := ir.NewAdd("x", "y", "out")
		bound, _ := srcAcc.TryBind(add)
		bound, _ = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("x"), At: value.Point(0)})
		bound, _ = bound.EndpointDecision(pu.EndpointDecision{Role: process.TargetRole("y"), At: value.Point(1)})

		net := New("BUS1", 8, []pu.PU{bound})
		first := net.Aggregate().MarshalSteps()
		second := net.Aggregate().MarshalSteps()

		diff := cmp.Diff(len(first), len(second))
		Expect(diff).To(BeEmpty())
	})
})
