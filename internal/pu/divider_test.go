package pu

import (
	"testing"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

func TestDividerResultIsUnavailableBeforePipelineAndLatencyElapse(t *testing.T) {
	div := NewDivider("DIV1", 2, 1, 3)
	bound, _ := div.TryBind(ir.NewDiv("a", "b", "q", "r"))

	afterA, _ := bound.EndpointDecision(EndpointDecision{Role: process.TargetRole("a"), At: value.Point(0)})
	afterB, _ := afterA.EndpointDecision(EndpointDecision{Role: process.TargetRole("b"), At: value.Point(1)})

	// ready = started(0) + pipeline(2) + latency(1) = 3; requesting the
	// result one tick early must be refused.
	if _, err := afterB.EndpointDecision(EndpointDecision{
		Role: process.SourceRole("q", "r"),
		At:   value.Point(2),
	}); err == nil {
		t.Fatalf("expected option violation reading the quotient before the pipeline drains")
	}

	done, err := afterB.EndpointDecision(EndpointDecision{
		Role: process.SourceRole("q", "r"),
		At:   value.Point(3),
	})
	if err != nil {
		t.Fatalf("unexpected error reading the quotient once ready: %v", err)
	}
	if len(done.EndpointOptions()) != 0 {
		t.Fatalf("expected no remaining options once both outputs are read")
	}
}

func TestDividerRejectsResultReadPastTheRottenDeadline(t *testing.T) {
	div := NewDivider("DIV1", 1, 1, 2)
	bound, _ := div.TryBind(ir.NewDiv("a", "b", "q", "r"))

	afterA, _ := bound.EndpointDecision(EndpointDecision{Role: process.TargetRole("a"), At: value.Point(0)})
	afterB, _ := afterA.EndpointDecision(EndpointDecision{Role: process.TargetRole("b"), At: value.Point(1)})

	// ready = 0 + 1 + 1 = 2; deadline = ready + rottenSlack(2) = 4.
	if _, err := afterB.EndpointDecision(EndpointDecision{
		Role: process.SourceRole("q", "r"),
		At:   value.Point(5),
	}); err == nil {
		t.Fatalf("expected the rotten deadline to reject a read past tick 4")
	}
}
