package pu

import (
	"testing"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

func TestSPIRejectsFunctionsOtherThanSendAndReceive(t *testing.T) {
	spi := NewSPI("SPI1", 4, Sync)
	if _, err := spi.TryBind(ir.NewAdd("a", "b", "c")); err == nil {
		t.Fatalf("expected spi to reject an add function")
	}
}

func TestSPIRunsQueuedFunctionsStrictlyInRingOrder(t *testing.T) {
	spi := NewSPI("SPI1", 4, Sync)

	bound, err := spi.TryBind(ir.NewSend("a"))
	if err != nil {
		t.Fatalf("unexpected bind rejection for send: %v", err)
	}
	bound, err = bound.TryBind(ir.NewReceive("b", false))
	if err != nil {
		t.Fatalf("unexpected bind rejection for receive: %v", err)
	}

	opts := bound.EndpointOptions()
	if len(opts) != 1 || opts[0].Role.IsSource || opts[0].Role.Target != "a" {
		t.Fatalf("expected the send's Target(a) offered first, got %+v", opts)
	}

	afterSend, err := bound.EndpointDecision(EndpointDecision{Role: process.TargetRole("a"), At: value.Point(0)})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}

	opts = afterSend.EndpointOptions()
	if len(opts) != 1 || !opts[0].Role.IsSource || opts[0].Role.Sources[0] != "b" {
		t.Fatalf("expected the receive's Source(b) offered next, got %+v", opts)
	}

	done, err := afterSend.EndpointDecision(EndpointDecision{Role: process.SourceRole("b"), At: value.Point(1)})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}
	if len(done.EndpointOptions()) != 0 {
		t.Fatalf("expected no remaining options once the ring drains, got %+v", done.EndpointOptions())
	}
	if fnSteps := done.Process().FunctionSteps(); len(fnSteps) != 2 {
		t.Fatalf("expected two FunctionDesc steps, one per ring slot, got %d", len(fnSteps))
	}
}

func TestSPIMicrocodeAtAssertsDirOutOnlyForSend(t *testing.T) {
	spi := NewSPI("SPI1", 4, Sync)
	bound, _ := spi.TryBind(ir.NewSend("a"))

	done, err := bound.EndpointDecision(EndpointDecision{Role: process.TargetRole("a"), At: value.Point(0)})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}

	word := done.MicrocodeAt(0)
	if !word["SPI1_EN"] || !word["SPI1_DIR_OUT"] {
		t.Fatalf("expected SPI1_EN and SPI1_DIR_OUT asserted on a send tick, got %+v", word)
	}

	spi2 := NewSPI("SPI1", 4, Sync)
	bound2, _ := spi2.TryBind(ir.NewReceive("b", false))
	done2, err := bound2.EndpointDecision(EndpointDecision{Role: process.SourceRole("b"), At: value.Point(0)})
	if err != nil {
		t.Fatalf("unexpected decision error: %v", err)
	}
	word2 := done2.MicrocodeAt(0)
	if !word2["SPI1_EN"] || word2["SPI1_DIR_OUT"] {
		t.Fatalf("expected SPI1_EN without DIR_OUT on a receive tick, got %+v", word2)
	}
}
