package microarch

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/bus"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/value"
)

// Builder assembles a *bus.Network from a Spec with a single Build call,
// after the teacher's config.DeviceBuilder; it has no fluent With*
// setters.
type Builder struct {
	spec *Spec
}

// NewBuilder starts building the network spec describes.
func NewBuilder(spec *Spec) Builder {
	return Builder{spec: spec}
}

// Build constructs the sub-PUs spec.PUs declares and wires them into a
// bus.Network.
func (b Builder) Build() (*bus.Network, error) {
	subPUs := make([]pu.PU, 0, len(b.spec.PUs))
	for _, decl := range b.spec.PUs {
		p, err := buildPU(decl)
		if err != nil {
			return nil, fmt.Errorf("microarch: building %q: %w", decl.Tag, err)
		}
		subPUs = append(subPUs, p)
	}
	return bus.New(b.spec.Tag, b.spec.BusWidth, subPUs), nil
}

func buildPU(decl PUDecl) (pu.PU, error) {
	switch decl.Kind {
	case "fram":
		size := decl.Size
		if size <= 0 {
			size = 1
		}
		return pu.NewFram(decl.Tag, size), nil
	case "accumulator":
		return pu.NewAccumulator(decl.Tag), nil
	case "multiplier":
		return pu.NewMultiplier(decl.Tag), nil
	case "shift":
		return pu.NewShift(decl.Tag), nil
	case "divider":
		return pu.NewDivider(decl.Tag, decl.Pipeline, decl.Latency, value.Tick(decl.RottenSlack)), nil
	case "spi":
		ringSize := decl.RingSize
		if ringSize <= 0 {
			ringSize = 1
		}
		return pu.NewSPI(decl.Tag, ringSize, IOSyncMode(decl.Mode).toPU()), nil
	default:
		return nil, fmt.Errorf("microarch: unknown PU kind %q", decl.Kind)
	}
}

// PortMap builds the bus-wide port projection table
// (tag -> local signal -> global signal) bus.Network.MicrocodeAt needs,
// from the spec's declared port mappings.
func (b Builder) PortMap() map[string]map[pu.Signal]pu.Signal {
	out := make(map[string]map[pu.Signal]pu.Signal, len(b.spec.Ports))
	for tag, ports := range b.spec.Ports {
		m := make(map[pu.Signal]pu.Signal, len(ports))
		for local, global := range ports {
			m[pu.Signal(local)] = pu.Signal(global)
		}
		out[tag] = m
	}
	return out
}
