// Package microarch decodes the microarchitecture declaration (§6) —
// sub-PU tags, kinds and parameters, the port-to-signal map, the bus
// width and the IO synchronization mode — and builds the bus network it
// describes.
package microarch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nitta-corp/nitta/internal/pu"
)

// IOSyncMode mirrors pu.SyncMode at the YAML boundary, decoded from the
// lower-case names spec.md §6 names: sync, async, onboard.
type IOSyncMode string

const (
	Sync    IOSyncMode = "sync"
	Async   IOSyncMode = "async"
	OnBoard IOSyncMode = "onboard"
)

func (m IOSyncMode) toPU() pu.SyncMode {
	switch m {
	case Async:
		return pu.Async
	case OnBoard:
		return pu.OnBoard
	default:
		return pu.Sync
	}
}

// PUDecl declares one sub-PU: its tag, kind, and kind-specific
// parameters. Only the fields relevant to Kind need be set; others are
// ignored.
type PUDecl struct {
	Tag  string `yaml:"tag"`
	Kind string `yaml:"kind"` // fram, accumulator, multiplier, divider, shift, spi

	// Fram
	Size int `yaml:"size,omitempty"`

	// Divider
	Pipeline    int `yaml:"pipeline,omitempty"`
	Latency     int `yaml:"latency,omitempty"`
	RottenSlack int `yaml:"rotten_slack,omitempty"`

	// SPI
	RingSize int    `yaml:"ring_size,omitempty"`
	Mode     string `yaml:"mode,omitempty"` // sync, async, onboard
}

// Spec is the YAML-decoded microarchitecture declaration.
type Spec struct {
	Tag      string              `yaml:"tag"`
	BusWidth int                 `yaml:"bus_width"`
	IOSync   IOSyncMode          `yaml:"io_sync"`
	PUs      []PUDecl            `yaml:"pus"`
	Ports    map[string]PortsMap `yaml:"ports"`
}

// PortsMap is one sub-PU's local-signal-name -> bus-global-signal-name
// mapping, decoded as plain strings and converted to pu.Signal by the
// builder.
type PortsMap map[string]string

// Load decodes a microarchitecture declaration from a YAML file,
// mirroring the teacher's LoadProgramFileFromYAML convention.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("microarch: reading %s: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("microarch: decoding %s: %w", path, err)
	}
	return &spec, nil
}
