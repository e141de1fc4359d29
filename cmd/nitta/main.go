// Command nitta synthesizes a schedule for a dataflow algorithm on a
// declared microarchitecture (spec.md §6): it loads the algorithm and
// the target microarchitecture, runs the synthesis driver, and prints
// the resulting schedule, optionally alongside a functional-simulation
// trace and a tick-by-tick microcode dump.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tebeka/atexit"

	"github.com/nitta-corp/nitta/internal/bus"
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/microarch"
	"github.com/nitta-corp/nitta/internal/obslog"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/synth"
	"github.com/nitta-corp/nitta/internal/testvec"
	"github.com/nitta-corp/nitta/internal/value"
)

func main() {
	atexit.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("nitta", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nitta <microarch.yaml> <algorithm.yaml> [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	typeFlag := fs.String("type", "int", "algorithm value type: int or fxM.N")
	fsim := fs.Bool("fsim", false, "print the functional simulation trace")
	lsim := fs.Bool("lsim", false, "print the synthesized microcode, tick by tick")
	cycles := fs.Int("n", 1, "number of algorithm cycles to simulate/replay")
	ioSync := fs.String("io-sync", "", "IO synchronization mode override: sync, async, onboard")
	verbose := fs.Bool("v", false, "enable trace-level logging")
	timeout := fs.Duration("timeout", 30*time.Second, "synthesis deadline")
	policyName := fs.String("policy", "greedy", "search policy: greedy, obvious, bounded")
	traceFile := fs.String("trace-file", "", "write trace-level logging to this file instead of stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}

	level := obslog.LevelTrace + 1
	if *verbose {
		level = obslog.LevelTrace
	}
	out := os.Stderr
	if *traceFile != "" {
		f, err := os.Create(*traceFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out = f
		atexit.Register(func() { f.Close() })
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	microPath, algPath := fs.Arg(0), fs.Arg(1)

	spec, err := microarch.Load(microPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *ioSync != "" {
		spec.IOSync = microarch.IOSyncMode(*ioSync)
	}

	vt, err := parseValueKind(*typeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	algo, err := loadAlgorithm(algPath, vt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	builder := microarch.NewBuilder(spec)
	model, err := builder.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	model = model.WithAlgorithm(algo)

	policy, err := selectPolicy(*policyName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	allVars := make([]string, 0, len(algo.Variables()))
	for _, v := range algo.Variables() {
		allVars = append(allVars, string(v))
	}
	root := synth.NewRoot(model, allVars)

	driver := synth.NewDriver(policy)
	deadline := time.Now().Add(*timeout)
	result, status := driver.Search(root, deadline)

	fmt.Printf("synthesis: %s (depth %d)\n", status, result.Depth)
	if err := status.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		printRemains(result.Model)
		return 1
	}

	printSchedule(result.Model)

	if *fsim {
		if err := runFunctionalTrace(algo, *cycles); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if *lsim {
		printMicrocode(result.Model, builder, *cycles)
	}

	return 0
}

func selectPolicy(name string) (synth.Policy, error) {
	switch name {
	case "greedy":
		return synth.GreedyBestFirst{}, nil
	case "obvious":
		return synth.ObviousBinding{}, nil
	case "bounded":
		return synth.BoundedAllThreads{K: 3, D: 4}, nil
	default:
		return nil, fmt.Errorf("nitta: unknown --policy %q", name)
	}
}

func printRemains(model *bus.Network) {
	if len(model.Remains()) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetTitle("Unbound functions")
	t.AppendHeader(table.Row{"Function"})
	for _, f := range model.Remains() {
		t.AppendRow(table.Row{f.String()})
	}
	fmt.Println(t.Render())
}

func printSchedule(model *bus.Network) {
	rec := model.Aggregate()
	t := table.NewWriter()
	t.SetTitle("Schedule")
	t.AppendHeader(table.Row{"ID", "Time", "Kind", "Payload"})
	for _, dto := range rec.MarshalSteps() {
		t.AppendRow(table.Row{dto.ID, dto.Time.String(), dto.Kind, dto.Payload})
	}
	fmt.Println(t.Render())
}

// fixedInput reports an empty queue for every receive function, since
// the CLI has no external data source wired in: a receive without
// drop-on-empty then fails the functional trace. A caller scripting real
// inputs would implement testvec.AlgorithmInput itself.
type fixedInput struct{}

func (fixedInput) Receive(f *ir.Function) (value.Value, bool) { return nil, false }

type traceConsumer struct {
	rows [][]string
}

func (c *traceConsumer) Consume(cycle int, f *ir.Function, v value.Value) {
	for len(c.rows) <= cycle {
		c.rows = append(c.rows, nil)
	}
	c.rows[cycle] = append(c.rows[cycle], fmt.Sprintf("%s=%s", f, v))
}

func runFunctionalTrace(algo *ir.Algorithm, n int) error {
	sim := testvec.New(algo, fixedInput{})
	consumer := &traceConsumer{}
	tables, err := sim.Run(n, consumer)
	if err != nil {
		return fmt.Errorf("nitta: functional simulation: %w", err)
	}

	t := table.NewWriter()
	t.SetTitle("Functional trace")
	t.AppendHeader(table.Row{"Cycle", "Observed values"})
	for cycle := range tables {
		var row string
		if cycle < len(consumer.rows) {
			for i, s := range consumer.rows[cycle] {
				if i > 0 {
					row += ", "
				}
				row += s
			}
		}
		t.AppendRow(table.Row{cycle, row})
	}
	fmt.Println(t.Render())
	return nil
}

func printMicrocode(model *bus.Network, builder microarch.Builder, cycles int) {
	portMap := builder.PortMap()
	order := signalOrder(portMap)

	period := int(model.NextTick())
	if period <= 0 {
		period = 1
	}

	t := table.NewWriter()
	t.SetTitle("Microcode")
	t.AppendHeader(table.Row{"Tick", "Word"})
	for c := 0; c < cycles; c++ {
		dump := model.DumpMicrocode(c*period, c*period+period-1, portMap, order)
		for i, word := range dump {
			t.AppendRow(table.Row{c*period + i, word})
		}
	}
	fmt.Println(t.Render())
}

// signalOrder collects every global signal name the port map projects
// onto, sorted, as the fixed column order DumpMicrocode renders.
func signalOrder(portMap map[string]map[pu.Signal]pu.Signal) []pu.Signal {
	seen := map[pu.Signal]bool{}
	var names []string
	for _, m := range portMap {
		for _, global := range m {
			if !seen[global] {
				seen[global] = true
				names = append(names, string(global))
			}
		}
	}
	sort.Strings(names)
	out := make([]pu.Signal, len(names))
	for i, s := range names {
		out[i] = pu.Signal(s)
	}
	return out
}
