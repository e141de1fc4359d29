package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/value"
)

// funcDecl is the CLI's own minimal YAML realization of the algorithm
// input contract (spec.md §6): the front-end that would normally
// produce an ir.Algorithm is out of scope, so the command line reads
// this flat declaration and builds one directly.
type funcDecl struct {
	Kind    string   `yaml:"kind"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
	Literal string   `yaml:"literal,omitempty"`
	Amount  int      `yaml:"amount,omitempty"`
	Addr    int      `yaml:"addr,omitempty"`
	Drop    bool     `yaml:"drop_on_empty,omitempty"`
	Signs   []bool   `yaml:"signs,omitempty"`
}

type algFile struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"` // int or fxM.N, set by --type unless overridden here
	Functions []funcDecl `yaml:"functions"`
}

func loadAlgorithm(path string, valueType valueKind) (*ir.Algorithm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("nitta: reading %s: %w", path, err)
	}
	var af algFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("nitta: decoding %s: %w", path, err)
	}
	if af.Type != "" {
		vt, err := parseValueKind(af.Type)
		if err != nil {
			return nil, fmt.Errorf("nitta: %s: %w", path, err)
		}
		valueType = vt
	}

	leaves := make([]*ir.Graph, 0, len(af.Functions))
	for i, d := range af.Functions {
		f, err := buildFunction(d, valueType)
		if err != nil {
			return nil, fmt.Errorf("nitta: function %d: %w", i, err)
		}
		leaves = append(leaves, ir.Leaf(f))
	}

	name := af.Name
	if name == "" {
		name = path
	}
	return &ir.Algorithm{Name: name, Graph: ir.Cluster(leaves...)}, nil
}

func buildFunction(d funcDecl, vt valueKind) (*ir.Function, error) {
	vars := func(ss []string) []ir.Variable {
		out := make([]ir.Variable, len(ss))
		for i, s := range ss {
			out[i] = ir.Variable(s)
		}
		return out
	}
	in, out := vars(d.Inputs), vars(d.Outputs)

	switch strings.ToLower(d.Kind) {
	case "constant":
		lit, err := vt.parse(d.Literal)
		if err != nil {
			return nil, err
		}
		return ir.NewConstant(lit, out[0]), nil
	case "reg":
		return ir.NewReg(in[0], out...), nil
	case "add":
		return ir.NewAdd(in[0], in[1], out...), nil
	case "sub":
		return ir.NewSub(in[0], in[1], out...), nil
	case "mul":
		return ir.NewMul(in[0], in[1], out...), nil
	case "div":
		return ir.NewDiv(in[0], in[1], out...), nil
	case "shiftl":
		return ir.NewShiftL(in[0], d.Amount, out...), nil
	case "shiftr":
		return ir.NewShiftR(in[0], d.Amount, out...), nil
	case "loop":
		lit, err := vt.parse(d.Literal)
		if err != nil {
			return nil, err
		}
		return ir.NewLoop(lit, in[0], out[0]), nil
	case "send":
		return ir.NewSend(in[0]), nil
	case "receive":
		return ir.NewReceive(out[0], d.Drop), nil
	case "framinput":
		return ir.NewFramInput(d.Addr, out...), nil
	case "framoutput":
		return ir.NewFramOutput(d.Addr, in[0]), nil
	case "accumulate":
		return ir.NewAccumulate(in, d.Signs, out...), nil
	default:
		return nil, fmt.Errorf("unknown function kind %q", d.Kind)
	}
}

// valueKind selects how CLI-supplied literals parse, per --type.
type valueKind struct {
	fixed bool
	width int
	frac  int
}

func parseValueKind(s string) (valueKind, error) {
	if s == "int" || s == "" {
		return valueKind{width: 32}, nil
	}
	if strings.HasPrefix(s, "fx") {
		rest := strings.TrimPrefix(s, "fx")
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			return valueKind{}, fmt.Errorf("nitta: invalid --type %q, want fxM.N", s)
		}
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return valueKind{}, fmt.Errorf("nitta: invalid --type %q: %w", s, err)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return valueKind{}, fmt.Errorf("nitta: invalid --type %q: %w", s, err)
		}
		return valueKind{fixed: true, width: m + n, frac: n}, nil
	}
	return valueKind{}, fmt.Errorf("nitta: unknown --type %q", s)
}

func (vt valueKind) parse(lit string) (value.Value, error) {
	if lit == "" {
		lit = "0"
	}
	if vt.fixed {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, fmt.Errorf("nitta: invalid fixed-point literal %q: %w", lit, err)
		}
		kind := value.FixedKind{Width: vt.width, Frac: vt.frac, Policy: value.Saturate}
		return kind.FromFloat(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("nitta: invalid integer literal %q: %w", lit, err)
	}
	kind := value.IntKind{Width: vt.width, Signed: true, Policy: value.Saturate}
	return kind.Literal(i), nil
}
