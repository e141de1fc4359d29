package process

import "github.com/nitta-corp/nitta/internal/value"

// WhatHappensAt returns every step whose interval covers t.
func (r *Record) WhatHappensAt(t value.Tick) []Step {
	var out []Step
	for _, s := range r.steps {
		if s.At.Contains(t) {
			out = append(out, s)
		}
	}
	return out
}

// InstructionAt returns every microinstruction scheduled at t.
func (r *Record) InstructionAt(t value.Tick) []Instruction {
	var out []Instruction
	for _, s := range r.WhatHappensAt(t) {
		if id, ok := s.Desc.(InstructionDesc); ok {
			out = append(out, id.Op)
		}
	}
	return out
}

// EndpointAt returns every endpoint role scheduled at t.
func (r *Record) EndpointAt(t value.Tick) []Role {
	var out []Role
	for _, s := range r.WhatHappensAt(t) {
		if er, ok := s.Desc.(EndpointRoleDesc); ok {
			out = append(out, er.Role)
		}
	}
	return out
}

// TransferredVariables returns every variable named by a Source
// EndpointRole step anywhere in the record — the set of variables that
// have actually been broadcast onto a bus, used by completion checks
// (spec.md §3's completed-model invariant).
func (r *Record) TransferredVariables() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range r.steps {
		er, ok := s.Desc.(EndpointRoleDesc)
		if !ok || !er.Role.IsSource {
			continue
		}
		for _, v := range er.Role.Sources {
			name := string(v)
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// FunctionSteps returns every step whose description covers the
// realization of a function, along with the function it covers.
func (r *Record) FunctionSteps() []Step {
	var out []Step
	for _, s := range r.steps {
		if _, ok := s.Desc.(FunctionDesc); ok {
			out = append(out, s)
		}
	}
	return out
}
