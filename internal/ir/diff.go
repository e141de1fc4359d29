package ir

// Diff is a pair of variable-renaming mappings: one for a function's
// input side, one for its output side. Patch (see function.go) applies
// each mapping only to the side it names; entries that don't match any
// variable on that side of the patched function are simply no-ops.
type Diff struct {
	InputRenames  map[Variable]Variable
	OutputRenames map[Variable]Variable
}

// NewDiff builds an empty Diff ready to accumulate renames.
func NewDiff() Diff {
	return Diff{
		InputRenames:  map[Variable]Variable{},
		OutputRenames: map[Variable]Variable{},
	}
}

// RenameInput records that from is replaced by to wherever it appears on
// a patched function's input side.
func (d Diff) RenameInput(from, to Variable) Diff {
	d.InputRenames[from] = to
	return d
}

// RenameOutput records an output-side rename.
func (d Diff) RenameOutput(from, to Variable) Diff {
	d.OutputRenames[from] = to
	return d
}

// Reverse builds the diff that undoes d: each mapping is inverted
// (replacement back to original) so that patch(d.Reverse(), patch(d, f))
// reproduces f, per spec.md §8 invariant 6 (Patch round-trip).
func (d Diff) Reverse() Diff {
	r := NewDiff()
	for from, to := range d.InputRenames {
		r.InputRenames[to] = from
	}
	for from, to := range d.OutputRenames {
		r.OutputRenames[to] = from
	}
	return r
}

// Merge combines d with other, with other's entries taking precedence
// on key collisions.
func (d Diff) Merge(other Diff) Diff {
	m := NewDiff()
	for k, v := range d.InputRenames {
		m.InputRenames[k] = v
	}
	for k, v := range other.InputRenames {
		m.InputRenames[k] = v
	}
	for k, v := range d.OutputRenames {
		m.OutputRenames[k] = v
	}
	for k, v := range other.OutputRenames {
		m.OutputRenames[k] = v
	}
	return m
}

// IsEmpty reports whether the diff has no renames at all.
func (d Diff) IsEmpty() bool {
	return len(d.InputRenames) == 0 && len(d.OutputRenames) == 0
}

func renameAll(vars []Variable, renames map[Variable]Variable) []Variable {
	out := make([]Variable, len(vars))
	for i, v := range vars {
		if to, ok := renames[v]; ok {
			out[i] = to
		} else {
			out[i] = v
		}
	}
	return out
}
