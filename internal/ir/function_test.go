package ir

import "testing"

func TestPatchRendersExpectedStringForms(t *testing.T) {
	f := NewAdd("a", "b", "c", "d")

	if got, want := f.String(), "c = d = a + b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	afterInput := f.Patch(NewDiff().RenameInput("a", "a'"))
	if got, want := afterInput.String(), "c = d = a' + b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	afterOutput := f.Patch(NewDiff().RenameOutput("c", "c'"))
	if got, want := afterOutput.String(), "c' = d = a + b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	mixed := NewDiff()
	mixed.InputRenames["b"] = "b'"
	mixed.InputRenames["d"] = "d!"
	mixed.OutputRenames["d"] = "d'"
	mixed.OutputRenames["b"] = "b!"
	afterMixed := f.Patch(mixed)
	if got, want := afterMixed.String(), "c = d' = a + b'"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPatchRoundTrips(t *testing.T) {
	f := NewAdd("a", "b", "c", "d")
	d := NewDiff().RenameInput("a", "a2").RenameOutput("c", "c2")

	patched := f.Patch(d)
	restored := patched.Patch(d.Reverse())

	if !f.Equal(restored) {
		t.Fatalf("patch round-trip failed: got %q, want %q", restored, f)
	}
}

func TestEqualityIsByPresentationNotIdentity(t *testing.T) {
	a := NewAdd("x", "y", "z")
	b := NewAdd("x", "y", "z")
	if a == b {
		t.Fatalf("expected distinct pointers")
	}
	if !a.Equal(b) {
		t.Fatalf("expected structurally-identical functions to compare equal")
	}
}

func TestLocksOrderSecondInputBehindFirst(t *testing.T) {
	f := NewAdd("a", "b", "c")
	locks := f.Locks()
	if len(locks) != 1 || locks[0].Locked != "b" || locks[0].By != "a" {
		t.Fatalf("unexpected locks: %v", locks)
	}
}
