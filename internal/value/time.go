package value

import "fmt"

// BranchTag names a speculative branch of control flow. The zero value
// is the untagged, "main line" branch.
type BranchTag string

// TaggedTime associates a clock value with an optional branch tag, so
// that (future) divergent control-flow branches can carry independent
// clocks without being comparable to each other by accident.
type TaggedTime struct {
	Tag   BranchTag
	Clock Tick
}

// Untagged builds a TaggedTime on the main line.
func Untagged(clock Tick) TaggedTime { return TaggedTime{Clock: clock} }

// Tagged builds a TaggedTime on the given branch.
func Tagged(tag BranchTag, clock Tick) TaggedTime {
	return TaggedTime{Tag: tag, Clock: clock}
}

// Add combines two tagged times. Either side may be untagged; if both
// are tagged they must carry the same tag. Mismatched tags are a
// contract violation and panic, since that situation can only arise
// from an engine bug mixing clocks from independent speculative
// branches.
func (t TaggedTime) Add(other TaggedTime) TaggedTime {
	tag, err := mergeTags(t.Tag, other.Tag)
	if err != nil {
		panic(err)
	}
	return TaggedTime{Tag: tag, Clock: t.Clock + other.Clock}
}

func mergeTags(a, b BranchTag) (BranchTag, error) {
	switch {
	case a == "":
		return b, nil
	case b == "":
		return a, nil
	case a == b:
		return a, nil
	default:
		return "", fmt.Errorf("value: mismatched time tags %q and %q", a, b)
	}
}

func (t TaggedTime) String() string {
	if t.Tag == "" {
		return fmt.Sprintf("%d", t.Clock)
	}
	return fmt.Sprintf("%s@%d", t.Tag, t.Clock)
}
