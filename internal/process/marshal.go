package process

import (
	"strings"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/value"
)

// StepDTO is the serialized form of one Step (§6's schedule output):
// `{id, time, kind, payload, relations:[id]}`.
type StepDTO struct {
	ID        StepID
	Time      value.Interval
	Kind      string
	Payload   string
	Relations []StepID
}

// MarshalSteps renders every step of r as a StepDTO, in append order.
func (r *Record) MarshalSteps() []StepDTO {
	out := make([]StepDTO, 0, len(r.steps))
	for _, s := range r.steps {
		out = append(out, StepDTO{
			ID:        s.ID,
			Time:      s.At,
			Kind:      kindOf(s.Desc),
			Payload:   payloadOf(s.Desc),
			Relations: r.relations[s.ID],
		})
	}
	return out
}

func kindOf(d Description) string {
	switch d.(type) {
	case CAD:
		return "cad"
	case FunctionDesc:
		return "function"
	case EndpointRoleDesc:
		return "endpoint"
	case InstructionDesc:
		return "instruction"
	case NestedDesc:
		return "nested"
	default:
		return "unknown"
	}
}

func payloadOf(d Description) string {
	switch v := d.(type) {
	case CAD:
		return string(v)
	case FunctionDesc:
		return v.Function.String()
	case EndpointRoleDesc:
		if v.Role.IsSource {
			return "source " + joinVars(v.Role.Sources)
		}
		return "target " + string(v.Role.Target)
	case InstructionDesc:
		return v.Op.InstructionString()
	case NestedDesc:
		return v.PUTag + "/" + string(v.Inner)
	default:
		return ""
	}
}

func joinVars(vs []ir.Variable) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = string(v)
	}
	return strings.Join(names, ",")
}
