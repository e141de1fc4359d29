package ir

import "fmt"

// Lock is an ordering constraint exported by a function or a PU:
// Locked must not be pulled from the bus before By has been. The bus
// network's deadlock detection (§4.F ResolveDeadlock) looks for cycles
// among locks exported by mutually-waiting PUs.
type Lock struct {
	Locked Variable
	By     Variable
}

func (l Lock) String() string {
	return fmt.Sprintf("%s is lockBy %s", l.Locked, l.By)
}
