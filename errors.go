package selfcore

import "fmt"

// RuntimeError is a runtime error completion (spec.md §4.5, §7): a
// human-readable message paired with the source range where it occurred.
// It is never caught by the program (no catch form is specified); it
// unwinds every activation and is reported by the driver.
type RuntimeError struct {
	Message string
	Range   SourceRange

	// Trace is the activation stack snapshot taken at the innermost frame
	// still live when the error was raised, before any unwinding. It is
	// set once, by whichever activation first sees this error on its way
	// up (dispatch.go's activate, vm.go's runScript), since later,
	// shallower frames would otherwise overwrite it with an already
	// partly unwound stack.
	Trace []string
}

func (e *RuntimeError) Error() string {
	return e.Format()
}

// Format renders the error in the exact form spec.md §6 specifies:
// "file:line:column: error: <message>".
func (e *RuntimeError) Format() string {
	return fmt.Sprintf("%s:%d:%d: error: %s", e.Range.File, e.Range.Line, e.Range.Column, e.Message)
}

// Report renders the error and a stack trace assembled from the live
// activations at the point of error (spec.md §5 "Cancellation", §6) and
// returns it as a string. A non-nil trace is used as given; a nil trace
// falls back to e.Trace, the ActivationStack.Trace() snapshot taken before
// the stack was unwound back to the driver.
func (e *RuntimeError) Report(trace []string) string {
	if trace == nil {
		trace = e.Trace
	}
	out := e.Format() + "\n"
	for _, line := range trace {
		out += line + "\n"
	}
	return out
}

// AllocationError is returned by Heap.EnsureSpace (and the allocating VM
// helpers built on it) when the heap cannot satisfy a request; Requested
// counts object cells (spec.md §4.1, §7): "propagated unchanged to the
// driver and aborts the script with a fatal message." Unlike RuntimeError,
// it is a plain Go error, since it signals a host-level resource failure
// rather than an in-language condition an Io-like program could ever
// observe or recover from.
type AllocationError struct {
	Requested int
	Reason    string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation error: could not satisfy request for %d cells: %s", e.Requested, e.Reason)
}
