package selfcore

// Completion is the tagged result of evaluating an expression (spec.md
// §4.5): exactly one of Normal, RuntimeError, or NonLocalReturn is
// meaningful, selected by Kind. Every recursive evaluation step must
// check Kind and propagate non-Normal completions immediately rather than
// continuing to evaluate sibling expressions.
//
// This narrows the teacher's six-way Stop enum (control.go: continue,
// break, return, exception, exit, pause) to the three completions this
// spec names; continue/break belong to loop primitives this spec does not
// specify the contents of, and exit/pause belong to the coroutine
// scheduling this spec excludes (Non-goals: multi-threaded execution).
type CompletionKind uint8

const (
	// Normal carries a result Value.
	Normal CompletionKind = iota
	// RuntimeErrorCompletion carries an *RuntimeError.
	RuntimeErrorCompletion
	// NonLocalReturnCompletion carries a target activation and a value.
	NonLocalReturnCompletion
)

// Completion is produced by every evaluation step (spec.md §4.5).
type Completion struct {
	Kind CompletionKind

	// Value is meaningful when Kind == Normal.
	Value Value

	// Err is meaningful when Kind == RuntimeErrorCompletion.
	Err *RuntimeError

	// NLRTarget and NLRValue are meaningful when
	// Kind == NonLocalReturnCompletion.
	NLRTarget weakActivation
	NLRValue  Value
}

// IsNormal reports whether c is a Normal completion.
func (c Completion) IsNormal() bool { return c.Kind == Normal }

// normal builds a Normal completion.
func normal(v Value) Completion {
	return Completion{Kind: Normal, Value: v}
}

// errCompletion builds a RuntimeErrorCompletion from a message and range.
func errCompletion(message string, r SourceRange) Completion {
	return Completion{Kind: RuntimeErrorCompletion, Err: &RuntimeError{Message: message, Range: r}}
}

// errCompletionOf wraps an already-constructed *RuntimeError.
func errCompletionOf(err *RuntimeError) Completion {
	return Completion{Kind: RuntimeErrorCompletion, Err: err}
}

// nonLocalReturn builds a NonLocalReturnCompletion targeting target.
func nonLocalReturn(target weakActivation, v Value) Completion {
	return Completion{Kind: NonLocalReturnCompletion, NLRTarget: target, NLRValue: v}
}
