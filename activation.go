package selfcore

import "fmt"

// maxActivationDepth is the spec.md §4.4 bound: "Bounded stack: at most
// 2048 activations."
const maxActivationDepth = 2048

// Activation records one in-progress method or block execution (spec.md
// §4.4). It generalizes the teacher's single-purpose Call struct
// (block.go) — which describes only a block's most recent activation —
// into a full stack of frames, since this spec requires non-local return
// to unwind through an arbitrary number of intervening frames and requires
// weak references to specific, possibly long-gone, frames.
type Activation struct {
	// Method or Block object being executed.
	Actor Value
	// Name is the selector or identifier this activation was reached
	// through (spec.md §6 stack-trace format "<at method-or-block name>
	// file:line:column"), e.g. "value:" for a block invoked with one
	// argument or "loop" for a zero-arg method sent as a bare identifier.
	Name string
	// Receiver bound as self for this activation.
	Receiver Value
	// Bindings holds argument values, indexed the same way as the argument
	// names recorded on the actor's map.
	Bindings []Value
	// Script and SourceRange locate the call for stack traces (spec.md
	// §6, §7).
	Script *Script
	Range  SourceRange

	// parent is the activation index this frame's block was created
	// under (spec.md §4.4: "Block creation captures the current top
	// activation as the parent"). Methods leave this at -1.
	parent int
	// parentGen is the generation parent must still match to be valid.
	parentGen uint64
	// nlrTarget is the activation a non-local return from within this
	// frame (if it is a block) unwinds to. Methods are their own target.
	nlrTarget int
	nlrGen    uint64

	// generation is this slot's current occupant generation, bumped every
	// time the slot is reused, so that weakActivation references taken
	// before a pop can detect that the frame they pointed to is gone even
	// if the stack has since grown back to the same depth.
	generation uint64
	// live is true while this slot holds a pushed, not-yet-popped frame.
	live bool

	// reifiedSelf caches the activation object (spec.md §3 "Activation
	// object") produced the first time this frame's body resolves an
	// identifier against self (spec.md §4.5);
	// it is reset to zero on every Push so a reused slot never serves a
	// stale reification to its next occupant.
	reifiedSelf Value
}

// weakActivation is a non-owning reference to a specific activation frame,
// surviving across pushes and pops by pairing a stack index with the
// generation counter that was current when the reference was taken (spec.md
// §9: "store an index + generation counter into the activation stack rather
// than a raw pointer; validate on use"). The teacher has no analog: iolang
// keeps a live *Object pointer to a block's lexical scope and lets Go's own
// GC keep it reachable forever, so it never needs to detect "the activation
// this block was made in is no longer on the stack" (spec.md §4.4).
type weakActivation struct {
	index int
	gen   uint64
}

// invalidWeakActivation (index -1) never resolves; it is used for method
// activations, which have no parent.
var invalidWeakActivation = weakActivation{index: -1}

// ActivationStack is the bounded call stack described by spec.md §4.4.
type ActivationStack struct {
	frames []Activation
	top    int // index of the next free slot; current depth is top
	nextGen uint64
}

// NewActivationStack allocates a stack with the given bound. Pass
// maxActivationDepth for the spec-mandated default (spec.md §4.4); tests
// may pass a smaller bound to exercise overflow without 2048 recursive
// sends.
func NewActivationStack(depth int) *ActivationStack {
	return &ActivationStack{frames: make([]Activation, depth)}
}

// Depth returns the number of live activations.
func (s *ActivationStack) Depth() int { return s.top }

// errStackOverflow is the runtime error spec.md §4.4/§7 require when
// activation depth would exceed the maximum.
func (s *ActivationStack) errStackOverflow(r SourceRange) *RuntimeError {
	return &RuntimeError{Message: "stack overflow", Range: r, Trace: s.Trace()}
}

// Push installs a new activation and returns its weak reference (used as
// the parent/nlrTarget of any block literal evaluated while this frame is
// on top) along with an error if the stack would overflow.
func (s *ActivationStack) Push(actor, receiver Value, name string, bindings []Value, script *Script, r SourceRange, parent, nlrTarget weakActivation) (weakActivation, *RuntimeError) {
	if s.top >= len(s.frames) {
		return weakActivation{}, s.errStackOverflow(r)
	}
	idx := s.top
	f := &s.frames[idx]
	s.nextGen++
	f.generation = s.nextGen
	f.live = true
	f.Actor = actor
	f.Name = name
	f.Receiver = receiver
	f.Bindings = bindings
	f.Script = script
	f.Range = r
	f.parent = parent.index
	f.parentGen = parent.gen
	f.nlrTarget = nlrTarget.index
	f.nlrGen = nlrTarget.gen
	f.reifiedSelf = 0
	s.top++
	return weakActivation{index: idx, gen: f.generation}, nil
}

// Pop removes the top activation.
func (s *ActivationStack) Pop() {
	s.top--
	s.frames[s.top].live = false
	s.frames[s.top].Bindings = nil
}

// Top returns a weak reference to the current top-of-stack activation, or
// invalidWeakActivation if the stack is empty (i.e. we are at top level).
func (s *ActivationStack) Top() weakActivation {
	if s.top == 0 {
		return invalidWeakActivation
	}
	return weakActivation{index: s.top - 1, gen: s.frames[s.top-1].generation}
}

// TopFrame returns a pointer to the current top-of-stack activation, or nil
// if the stack is empty. The pointer is only valid until the next Push or
// Pop.
func (s *ActivationStack) TopFrame() *Activation {
	if s.top == 0 {
		return nil
	}
	return &s.frames[s.top-1]
}

// Resolve validates w against the live stack, returning the frame and true
// if w still denotes a live activation, or nil and false if the frame it
// named has since been popped (and possibly reused by an unrelated,
// later activation) — spec.md §4.4: "invoking a block whose target is no
// longer on the stack is a runtime error."
func (s *ActivationStack) Resolve(w weakActivation) (*Activation, bool) {
	if w.index < 0 || w.index >= s.top {
		return nil, false
	}
	f := &s.frames[w.index]
	if !f.live || f.generation != w.gen {
		return nil, false
	}
	return f, true
}

// frameParent returns the weak reference to f's parent activation.
func (s *ActivationStack) frameParent(f *Activation) weakActivation {
	return weakActivation{index: f.parent, gen: f.parentGen}
}

// frameNLRTarget returns the weak reference to f's non-local-return target.
func (s *ActivationStack) frameNLRTarget(f *Activation) weakActivation {
	return weakActivation{index: f.nlrTarget, gen: f.nlrGen}
}

// ForEachRoot implements RootSource: every live frame's actor, receiver,
// bindings, and cached reification are GC roots (spec.md §4.1 "the current
// activation stack (including each activation's receiver, bindings, and
// method/block object)").
func (s *ActivationStack) ForEachRoot(fn func(*Value)) {
	for i := 0; i < s.top; i++ {
		f := &s.frames[i]
		fn(&f.Actor)
		fn(&f.Receiver)
		fn(&f.reifiedSelf)
		for j := range f.Bindings {
			fn(&f.Bindings[j])
		}
	}
}

// Trace renders the live activations, newest first, in the format spec.md
// §6 specifies: "<at method-or-block name> file:line:column" per
// activation.
func (s *ActivationStack) Trace() []string {
	lines := make([]string, 0, s.top)
	for i := s.top - 1; i >= 0; i-- {
		f := &s.frames[i]
		lines = append(lines, fmt.Sprintf("\tat %s %s:%d:%d", f.Name, f.Range.File, f.Range.Line, f.Range.Column))
	}
	return lines
}
