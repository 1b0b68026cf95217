package selfcore

// Send implements message dispatch (spec.md §4.6): given a receiver,
// selector, and already-evaluated positional arguments, it resolves the
// selector and produces a completion.
func (vm *VM) Send(receiver Value, selector string, args []Value, r SourceRange) Completion {
	if len(selector) > 0 && selector[0] == '_' {
		return vm.InvokePrimitive(selector, receiver, args, r)
	}

	// A block receiving a message whose arity matches its own declared
	// argument count evaluates itself directly (spec.md §4.6 "S matches
	// B's arity selector"), regardless of what name the selector spells
	// ("value", "value:", or anything else of the right shape) — this is
	// what lets a bare block literal be invoked (`[ ^7 ] value`) without
	// first being filed under a slot name that happens to equal the
	// selector used to reach it.
	if receiver.IsRef() && vm.Heap.Kind(receiver) == KindBlock {
		if vm.Heap.argumentSlotCount(vm.Heap.ObjectMap(receiver)) == selectorArity(selector) {
			return vm.activateBlock(receiver, receiver, selector, args, r)
		}
	}

	if name, ok := bareAssignSelector(selector); ok && len(args) == 1 {
		ares, aerr := vm.Lookup(receiver, name, Assign)
		if aerr != nil {
			return errCompletionOf(aerr)
		}
		if ares.Found {
			vm.Heap.SetAssignable(ares.Holder, ares.Index, args[0])
			return normal(args[0])
		}
	}

	res, rerr := vm.Lookup(receiver, selector, Read)
	if rerr != nil {
		return errCompletionOf(rerr)
	}
	if !res.Found {
		return errCompletion("did not understand "+selector, r)
	}

	if res.Value.IsRef() {
		switch vm.Heap.Kind(res.Value) {
		case KindMethod:
			return vm.activateMethod(res.Value, receiver, selector, args, r)
		case KindBlock:
			if vm.Heap.argumentSlotCount(vm.Heap.ObjectMap(res.Value)) == selectorArity(selector) {
				return vm.activateBlock(res.Value, receiver, selector, args, r)
			}
		}
	}
	return normal(res.Value)
}

// selectorArity counts the keyword parts of a selector ("value:with:" -> 2,
// "value" -> 0), used to match a block's declared argument count against
// the arity-shaped selector that activates it (spec.md §4.6: "S matches B's
// arity selector (e.g., value, value:, value:With:, …)").
func selectorArity(selector string) int {
	n := 0
	for _, r := range selector {
		if r == ':' {
			n++
		}
	}
	return n
}

// bareAssignSelector reports whether selector has the shape "name:" (spec.md
// §4.6: "Assignment to a mutable slot is modeled as the keyword selector
// name:") — exactly one trailing colon and no others, as opposed to a
// multi-keyword message like "add:with:".
func bareAssignSelector(selector string) (string, bool) {
	if len(selector) < 2 || selector[len(selector)-1] != ':' {
		return "", false
	}
	body := selector[:len(selector)-1]
	for _, r := range body {
		if r == ':' {
			return "", false
		}
	}
	return body, true
}

// activateMethod pushes a fresh activation bound to receiver, copies args
// into the method's argument slots, evaluates its statement list, and pops
// the activation, converting a NonLocalReturn targeting this activation
// into a Normal completion (spec.md §4.6). name is the selector or
// identifier the method was reached through, recorded for stack traces
// (spec.md §6).
func (vm *VM) activateMethod(method, receiver Value, name string, args []Value, r SourceRange) Completion {
	return vm.activate(method, receiver, name, args, r, invalidWeakActivation, invalidWeakActivation, false)
}

// activateBlock pushes an activation for a block whose receiver is the
// block's captured receiver reached through its parent-activation chain;
// non-local returns escape past this activation unless it is itself the
// target (spec.md §4.6). name is the arity selector the block was invoked
// with, recorded for stack traces (spec.md §6).
func (vm *VM) activateBlock(block, sendReceiver Value, name string, args []Value, r SourceRange) Completion {
	mapv := vm.Heap.ObjectMap(block)
	mc := vm.Heap.Cell(mapv)
	parentAct, parentOK := vm.Stack.Resolve(mc.parentAct)
	if !parentOK {
		return errCompletion("block's enclosing activation is no longer on the stack", r)
	}
	return vm.activate(block, parentAct.Receiver, name, args, r, mc.parentAct, mc.nlrTarget, true)
}

// activate is the shared push/bind/eval/pop sequence for methods and
// blocks.
func (vm *VM) activate(actor, receiver Value, name string, args []Value, r SourceRange, parent, nlrTarget weakActivation, isBlock bool) Completion {
	mapv := vm.Heap.ObjectMap(actor)
	mc := vm.Heap.Cell(mapv)

	bindings := make([]Value, len(mc.argNames))
	for i := range bindings {
		if i < len(args) {
			bindings[i] = args[i]
		} else {
			bindings[i] = vm.Nil
		}
	}

	var selfTarget weakActivation
	if !isBlock {
		// A method activation is its own non-local-return target.
		selfTarget = invalidWeakActivation // replaced below once pushed
	} else {
		selfTarget = nlrTarget
	}

	w, ferr := vm.Stack.Push(actor, receiver, name, bindings, mc.script, r, parent, selfTarget)
	if ferr != nil {
		return errCompletionOf(ferr)
	}
	if !isBlock {
		// Now that the frame exists, it is its own non-local-return
		// target; patch it in place (spec.md §4.4: "that activation's
		// non-local-return target (itself if it is a method)").
		f, _ := vm.Stack.Resolve(w)
		f.nlrTarget = w.index
		f.nlrGen = w.gen
	}

	var result Completion = normal(vm.Nil)
	for _, st := range mc.statements {
		result = vm.Eval(st.Expression)
		if !result.IsNormal() {
			break
		}
	}
	if result.Kind == RuntimeErrorCompletion && result.Err.Trace == nil {
		result.Err.Trace = vm.Stack.Trace()
	}
	vm.Stack.Pop()

	switch result.Kind {
	case NonLocalReturnCompletion:
		if result.NLRTarget == w {
			return normal(result.NLRValue)
		}
		return result
	default:
		return result
	}
}
