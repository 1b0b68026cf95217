package selfcore

// Eval is the recursive AST walker (spec.md §4.5): every expression kind
// produces a Completion, and every recursive call site here propagates a
// non-Normal completion immediately instead of continuing to sibling
// expressions (spec.md §4.5 "Every recursive evaluation step must
// propagate non-normal completions immediately").
//
// Eval always reads the current `self` from the activation stack rather
// than taking it as a parameter (contrast the teacher's Message.Eval, which
// threads an explicit locals/target pair): spec.md §4.4 already maintains
// "the top activation's receiver is the current self" as stack-top state,
// so there is nothing to gain by duplicating it on every call.
func (vm *VM) Eval(e Expression) Completion {
	switch n := e.(type) {
	case *NumberNode:
		if n.IsFloat {
			return normal(fromFloat(n.FloatValue))
		}
		return normal(fromInt(n.IntValue))
	case *StringNode:
		v, aerr := vm.NewByteArray([]byte(n.Value))
		if aerr != nil {
			return errCompletion(aerr.Error(), n.Range())
		}
		return normal(v)
	case *IdentifierNode:
		return vm.evalIdentifier(n)
	case *ObjectLiteral:
		return vm.evalObjectLiteral(n)
	case *BlockLiteral:
		return vm.evalBlockLiteral(n)
	case *MessageNode:
		return vm.evalMessage(n)
	case *ReturnNode:
		return vm.evalReturn(n)
	default:
		return errCompletion("unknown expression kind", e.Range())
	}
}

// evalIdentifier resolves a bare name against self (spec.md §4.5). self here
// is the current activation reified as an object, so argument and local
// bindings shadow the receiver's own slots (spec.md §4.3 "Activation objects
// are transparent"); a leading underscore bypasses lookup entirely and
// dispatches the primitive named by it against the raw receiver with zero
// arguments.
func (vm *VM) evalIdentifier(n *IdentifierNode) Completion {
	if len(n.Name) > 0 && n.Name[0] == '_' {
		return vm.InvokePrimitive(n.Name, vm.currentReceiver(), nil, n.Range())
	}

	self, aerr := vm.currentSelf()
	if aerr != nil {
		return errCompletion(aerr.Error(), n.Range())
	}
	res, rerr := vm.Lookup(self, n.Name, Read)
	if rerr != nil {
		return errCompletionOf(rerr)
	}
	if !res.Found {
		return errCompletion("did not understand "+n.Name, n.Range())
	}
	if res.Value.IsRef() && vm.Heap.Kind(res.Value) == KindMethod {
		return vm.activateMethod(res.Value, vm.currentReceiver(), n.Name, nil, n.Range())
	}
	return normal(res.Value)
}

// evalMessage evaluates a message's receiver, then its arguments in source
// order (spec.md §4.5, §5 "Argument evaluation is strictly left-to-right"),
// then dispatches per §4.6. A nil Receiver means "send to self", and self
// here is the *raw* business receiver (not the reified activation): a
// primitive like `_IntegerAdd` or a direct slot assignment like `x: v` must
// see the actual object, not its activation wrapper (contrast
// evalIdentifier, which needs the reified activation specifically so
// argument names can shadow receiver slots).
//
// Every intermediate Value is held in the tracked-reference table for the
// span in which a later evaluation step could trigger a GC (spec.md §4.1,
// §8 invariant 2): receiver and already-evaluated arguments are plain Go
// values that are not otherwise rooted while subsequent arguments evaluate.
func (vm *VM) evalMessage(n *MessageNode) Completion {
	var receiver Value
	if n.Receiver == nil {
		receiver = vm.currentReceiver()
	} else {
		c := vm.Eval(n.Receiver)
		if !c.IsNormal() {
			return c
		}
		receiver = c.Value
	}
	recvRef := vm.Tracked.Track(receiver)

	args := make([]Value, 0, len(n.Arguments))
	argRefs := make([]TrackedRef, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		c := vm.Eval(a)
		if !c.IsNormal() {
			vm.Tracked.Untrack(recvRef)
			for _, ref := range argRefs {
				vm.Tracked.Untrack(ref)
			}
			return c
		}
		args = append(args, c.Value)
		argRefs = append(argRefs, vm.Tracked.Track(c.Value))
	}

	receiver = recvRef.Get()
	for i, ref := range argRefs {
		args[i] = ref.Get()
	}

	result := vm.Send(receiver, n.Selector, args, n.Range())

	vm.Tracked.Untrack(recvRef)
	for _, ref := range argRefs {
		vm.Tracked.Untrack(ref)
	}
	return result
}

// evalReturn implements non-local return (spec.md §4.5): it evaluates its
// operand, then emits a NonLocalReturn completion targeting the enclosing
// method's activation (the current frame's nlrTarget, which block creation
// propagates transitively — spec.md §4.4 "Block creation captures ... that
// activation's non-local-return target").
func (vm *VM) evalReturn(n *ReturnNode) Completion {
	c := vm.Eval(n.Value)
	if !c.IsNormal() {
		return c
	}
	f := vm.Stack.TopFrame()
	if f == nil {
		return errCompletion("non-local return past method boundary", n.Range())
	}
	return nonLocalReturn(weakActivation{index: f.nlrTarget, gen: f.nlrGen}, c.Value)
}

// evalObjectLiteral allocates a fresh slots object (spec.md §4.5 "Slots
// object literal").
func (vm *VM) evalObjectLiteral(n *ObjectLiteral) Completion {
	descs, pending, errC := vm.buildSlotDescriptors(n.Slots)
	if errC != nil {
		return *errC
	}
	mapv, aerr := vm.NewSlotsMap(descs)
	if aerr != nil {
		releaseAll(vm, pending)
		return errCompletion(aerr.Error(), n.Range())
	}
	return vm.finishObjectAlloc(KindSlots, mapv, pending, n.Range())
}

// evalBlockLiteral allocates a method or block object (spec.md §4.5 "Method
// literal" / "Block literal"): both share this node, IsMethod choosing which
// variant and, for blocks, whether weak parent/non-local-return references
// are captured from the current stack top.
func (vm *VM) evalBlockLiteral(n *BlockLiteral) Completion {
	descs, pending, errC := vm.buildSlotDescriptors(n.Slots)
	if errC != nil {
		return *errC
	}

	var script *Script
	if f := vm.Stack.TopFrame(); f != nil {
		script = f.Script
	}

	argNames := argumentNames(n.Slots)

	var mapv Value
	var aerr *AllocationError
	kind := KindMethod
	if n.IsMethod {
		mapv, aerr = vm.NewMethodMap(descs, argNames, n.Statements, script)
	} else {
		kind = KindBlock
		parent := vm.Stack.Top()
		nlrTarget := invalidWeakActivation
		if f := vm.Stack.TopFrame(); f != nil {
			nlrTarget = weakActivation{index: f.nlrTarget, gen: f.nlrGen}
		}
		mapv, aerr = vm.NewBlockMap(descs, argNames, n.Statements, script, parent, nlrTarget)
	}
	if aerr != nil {
		releaseAll(vm, pending)
		return errCompletion(aerr.Error(), n.Range())
	}
	return vm.finishObjectAlloc(kind, mapv, pending, n.Range())
}

// argumentNames collects a BlockLiteral's argument slot names in
// declaration order (spec.md §6: a BlockLiteral names only `slots` and
// `statements`; argument names are exactly its Slots entries with
// IsArgument set, not a separate list).
func argumentNames(slots []SlotSpec) []string {
	var names []string
	for _, s := range slots {
		if s.IsArgument {
			names = append(names, s.Name)
		}
	}
	return names
}

// buildSlotDescriptors evaluates each slot's value expression in declaration
// order (spec.md §4.5, §5), installing constants inline and tracking
// mutable initializers until the owning object is allocated, since they are
// plain Go values that nothing else roots while later slots evaluate.
// Argument slots are handled separately (see argumentNames): they carry no
// Value to evaluate and are bound at activation time into the per-call
// Activation, not into the defining map/owning object's own slot table, so
// they are skipped here rather than turned into a dead constant-nil slot.
func (vm *VM) buildSlotDescriptors(slots []SlotSpec) ([]slotDescriptor, []TrackedRef, *Completion) {
	var descs []slotDescriptor
	var pending []TrackedRef
	mutIdx := 0
	for _, s := range slots {
		if s.IsArgument {
			continue
		}
		nb := []byte(s.Name)
		d := slotDescriptor{name: nb, hash: nameHash(nb)}
		if s.IsParent {
			d.flags |= slotParent
		}

		val := vm.Nil
		if s.Value != nil {
			c := vm.Eval(s.Value)
			if !c.IsNormal() {
				releaseAll(vm, pending)
				cc := c
				return nil, nil, &cc
			}
			val = c.Value
		}

		if s.IsMutable {
			if mutIdx >= maxAssignableSlots {
				releaseAll(vm, pending)
				cc := errCompletion("object literal exceeds 255 assignable slots", SourceRange{})
				return nil, nil, &cc
			}
			d.flags |= slotMutable
			d.index = uint8(mutIdx)
			mutIdx++
			pending = append(pending, vm.Tracked.Track(val))
		} else {
			d.constant = val
		}
		descs = append(descs, d)
	}
	return descs, pending, nil
}

// finishObjectAlloc allocates the object itself once its map exists, then
// fills in the assignable-slot array from the tracked initializer values
// (spec.md §4.5 "then allocate the object ... refresh any saved pointers").
func (vm *VM) finishObjectAlloc(kind ObjectKind, mapv Value, pending []TrackedRef, r SourceRange) Completion {
	mapRef := vm.Tracked.Track(mapv)
	v, aerr := vm.newAssignableObject(kind, mapRef.Get())
	vm.Tracked.Untrack(mapRef)
	if aerr != nil {
		releaseAll(vm, pending)
		return errCompletion(aerr.Error(), r)
	}
	for i, ref := range pending {
		vm.Heap.SetAssignable(v, i, ref.Get())
	}
	releaseAll(vm, pending)
	return normal(v)
}

// releaseAll untracks every pending reference, used on every error exit
// from literal construction so a failed allocation never leaks a tracked
// handle (spec.md §4.1 "Untracking is mandatory on all exit paths").
func releaseAll(vm *VM, pending []TrackedRef) {
	for _, ref := range pending {
		vm.Tracked.Untrack(ref)
	}
}

// currentReceiver returns the raw business receiver of the current
// activation (the bound `self` a method or block body was activated with),
// or the lobby at top level.
func (vm *VM) currentReceiver() Value {
	if f := vm.Stack.TopFrame(); f != nil {
		return f.Receiver
	}
	return vm.Lobby
}
