package selfcore

// VM carries every piece of global state the interpreter needs explicitly,
// rather than through package-level mutable globals (spec.md §9: "place on
// a VM context value passed explicitly; no process-wide mutable globals").
// This mirrors the teacher's own VM struct (internal/vm.go), which already
// follows that discipline.
type VM struct {
	cfg Config

	Heap    *Heap
	Stack   *ActivationStack
	Tracked *trackedTable

	// Lobby is the root object of the world (spec.md GLOSSARY).
	Lobby Value
	// MapOfMaps is the map every Map object's own header points at.
	MapOfMaps Value
	// ByteArrayMap is the shared map for every byte-array object.
	ByteArrayMap Value

	// Traits objects consulted by Lookup step 1 (spec.md §4.3), built by
	// PrepareWorld and held here on the VM rather than in lobby slots
	// (spec.md §6 "installs integer/float/nil traits").
	IntegerTraits Value
	FloatTraits   Value
	NilTraits     Value

	// Nil, True, and False are ordinary slots objects: Value has no
	// dedicated boolean or nil tag (spec.md §3), so these are singleton
	// heap objects reachable from the lobby, the same way the teacher
	// treats Io's `true`/`false`/`nil` as ordinary protos (bool.go,
	// iolang.go) rather than machine values.
	Nil   Value
	True  Value
	False Value
}

// NewVM constructs a VM with a fresh heap and activation stack, registers
// every root source, but does not yet build the world; call PrepareWorld
// before evaluating any script.
func NewVM(cfg Config) *VM {
	vm := &VM{
		cfg:     cfg,
		Heap:    NewHeap(cfg),
		Stack:   NewActivationStack(cfg.MaxActivationDepth),
		Tracked: newTrackedTable(),
	}
	vm.Heap.AddRootSource(vm.Tracked)
	vm.Heap.AddRootSource(vm.Stack)
	vm.Heap.AddRootSource(vm)
	return vm
}

// ForEachRoot implements RootSource for the VM's own globally-reachable
// singletons (spec.md §9 "Global state (traits, nil, true/false,
// map-of-maps): place on a VM context value").
func (vm *VM) ForEachRoot(fn func(*Value)) {
	fn(&vm.Lobby)
	fn(&vm.MapOfMaps)
	fn(&vm.ByteArrayMap)
	fn(&vm.IntegerTraits)
	fn(&vm.FloatTraits)
	fn(&vm.NilTraits)
	fn(&vm.Nil)
	fn(&vm.True)
	fn(&vm.False)
}

// currentSelf returns the reified activation object for the current top
// frame, or the lobby at top level (spec.md §4.5 "Identifier. Resolve
// against self."; §3 "Activation object ... whose slots are argument and
// local bindings", transparent to its receiver per §4.3). The reification
// is cached on the frame so a body touching several identifiers reifies its
// own activation at most once.
func (vm *VM) currentSelf() (Value, *AllocationError) {
	f := vm.Stack.TopFrame()
	if f == nil {
		return vm.Lobby, nil
	}
	if f.reifiedSelf != 0 {
		return f.reifiedSelf, nil
	}
	v, err := vm.Reify(f)
	if err != nil {
		return 0, err
	}
	f.reifiedSelf = v
	return v, nil
}

// PrepareWorld allocates the empty lobby object and installs integer,
// float, and nil traits (spec.md §6 "prepare_world(heap) -> lobby").
func (vm *VM) PrepareWorld() error {
	if err := vm.Heap.EnsureSpace(1); err != nil {
		return err
	}
	mapOfMapsV, c := vm.Heap.Allocate(KindMap)
	c.mapv = mapOfMapsV
	vm.MapOfMaps = mapOfMapsV

	byteArrayMapV, err := vm.NewSlotsMap(nil)
	if err != nil {
		return err
	}
	vm.ByteArrayMap = byteArrayMapV

	nilTraitsV, err := vm.buildTraits(nil)
	if err != nil {
		return err
	}
	vm.NilTraits = nilTraitsV

	nilV, err := vm.newSingleton(vm.NilTraits)
	if err != nil {
		return err
	}
	vm.Nil = nilV

	trueV, err := vm.newSingleton(vm.NilTraits)
	if err != nil {
		return err
	}
	vm.True = trueV

	falseV, err := vm.newSingleton(vm.NilTraits)
	if err != nil {
		return err
	}
	vm.False = falseV

	intTraitsV, err := vm.buildTraits(integerPrimitives)
	if err != nil {
		return err
	}
	vm.IntegerTraits = intTraitsV

	floatTraitsV, err := vm.buildTraits(floatPrimitives)
	if err != nil {
		return err
	}
	vm.FloatTraits = floatTraitsV

	lobbySlots := []slotDescriptor{
		constSlot("nil", vm.Nil),
		constSlot("true", vm.True),
		constSlot("false", vm.False),
	}
	lobbyMap, err := vm.NewSlotsMap(lobbySlots)
	if err != nil {
		return err
	}
	lobbyV, err := vm.NewSlotsObject(lobbyMap)
	if err != nil {
		return err
	}
	vm.Lobby = lobbyV
	return nil
}

// newSingleton allocates a bare slots object parented to traits, used for
// Nil/True/False, whose only job beyond answering traits-held selectors is
// distinct identity (spec.md §9 "Global state (... nil, true/false ...)").
func (vm *VM) newSingleton(traits Value) (Value, error) {
	mapv, err := vm.NewSlotsMap([]slotDescriptor{parentSlot(traits)})
	if err != nil {
		return 0, err
	}
	return vm.NewSlotsObject(mapv)
}

// parentSlot builds a constant parent slot pointing at v (spec.md §3 "parent
// (contributes to lookup traversal of the owning object)").
func parentSlot(v Value) slotDescriptor {
	nb := []byte("parent")
	return slotDescriptor{name: nb, hash: parentSelectorHash, flags: slotParent, constant: v}
}

// ExecuteScript runs a top-level script against the lobby (spec.md §6
// "execute_script(heap, script_ast, lobby) -> Result<Value, RuntimeError>").
// It pushes a synthetic top-level activation so Eval always has a frame to
// read self from, and pops it on every exit path, preserving the
// activation-balance invariant (spec.md §8 invariant 6: "activation stack
// depth equals zero").
func (vm *VM) ExecuteScript(script *Script) (Value, *RuntimeError) {
	return vm.runScript(script, vm.Lobby, invalidWeakActivation, invalidWeakActivation)
}

// ExecuteSubScript runs a nested script (e.g. a loaded sub-file) in the
// context of an already-running activation (spec.md §6
// "execute_sub_script(parent_ctx, script_ast) -> Completion"), inheriting
// the parent's receiver as self. runScript makes the sub-script's own frame
// its non-local-return target, so a `^` inside the sub-script ends the
// sub-script with that value; it does not unwind to the enclosing method.
func (vm *VM) ExecuteSubScript(script *Script) Completion {
	parent := vm.Stack.Top()
	receiver := vm.Lobby
	nlrTarget := parent
	if f := vm.Stack.TopFrame(); f != nil {
		receiver = f.Receiver
		nlrTarget = weakActivation{index: f.nlrTarget, gen: f.nlrGen}
	}
	v, rerr := vm.runScript(script, receiver, parent, nlrTarget)
	if rerr != nil {
		return errCompletionOf(rerr)
	}
	return normal(v)
}

// runScript is the shared push/eval-statements/pop sequence for both
// driver entry points.
func (vm *VM) runScript(script *Script, receiver Value, parent, nlrTarget weakActivation) (Value, *RuntimeError) {
	mapv, aerr := vm.NewMethodMap(nil, nil, script.Statements, script)
	if aerr != nil {
		return 0, &RuntimeError{Message: aerr.Error()}
	}
	actor, aerr := vm.NewMethodObject(mapv)
	if aerr != nil {
		return 0, &RuntimeError{Message: aerr.Error()}
	}

	w, ferr := vm.Stack.Push(actor, receiver, "script", nil, script, SourceRange{}, parent, nlrTarget)
	if ferr != nil {
		return 0, ferr
	}
	f, _ := vm.Stack.Resolve(w)
	f.nlrTarget = w.index
	f.nlrGen = w.gen

	var result Completion = normal(vm.Nil)
	for _, st := range script.Statements {
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
	case Normal:
		return result.Value, nil
	case NonLocalReturnCompletion:
		if result.NLRTarget == w {
			return result.NLRValue, nil
		}
		return 0, &RuntimeError{Message: "non-local return past method boundary"}
	default:
		return 0, result.Err
	}
}

// constSlot builds an immutable slot descriptor, used throughout world
// bootstrap for traits methods and the lobby's fixed names.
func constSlot(name string, v Value) slotDescriptor {
	nb := []byte(name)
	return slotDescriptor{name: nb, hash: nameHash(nb), constant: v}
}
