package selfcore

import "strconv"

// PrimitiveFunc is the primitive ABI spec.md §6 specifies: "(ctx, receiver,
// args[]) -> Completion | AllocationError" narrowed to this implementation's
// concrete Completion type, which already carries an allocation failure as
// a RuntimeErrorCompletion (errCompletion wraps *AllocationError.Error()).
type PrimitiveFunc func(vm *VM, receiver Value, args []Value, r SourceRange) Completion

// primitiveRegistry is the static (selector, function) table spec.md §4.7
// describes. It is populated by init() functions in this file and
// bytearray.go rather than one giant literal, so each primitive
// family's registrations sit beside its implementation.
var primitiveRegistry = map[string]PrimitiveFunc{}

// registerPrimitive adds fn to the table under selector. Called only from
// init(), before any VM exists.
func registerPrimitive(selector string, fn PrimitiveFunc) {
	primitiveRegistry[selector] = fn
}

// InvokePrimitive dispatches selector against the static table (spec.md
// §4.6 step 1, §4.7). An unregistered primitive selector is a programming
// error in the caller (a traits method body naming a primitive that was
// never registered), not a condition a running program can trigger or
// recover from, so it panics rather than returning a runtime error (spec.md
// §4.7 "Unknown primitives are fatal (a programming error)").
func (vm *VM) InvokePrimitive(selector string, receiver Value, args []Value, r SourceRange) Completion {
	fn, ok := primitiveRegistry[selector]
	if !ok {
		panic("selfcore: unknown primitive " + selector)
	}
	return fn(vm, receiver, args, r)
}

func init() {
	registerPrimitive("_IntegerAdd", primIntegerAdd)
	registerPrimitive("_IntegerSub", primIntegerSub)
	registerPrimitive("_IntegerMul", primIntegerMul)
	registerPrimitive("_IntegerDiv", primIntegerDiv)
	registerPrimitive("_IntegerMod", primIntegerMod)
	registerPrimitive("_IntegerLess", primIntegerLess)
	registerPrimitive("_IntegerEquals", primIntegerEquals)
	registerPrimitive("_IntegerAsFloat", primIntegerAsFloat)
	registerPrimitive("_IntegerAsString", primIntegerAsString)

	registerPrimitive("_FloatAdd", primFloatAdd)
	registerPrimitive("_FloatSub", primFloatSub)
	registerPrimitive("_FloatMul", primFloatMul)
	registerPrimitive("_FloatDiv", primFloatDiv)
	registerPrimitive("_FloatLess", primFloatLess)
	registerPrimitive("_FloatEquals", primFloatEquals)
	registerPrimitive("_FloatAsString", primFloatAsString)

	registerPrimitive("_Clone", primClone)
	registerPrimitive("_AddSlot:Value:", primAddSlotValue)
	registerPrimitive("_CollectorCollect", primCollectorCollect)
	registerPrimitive("_CollectorStats", primCollectorStats)
}

// argInt validates that args has exactly one integer argument, the shape
// every binary integer primitive in this file shares (spec.md §7
// "Primitives report argument-type ... violations as runtime errors with
// explicit messages naming the expected type and the offending index").
func argInt(selector string, args []Value, r SourceRange) (int64, *Completion) {
	if len(args) != 1 || !args[0].IsInt() {
		c := errCompletion(selector+" expects one integer argument at index 0", r)
		return 0, &c
	}
	return asInt(args[0]), nil
}

func argFloat(selector string, args []Value, r SourceRange) (float64, *Completion) {
	if len(args) != 1 || !args[0].IsFloat() {
		c := errCompletion(selector+" expects one float argument at index 0", r)
		return 0, &c
	}
	return asFloat(args[0]), nil
}

func primIntegerAdd(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argInt("_IntegerAdd", args, r)
	if errC != nil {
		return *errC
	}
	return normal(fromInt(asInt(receiver) + n))
}

func primIntegerSub(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argInt("_IntegerSub", args, r)
	if errC != nil {
		return *errC
	}
	return normal(fromInt(asInt(receiver) - n))
}

func primIntegerMul(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argInt("_IntegerMul", args, r)
	if errC != nil {
		return *errC
	}
	return normal(fromInt(asInt(receiver) * n))
}

func primIntegerDiv(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argInt("_IntegerDiv", args, r)
	if errC != nil {
		return *errC
	}
	if n == 0 {
		return errCompletion("/ by zero", r)
	}
	return normal(fromInt(asInt(receiver) / n))
}

func primIntegerMod(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argInt("_IntegerMod", args, r)
	if errC != nil {
		return *errC
	}
	if n == 0 {
		return errCompletion("% by zero", r)
	}
	return normal(fromInt(asInt(receiver) % n))
}

func primIntegerLess(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argInt("_IntegerLess", args, r)
	if errC != nil {
		return *errC
	}
	return normal(vm.boolValue(asInt(receiver) < n))
}

func primIntegerEquals(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	if len(args) != 1 {
		return errCompletion("_IntegerEquals expects one argument", r)
	}
	return normal(vm.boolValue(args[0].IsInt() && asInt(receiver) == asInt(args[0])))
}

func primIntegerAsFloat(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	return normal(fromFloat(float64(asInt(receiver))))
}

func primIntegerAsString(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	s := strconv.FormatInt(asInt(receiver), 10)
	v, aerr := vm.NewByteArray([]byte(s))
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

func primFloatAdd(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argFloat("_FloatAdd", args, r)
	if errC != nil {
		return *errC
	}
	return normal(fromFloat(asFloat(receiver) + n))
}

func primFloatSub(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argFloat("_FloatSub", args, r)
	if errC != nil {
		return *errC
	}
	return normal(fromFloat(asFloat(receiver) - n))
}

func primFloatMul(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argFloat("_FloatMul", args, r)
	if errC != nil {
		return *errC
	}
	return normal(fromFloat(asFloat(receiver) * n))
}

func primFloatDiv(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argFloat("_FloatDiv", args, r)
	if errC != nil {
		return *errC
	}
	if n == 0 {
		return errCompletion("/ by zero", r)
	}
	return normal(fromFloat(asFloat(receiver) / n))
}

func primFloatLess(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	n, errC := argFloat("_FloatLess", args, r)
	if errC != nil {
		return *errC
	}
	return normal(vm.boolValue(asFloat(receiver) < n))
}

func primFloatEquals(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	if len(args) != 1 {
		return errCompletion("_FloatEquals expects one argument", r)
	}
	return normal(vm.boolValue(args[0].IsFloat() && asFloat(receiver) == asFloat(args[0])))
}

func primFloatAsString(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	s := strconv.FormatFloat(asFloat(receiver), 'g', -1, 64)
	v, aerr := vm.NewByteArray([]byte(s))
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primClone implements a shallow clone of any heap object (a small,
// concrete primitive the catalog-agnostic spec leaves to this
// implementation's discretion, spec.md §1 "the concrete catalog of built-in
// primitive functions" is out of scope beyond its dispatch contract).
// receiver is re-read from a tracked handle after EnsureSpace, since the
// Go parameter itself is not a GC root and EnsureSpace may trigger a
// minor GC that moves the object it names (spec.md §4.1, §8 invariant 2).
func primClone(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	if !receiver.IsRef() {
		return normal(receiver)
	}
	ref := vm.Tracked.Track(receiver)
	kind := vm.Heap.Kind(receiver)
	if aerr := vm.Heap.EnsureSpace(1); aerr != nil {
		vm.Tracked.Untrack(ref)
		return errCompletion(aerr.Error(), r)
	}
	receiver = ref.Get()
	src := vm.Heap.Cell(receiver)
	mapv := src.mapv
	assignable := append([]Value(nil), src.assignable...)
	bytes := append([]byte(nil), src.bytes...)
	vm.Tracked.Untrack(ref)

	v, c := vm.Heap.Allocate(kind)
	c.mapv = mapv
	c.assignable = assignable
	c.bytes = bytes
	return normal(v)
}

// primAddSlotValue implements `_AddSlot:Value:` (spec.md §4.2
// "`_AddSlots:` produces a fresh map derived from the old one"): it adds a
// new mutable slot named by the first (byte-array) argument, holding the
// second argument as its initial value, to receiver's map, and mutates
// receiver's own map pointer and assignable array in place — the object
// itself gains the slot; other objects still sharing the old map do not.
func primAddSlotValue(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	if !receiver.IsRef() {
		return errCompletion("_AddSlot:Value: receiver must be an object", r)
	}
	if len(args) != 2 {
		return errCompletion("_AddSlot:Value: expects a name and a value", r)
	}
	name, ok := vm.bytesOf(args[0])
	if !ok {
		return errCompletion("_AddSlot:Value: expects a byte-array name at index 0", r)
	}

	receiverRef := vm.Tracked.Track(receiver)
	valueRef := vm.Tracked.Track(args[1])
	objMap := vm.Heap.ObjectMap(receiverRef.Get())
	newMap, aerr := vm.AddSlot(objMap, string(name), true, 0)
	if aerr != nil {
		vm.Tracked.Untrack(receiverRef)
		vm.Tracked.Untrack(valueRef)
		return errCompletion(aerr.Error(), r)
	}
	receiver = receiverRef.Get()
	v := valueRef.Get()
	vm.Tracked.Untrack(receiverRef)
	vm.Tracked.Untrack(valueRef)

	c := vm.Heap.Cell(receiver)
	c.mapv = newMap
	c.assignable = append(c.assignable, v)
	vm.Heap.WriteBarrier(receiver, newMap)
	vm.Heap.WriteBarrier(receiver, v)
	return normal(receiver)
}

// primCollectorCollect forces a minor GC, the closest analog to the
// teacher's `Collector collect` (spec.md §5 "the garbage collector, which
// runs synchronously at allocation points").
func primCollectorCollect(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	vm.Heap.MinorGC()
	return normal(receiver)
}

// primCollectorStats renders the heap's collector counters as a string
// (spec.md §9's "GC statistics surface" supplement; grounded on the
// teacher's `Collector showStats`, rewired to this implementation's own
// counters instead of `runtime.MemStats`).
func primCollectorStats(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	s := vm.Heap.Stats()
	out := "minor=" + strconv.Itoa(s.MinorCycles) +
		" major=" + strconv.Itoa(s.MajorCycles) +
		" copied=" + strconv.Itoa(s.ObjectsCopied) +
		" freed=" + strconv.Itoa(s.ObjectsFreed) +
		" old_cells=" + strconv.Itoa(s.BytesInOld)
	v, aerr := vm.NewByteArray([]byte(out))
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}
