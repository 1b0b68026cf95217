package selfcore

// This file implements object-level operations over the variant kinds
// spec.md §3 describes: slots object, method object, block object,
// byte-array object, and (reified) activation object. All share the same
// physical cell layout (heap.go); what differs is which fields of cell a
// given kind actually uses and how lookup/dispatch interpret them.

// newAssignableObject allocates an object of the given kind with mapv and
// an assignable-values array sized to the map's assignable slot count,
// filled with markerNone until initializers run (spec.md §4.5: "Argument
// slots are initialized to nil at creation; real values are bound at
// activation").
func (vm *VM) newAssignableObject(kind ObjectKind, mapv Value) (Value, *AllocationError) {
	n := vm.Heap.assignableSlotCount(mapv)
	if err := vm.Heap.EnsureSpace(1); err != nil {
		return 0, err
	}
	v, c := vm.Heap.Allocate(kind)
	c.mapv = mapv
	if n > 0 {
		c.assignable = make([]Value, n)
		for i := range c.assignable {
			c.assignable[i] = markerNone
		}
	}
	return v, nil
}

// NewSlotsObject allocates a slots object for mapv (spec.md §3, §4.5).
func (vm *VM) NewSlotsObject(mapv Value) (Value, *AllocationError) {
	return vm.newAssignableObject(KindSlots, mapv)
}

// NewMethodObject allocates a method object for mapv.
func (vm *VM) NewMethodObject(mapv Value) (Value, *AllocationError) {
	return vm.newAssignableObject(KindMethod, mapv)
}

// NewBlockObject allocates a block object for mapv.
func (vm *VM) NewBlockObject(mapv Value) (Value, *AllocationError) {
	return vm.newAssignableObject(KindBlock, mapv)
}

// NewByteArray allocates a byte-array object holding a copy of data
// (spec.md §3 "Byte array object", §4.5 "strings allocate a byte-array
// object").
func (vm *VM) NewByteArray(data []byte) (Value, *AllocationError) {
	if err := vm.Heap.EnsureSpace(1); err != nil {
		return 0, err
	}
	v, c := vm.Heap.Allocate(KindBytes)
	c.mapv = vm.ByteArrayMap
	c.bytes = append([]byte(nil), data...)
	return v, nil
}

// Assignable reads the idx'th assignable-slot value of v.
func (h *Heap) Assignable(v Value, idx int) Value {
	return h.Cell(v).assignable[idx]
}

// SetAssignable writes the idx'th assignable-slot value of v, applying the
// write barrier (spec.md §4.1, §4.6 "the write barrier is applied if the
// defining object is in old space").
func (h *Heap) SetAssignable(v Value, idx int, val Value) {
	h.Cell(v).assignable[idx] = val
	h.WriteBarrier(v, val)
}

// ObjectMap returns the Value pointing at v's map.
func (h *Heap) ObjectMap(v Value) Value {
	return h.Cell(v).mapv
}

// Kind returns v's object-type tag.
func (h *Heap) Kind(v Value) ObjectKind {
	return h.Cell(v).kind
}

// Reify turns a live activation into a first-class heap object (spec.md
// §3 "Activation object"). Its slots are the activation's argument and
// local bindings, indexed the same way as its actor's map describes; for
// any selector not among those, lookup falls through to the activation's
// receiver (spec.md §4.3: "Activation objects are transparent ... the
// search delegates to their reified receiver").
func (vm *VM) Reify(act *Activation) (Value, *AllocationError) {
	if err := vm.Heap.EnsureSpace(1); err != nil {
		return 0, err
	}
	v, c := vm.Heap.Allocate(KindActivation)
	c.mapv = act.Actor
	c.reified = act
	return v, nil
}
