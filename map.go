package selfcore

// This file implements the Map component of spec.md §4.2: the shape
// descriptor shared by objects with identical slot layout. Maps are heap
// objects themselves (kind == KindMap); their own mapv field points at the
// VM's map-of-maps singleton.
//
// Map *sharing* across objects of identical shape (spec.md §4.2) is an
// optimization the spec does not make a correctness requirement (nothing
// in §8's testable properties depends on two structurally identical
// literals producing pointer-identical maps); this implementation always
// allocates a fresh map per object-literal evaluation, which is simpler
// and still satisfies every invariant. Copy-on-write for `_AddSlots:` is
// implemented, since that one is observable: adding a slot at runtime must
// not retroactively add it to every other object that happens to share the
// old shape.

// newMapCell ensures space for and allocates a bare KindMap cell with the
// given slot descriptors, pointed at mapOfMaps.
func (vm *VM) newMapCell(mapOfMaps Value, slots []slotDescriptor) (Value, *AllocationError) {
	if err := vm.Heap.EnsureSpace(1); err != nil {
		return 0, err
	}
	v, c := vm.Heap.Allocate(KindMap)
	c.mapv = mapOfMaps
	c.slotDesc = slots
	return v, nil
}

// NewSlotsMap builds a map for a plain slots object.
func (vm *VM) NewSlotsMap(slots []slotDescriptor) (Value, *AllocationError) {
	return vm.newMapCell(vm.MapOfMaps, slots)
}

// NewMethodMap builds a map for a method object: it additionally owns the
// AST statement list, argument names, and defining script (spec.md §4.2,
// §4.5).
func (vm *VM) NewMethodMap(slots []slotDescriptor, argNames []string, statements []Statement, script *Script) (Value, *AllocationError) {
	v, err := vm.newMapCell(vm.MapOfMaps, slots)
	if err != nil {
		return 0, err
	}
	c := vm.Heap.Cell(v)
	c.argNames = argNames
	c.statements = statements
	c.script = script
	c.flags |= flagNeedsFinalization
	return v, nil
}

// NewBlockMap builds a map for a block object, additionally recording the
// weak references to the activation it closes over (spec.md §4.5: "the map
// additionally records weak references to parent and non-local-return
// target activations taken from the current stack top").
func (vm *VM) NewBlockMap(slots []slotDescriptor, argNames []string, statements []Statement, script *Script, parent, nlrTarget weakActivation) (Value, *AllocationError) {
	v, err := vm.NewMethodMap(slots, argNames, statements, script)
	if err != nil {
		return 0, err
	}
	c := vm.Heap.Cell(v)
	c.parentAct = parent
	c.nlrTarget = nlrTarget
	return v, nil
}

// mapSlots returns the slot table of the map at v.
func (h *Heap) mapSlots(v Value) []slotDescriptor {
	return h.Cell(v).slotDesc
}

// assignableSlotCount returns the number of assignable (mutable or
// argument) slots the map at v describes.
func (h *Heap) assignableSlotCount(v Value) int {
	n := 0
	for _, s := range h.Cell(v).slotDesc {
		if s.isMutable() {
			n++
		}
	}
	return n
}

// argumentSlotCount returns the number of argument slots a method/block
// map describes (spec.md §4.2).
func (h *Heap) argumentSlotCount(v Value) int {
	return len(h.Cell(v).argNames)
}

// statements returns the AST statement list a method/block map owns.
func (h *Heap) statements(v Value) []Statement {
	return h.Cell(v).statements
}

// AddSlot implements `_AddSlots:` (spec.md §4.2): it derives a fresh map
// from the map at objMap with one additional slot, reindexing assignable
// slots as needed, and returns the new map. It never mutates objMap itself,
// since other objects may still share it.
func (vm *VM) AddSlot(objMap Value, name string, mutable bool, value Value) (Value, *AllocationError) {
	old := vm.Heap.Cell(objMap)
	descs := make([]slotDescriptor, len(old.slotDesc), len(old.slotDesc)+1)
	copy(descs, old.slotDesc)

	nameBytes := []byte(name)
	desc := slotDescriptor{name: nameBytes, hash: nameHash(nameBytes)}
	if mutable {
		idx := vm.Heap.assignableSlotCount(objMap)
		if idx >= maxAssignableSlots {
			return 0, &AllocationError{Requested: 1, Reason: "object already has the maximum of 255 assignable slots"}
		}
		desc.flags = slotMutable
		desc.index = uint8(idx)
	} else {
		desc.constant = value
	}
	descs = append(descs, desc)

	nv, err := vm.newMapCell(old.mapv, descs)
	if err != nil {
		return 0, err
	}
	nc := vm.Heap.Cell(nv)
	nc.argNames = old.argNames
	nc.statements = old.statements
	nc.script = old.script
	nc.parentAct = old.parentAct
	nc.nlrTarget = old.nlrTarget
	return nv, nil
}
