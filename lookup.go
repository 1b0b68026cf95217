package selfcore

import "github.com/zephyrtronium/contains"

// Intent distinguishes a slot lookup performed to read a value from one
// performed to obtain a settable location (spec.md §4.3).
type Intent uint8

const (
	Read Intent = iota
	Assign
)

// LookupResult is the outcome of a Lookup call: exactly one of a hit
// (Found) or a miss.
type LookupResult struct {
	Found bool
	// Value is the resolved value for a Read hit.
	Value Value
	// Holder is the object that actually owns the matching slot (spec.md
	// §4.6 "the defining object"), and Index is its assignable-slot index;
	// both are set only for an Assign hit.
	Holder   Value
	Index    int
	Constant bool
}

// parentSelectorHash is precomputed once; "parent" is reserved to mean
// "this object's (or traits') proto" for the int/float short-circuit in
// spec.md §4.3 step 1.
var parentSelectorHash = nameHash([]byte("parent"))

// Lookup implements the selector-hash resolution protocol of spec.md §4.3.
//
// Ambiguous-parent policy: this implementation takes the first match found
// in declaration order during the parent recursion (spec.md §9's
// documented choice; see SPEC_FULL.md §7 and DESIGN.md for the rationale).
// Assignment-intent lookup never descends into parents (spec.md §9's
// direct-receiver-only resolution of the same open question): for
// intent == Assign, only the receiver's own map is consulted.
func (vm *VM) Lookup(receiver Value, selector string, intent Intent) (LookupResult, *RuntimeError) {
	hash := nameHash([]byte(selector))

	if !receiver.IsRef() {
		traits := vm.traitsFor(receiver)
		if selector == "parent" {
			return LookupResult{Found: true, Value: traits}, nil
		}
		receiver = traits
	}

	if vm.Heap.Kind(receiver) == KindActivation {
		// Activation objects are transparent (spec.md §4.3): delegate to
		// their reified receiver, except that their own argument/local
		// bindings (named by their actor's map) still shadow it.
		act := vm.Heap.Cell(receiver).reified
		if idx, ok := vm.bindingIndex(act, selector, hash); ok {
			if intent == Assign {
				return LookupResult{Found: true, Holder: receiver, Index: idx}, nil
			}
			return LookupResult{Found: true, Value: act.Bindings[idx]}, nil
		}
		receiver = act.Receiver
		if !receiver.IsRef() {
			traits := vm.traitsFor(receiver)
			receiver = traits
		}
	}

	visited := contains.Set{}
	return vm.lookupOn(receiver, selector, hash, intent, visited)
}

// bindingIndex reports whether selector names one of act's argument
// bindings, by consulting its actor's map (spec.md §3 "Activation object
// ... whose slots are argument and local bindings").
func (vm *VM) bindingIndex(act *Activation, selector string, hash uint32) (int, bool) {
	mapv := vm.Heap.ObjectMap(act.Actor)
	for i, name := range vm.Heap.Cell(mapv).argNames {
		if name == selector {
			_ = hash
			return i, i < len(act.Bindings)
		}
	}
	return 0, false
}

func (vm *VM) lookupOn(receiver Value, selector string, hash uint32, intent Intent, visited contains.Set) (LookupResult, *RuntimeError) {
	if !visited.Add(uintptr(receiver)) {
		// Cycle in the parent graph (spec.md §4.3 step 4): treat as a
		// miss past the cycle rather than looping forever.
		return LookupResult{}, nil
	}

	mapv := vm.Heap.ObjectMap(receiver)
	descs := vm.Heap.mapSlots(mapv)

	var parents []slotDescriptor
	for i := range descs {
		d := &descs[i]
		if d.hash == hash && string(d.name) == selector {
			if d.isMutable() {
				if intent == Assign {
					return LookupResult{Found: true, Holder: receiver, Index: int(d.index)}, nil
				}
				return LookupResult{Found: true, Value: vm.Heap.Assignable(receiver, int(d.index))}, nil
			}
			return LookupResult{Found: true, Value: d.constant, Constant: true}, nil
		}
		if d.isParent() {
			parents = append(parents, *d)
		}
	}

	if intent == Assign {
		// Direct-receiver-only (see doc comment above).
		return LookupResult{}, nil
	}

	for _, p := range parents {
		var parentVal Value
		if p.isMutable() {
			parentVal = vm.Heap.Assignable(receiver, int(p.index))
		} else {
			parentVal = p.constant
		}
		if !parentVal.IsRef() {
			parentVal = vm.traitsFor(parentVal)
		}
		res, err := vm.lookupOn(parentVal, selector, hash, intent, visited)
		if err != nil {
			return LookupResult{}, err
		}
		if res.Found {
			return res, nil
		}
	}
	return LookupResult{}, nil
}

// traitsFor returns the traits object backing a non-reference receiver
// (spec.md §4.3 step 1).
func (vm *VM) traitsFor(v Value) Value {
	if v.IsInt() {
		return vm.IntegerTraits
	}
	return vm.FloatTraits
}
