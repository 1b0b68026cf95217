package selfcore

import "testing"

// TestMinorGCPreservesTrackedObjectIdentity covers spec.md §4.1: a tracked
// reference must resolve to the same logical object (here, observed by
// reading its slot back out) after a minor collection moves it, even though
// its physical (space, index) address changes.
func TestMinorGCPreservesTrackedObjectIdentity(t *testing.T) {
	vm := newTestVM(t)

	objC := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "x", Value: &NumberNode{IntValue: 99}},
	}})
	if !objC.IsNormal() {
		t.Fatalf("building object: %+v", objC)
	}
	ref := vm.Tracked.Track(objC.Value)
	defer vm.Tracked.Untrack(ref)
	before := ref.Get()

	vm.Heap.MinorGC()

	after := ref.Get()
	if after == before {
		t.Skip("object did not move this cycle; nothing to assert about rewriting")
	}
	res, err := vm.Lookup(after, "x", Read)
	if err != nil {
		t.Fatalf("lookup after GC: %v", err)
	}
	if !res.Found || asInt(res.Value) != 99 {
		t.Fatalf("x after GC = %+v, want 99 (object identity must survive the move)", res)
	}
}

// TestMinorGCRewritesReferencesAcrossObjects covers the same requirement as
// above but through an inter-object pointer: a parent slot on one object
// referencing another object must still resolve correctly once both have
// been relocated by a minor GC.
func TestMinorGCRewritesReferencesAcrossObjects(t *testing.T) {
	vm := newTestVM(t)

	parent := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "x", Value: &NumberNode{IntValue: 7}},
	}})
	child := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "parent", IsParent: true, IsMutable: true, Value: &NumberNode{IntValue: 0}},
	}})
	if !parent.IsNormal() || !child.IsNormal() {
		t.Fatalf("building objects: %+v %+v", parent, child)
	}
	patchMutableSlot(t, vm, child.Value, "parent", parent.Value)

	childRef := vm.Tracked.Track(child.Value)
	defer vm.Tracked.Untrack(childRef)

	vm.Heap.MinorGC()

	res, err := vm.Lookup(childRef.Get(), "x", Read)
	if err != nil {
		t.Fatalf("lookup after GC: %v", err)
	}
	if !res.Found || asInt(res.Value) != 7 {
		t.Fatalf("x through parent after GC = %+v, want 7", res)
	}
}

// TestPromotionToOldSpace covers spec.md §4.1: an object surviving
// cfg.PromotionAge minor cycles is copied into old space instead of the
// other survivor semispace, and stays reachable there.
func TestPromotionToOldSpace(t *testing.T) {
	vm := newTestVM(t)

	objC := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "x", Value: &NumberNode{IntValue: 5}},
	}})
	if !objC.IsNormal() {
		t.Fatalf("building object: %+v", objC)
	}
	ref := vm.Tracked.Track(objC.Value)
	defer vm.Tracked.Untrack(ref)

	promotionAge := DefaultConfig().PromotionAge
	for i := 0; i < promotionAge+1; i++ {
		vm.Heap.MinorGC()
	}

	space, _ := decodeRef(ref.Get())
	if space != spaceOld {
		t.Fatalf("object space after %d minor GCs = %v, want old space", promotionAge+1, space)
	}
	res, err := vm.Lookup(ref.Get(), "x", Read)
	if err != nil || !res.Found || asInt(res.Value) != 5 {
		t.Fatalf("x after promotion = %+v, %v, want 5", res, err)
	}
}

// TestMajorGCReclaimsUnreachable covers spec.md §4.1's major-GC compaction:
// an old-space object with no remaining root is dropped, shrinking old
// space, while one still reachable through a tracked reference survives.
func TestMajorGCReclaimsUnreachable(t *testing.T) {
	vm := newTestVM(t)

	keep := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "x", Value: &NumberNode{IntValue: 1}},
	}})
	drop := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "x", Value: &NumberNode{IntValue: 2}},
	}})
	if !keep.IsNormal() || !drop.IsNormal() {
		t.Fatalf("building objects: %+v %+v", keep, drop)
	}
	keepRef := vm.Tracked.Track(keep.Value)
	defer vm.Tracked.Untrack(keepRef)
	// drop must be rooted during the promotion loop below, or it is simply
	// dropped by eden.reset() on the very first minor GC rather than ever
	// reaching old space; untracking it right before the major GC is what
	// exercises "promoted, then loses its last root."
	dropRef := vm.Tracked.Track(drop.Value)

	for i := 0; i < DefaultConfig().PromotionAge+1; i++ {
		vm.Heap.MinorGC()
	}
	vm.Tracked.Untrack(dropRef)
	before := vm.Heap.Stats().BytesInOld

	vm.Heap.MajorGC()

	after := vm.Heap.Stats().BytesInOld
	if after >= before {
		t.Fatalf("old space size after major GC = %d, want less than %d (unreachable object reclaimed)", after, before)
	}
	res, err := vm.Lookup(keepRef.Get(), "x", Read)
	if err != nil || !res.Found || asInt(res.Value) != 1 {
		t.Fatalf("kept object's x after major GC = %+v, %v, want 1", res, err)
	}
}
