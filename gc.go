package selfcore

import "github.com/zephyrtronium/contains"

// MinorGC performs a scavenge (spec.md §4.1 "Minor GC (scavenge)"): every
// reachable young object is copied out of eden and the current "from"
// survivor space into the current "to" survivor space, or promoted into
// old space once it has survived cfg.PromotionAge cycles. Forwarding
// headers are installed at objects' old locations so that multiple
// references to the same object are only copied once, and every root
// (tracked references, the activation stack, the remembered set) is
// rewritten in place to the object's new location.
//
// This uses an explicit worklist rather than the classic two-finger
// in-place Cheney scan pointer; it visits exactly the same reachable set
// and installs the same forwarding headers, just with an auxiliary slice
// instead of reusing to-space itself as the queue.
func (h *Heap) MinorGC() {
	toIdx := 1 - h.fromIdx
	to := h.survivor[toIdx]

	type pending struct {
		space spaceID
		index uint32
	}
	var work []pending

	transport := func(v *Value) {
		if !v.IsRef() {
			return
		}
		space, idx := decodeRef(*v)
		if !isYoung(space) {
			return
		}
		c := h.cellInSpace(space, idx)
		if c.kind == KindForwarding {
			*v = c.forwardTo
			return
		}
		var dst Value
		if int(c.age)+1 > h.cfg.PromotionAge {
			h.old = append(h.old, *c)
			newIdx := len(h.old) - 1
			h.old[newIdx].age = 0
			dst = encodeRef(spaceOld, uint32(newIdx))
			work = append(work, pending{spaceOld, uint32(newIdx)})
		} else {
			newIdx := to.top
			to.cells[newIdx] = *c
			to.cells[newIdx].age = c.age + 1
			to.top++
			dst = encodeRef(toIdx2space(toIdx), uint32(newIdx))
			work = append(work, pending{toIdx2space(toIdx), uint32(newIdx)})
		}
		h.stats.ObjectsCopied++
		*c = cell{kind: KindForwarding, forwardTo: dst}
		*v = dst
	}

	// Roots: tracked references, activation stack, VM globals.
	for _, rs := range h.roots {
		rs.ForEachRoot(transport)
	}
	// Remembered set: old objects that may point into the young
	// generation (spec.md §4.1 "remembered set").
	for oldIdx := range h.remembered {
		c := &h.old[oldIdx]
		transport(&c.mapv)
		for i := range c.assignable {
			transport(&c.assignable[i])
		}
	}

	// Process the worklist: scan each newly-copied object's own pointer
	// fields, which may themselves still reference young objects.
	for len(work) > 0 {
		p := work[0]
		work = work[1:]
		c := h.cellInSpace(p.space, p.index)
		transport(&c.mapv)
		for i := range c.assignable {
			transport(&c.assignable[i])
		}
		for i := range c.slotDesc {
			transport(&c.slotDesc[i].constant)
		}
	}

	// Rebuild the remembered set: drop entries whose old object no longer
	// references anything young (spec.md §4.1: entries persist only while
	// load-bearing).
	next := make(map[int]bool)
	for oldIdx := range h.remembered {
		c := &h.old[oldIdx]
		if refsYoung(c.mapv) || anyYoung(c.assignable) {
			next[oldIdx] = true
		} else {
			c.flags &^= flagRememberedInOld
		}
	}
	h.remembered = next

	h.eden.reset()
	h.survivor[h.fromIdx].reset()
	h.fromIdx = toIdx
	h.stats.MinorCycles++
	h.stats.BytesInOld = len(h.old)
}

func toIdx2space(i int) spaceID {
	if i == 0 {
		return spaceSurvivor0
	}
	return spaceSurvivor1
}

func (h *Heap) cellInSpace(space spaceID, idx uint32) *cell {
	switch space {
	case spaceEden:
		return &h.eden.cells[idx]
	case spaceSurvivor0:
		return &h.survivor[0].cells[idx]
	case spaceSurvivor1:
		return &h.survivor[1].cells[idx]
	case spaceOld:
		return &h.old[idx]
	default:
		panic("selfcore: invalid space id")
	}
}

func refsYoung(v Value) bool {
	if !v.IsRef() {
		return false
	}
	s, _ := decodeRef(v)
	return isYoung(s)
}

func anyYoung(vs []Value) bool {
	for _, v := range vs {
		if refsYoung(v) {
			return true
		}
	}
	return false
}

// MajorGC performs a mark-compact pass over old space (spec.md §4.1
// "Major GC"). It is not required for functional correctness and may be
// deferred arbitrarily; callers typically invoke it only when old space is
// exhausted or the Collector primitive is asked to run a full cycle.
func (h *Heap) MajorGC() {
	reachable := contains.Set{}
	var order []int

	var mark func(v Value)
	mark = func(v Value) {
		if !v.IsRef() {
			return
		}
		space, idx := decodeRef(v)
		if space != spaceOld {
			return
		}
		if !reachable.Add(uintptr(idx)) {
			return
		}
		order = append(order, int(idx))
		c := &h.old[idx]
		mark(c.mapv)
		for _, a := range c.assignable {
			mark(a)
		}
		for _, d := range c.slotDesc {
			mark(d.constant)
		}
	}

	for _, rs := range h.roots {
		rs.ForEachRoot(func(v *Value) {
			mark(*v)
		})
	}

	// Compact: relocate marked cells to the front of h.old in visitation
	// order, recording each old index's new index, then rewrite every
	// pointer field (including roots) to match.
	newIndex := make(map[int]int, len(order))
	compacted := make([]cell, 0, len(order))
	for _, idx := range order {
		newIndex[idx] = len(compacted)
		compacted = append(compacted, h.old[idx])
	}
	remap := func(v *Value) {
		if !v.IsRef() {
			return
		}
		space, idx := decodeRef(*v)
		if space != spaceOld {
			return
		}
		ni, ok := newIndex[int(idx)]
		if !ok {
			return
		}
		*v = encodeRef(spaceOld, uint32(ni))
	}
	for i := range compacted {
		remap(&compacted[i].mapv)
		for j := range compacted[i].assignable {
			remap(&compacted[i].assignable[j])
		}
		for j := range compacted[i].slotDesc {
			remap(&compacted[i].slotDesc[j].constant)
		}
	}
	for _, rs := range h.roots {
		rs.ForEachRoot(remap)
	}
	// Unreachable; spec.md §4.1 "Finalization": every unmarked object
	// bearing the finalize flag is visited once here before its slot is
	// reclaimed.
	for idx := range h.old {
		if _, ok := newIndex[idx]; !ok && h.old[idx].flags&flagNeedsFinalization != 0 {
			finalizeObject(&h.old[idx])
			h.stats.ObjectsFreed++
		}
	}
	h.old = compacted

	nextRemembered := make(map[int]bool)
	for oldIdx := range h.remembered {
		if ni, ok := newIndex[oldIdx]; ok {
			nextRemembered[ni] = true
		}
	}
	h.remembered = nextRemembered

	h.stats.MajorCycles++
	h.stats.BytesInOld = len(h.old)
}

// finalizeObject releases the heap-external references a method or block
// map owns (spec.md §4.1 "Finalization"): its AST statement slice and
// defining script. There is no resurrection: the cell is about to be
// discarded entirely.
func finalizeObject(c *cell) {
	c.statements = nil
	c.script = nil
	c.argNames = nil
}
