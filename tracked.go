package selfcore

import "fmt"

// TrackedRef is an opaque handle to a heap Value held by code outside the
// heap (spec.md §4.1 "Tracked references"). Its Get method always returns
// the value's current location, even after a GC has moved it.
type TrackedRef struct {
	table *trackedTable
	slot  int
	gen   uint64
}

// Get returns the tracked value's current location.
func (r TrackedRef) Get() Value {
	return r.table.entries[r.slot].value
}

// Set overwrites the tracked value, e.g. after a primitive allocates a
// replacement object.
func (r TrackedRef) Set(v Value) {
	r.table.entries[r.slot].value = v
}

type trackedEntry struct {
	value Value
	inUse bool
	gen   uint64
}

// trackedTable backs every TrackedRef handed out by a VM. It is also a
// RootSource: every in-use entry is a GC root (spec.md §4.1).
type trackedTable struct {
	entries []trackedEntry
	free    []int
	nextGen uint64
}

func newTrackedTable() *trackedTable {
	return &trackedTable{}
}

// Track registers v and returns a handle that survives GC moves.
func (t *trackedTable) Track(v Value) TrackedRef {
	t.nextGen++
	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		slot = len(t.entries)
		t.entries = append(t.entries, trackedEntry{})
	}
	t.entries[slot] = trackedEntry{value: v, inUse: true, gen: t.nextGen}
	return TrackedRef{table: t, slot: slot, gen: t.nextGen}
}

// Untrack releases a handle. It is mandatory on every exit path (spec.md
// §4.1, §5); leaked handles are reported by Leaked on shutdown.
func (t *trackedTable) Untrack(r TrackedRef) {
	e := &t.entries[r.slot]
	if e.inUse && e.gen == r.gen {
		e.inUse = false
		e.value = Value(0)
		t.free = append(t.free, r.slot)
	}
}

// ForEachRoot implements RootSource.
func (t *trackedTable) ForEachRoot(fn func(*Value)) {
	for i := range t.entries {
		if t.entries[i].inUse {
			fn(&t.entries[i].value)
		}
	}
}

// Leaked reports the number of handles still tracked, for shutdown
// diagnostics (spec.md §4.1: "leaked handles are detectable and reported
// on shutdown").
func (t *trackedTable) Leaked() int {
	n := 0
	for _, e := range t.entries {
		if e.inUse {
			n++
		}
	}
	return n
}

// LeakReport renders a human-readable summary of outstanding handles.
func (t *trackedTable) LeakReport() string {
	n := t.Leaked()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("selfcore: %d tracked reference(s) were never released", n)
}
