package selfcore

import "fmt"

// ObjectKind is the header tag distinguishing object variants (spec.md §3:
// "the object-type tag (map, slots, method, block, byte-array, activation,
// forwarding)"). Dispatch over it follows the design note in spec.md §9:
// "encode the variant in three header bits and switch over the tag rather
// than relying on inheritance."
type ObjectKind uint8

const (
	KindMap ObjectKind = iota
	KindSlots
	KindMethod
	KindBlock
	KindBytes
	KindActivation
	KindForwarding
)

// flagBits are the header flag bits spec.md §3 lists: globally-reachable,
// needs-finalization, remembered-in-old.
type flagBits uint8

const (
	flagGloballyReachable flagBits = 1 << iota
	flagNeedsFinalization
	flagRememberedInOld
)

// cell is the physical storage for one heap object: the header (kind,
// flags, map pointer) plus whichever variant payload its kind uses. Unused
// fields for a given kind are simply zero; this is the Go-idiomatic
// rendering of the tagged-union header spec.md §3 describes, since Go has
// no native union type and this interpreter does not reach for unsafe
// byte-packing to emulate one (see DESIGN.md's standard-library
// justification for the heap).
type cell struct {
	kind  ObjectKind
	flags flagBits
	// mapv is the Value pointing at this object's map (spec.md §3). For a
	// map object, it points at the map-of-maps singleton.
	mapv Value
	age  uint8

	// Slots/Method/Block objects: the assignable-slot values array.
	assignable []Value

	// Map objects (kind == KindMap): the slot table, and, for method/block
	// maps, the owned AST and argument-slot count.
	slotDesc   []slotDescriptor
	argNames   []string
	statements []Statement
	script     *Script
	// Block maps additionally carry weak references to their parent
	// activation and non-local-return target (spec.md §3).
	parentAct weakActivation
	nlrTarget weakActivation

	// ByteArray objects (kind == KindBytes).
	bytes []byte

	// Activation objects (kind == KindActivation): spec.md §3 "reifies a
	// live activation as a first-class slots-like object." reified is set
	// only when the activation has actually been reified via Reify
	// (object.go); most activations never need this.
	reified *Activation

	// Forwarding (kind == KindForwarding): installed over an object's old
	// location during a minor GC copy (spec.md §4.1).
	forwardTo Value
}

// spaceID names one of the heap's four regions (spec.md §4.1: "Young =
// eden + two survivor regions... Old = a growable region").
type spaceID uint8

const (
	spaceEden spaceID = iota
	spaceSurvivor0
	spaceSurvivor1
	spaceOld
)

// encodeRef packs a space and an index into a ref-tagged Value. The index
// stands in for what spec.md §3 calls "an eight-byte aligned address": Go
// code cannot hold a stable raw pointer across a copying collector without
// unsafe, so addresses here are (space, index) pairs into this Heap's own
// arenas instead of machine addresses. Everything the spec requires of
// addresses — instability across GC, comparability, forwarding — holds
// for this representation too.
func encodeRef(space spaceID, index uint32) Value {
	addr := (uint64(space) << 40) | uint64(index)
	return Value(addr<<2) | tagRef
}

func decodeRef(v Value) (spaceID, uint32) {
	addr := uint64(v) >> 2
	return spaceID(addr >> 40), uint32(addr & 0xFFFFFFFF)
}

// arena is one bump-allocated region: eden or a survivor semispace.
type arena struct {
	cells []cell
	top   int
}

func newArena(capacity int) *arena {
	return &arena{cells: make([]cell, capacity)}
}

func (a *arena) reset() {
	for i := range a.cells[:a.top] {
		a.cells[i] = cell{}
	}
	a.top = 0
}

// Heap is the generational moving collector described by spec.md §4.1.
type Heap struct {
	cfg Config

	eden      *arena
	survivor  [2]*arena
	fromIdx   int // which physical survivor[] is "from" this cycle
	old       []cell
	remembered map[int]bool // old indices enqueued by the write barrier

	roots []RootSource

	stats HeapStats
}

// HeapStats tracks the counters the Collector primitive surface reports
// (spec.md §4.7's CollectorShowStats-equivalent; see DESIGN.md for why this
// is grounded on, but does not delegate to, the teacher's collector.go).
type HeapStats struct {
	MinorCycles   int
	MajorCycles   int
	ObjectsCopied int
	ObjectsFreed  int
	BytesInOld    int
}

// RootSource is anything the collector must treat as a source of GC roots:
// every *Value it yields is rewritten in place when the object it refers to
// moves (spec.md §4.1: "For each root ... copy the object ... install a
// forwarding-reference header"). The ActivationStack and the tracked
// reference table are both RootSources; so is the VM's set of
// globally-reachable singletons.
type RootSource interface {
	ForEachRoot(fn func(*Value))
}

// NewHeap constructs a heap with the given configuration. Root sources
// must be registered with AddRootSource before the first allocation that
// could trigger a minor GC.
func NewHeap(cfg Config) *Heap {
	h := &Heap{
		cfg:        cfg,
		eden:       newArena(cfg.EdenCells),
		old:        make([]cell, 0, cfg.OldInitialCells),
		remembered: make(map[int]bool),
	}
	h.survivor[0] = newArena(cfg.SurvivorCells)
	h.survivor[1] = newArena(cfg.SurvivorCells)
	return h
}

// AddRootSource registers r as a source of GC roots.
func (h *Heap) AddRootSource(r RootSource) {
	h.roots = append(h.roots, r)
}

// EnsureSpace guarantees that the next n object allocations fit in eden
// without triggering a GC mid-sequence (spec.md §4.1: "callers that perform
// several allocations in sequence MUST call it once with the combined
// size"). If eden cannot hold n more cells even after a minor GC, it
// returns an AllocationError.
func (h *Heap) EnsureSpace(n int) *AllocationError {
	if h.eden.top+n <= len(h.eden.cells) {
		return nil
	}
	h.MinorGC()
	if h.eden.top+n <= len(h.eden.cells) {
		return nil
	}
	return &AllocationError{Requested: n, Reason: "eden exhausted after minor GC; grow eden_cells"}
}

// Allocate bumps eden's pointer and returns a fresh object reference along
// with a pointer to its cell for the caller to populate. It never moves
// existing objects and never triggers GC; callers must call EnsureSpace(1)
// (or more, batched) first. Raw cell pointers returned by Allocate, or
// retrieved via Cell, are invalidated by any subsequent allocation that
// triggers a GC (spec.md §3 "Ownership": "Raw pointers obtained from a
// Value are invalidated by any allocation").
func (h *Heap) Allocate(kind ObjectKind) (Value, *cell) {
	idx := h.eden.top
	h.eden.top++
	c := &h.eden.cells[idx]
	c.kind = kind
	return encodeRef(spaceEden, uint32(idx)), c
}

// Cell resolves a ref-tagged Value to its backing cell. Panics if v is not
// a ref Value with a live target; callers in object.go only ever call this
// with Values known to be object references.
func (h *Heap) Cell(v Value) *cell {
	if !v.IsRef() {
		panic("selfcore: Cell called on a non-reference Value")
	}
	space, idx := decodeRef(v)
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
		panic(fmt.Sprintf("selfcore: invalid space id %d", space))
	}
}

// isYoung reports whether v refers to eden or a survivor space, as opposed
// to old space (which minor GC never moves).
func isYoung(space spaceID) bool {
	return space == spaceEden || space == spaceSurvivor0 || space == spaceSurvivor1
}

// WriteBarrier must be called whenever stored is written into an
// assignable slot or map pointer belonging to holder (spec.md §4.1:
// "Every assignment into an old-space object's assignable slot or
// map-pointer MUST enqueue the containing object in the remembered set if
// the stored value is a young-generation reference").
func (h *Heap) WriteBarrier(holder Value, stored Value) {
	if !holder.IsRef() || !stored.IsRef() {
		return
	}
	hs, hidx := decodeRef(holder)
	if hs != spaceOld {
		return
	}
	ss, _ := decodeRef(stored)
	if isYoung(ss) {
		h.remembered[int(hidx)] = true
		h.Cell(holder).flags |= flagRememberedInOld
	}
}

// Stats returns a snapshot of the collector's counters.
func (h *Heap) Stats() HeapStats {
	return h.stats
}
