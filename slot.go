package selfcore

import "hash/fnv"

// slotFlags describes what kind of slot a slotDescriptor is. A slot is
// exactly one of constant, mutable, argument, or parent (spec.md §3), but
// mutable/argument/parent are tracked as independent bits because an
// argument slot is also mutable (it is written at activation time) and a
// parent slot's value is itself read through the same constant/mutable
// storage as any other slot.
type slotFlags uint8

const (
	slotMutable slotFlags = 1 << iota
	slotParent
	slotArgument
)

// slotDescriptor is one entry in a Map's slot table. The name is interned
// as a byte slice (spec.md §3: "Names are interned as byte arrays") and its
// hash is precomputed once, at map-construction time, so that every lookup
// thereafter compares only uint32s before falling back to a byte comparison
// on collision.
type slotDescriptor struct {
	name  []byte
	hash  uint32
	flags slotFlags

	// constant holds the slot's value directly when flags has neither
	// slotMutable nor slotArgument set.
	constant Value
	// index is the position in the owning object's assignable-values array
	// when the slot is mutable or an argument.
	index uint8
}

func (s *slotDescriptor) isMutable() bool  { return s.flags&slotMutable != 0 }
func (s *slotDescriptor) isParent() bool   { return s.flags&slotParent != 0 }
func (s *slotDescriptor) isArgument() bool { return s.flags&slotArgument != 0 }

// nameHash computes the 32-bit selector hash spec.md §3 requires maps to
// store alongside every slot name. FNV-1a is used because it is a single
// well-understood standard-library hash with good avalanche behavior for
// short ASCII selectors, and the teacher's own object model never needed an
// explicit name hash (Go's map[string]Interface hashes internally), so
// there is no precedent in the corpus to follow here beyond "use a
// standard, fast, non-cryptographic hash."
func nameHash(name []byte) uint32 {
	h := fnv.New32a()
	h.Write(name)
	return h.Sum32()
}

// maxAssignableSlots is the spec.md §3 limit: "At most 255 assignable
// slots per object," i.e. one less than the range of the uint8 index.
const maxAssignableSlots = 255
