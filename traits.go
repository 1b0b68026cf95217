package selfcore

// This file supplies the integer and float traits objects the lookup
// protocol's step 1 requires (spec.md §4.3: "If the receiver is an integer
// or float, forward to the corresponding traits object held by the VM").
// The spec specifies only the primitive dispatch *contract* (§4.7), leaving
// the concrete catalog external (§1); this is the modest arithmetic,
// comparison, and conversion set needed to make §8's testable scenarios
// executable, grounded in the teacher's number.go the way SPEC_FULL.md §5
// describes ("Traits catalog").
//
// Each traits slot holds an ordinary constant Method object whose single
// statement returns the result of sending the underlying `_`-prefixed
// primitive to self with the message's argument identifiers — there is no
// separate "native method" object kind (spec.md §3 lists exactly five
// object variants), so a traits method is implemented exactly the way a
// user-defined method would be, just with a synthesized one-line body.

// traitEntry describes one traits slot: its selector, the argument names
// its synthesized method binds, and the primitive its body invokes.
type traitEntry struct {
	selector string
	argNames []string
	prim     string
}

var integerPrimitives = []traitEntry{
	{"+", []string{"other"}, "_IntegerAdd"},
	{"-", []string{"other"}, "_IntegerSub"},
	{"*", []string{"other"}, "_IntegerMul"},
	{"/", []string{"other"}, "_IntegerDiv"},
	{"%", []string{"other"}, "_IntegerMod"},
	{"<", []string{"other"}, "_IntegerLess"},
	{"=", []string{"other"}, "_IntegerEquals"},
	{"asFloat", nil, "_IntegerAsFloat"},
	{"asString", nil, "_IntegerAsString"},
}

var floatPrimitives = []traitEntry{
	{"+", []string{"other"}, "_FloatAdd"},
	{"-", []string{"other"}, "_FloatSub"},
	{"*", []string{"other"}, "_FloatMul"},
	{"/", []string{"other"}, "_FloatDiv"},
	{"<", []string{"other"}, "_FloatLess"},
	{"=", []string{"other"}, "_FloatEquals"},
	{"asString", []string(nil), "_FloatAsString"},
}

// buildTraits allocates a slots object whose slots are constant methods, one
// per entry, for the traits objects PrepareWorld installs.
func (vm *VM) buildTraits(entries []traitEntry) (Value, error) {
	descs := make([]slotDescriptor, 0, len(entries))
	for _, e := range entries {
		m, err := vm.newPrimitiveMethod(e.argNames, e.prim)
		if err != nil {
			return 0, err
		}
		descs = append(descs, constSlot(e.selector, m))
	}
	mapv, err := vm.NewSlotsMap(descs)
	if err != nil {
		return 0, err
	}
	return vm.NewSlotsObject(mapv)
}

// newPrimitiveMethod builds a Method object whose body is
// `^ _prim(arg0, arg1, ...)`, i.e. a single Return node wrapping a
// primitive-selector message send with the method's own arguments as
// identifier expressions (spec.md §4.6 step 1: "If S starts with _, invoke
// the primitive named S").
func (vm *VM) newPrimitiveMethod(argNames []string, prim string) (Value, error) {
	args := make([]Expression, len(argNames))
	for i, name := range argNames {
		args[i] = &IdentifierNode{Name: name}
	}
	body := []Statement{{
		Expression: &ReturnNode{
			Value: &MessageNode{Selector: prim, Arguments: args},
		},
	}}
	mapv, aerr := vm.NewMethodMap(nil, argNames, body, nil)
	if aerr != nil {
		return 0, aerr
	}
	return vm.NewMethodObject(mapv)
}

// boolValue maps a Go bool to the VM's True/False singleton objects (spec.md
// §3 has no dedicated boolean tag; see vm.go's doc comment on Nil/True/False).
func (vm *VM) boolValue(b bool) Value {
	if b {
		return vm.True
	}
	return vm.False
}
