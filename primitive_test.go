package selfcore

import "testing"

// TestIntegerArithmeticPrimitives covers the remaining binary integer
// primitives beyond "+" (already covered in interp_test.go).
func TestIntegerArithmeticPrimitives(t *testing.T) {
	vm := newTestVM(t)
	cases := []struct {
		selector string
		receiver int64
		arg      int64
		want     int64
	}{
		{"_IntegerSub", 10, 3, 7},
		{"_IntegerMul", 6, 7, 42},
		{"_IntegerDiv", 20, 4, 5},
		{"_IntegerMod", 20, 6, 2},
	}
	for _, c := range cases {
		t.Run(c.selector, func(t *testing.T) {
			got := vm.Send(fromInt(c.receiver), c.selector, []Value{fromInt(c.arg)}, SourceRange{})
			if !got.IsNormal() {
				t.Fatalf("unexpected completion: %+v", got)
			}
			if !got.Value.IsInt() || asInt(got.Value) != c.want {
				t.Fatalf("%d %s %d = %v, want %d", c.receiver, c.selector, c.arg, got.Value, c.want)
			}
		})
	}
}

func TestIntegerDivisionByZeroIsRuntimeError(t *testing.T) {
	vm := newTestVM(t)
	for _, selector := range []string{"_IntegerDiv", "_IntegerMod"} {
		t.Run(selector, func(t *testing.T) {
			got := vm.Send(fromInt(1), selector, []Value{fromInt(0)}, SourceRange{})
			if got.Kind != RuntimeErrorCompletion {
				t.Fatalf("%s by zero: got %+v, want a runtime error", selector, got)
			}
		})
	}
}

func TestIntegerComparisonPrimitives(t *testing.T) {
	vm := newTestVM(t)

	less := vm.Send(fromInt(2), "_IntegerLess", []Value{fromInt(5)}, SourceRange{})
	if !less.IsNormal() || less.Value != vm.True {
		t.Fatalf("2 < 5 = %v, want true", less.Value)
	}
	notLess := vm.Send(fromInt(5), "_IntegerLess", []Value{fromInt(2)}, SourceRange{})
	if !notLess.IsNormal() || notLess.Value != vm.False {
		t.Fatalf("5 < 2 = %v, want false", notLess.Value)
	}

	eq := vm.Send(fromInt(3), "_IntegerEquals", []Value{fromInt(3)}, SourceRange{})
	if !eq.IsNormal() || eq.Value != vm.True {
		t.Fatalf("3 = 3 = %v, want true", eq.Value)
	}
	neq := vm.Send(fromInt(3), "_IntegerEquals", []Value{fromInt(4)}, SourceRange{})
	if !neq.IsNormal() || neq.Value != vm.False {
		t.Fatalf("3 = 4 = %v, want false", neq.Value)
	}
}

func TestIntegerConversionPrimitives(t *testing.T) {
	vm := newTestVM(t)

	f := vm.Send(fromInt(3), "_IntegerAsFloat", nil, SourceRange{})
	if !f.IsNormal() || !f.Value.IsFloat() || asFloat(f.Value) != 3.0 {
		t.Fatalf("3 asFloat = %v, want 3.0", f.Value)
	}

	s := vm.Send(fromInt(42), "_IntegerAsString", nil, SourceRange{})
	if !s.IsNormal() {
		t.Fatalf("unexpected completion: %+v", s)
	}
	b, ok := vm.bytesOf(s.Value)
	if !ok || string(b) != "42" {
		t.Fatalf("42 asString = %q, want \"42\"", b)
	}
}

// TestFloatArithmeticPrimitives covers the float analogs of the integer
// arithmetic family.
func TestFloatArithmeticPrimitives(t *testing.T) {
	vm := newTestVM(t)
	cases := []struct {
		selector string
		receiver float64
		arg      float64
		want     float64
	}{
		{"_FloatAdd", 1.5, 2.25, 3.75},
		{"_FloatSub", 5.0, 1.5, 3.5},
		{"_FloatMul", 2.0, 3.5, 7.0},
		{"_FloatDiv", 9.0, 2.0, 4.5},
	}
	for _, c := range cases {
		t.Run(c.selector, func(t *testing.T) {
			got := vm.Send(fromFloat(c.receiver), c.selector, []Value{fromFloat(c.arg)}, SourceRange{})
			if !got.IsNormal() {
				t.Fatalf("unexpected completion: %+v", got)
			}
			if !got.Value.IsFloat() || asFloat(got.Value) != c.want {
				t.Fatalf("%v %s %v = %v, want %v", c.receiver, c.selector, c.arg, got.Value, c.want)
			}
		})
	}
}

func TestFloatDivisionByZeroIsRuntimeError(t *testing.T) {
	vm := newTestVM(t)
	got := vm.Send(fromFloat(1.0), "_FloatDiv", []Value{fromFloat(0)}, SourceRange{})
	if got.Kind != RuntimeErrorCompletion {
		t.Fatalf("float / 0: got %+v, want a runtime error", got)
	}
}

func TestFloatComparisonPrimitives(t *testing.T) {
	vm := newTestVM(t)

	less := vm.Send(fromFloat(1.0), "_FloatLess", []Value{fromFloat(2.0)}, SourceRange{})
	if !less.IsNormal() || less.Value != vm.True {
		t.Fatalf("1.0 < 2.0 = %v, want true", less.Value)
	}

	eq := vm.Send(fromFloat(1.5), "_FloatEquals", []Value{fromFloat(1.5)}, SourceRange{})
	if !eq.IsNormal() || eq.Value != vm.True {
		t.Fatalf("1.5 = 1.5 = %v, want true", eq.Value)
	}
}

func TestFloatAsStringPrimitive(t *testing.T) {
	vm := newTestVM(t)
	s := vm.Send(fromFloat(2.5), "_FloatAsString", nil, SourceRange{})
	if !s.IsNormal() {
		t.Fatalf("unexpected completion: %+v", s)
	}
	b, ok := vm.bytesOf(s.Value)
	if !ok || string(b) != "2.5" {
		t.Fatalf("2.5 asString = %q, want \"2.5\"", b)
	}
}

// TestCloneProducesDistinctObjectWithSameSlots covers spec.md §9's discretion
// note on `_Clone`: cloning must yield a distinct object whose slots start
// out equal to the original's, but independently mutable thereafter.
func TestCloneProducesDistinctObjectWithSameSlots(t *testing.T) {
	vm := newTestVM(t)
	objC := vm.Eval(&ObjectLiteral{Slots: []SlotSpec{
		{Name: "x", IsMutable: true, Value: &NumberNode{IntValue: 1}},
	}})
	if !objC.IsNormal() {
		t.Fatalf("building object: %+v", objC)
	}

	cloneC := vm.Send(objC.Value, "_Clone", nil, SourceRange{})
	if !cloneC.IsNormal() {
		t.Fatalf("unexpected completion: %+v", cloneC)
	}
	if cloneC.Value == objC.Value {
		t.Fatal("clone must be a distinct object")
	}

	readClone := vm.Send(cloneC.Value, "x", nil, SourceRange{})
	if asInt(readClone.Value) != 1 {
		t.Fatalf("clone's x = %v, want 1", readClone.Value)
	}

	vm.Send(objC.Value, "x:", []Value{fromInt(99)}, SourceRange{})
	readCloneAgain := vm.Send(cloneC.Value, "x", nil, SourceRange{})
	if asInt(readCloneAgain.Value) != 1 {
		t.Fatalf("mutating the original must not affect the clone; clone's x = %v, want still 1", readCloneAgain.Value)
	}
}

// TestAddSlotValuePrimitive covers `_AddSlot:Value:` (spec.md §4.2): after
// the primitive adds a slot to an object, sending the slot's name to that
// object returns the value it was added with.
func TestAddSlotValuePrimitive(t *testing.T) {
	vm := newTestVM(t)
	objC := vm.Eval(&ObjectLiteral{})
	if !objC.IsNormal() {
		t.Fatalf("building object: %+v", objC)
	}
	name, aerr := vm.NewByteArray([]byte("greeting"))
	if aerr != nil {
		t.Fatalf("building name: %v", aerr)
	}

	added := vm.Send(objC.Value, "_AddSlot:Value:", []Value{name, fromInt(7)}, SourceRange{})
	if !added.IsNormal() {
		t.Fatalf("unexpected completion: %+v", added)
	}

	read := vm.Send(objC.Value, "greeting", nil, SourceRange{})
	if !read.IsNormal() || asInt(read.Value) != 7 {
		t.Fatalf("greeting = %+v, want 7", read)
	}
}

// TestCollectorPrimitives covers `_CollectorCollect` and `_CollectorStats`:
// the former must run without error and count a minor cycle, and the latter
// must render a non-empty stats string.
func TestCollectorPrimitives(t *testing.T) {
	vm := newTestVM(t)

	collect := vm.Send(vm.Lobby, "_CollectorCollect", nil, SourceRange{})
	if !collect.IsNormal() {
		t.Fatalf("unexpected completion: %+v", collect)
	}
	if vm.Heap.Stats().MinorCycles < 1 {
		t.Fatal("_CollectorCollect should have run at least one minor cycle")
	}

	stats := vm.Send(vm.Lobby, "_CollectorStats", nil, SourceRange{})
	if !stats.IsNormal() {
		t.Fatalf("unexpected completion: %+v", stats)
	}
	b, ok := vm.bytesOf(stats.Value)
	if !ok || len(b) == 0 {
		t.Fatal("_CollectorStats should render a non-empty byte array")
	}
}
