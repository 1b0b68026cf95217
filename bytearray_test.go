package selfcore

import "testing"

func TestBytesSizeAndAt(t *testing.T) {
	vm := newTestVM(t)
	v, aerr := vm.NewByteArray([]byte("abc"))
	if aerr != nil {
		t.Fatalf("building byte array: %v", aerr)
	}

	size := vm.Send(v, "_BytesSize", nil, SourceRange{})
	if !size.IsNormal() || asInt(size.Value) != 3 {
		t.Fatalf("_BytesSize = %v, want 3", size.Value)
	}

	at1 := vm.Send(v, "_BytesAt:", []Value{fromInt(1)}, SourceRange{})
	if !at1.IsNormal() || asInt(at1.Value) != int64('b') {
		t.Fatalf("_BytesAt: 1 = %v, want %d ('b')", at1.Value, 'b')
	}

	outOfRange := vm.Send(v, "_BytesAt:", []Value{fromInt(10)}, SourceRange{})
	if outOfRange.Kind != RuntimeErrorCompletion {
		t.Fatalf("out-of-range _BytesAt: should be a runtime error, got %+v", outOfRange)
	}
}

func TestBytesAppend(t *testing.T) {
	vm := newTestVM(t)
	a, aerr := vm.NewByteArray([]byte("foo"))
	if aerr != nil {
		t.Fatalf("building a: %v", aerr)
	}
	b, aerr := vm.NewByteArray([]byte("bar"))
	if aerr != nil {
		t.Fatalf("building b: %v", aerr)
	}

	joined := vm.Send(a, "_BytesAppend:", []Value{b}, SourceRange{})
	if !joined.IsNormal() {
		t.Fatalf("unexpected completion: %+v", joined)
	}
	out, ok := vm.bytesOf(joined.Value)
	if !ok || string(out) != "foobar" {
		t.Fatalf("_BytesAppend: result = %q, want \"foobar\"", out)
	}

	// The two inputs must be unaffected (append must not mutate in place).
	origA, _ := vm.bytesOf(a)
	if string(origA) != "foo" {
		t.Fatalf("receiver mutated by append: now %q", origA)
	}
}

// TestBytesLatin1RoundTrip covers the two Latin-1 conversion primitives:
// converting ASCII-range text to Latin-1 and back must be lossless.
func TestBytesLatin1RoundTrip(t *testing.T) {
	vm := newTestVM(t)
	v, aerr := vm.NewByteArray([]byte("hello"))
	if aerr != nil {
		t.Fatalf("building byte array: %v", aerr)
	}

	latin1 := vm.Send(v, "_BytesAsLatin1", nil, SourceRange{})
	if !latin1.IsNormal() {
		t.Fatalf("unexpected completion: %+v", latin1)
	}

	back := vm.Send(latin1.Value, "_BytesFromLatin1", nil, SourceRange{})
	if !back.IsNormal() {
		t.Fatalf("unexpected completion: %+v", back)
	}
	out, ok := vm.bytesOf(back.Value)
	if !ok || string(out) != "hello" {
		t.Fatalf("round trip = %q, want \"hello\"", out)
	}
}

// TestBytesUTF16RoundTrip and TestBytesUTF32RoundTrip cover the other two
// encoding-conversion primitive pairs, grounded on sequence-string.go's
// encUTF16/encUTF32 codecs.
func TestBytesUTF16RoundTrip(t *testing.T) {
	vm := newTestVM(t)
	v, aerr := vm.NewByteArray([]byte("hello"))
	if aerr != nil {
		t.Fatalf("building byte array: %v", aerr)
	}

	utf16 := vm.Send(v, "_BytesAsUTF16", nil, SourceRange{})
	if !utf16.IsNormal() {
		t.Fatalf("unexpected completion: %+v", utf16)
	}
	wide, ok := vm.bytesOf(utf16.Value)
	if !ok || len(wide) != 2*len("hello") {
		t.Fatalf("_BytesAsUTF16 result length = %d, want %d", len(wide), 2*len("hello"))
	}

	back := vm.Send(utf16.Value, "_BytesFromUTF16", nil, SourceRange{})
	if !back.IsNormal() {
		t.Fatalf("unexpected completion: %+v", back)
	}
	out, ok := vm.bytesOf(back.Value)
	if !ok || string(out) != "hello" {
		t.Fatalf("round trip = %q, want \"hello\"", out)
	}
}

func TestBytesUTF32RoundTrip(t *testing.T) {
	vm := newTestVM(t)
	v, aerr := vm.NewByteArray([]byte("hello"))
	if aerr != nil {
		t.Fatalf("building byte array: %v", aerr)
	}

	utf32 := vm.Send(v, "_BytesAsUTF32", nil, SourceRange{})
	if !utf32.IsNormal() {
		t.Fatalf("unexpected completion: %+v", utf32)
	}
	wide, ok := vm.bytesOf(utf32.Value)
	if !ok || len(wide) != 4*len("hello") {
		t.Fatalf("_BytesAsUTF32 result length = %d, want %d", len(wide), 4*len("hello"))
	}

	back := vm.Send(utf32.Value, "_BytesFromUTF32", nil, SourceRange{})
	if !back.IsNormal() {
		t.Fatalf("unexpected completion: %+v", back)
	}
	out, ok := vm.bytesOf(back.Value)
	if !ok || string(out) != "hello" {
		t.Fatalf("round trip = %q, want \"hello\"", out)
	}
}
