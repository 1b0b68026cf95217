package selfcore

import (
	"strconv"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// This file supplies the byte-array object's primitive set (spec.md §3
// "Byte array object": "map + contiguous bytes"), scoped to the modest
// catalog SPEC_FULL.md §5 describes: size, indexed read, concatenation, and
// the encoding conversions grounded in the teacher's sequence-string.go,
// which converts Sequence contents between encodings via
// golang.org/x/text/encoding (encLatin1/encUTF16/encUTF32). Growing this
// into a full mutable Sequence/List standard library is out of the spec's
// scope (§1).
//
// encUTF16 and encUTF32 mirror sequence-string.go's own little-endian,
// no-BOM choice of codec exactly, rather than inventing a new default.
var (
	encUTF16 = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	encUTF32 = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
)

func init() {
	registerPrimitive("_BytesSize", primBytesSize)
	registerPrimitive("_BytesAt:", primBytesAt)
	registerPrimitive("_BytesAppend:", primBytesAppend)
	registerPrimitive("_BytesAsLatin1", primBytesAsLatin1)
	registerPrimitive("_BytesFromLatin1", primBytesFromLatin1)
	registerPrimitive("_BytesAsUTF16", primBytesAsUTF16)
	registerPrimitive("_BytesFromUTF16", primBytesFromUTF16)
	registerPrimitive("_BytesAsUTF32", primBytesAsUTF32)
	registerPrimitive("_BytesFromUTF32", primBytesFromUTF32)
}

// bytesOf returns the backing bytes of a byte-array object, or false if v is
// not one.
func (vm *VM) bytesOf(v Value) ([]byte, bool) {
	if !v.IsRef() || vm.Heap.Kind(v) != KindBytes {
		return nil, false
	}
	return vm.Heap.Cell(v).bytes, true
}

func primBytesSize(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesSize receiver must be a byte array", r)
	}
	return normal(fromInt(int64(len(b))))
}

func primBytesAt(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesAt: receiver must be a byte array", r)
	}
	idx, errC := argInt("_BytesAt:", args, r)
	if errC != nil {
		return *errC
	}
	if idx < 0 || idx >= int64(len(b)) {
		return errCompletion("_BytesAt: index "+strconv.FormatInt(idx, 10)+" out of range", r)
	}
	return normal(fromInt(int64(b[idx])))
}

func primBytesAppend(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	a, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesAppend: receiver must be a byte array", r)
	}
	if len(args) != 1 {
		return errCompletion("_BytesAppend: expects one byte-array argument", r)
	}
	b, ok := vm.bytesOf(args[0])
	if !ok {
		return errCompletion("_BytesAppend: argument must be a byte array", r)
	}
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primBytesAsLatin1 transcodes receiver's bytes, assumed UTF-8, into
// ISO-8859-1 (spec.md §3 "Byte array object"; SPEC_FULL.md §5 "byte-array
// object text encoding/decoding primitives").
func primBytesAsLatin1(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesAsLatin1 receiver must be a byte array", r)
	}
	out, err := charmap.ISO8859_1.NewEncoder().Bytes(b)
	if err != nil {
		return errCompletion("_BytesAsLatin1: "+err.Error(), r)
	}
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primBytesFromLatin1 transcodes receiver's bytes from ISO-8859-1 into
// UTF-8.
func primBytesFromLatin1(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesFromLatin1 receiver must be a byte array", r)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return errCompletion("_BytesFromLatin1: "+err.Error(), r)
	}
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primBytesAsUTF16 transcodes receiver's bytes, assumed UTF-8, into
// little-endian UTF-16 (sequence-string.go's encUTF16 codec).
func primBytesAsUTF16(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesAsUTF16 receiver must be a byte array", r)
	}
	out, err := encUTF16.NewEncoder().Bytes(b)
	if err != nil {
		return errCompletion("_BytesAsUTF16: "+err.Error(), r)
	}
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primBytesFromUTF16 transcodes receiver's bytes from little-endian UTF-16
// into UTF-8.
func primBytesFromUTF16(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesFromUTF16 receiver must be a byte array", r)
	}
	out, err := encUTF16.NewDecoder().Bytes(b)
	if err != nil {
		return errCompletion("_BytesFromUTF16: "+err.Error(), r)
	}
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primBytesAsUTF32 transcodes receiver's bytes, assumed UTF-8, into
// little-endian UTF-32 (sequence-string.go's encUTF32 codec).
func primBytesAsUTF32(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesAsUTF32 receiver must be a byte array", r)
	}
	out, err := encUTF32.NewEncoder().Bytes(b)
	if err != nil {
		return errCompletion("_BytesAsUTF32: "+err.Error(), r)
	}
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}

// primBytesFromUTF32 transcodes receiver's bytes from little-endian UTF-32
// into UTF-8.
func primBytesFromUTF32(vm *VM, receiver Value, args []Value, r SourceRange) Completion {
	b, ok := vm.bytesOf(receiver)
	if !ok {
		return errCompletion("_BytesFromUTF32 receiver must be a byte array", r)
	}
	out, err := encUTF32.NewDecoder().Bytes(b)
	if err != nil {
		return errCompletion("_BytesFromUTF32: "+err.Error(), r)
	}
	v, aerr := vm.NewByteArray(out)
	if aerr != nil {
		return errCompletion(aerr.Error(), r)
	}
	return normal(v)
}
