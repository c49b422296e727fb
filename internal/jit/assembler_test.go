package jit

import (
	"bytes"
	"testing"
	"unsafe"
)

func TestStateLayout(t *testing.T) {
	var s State
	offsets := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"Cells", unsafe.Offsetof(s.Cells), 0},
		{"Cursor", unsafe.Offsetof(s.Cursor), 8},
		{"Length", unsafe.Offsetof(s.Length), 16},
	}
	for _, o := range offsets {
		if o.got != o.want {
			t.Errorf("offset of %s wrong. got=%d, want=%d", o.name, o.got, o.want)
		}
	}
}

func TestAssembler_CellFragment(t *testing.T) {
	a := NewAssembler()
	if off := a.Emit(CellAdd, -2); off != 0 {
		t.Fatalf("first entry offset = %d, want 0", off)
	}
	want := []byte{
		0x48, 0x8B, 0x48, 0x08,
		0x48, 0x8B, 0x10,
		0x81, 0x04, 0x8A, 0xFE, 0xFF, 0xFF, 0xFF,
		0x31, 0xC0,
		0xC3,
	}
	if !bytes.Equal(a.Bytes(), want) {
		t.Errorf("cell fragment wrong.\ngot=% X\nwant=% X", a.Bytes(), want)
	}
}

func TestAssembler_IndexFragment(t *testing.T) {
	a := NewAssembler()
	a.Emit(IndexAdd, 3)
	want := []byte{
		0x48, 0x8B, 0x48, 0x08,
		0x48, 0x81, 0xC1, 0x03, 0x00, 0x00, 0x00,
		0x48, 0x3B, 0x48, 0x10,
		0x73, 0x07,
		0x48, 0x89, 0x48, 0x08,
		0x31, 0xC0,
		0xC3,
		0x48, 0xC7, 0xC0, 0xFF, 0xFF, 0xFF, 0xFF,
		0xC3,
	}
	if !bytes.Equal(a.Bytes(), want) {
		t.Errorf("index fragment wrong.\ngot=% X\nwant=% X", a.Bytes(), want)
	}
	// the jae displacement must land on the failure path
	jae := bytes.Index(a.Bytes(), []byte{0x73, 0x07})
	if fail := jae + 2 + 7; a.Bytes()[fail] != 0x48 || a.Bytes()[fail+2] != 0xC0 {
		t.Errorf("jae target %d does not start the failure path", fail)
	}
}

func TestAssembler_Dedup(t *testing.T) {
	a := NewAssembler()
	first := a.Emit(CellAdd, 5)
	second := a.Emit(IndexAdd, 5)
	if a.Emit(CellAdd, 5) != first || a.Emit(IndexAdd, 5) != second {
		t.Error("identical fragments got distinct entries")
	}
	if a.Emit(CellAdd, 6) == first {
		t.Error("different deltas share an entry")
	}
	if a.Fragments() != 3 {
		t.Errorf("fragment count wrong. got=%d, want=3", a.Fragments())
	}
}

func TestFitsInt32(t *testing.T) {
	tests := []struct {
		v    int
		want bool
	}{
		{0, true},
		{-2147483648, true},
		{2147483647, true},
		{2147483648, false},
		{-2147483649, false},
	}
	for _, tt := range tests {
		if got := FitsInt32(tt.v); got != tt.want {
			t.Errorf("FitsInt32(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
