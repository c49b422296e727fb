package jit

import "encoding/binary"

type fragment struct {
	kind  Kind
	delta int32
}

// Assembler collects fragments into one text buffer. Identical fragments
// are emitted once and share an entry offset.
type Assembler struct {
	text    []byte
	entries map[fragment]int
}

func NewAssembler() *Assembler {
	return &Assembler{entries: make(map[fragment]int)}
}

// Emit returns the entry offset of the fragment for kind and delta,
// appending it to the buffer on first use.
func (a *Assembler) Emit(kind Kind, delta int32) int {
	key := fragment{kind, delta}
	if off, ok := a.entries[key]; ok {
		return off
	}
	off := len(a.text)
	switch kind {
	case CellAdd:
		a.cellAdd(delta)
	case IndexAdd:
		a.indexAdd(delta)
	default:
		panic("jit: unknown fragment kind")
	}
	a.entries[key] = off
	return off
}

// Bytes returns the assembled text.
func (a *Assembler) Bytes() []byte {
	return a.text
}

// Fragments returns the number of distinct fragments emitted.
func (a *Assembler) Fragments() int {
	return len(a.entries)
}

func (a *Assembler) emit(b ...byte) {
	a.text = append(a.text, b...)
}

func (a *Assembler) imm32(v int32) {
	a.text = binary.LittleEndian.AppendUint32(a.text, uint32(v))
}

// State pointer arrives in RAX (Go ABIInternal), status leaves in RAX.
func (a *Assembler) cellAdd(delta int32) {
	a.emit(0x48, 0x8B, 0x48, 0x08) // mov rcx, [rax+8]
	a.emit(0x48, 0x8B, 0x10)       // mov rdx, [rax]
	a.emit(0x81, 0x04, 0x8A)       // add dword [rdx+rcx*4], imm32
	a.imm32(delta)
	a.emit(0x31, 0xC0) // xor eax, eax
	a.emit(0xC3)       // ret
}

func (a *Assembler) indexAdd(delta int32) {
	a.emit(0x48, 0x8B, 0x48, 0x08) // mov rcx, [rax+8]
	a.emit(0x48, 0x81, 0xC1)       // add rcx, imm32
	a.imm32(delta)
	a.emit(0x48, 0x3B, 0x48, 0x10) // cmp rcx, [rax+16]
	a.emit(0x73, 0x07)             // jae fail (unsigned, catches negatives)
	a.emit(0x48, 0x89, 0x48, 0x08) // mov [rax+8], rcx
	a.emit(0x31, 0xC0)             // xor eax, eax
	a.emit(0xC3)                   // ret
	// fail:
	a.emit(0x48, 0xC7, 0xC0, 0xFF, 0xFF, 0xFF, 0xFF) // mov rax, -1
	a.emit(0xC3)                                     // ret
}
