package jit

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Supported reports whether Finalize can produce runnable code.
const Supported = true

// Code is a read+execute mapping holding assembled fragments.
type Code struct {
	mem []byte
}

// Finalize maps text into fresh memory. The mapping is writable only while
// the bytes are copied in and is switched to read+execute before return.
func Finalize(text []byte) (*Code, error) {
	size := len(text)
	if size == 0 {
		size = 1
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrMap, size, err)
	}
	copy(mem, text)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("%w: mprotect: %w", ErrMap, err)
	}
	return &Code{mem: mem}, nil
}

// Len returns the mapped size.
func (c *Code) Len() int {
	return len(c.mem)
}

// Func returns a callable entry at offset. The Code must outlive every
// returned Func.
func (c *Code) Func(offset int) (Func, error) {
	if c.mem == nil {
		return nil, ErrReleased
	}
	if offset < 0 || offset >= len(c.mem) {
		return nil, fmt.Errorf("jit: entry offset %d outside [0,%d)", offset, len(c.mem))
	}
	// A func value points at a word holding the code address.
	box := new(uintptr)
	*box = uintptr(unsafe.Pointer(&c.mem[offset]))
	p := unsafe.Pointer(box)
	return *(*Func)(unsafe.Pointer(&p)), nil
}

// Release unmaps the code. Calling a Func obtained earlier afterwards
// faults.
func (c *Code) Release() error {
	if c.mem == nil {
		return nil
	}
	err := unix.Munmap(c.mem)
	c.mem = nil
	if err != nil {
		return fmt.Errorf("jit: munmap: %w", err)
	}
	return nil
}
