//go:build !(linux && amd64)

package jit

// Supported reports whether Finalize can produce runnable code.
const Supported = false

// Code is never produced on this platform.
type Code struct{}

func Finalize([]byte) (*Code, error) {
	return nil, ErrUnsupported
}

func (c *Code) Len() int { return 0 }

func (c *Code) Func(int) (Func, error) {
	return nil, ErrUnsupported
}

func (c *Code) Release() error { return nil }
