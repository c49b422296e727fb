package compiler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSyntax      = errors.New("syntax error")
	ErrOutOfMemory = errors.New("out of memory")
)

// SyntaxError reports an unmatched or unterminated bracket.
type SyntaxError struct {
	Offset int // byte offset of the offending bracket
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func newSyntaxError(source string, offset int, msg string) *SyntaxError {
	line, col := position(source, offset)
	return &SyntaxError{Offset: offset, Line: line, Column: col, Msg: msg}
}

// position converts a byte offset into a 1-based line and column.
func position(source string, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	before := source[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return line, col
}
