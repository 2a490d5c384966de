// Package raw implements the Raw Program data model (C1): a validated
// sequence of the eight Brainfuck opcodes with matched brackets.
//
// Grounded on original_source/src/raw.rs (Instruction, Program::from_instrs's
// single left-to-right bracket-depth scan).
package raw

import (
	"errors"
	"fmt"
	"strings"

	"bf/internal/bferr"
)

// Instruction is one of the eight Brainfuck opcodes.
type Instruction byte

const (
	ShiftRight Instruction = '>'
	ShiftLeft  Instruction = '<'
	Add        Instruction = '+'
	Sub        Instruction = '-'
	Output     Instruction = '.'
	Input      Instruction = ','
	OpenLoop   Instruction = '['
	CloseLoop  Instruction = ']'
)

// ErrUnmatchedParentheses is the sentinel every unmatched-bracket *bferr.Error wraps.
var ErrUnmatchedParentheses = errors.New("brainfuck program has unmatched parentheses")

func (i Instruction) String() string {
	return string(rune(i))
}

// isOpcode reports whether b is one of the eight recognized opcode bytes.
func isOpcode(b byte) bool {
	switch Instruction(b) {
	case ShiftRight, ShiftLeft, Add, Sub, Output, Input, OpenLoop, CloseLoop:
		return true
	default:
		return false
	}
}

// Program is an ordered, validated sequence of Instructions: brackets are
// guaranteed properly nested and matched.
type Program struct {
	code []Instruction
}

// FromBytes filters non-opcode bytes and validates bracket balance.
func FromBytes(src []byte) (*Program, error) {
	code := make([]Instruction, 0, len(src))
	for _, b := range src {
		if isOpcode(b) {
			code = append(code, Instruction(b))
		}
	}
	return fromInstructions(code)
}

// FromText is a convenience wrapper over FromBytes for UTF-8 text; any
// multi-byte rune is simply never an opcode byte and is dropped, matching
// spec.md §6's "any non-opcode character is ignored silently".
func FromText(src string) (*Program, error) {
	return FromBytes([]byte(src))
}

func fromInstructions(code []Instruction) (*Program, error) {
	depth := 0
	for i, instr := range code {
		switch instr {
		case OpenLoop:
			depth++
		case CloseLoop:
			depth--
			if depth < 0 {
				return nil, bferr.Wrap(bferr.ParseError, i, ErrUnmatchedParentheses,
					"unmatched ']'")
			}
		}
	}
	if depth != 0 {
		return nil, bferr.Wrap(bferr.ParseError, len(code), ErrUnmatchedParentheses,
			"%d unclosed '['", depth)
	}
	return &Program{code: code}, nil
}

// Len returns the number of instructions in the program.
func (p *Program) Len() int {
	return len(p.code)
}

// At returns the instruction at index i.
func (p *Program) At(i int) Instruction {
	return p.code[i]
}

// AsBytes returns the program's opcode bytes in order.
func (p *Program) AsBytes() []byte {
	out := make([]byte, len(p.code))
	for i, instr := range p.code {
		out[i] = byte(instr)
	}
	return out
}

// AsText returns the program's opcode bytes in order as text.
func (p *Program) AsText() string {
	return string(p.AsBytes())
}

// String implements fmt.Stringer, matching the original's Display impl.
func (p *Program) String() string {
	var sb strings.Builder
	sb.Grow(len(p.code))
	for _, instr := range p.code {
		fmt.Fprint(&sb, instr.String())
	}
	return sb.String()
}
