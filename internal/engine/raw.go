package engine

import (
	"github.com/google/uuid"

	"bf/internal/raw"
	"bf/internal/tape"
)

// RawEngine interprets a raw.Program instruction-by-instruction — the
// reference oracle (C6) every IR-level optimization is checked against.
// Grounded on original_source/src/engine/raw.rs.
type RawEngine struct {
	id    uuid.UUID
	prog  *raw.Program
	tape  *tape.Tape
	mp    int
	ip    int
	jump  []int // jump[i] is the matching bracket's index, for i a '[' or ']'
	input inputBuffer
	halt  bool
}

// NewRaw builds a RawEngine ready to execute p from its first instruction.
func NewRaw(p *raw.Program) *RawEngine {
	return &RawEngine{
		id:   uuid.New(),
		prog: p,
		tape: tape.New(),
		jump: matchBrackets(p),
	}
}

// matchBrackets precomputes, for every bracket instruction, the index of
// its match, so loop jumps are O(1) instead of rescanning. p is assumed
// already validated (raw.FromBytes/FromText reject unmatched brackets).
func matchBrackets(p *raw.Program) []int {
	jump := make([]int, p.Len())
	var stack []int
	for i := 0; i < p.Len(); i++ {
		switch p.At(i) {
		case raw.OpenLoop:
			stack = append(stack, i)
		case raw.CloseLoop:
			top := len(stack) - 1
			open := stack[top]
			stack = stack[:top]
			jump[open] = i
			jump[i] = open
		}
	}
	return jump
}

func (e *RawEngine) ID() uuid.UUID    { return e.id }
func (e *RawEngine) Tape() *tape.Tape { return e.tape }

func (e *RawEngine) Input() (byte, bool) { return e.input.peek() }

func (e *RawEngine) GiveInput(b byte) (byte, bool) { return e.input.give(b) }

func (e *RawEngine) TryGiveInput(b byte) bool {
	if e.input.pending != nil {
		return false
	}
	e.input.give(b)
	return true
}

func (e *RawEngine) Run() (StopState, error) { return runLoop(e.Step) }

// Step executes exactly one raw instruction (or, at the end of the
// program, reports Halted).
func (e *RawEngine) Step() (StopState, error) {
	if e.halt {
		return StopState{Reason: Halted}, nil
	}
	if e.ip >= e.prog.Len() {
		e.halt = true
		return StopState{Reason: Halted}, nil
	}

	switch e.prog.At(e.ip) {
	case raw.ShiftRight:
		e.mp++
		e.ip++
		return StopState{Reason: Running}, nil
	case raw.ShiftLeft:
		// Shift only ever moves mp; MemNegativeOut is raised at the next
		// tape access, not here — see memNegativeErr's callers below. This
		// keeps the raw engine's error timing aligned with the IR engine,
		// where shift-coalescing can merge a Shift with the node that
		// would have observed an underflow first.
		e.mp--
		e.ip++
		return StopState{Reason: Running}, nil
	case raw.Add:
		if e.mp < 0 {
			return StopState{}, memNegativeErr(e.mp)
		}
		e.tape.Set(e.mp, e.tape.Get(e.mp)+1)
		e.ip++
		return StopState{Reason: Running}, nil
	case raw.Sub:
		if e.mp < 0 {
			return StopState{}, memNegativeErr(e.mp)
		}
		e.tape.Set(e.mp, e.tape.Get(e.mp)-1)
		e.ip++
		return StopState{Reason: Running}, nil
	case raw.Output:
		if e.mp < 0 {
			return StopState{}, memNegativeErr(e.mp)
		}
		b := e.tape.Get(e.mp)
		e.ip++
		return StopState{Reason: HasOutput, Output: b}, nil
	case raw.Input:
		if e.mp < 0 {
			return StopState{}, memNegativeErr(e.mp)
		}
		v, ok := e.input.take()
		if !ok {
			return StopState{Reason: NeedInput}, nil
		}
		e.tape.Set(e.mp, v)
		e.ip++
		return StopState{Reason: Running}, nil
	case raw.OpenLoop:
		if e.mp < 0 {
			return StopState{}, memNegativeErr(e.mp)
		}
		if e.tape.Get(e.mp) == 0 {
			e.ip = e.jump[e.ip] + 1
		} else {
			e.ip++
		}
		return StopState{Reason: Running}, nil
	case raw.CloseLoop:
		if e.mp < 0 {
			return StopState{}, memNegativeErr(e.mp)
		}
		if e.tape.Get(e.mp) != 0 {
			e.ip = e.jump[e.ip] + 1
		} else {
			e.ip++
		}
		return StopState{Reason: Running}, nil
	default:
		e.ip++
		return StopState{Reason: Running}, nil
	}
}
