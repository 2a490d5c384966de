package engine

import (
	"github.com/google/uuid"

	"bf/internal/ir"
	"bf/internal/tape"
)

// frame is one entry on the IREngine's execution stack: a block currently
// being walked, and — for a block that is a loop body — the guard cell's
// offset so the loop can be re-entered without recursion.
//
// frame.block aliases the Loop node's Body rather than moving it out and
// restoring it on pop (see DESIGN.md's note on §3's ownership rule); the
// engine only ever reads through this alias, never mutates it, so no
// caller can observe the sharing.
type frame struct {
	block      ir.Block
	idx        int
	loopOffset int
	isLoopBody bool
}

// IREngine interprets an optimized ir.Program (C7). Loop bodies are pushed
// onto an explicit stack on entry and popped on exit instead of recursing,
// so arbitrarily deep or long-running loops never grow the Go call stack.
// Grounded on original_source/src/engine/ir.rs.
type IREngine struct {
	id    uuid.UUID
	tape  *tape.Tape
	mp    int
	stack []frame
	input inputBuffer
	halt  bool
}

// NewIR builds an IREngine ready to execute p from its first node.
func NewIR(p *ir.Program) *IREngine {
	return &IREngine{
		id:    uuid.New(),
		tape:  tape.New(),
		stack: []frame{{block: p.Top}},
	}
}

func (e *IREngine) ID() uuid.UUID    { return e.id }
func (e *IREngine) Tape() *tape.Tape { return e.tape }

func (e *IREngine) Input() (byte, bool) { return e.input.peek() }

func (e *IREngine) GiveInput(b byte) (byte, bool) { return e.input.give(b) }

func (e *IREngine) TryGiveInput(b byte) bool {
	if e.input.pending != nil {
		return false
	}
	e.input.give(b)
	return true
}

func (e *IREngine) Run() (StopState, error) { return runLoop(e.Step) }

// Step advances the engine until exactly one observable action occurs (a
// Shift, Add, Output, or consumed Input) or it stops. Loop entry/exit and
// zero-guarded skips are pure control flow and never consume a Step on
// their own.
func (e *IREngine) Step() (StopState, error) {
	if e.halt {
		return StopState{Reason: Halted}, nil
	}
	for {
		if len(e.stack) == 0 {
			e.halt = true
			return StopState{Reason: Halted}, nil
		}
		top := &e.stack[len(e.stack)-1]

		if top.idx >= len(top.block) {
			if !top.isLoopBody {
				e.stack = e.stack[:len(e.stack)-1]
				continue
			}
			pos := e.mp + top.loopOffset
			if pos < 0 {
				return StopState{}, memNegativeErr(pos)
			}
			if e.tape.Get(pos) != 0 {
				top.idx = 0
				continue
			}
			e.stack = e.stack[:len(e.stack)-1]
			parent := &e.stack[len(e.stack)-1]
			parent.idx++
			continue
		}

		node := top.block[top.idx]
		switch node.Kind {
		case ir.KindNoop:
			top.idx++
			continue
		case ir.KindShift:
			// Shift only ever moves mp; MemNegativeOut is raised at the
			// next tape access (Add/Output/Input/Loop guard), matching
			// the raw engine and keeping shift-coalescing/retardation
			// sound — a coalesced or retarded Shift must never become
			// observable as an error the uncoalesced form wouldn't have
			// raised at the same access.
			e.mp += node.Amount
			top.idx++
			return StopState{Reason: Running}, nil
		case ir.KindAdd:
			pos := e.mp + node.Offset
			if pos < 0 {
				return StopState{}, memNegativeErr(pos)
			}
			e.tape.Set(pos, e.tape.Get(pos)+byte(node.Amount))
			top.idx++
			return StopState{Reason: Running}, nil
		case ir.KindOutput:
			pos := e.mp + node.Offset
			if pos < 0 {
				return StopState{}, memNegativeErr(pos)
			}
			b := e.tape.Get(pos)
			top.idx++
			return StopState{Reason: HasOutput, Output: b}, nil
		case ir.KindInput:
			pos := e.mp + node.Offset
			if pos < 0 {
				return StopState{}, memNegativeErr(pos)
			}
			v, ok := e.input.take()
			if !ok {
				return StopState{Reason: NeedInput}, nil
			}
			e.tape.Set(pos, v)
			top.idx++
			return StopState{Reason: Running}, nil
		case ir.KindLoop:
			pos := e.mp + node.Offset
			if pos < 0 {
				return StopState{}, memNegativeErr(pos)
			}
			if e.tape.Get(pos) == 0 {
				top.idx++
				continue
			}
			e.stack = append(e.stack, frame{block: node.Body, loopOffset: node.Offset, isLoopBody: true})
			continue
		}
		// Unreachable for a well-formed ir.Program.
		top.idx++
	}
}
