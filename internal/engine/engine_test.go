package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bf/internal/ir"
	"bf/internal/optimize"
	"bf/internal/raw"
)

func runAll(t *testing.T, e Engine, input []byte) []byte {
	t.Helper()
	var out []byte
	ii := 0
	for {
		s, err := e.Run()
		require.NoError(t, err)
		switch s.Reason {
		case Halted:
			return out
		case HasOutput:
			out = append(out, s.Output)
		case NeedInput:
			require.Less(t, ii, len(input), "program asked for more input than provided")
			e.GiveInput(input[ii])
			ii++
		default:
			t.Fatalf("unexpected reason %v", s.Reason)
		}
	}
}

func rawAndIR(t *testing.T, src string) (*RawEngine, *IREngine) {
	t.Helper()
	p, err := raw.FromText(src)
	require.NoError(t, err)
	prog := ir.Lower(p)
	optimize.Program(prog)
	return NewRaw(p), NewIR(prog)
}

func TestRawAndIREngineAgreeOnOutput(t *testing.T) {
	// "++>+++++[<+>-]<." copies 5 onto cell 0 (which starts at 2), so cell
	// 0 ends at 7 and the output is the byte 7.
	re, ie := rawAndIR(t, "++>+++++[<+>-]<.")
	require.Equal(t, runAll(t, re, nil), runAll(t, ie, nil))
	require.Equal(t, []byte{7}, runAll(t, NewRaw(mustRaw(t, "++>+++++[<+>-]<.")), nil))
}

func mustRaw(t *testing.T, src string) *raw.Program {
	t.Helper()
	p, err := raw.FromText(src)
	require.NoError(t, err)
	return p
}

func TestEchoesInputUnchanged(t *testing.T) {
	re, ie := rawAndIR(t, ",.")
	require.Equal(t, []byte{65}, runAll(t, re, []byte{65}))
	require.Equal(t, []byte{65}, runAll(t, ie, []byte{65}))
}

func TestHaltedIsIdempotent(t *testing.T) {
	p, err := raw.FromText("+")
	require.NoError(t, err)
	e := NewRaw(p)
	_, err = e.Run()
	require.NoError(t, err)
	s, err := e.Step()
	require.NoError(t, err)
	require.Equal(t, Halted, s.Reason)
	s, err = e.Step()
	require.NoError(t, err)
	require.Equal(t, Halted, s.Reason)
}

// TestShiftAloneDoesNotErrorOnEitherEngine pins down the access-time error
// model: "<" only ever moves mp below zero, it never reads or writes a
// cell, so neither engine raises MemNegativeOut. The optimizer is free to
// coalesce or dead-tail-trim that Shift away entirely (it does, here) —
// were the error raised at Shift time instead, the raw and IR engines
// would disagree on this exact program.
func TestShiftAloneDoesNotErrorOnEitherEngine(t *testing.T) {
	re, ie := rawAndIR(t, "<")
	_, err := re.Run()
	require.NoError(t, err)
	_, err = ie.Run()
	require.NoError(t, err)
}

// TestShiftBelowZeroErrorsOnAccessOnEitherEngine exercises the access-time
// error model end to end: "<." shifts below zero and then reads the cell,
// so both engines must agree on raising MemNegativeOut at the Output, not
// at the Shift.
func TestShiftBelowZeroErrorsOnAccessOnEitherEngine(t *testing.T) {
	re, ie := rawAndIR(t, "<.")
	_, err := re.Run()
	require.ErrorIs(t, err, ErrMemNegativeOut)
	_, err = ie.Run()
	require.ErrorIs(t, err, ErrMemNegativeOut)
}

// TestShiftThenBackDoesNotErrorOnEitherEngine covers "<>": the raw engine
// walks below zero and back above it without ever touching a cell, and the
// optimizer coalesces the two Shifts into nothing, so both engines must
// agree on Halted with no error.
func TestShiftThenBackDoesNotErrorOnEitherEngine(t *testing.T) {
	re, ie := rawAndIR(t, "<>")
	_, err := re.Run()
	require.NoError(t, err)
	_, err = ie.Run()
	require.NoError(t, err)
}

func TestIREngineNegativeOffsetErrors(t *testing.T) {
	// A hand-built IR program with a negative Add offset, as optimized IR
	// could in principle produce via shift retardation gone past zero.
	prog := &ir.Program{Top: ir.Block{ir.AddNode(1, -1)}}
	e := NewIR(prog)
	_, err := e.Run()
	require.ErrorIs(t, err, ErrMemNegativeOut)
}

func TestLoopReentryMovesValueOneCellRight(t *testing.T) {
	// "+++[>+<-]" moves the value 3 one cell to the right via three body
	// re-entries. The body's net shift is zero; after optimization it holds
	// no Shift at all, only Adds at offsets 0 and 1, which must run again
	// on every re-entry.
	re, ie := rawAndIR(t, "+++[>+<-]>.")
	require.Equal(t, []byte{3}, runAll(t, re, nil))
	require.Equal(t, []byte{3}, runAll(t, ie, nil))
}

func TestEachEngineHasAStableID(t *testing.T) {
	p, err := raw.FromText("+")
	require.NoError(t, err)
	e := NewRaw(p)
	id1 := e.ID()
	id2 := e.ID()
	require.Equal(t, id1, id2)
}

func TestTryGiveInputOnlyWhenPendingSlotIsEmpty(t *testing.T) {
	p, err := raw.FromText("+,.")
	require.NoError(t, err)
	e := NewRaw(p)

	// The slot is empty before the engine ever blocks on it, so a
	// TryGiveInput succeeds immediately — the contract gates on the
	// pending slot, not on the instruction currently pointed at.
	require.True(t, e.TryGiveInput(1))
	v, ok := e.Input()
	require.True(t, ok)
	require.Equal(t, byte(1), v)

	// The slot is now full: a second TryGiveInput must not clobber it.
	require.False(t, e.TryGiveInput(2))
	v, ok = e.Input()
	require.True(t, ok)
	require.Equal(t, byte(1), v)

	s, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, HasOutput, s.Reason)
	require.Equal(t, byte(1), s.Output)
}

func TestGiveInputReturnsTheDisplacedByte(t *testing.T) {
	var e IREngine
	displaced, ok := e.GiveInput(1)
	require.False(t, ok, "slot starts empty, nothing displaced")
	require.Equal(t, byte(0), displaced)

	displaced, ok = e.GiveInput(2)
	require.True(t, ok)
	require.Equal(t, byte(1), displaced)
}
