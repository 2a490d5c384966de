// Package engine implements the Raw Engine (C6, the reference oracle) and
// the IR Engine (C7, the stepwise interpreter over optimized IR), sharing
// one stop/resume contract so a host can drive either interchangeably.
//
// Grounded on original_source/src/engine/mod.rs (the Engine trait and its
// StopState enum) and original_source/src/engine/{raw,ir}.rs for the two
// concrete interpreters; each engine is tagged with a google/uuid.UUID for
// log correlation the way the teacher's VM instances carry identity for
// its own diagnostics.
package engine

import (
	"errors"

	"github.com/google/uuid"

	"bf/internal/bferr"
	"bf/internal/tape"
)

// ErrMemNegativeOut is the sentinel wrapped whenever a tape access (Add,
// Output, Input, or a loop guard read) falls at a negative cell index; a
// Shift alone that moves the pointer below zero does not raise it.
// spec.md explicitly excludes negative-address memory, so this is always a
// hard error, never a recoverable condition.
var ErrMemNegativeOut = errors.New("engine: tape pointer moved below zero")

// Reason classifies why a Step (or Run) call returned control to the
// caller.
type Reason int

const (
	// Running means the engine made progress and is ready for another
	// Step call; Run never returns this — it keeps stepping past it.
	Running Reason = iota
	// Halted means the program has finished; further Step calls are
	// no-ops that keep returning Halted.
	Halted
	// NeedInput means the engine is blocked on a "," instruction with no
	// buffered input; call GiveInput and Step again.
	NeedInput
	// HasOutput means the engine just produced one byte via ".";
	// StopState.Output holds it.
	HasOutput
)

func (r Reason) String() string {
	switch r {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case NeedInput:
		return "NeedInput"
	case HasOutput:
		return "HasOutput"
	default:
		return "Reason(?)"
	}
}

// StopState is the result of one Step or Run call.
type StopState struct {
	Reason Reason
	Output byte // valid iff Reason == HasOutput
}

// Engine is the shared contract both interpreters satisfy. Neither engine
// performs blocking I/O internally — the caller owns the event loop,
// feeding input via GiveInput/TryGiveInput and consuming HasOutput stops.
type Engine interface {
	// ID identifies this engine instance for log correlation.
	ID() uuid.UUID
	// Step advances the engine by one unit of work or reports a stop; it
	// never blocks. For RawEngine the unit is one raw instruction; for
	// IREngine it is one Shift, Add, Output or consumed Input.
	Step() (StopState, error)
	// Run calls Step repeatedly, skipping over Running results, until the
	// next stop or an error.
	Run() (StopState, error)
	// Input inspects the pending-input slot without consuming it,
	// reporting the buffered byte and whether one is present.
	Input() (byte, bool)
	// GiveInput buffers one byte of input, overwriting any previously
	// buffered and not yet consumed byte, and returns whatever byte it
	// displaced (ok is false if the slot was empty).
	GiveInput(b byte) (displaced byte, ok bool)
	// TryGiveInput buffers b only if the pending-input slot is empty,
	// reporting whether it did.
	TryGiveInput(b byte) bool
	// Tape exposes the engine's memory tape, mainly for inspection by
	// tests and the save/load round trip.
	Tape() *tape.Tape
}

// inputBuffer is the single-byte pending-input slot shared by both
// concrete engines.
type inputBuffer struct {
	pending *byte
}

// give buffers v, returning whatever byte it displaced.
func (b *inputBuffer) give(v byte) (byte, bool) {
	prev, hadPrev := b.peek()
	cp := v
	b.pending = &cp
	return prev, hadPrev
}

// peek inspects the pending slot without consuming it.
func (b *inputBuffer) peek() (byte, bool) {
	if b.pending == nil {
		return 0, false
	}
	return *b.pending, true
}

func (b *inputBuffer) take() (byte, bool) {
	if b.pending == nil {
		return 0, false
	}
	v := *b.pending
	b.pending = nil
	return v, true
}

func runLoop(step func() (StopState, error)) (StopState, error) {
	for {
		s, err := step()
		if err != nil {
			return s, err
		}
		if s.Reason != Running {
			return s, nil
		}
	}
}

func memNegativeErr(pos int) error {
	return bferr.Wrap(bferr.RuntimeError, -1, ErrMemNegativeOut, "tape pointer %d is negative", pos)
}
