package bferr

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorIncludesPosition(t *testing.T) {
	e := New(ParseError, 7, "bad opcode")
	if !strings.Contains(e.Error(), "instruction 7") {
		t.Fatalf("Error() = %q, missing position", e.Error())
	}
}

func TestPosNegativeOneOmitsPosition(t *testing.T) {
	e := New(IOError, -1, "could not open file")
	if strings.Contains(e.Error(), "instruction") {
		t.Fatalf("Error() = %q, should omit position", e.Error())
	}
}

func TestWrapPreservesCauseForErrorsIs(t *testing.T) {
	sentinel := errors.New("boom")
	e := Wrap(RuntimeError, 3, sentinel, "step failed")
	if !errors.Is(e, sentinel) {
		t.Fatal("errors.Is should reach the wrapped sentinel")
	}
}
