package ir

import (
	"testing"

	"bf/internal/raw"
)

func lower(t *testing.T, src string) *Program {
	t.Helper()
	p, err := raw.FromText(src)
	if err != nil {
		t.Fatalf("FromText(%q): %v", src, err)
	}
	return Lower(p)
}

func TestLowerFlatOps(t *testing.T) {
	prog := lower(t, "+-><.,")
	want := []Kind{KindAdd, KindAdd, KindShift, KindShift, KindOutput, KindInput}
	if len(prog.Top) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(prog.Top), len(want))
	}
	for i, k := range want {
		if prog.Top[i].Kind != k {
			t.Fatalf("node %d: got %v, want %v", i, prog.Top[i].Kind, k)
		}
	}
}

func TestLowerNestsLoopBody(t *testing.T) {
	prog := lower(t, "[+]")
	if len(prog.Top) != 1 || prog.Top[0].Kind != KindLoop {
		t.Fatalf("expected a single Loop node, got %+v", prog.Top)
	}
	body := prog.Top[0].Body
	if len(body) != 1 || body[0].Kind != KindAdd {
		t.Fatalf("expected loop body [Add], got %+v", body)
	}
}

func TestLowerNestsNestedLoops(t *testing.T) {
	prog := lower(t, "[[-]]")
	outer := prog.Top[0]
	if outer.Kind != KindLoop {
		t.Fatal("expected outer Loop")
	}
	inner := outer.Body[0]
	if inner.Kind != KindLoop {
		t.Fatal("expected inner Loop")
	}
	if len(inner.Body) != 1 || inner.Body[0].Kind != KindAdd {
		t.Fatalf("expected inner loop body [Add], got %+v", inner.Body)
	}
}

func TestLowerSubEncodesAsAdd255(t *testing.T) {
	prog := lower(t, "-")
	if prog.Top[0].Amount != 255 {
		t.Fatalf("got amount %d, want 255", prog.Top[0].Amount)
	}
}
