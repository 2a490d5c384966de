package ir

import "testing"

func TestAddNodeNormalizesAmount(t *testing.T) {
	n := AddNode(-1, 0)
	if n.Amount != 255 {
		t.Fatalf("AddNode(-1,0).Amount = %d, want 255", n.Amount)
	}
	n = AddNode(256, 0)
	if n.Amount != 0 {
		t.Fatalf("AddNode(256,0).Amount = %d, want 0", n.Amount)
	}
}

func TestIsZero(t *testing.T) {
	if !ShiftNode(0).IsZero() {
		t.Fatal("ShiftNode(0) should be zero")
	}
	if ShiftNode(1).IsZero() {
		t.Fatal("ShiftNode(1) should not be zero")
	}
	if !AddNode(0, 3).IsZero() {
		t.Fatal("AddNode(0,3) should be zero")
	}
}

func TestShiftedLeavesShiftNodesAlone(t *testing.T) {
	n := ShiftNode(4).Shifted(10)
	if n.Amount != 4 {
		t.Fatalf("Shifted(10) on a Shift node changed Amount to %d", n.Amount)
	}
}

func TestShiftedDisplacesOffsetBearingNodes(t *testing.T) {
	n := AddNode(1, 5).Shifted(3)
	if n.Offset != 8 {
		t.Fatalf("Shifted offset = %d, want 8", n.Offset)
	}
}

func TestShiftedRecursesIntoLoopBody(t *testing.T) {
	loop := LoopNode(Block{AddNode(1, 2)}, 0).Shifted(5)
	if loop.Offset != 5 {
		t.Fatalf("loop offset = %d, want 5", loop.Offset)
	}
	if loop.Body[0].Offset != 7 {
		t.Fatalf("loop body offset = %d, want 7", loop.Body[0].Offset)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := Block{LoopNode(Block{AddNode(1, 0)}, 0)}
	c := b.Clone()
	c[0].Body[0] = AddNode(2, 0)
	if b[0].Body[0].Amount == 2 {
		t.Fatal("mutating the clone's body mutated the original")
	}
}
