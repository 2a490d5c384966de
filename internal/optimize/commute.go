package optimize

import "bf/internal/ir"

// commute reports whether n1 and n2 may be swapped without changing the
// program's observable behavior, per spec.md §4.4:
//
//   - Noop commutes with anything.
//   - A Shift never commutes with anything (including another Shift — that
//     pair is coalesced directly, never swapped).
//   - A Loop never commutes with anything (a same-offset adjacent pair is
//     collapsed directly, never swapped).
//   - Output/Input never commute with each other, nor with themselves —
//     I/O order is observable.
//   - Add commutes with Add/Output/Input iff they name different offsets.
func commute(n1, n2 ir.Node) bool {
	if n1.Kind == ir.KindNoop || n2.Kind == ir.KindNoop {
		return true
	}
	if n1.Kind == ir.KindShift || n2.Kind == ir.KindShift {
		return false
	}
	if n1.Kind == ir.KindLoop || n2.Kind == ir.KindLoop {
		return false
	}
	if isIO(n1) && isIO(n2) {
		return false
	}
	return n1.Offset != n2.Offset
}

func isIO(n ir.Node) bool {
	return n.Kind == ir.KindOutput || n.Kind == ir.KindInput
}

// nodeLess defines a total order over nodes, used only to canonicalize the
// order of commuting pairs so that later passes see a stable arrangement
// (e.g. all Adds sorted by offset ahead of the Outputs/Inputs that read
// them, exposing further coalescing).
func nodeLess(a, b ir.Node) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	switch a.Kind {
	case ir.KindShift:
		return a.Amount < b.Amount
	case ir.KindAdd:
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.Amount < b.Amount
	case ir.KindOutput, ir.KindInput:
		return a.Offset < b.Offset
	default:
		return false
	}
}

func nodeGreater(a, b ir.Node) bool { return nodeLess(b, a) }
