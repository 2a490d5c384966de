// Lowerer (C4): translates a raw.Program into an unoptimized IR Program.
//
// Grounded on original_source/src/ir/mod.rs's Program::from_raw, which
// drives a stack of open blocks exactly as spec.md §4.3 describes.
package ir

import "bf/internal/raw"

// Lower translates a validated raw.Program into an unoptimized IR Program.
// Because raw.Program's brackets are already validated, the stack never
// underflows and exactly one block remains at the end; Lower asserts both
// rather than returning an error, matching spec.md §4.3.
func Lower(p *raw.Program) *Program {
	stack := []Block{{}}

	push := func(n Node) {
		top := len(stack) - 1
		stack[top] = append(stack[top], n)
	}

	for i := 0; i < p.Len(); i++ {
		switch p.At(i) {
		case raw.ShiftRight:
			push(ShiftNode(1))
		case raw.ShiftLeft:
			push(ShiftNode(-1))
		case raw.Add:
			push(AddNode(1, 0))
		case raw.Sub:
			push(AddNode(255, 0))
		case raw.Output:
			push(OutputNode(0))
		case raw.Input:
			push(InputNode(0))
		case raw.OpenLoop:
			stack = append(stack, Block{})
		case raw.CloseLoop:
			top := len(stack) - 1
			body := stack[top]
			stack = stack[:top]
			if len(stack) == 0 {
				panic("ir: Lower: bracket stack underflow on a validated raw.Program")
			}
			push(LoopNode(body, 0))
		}
	}

	if len(stack) != 1 {
		panic("ir: Lower: leftover open blocks on a validated raw.Program")
	}
	return &Program{Top: stack[0]}
}
