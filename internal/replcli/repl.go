// Package replcli is an interactive read-eval-print loop over an IR
// engine: each line of input is a complete BF program, run to completion
// against the same terminal it was typed into.
//
// Adapted from the teacher's internal/repl/repl.go ("type 'exit' to
// quit", a ">>> " prompt, one bufio.Scanner driving the loop), generalized
// from "parse, compile, run a VM" to "parse, lower, optimize, drive an IR
// engine".
package replcli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"bf/internal/engine"
	"bf/internal/ir"
	"bf/internal/optimize"
	"bf/internal/raw"
)

// Start runs the loop, reading lines from in and writing prompts, program
// output, and diagnostics to out, until "exit" or EOF.
func Start(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "bf REPL | type 'exit' to quit")
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, ">>> ")
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "exit" {
			return nil
		}
		if trimmed != "" {
			runLine(reader, out, trimmed)
		}
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
	}
}

func runLine(reader *bufio.Reader, out io.Writer, src string) {
	p, err := raw.FromText(src)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	prog := ir.Lower(p)
	optimize.Program(prog)
	e := engine.NewIR(prog)

	for {
		s, err := e.Run()
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			return
		}
		switch s.Reason {
		case engine.Halted:
			fmt.Fprintln(out)
			return
		case engine.HasOutput:
			out.Write([]byte{s.Output})
		case engine.NeedInput:
			b, err := reader.ReadByte()
			if err != nil {
				e.GiveInput(0)
				continue
			}
			e.GiveInput(b)
		}
	}
}
