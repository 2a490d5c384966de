// cmd/bf/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"bf/internal/batch"
	"bf/internal/engine"
	"bf/internal/ir"
	"bf/internal/optimize"
	"bf/internal/raw"
	"bf/internal/replcli"
	"bf/internal/save"
)

var debug bool

func main() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	args, debugFlag := extractDebugFlag(os.Args[1:])
	debug = debugFlag

	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "run":
		err = runCommand(rest)
	case "ir":
		err = irCommand(rest)
	case "repl":
		err = replcli.Start(os.Stdin, os.Stdout)
	case "save":
		err = saveCommand(rest)
	case "load":
		err = loadCommand(rest)
	case "batch":
		err = batchCommand(rest)
	case "--help", "-h", "help":
		showUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("error: %v", err)
		if debug {
			pretty.Println(err)
		}
		os.Exit(1)
	}
}

// extractDebugFlag pulls --debug out of args wherever it appears, since it
// applies to every subcommand rather than belonging to any one of them.
func extractDebugFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == "--debug" {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}

func showUsage() {
	fmt.Println(`Usage: bf <command> [args]

Commands:
  run [--raw] <file>                         execute a BF program
  ir [-i <file>] [-o <file>]                  print the optimized IR (default stdin/stdout)
  repl                                        interactive read-eval-print loop
  save <file> -o <out> [--ir] [--compress]    write a save-format file
  load <file>                                 read a save-format file and run it
  batch <file...>                             run several programs concurrently

Flags:
  --debug   pretty-print diagnostics on error`)
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	rawMode := fs.Bool("raw", false, "run via the raw oracle engine instead of the optimized IR engine")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("run: missing <file>")
	}
	path := fs.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "run: reading %s", path)
	}
	prog, err := raw.FromBytes(src)
	if err != nil {
		return err
	}

	var e engine.Engine
	if *rawMode {
		e = engine.NewRaw(prog)
	} else {
		irProg := ir.Lower(prog)
		optimize.Program(irProg)
		e = engine.NewIR(irProg)
	}
	return drive(e, os.Stdin, os.Stdout)
}

// drive runs e to completion, feeding NeedInput stops from in one byte at
// a time and writing HasOutput stops to out.
func drive(e engine.Engine, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		s, err := e.Run()
		if err != nil {
			return err
		}
		switch s.Reason {
		case engine.Halted:
			return nil
		case engine.HasOutput:
			if _, err := out.Write([]byte{s.Output}); err != nil {
				return err
			}
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

// irCommand reads a BF program (from -i, or stdin if omitted) and prints
// its optimized IR (to -o, or stdout if omitted) — the same default-to-
// stdio shape as the original's bf-print-ir binary.
func irCommand(args []string) error {
	fs := flag.NewFlagSet("ir", flag.ContinueOnError)
	in := fs.String("i", "", "input file (default stdin)")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var src []byte
	var err error
	if *in == "" {
		src, err = io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "ir: reading stdin")
		}
	} else {
		src, err = os.ReadFile(*in)
		if err != nil {
			return errors.Wrapf(err, "ir: reading %s", *in)
		}
	}

	prog, err := raw.FromBytes(src)
	if err != nil {
		return err
	}
	irProg := ir.Lower(prog)
	optimize.Program(irProg)
	rendered := ir.Print(irProg)

	if *out == "" {
		fmt.Print(rendered)
		return nil
	}
	if err := os.WriteFile(*out, []byte(rendered), 0o644); err != nil {
		return errors.Wrapf(err, "ir: writing %s", *out)
	}
	return nil
}

func saveCommand(args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	asIR := fs.Bool("ir", false, "save optimized IR instead of source")
	compress := fs.Bool("compress", false, "DEFLATE-compress the payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("save: missing <file>")
	}
	path := fs.Arg(0)
	// Flags may also follow <file>, as in the usage line.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("save: -o <out> is required")
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "save: reading %s", path)
	}
	prog, err := raw.FromBytes(src)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return errors.Wrapf(err, "save: creating %s", *out)
	}
	defer f.Close()

	if *asIR {
		irProg := ir.Lower(prog)
		optimize.Program(irProg)
		err = save.SaveIR(f, irProg, "", *compress)
	} else {
		err = save.SaveSource(f, prog, "", *compress)
	}
	if err != nil {
		return err
	}

	if info, statErr := f.Stat(); statErr == nil {
		color.Green("wrote %s (%s)", *out, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func loadCommand(args []string) error {
	if len(args) < 1 {
		return errors.New("load: missing <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, "load: opening %s", args[0])
	}
	defer f.Close()

	doc, err := save.Load(f)
	if err != nil {
		return err
	}
	if doc.Description != "" {
		fmt.Fprintln(os.Stderr, "#", doc.Description)
	}

	var e engine.Engine
	switch doc.Content {
	case save.ContentSource:
		irProg := ir.Lower(doc.Source)
		optimize.Program(irProg)
		e = engine.NewIR(irProg)
	case save.ContentIR:
		e = engine.NewIR(doc.IR)
	default:
		return errors.Errorf("load: unrecognized content kind %q", doc.Content)
	}
	return drive(e, os.Stdin, os.Stdout)
}

func batchCommand(args []string) error {
	if len(args) == 0 {
		return errors.New("batch: need at least one <file>")
	}
	jobs := make([]batch.Job, len(args))
	for i, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "batch: reading %s", path)
		}
		prog, err := raw.FromBytes(src)
		if err != nil {
			return err
		}
		irProg := ir.Lower(prog)
		optimize.Program(irProg)
		jobs[i] = batch.Job{
			Name: path,
			Make: func() engine.Engine { return engine.NewIR(irProg) },
		}
	}

	results, err := batch.Run(context.Background(), jobs)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			color.Red("%s: error: %v", r.Name, r.Err)
			continue
		}
		fmt.Printf("%s: %s output, %s cells touched\n", r.Name,
			humanize.Bytes(uint64(len(r.Output))), humanize.Comma(int64(r.CellsTouched)))
		os.Stdout.Write(r.Output)
		fmt.Println()
	}
	return nil
}
