// Package debugger implements a line-oriented REPL: step/resume/
// restart/quit/show/set/help and their aliases. It drives an
// *engine.Engine only through Step, Reset, and the Engine's exported
// MMU/CPU fields, never reaching into anything the front-end couldn't
// reach itself.
package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kwbrandt/dmg01/disasm"
	"github.com/kwbrandt/dmg01/engine"
)

// ErrQuit is returned by Run when the user issues quit/exit/q. The
// front-end maps it to the documented exit code 1.
var ErrQuit = errors.New("debugger: quit requested")

// ParseError reports malformed REPL input: an unknown command or a
// numeric argument that doesn't parse.
type ParseError struct {
	Input string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("debugger: %s: %q", e.Msg, e.Input)
}

// Debugger is the REPL state: the engine it drives, plus the
// breakpoint set set bp accumulates.
type Debugger struct {
	Engine      *engine.Engine
	Breakpoints map[uint16]struct{}

	out io.Writer
}

// New wraps an engine for REPL control. Output goes to w.
func New(e *engine.Engine, w io.Writer) *Debugger {
	return &Debugger{Engine: e, Breakpoints: map[uint16]struct{}{}, out: w}
}

// Run reads commands from r until EOF or a quit command, writing
// prompts and output to the Debugger's writer. It returns ErrQuit on
// quit/exit/q; EOF on r ends the loop with a nil error (acts like quit
// without the sentinel, for scripted/piped input). Any other error,
// including a *ParseError for an unparseable line, is printed and the
// loop goes on reading.
func (d *Debugger) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(d.out, "> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		err := d.dispatch(line)
		if err == ErrQuit {
			return ErrQuit
		}
		if err != nil {
			fmt.Fprintln(d.out, err)
		}
	}
}

func (d *Debugger) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return d.step(1)
	}

	cmd := fields[0]
	rest := fields[1:]

	switch cmd {
	case "step":
		n := 1
		if len(rest) > 0 {
			v, err := parseNumber(rest[0])
			if err != nil {
				return &ParseError{Input: rest[0], Msg: "bad step count"}
			}
			n = int(v)
		}
		return d.step(n)

	case "resume", "go", "start":
		return d.resume()

	case "restart", "r":
		d.Engine.Reset()
		fmt.Fprintln(d.out, "engine reset")
		return nil

	case "quit", "exit", "q":
		return ErrQuit

	case "show":
		return d.show(rest)

	case "set":
		return d.set(rest)

	case "help", "h":
		d.printHelp()
		return nil

	default:
		return &ParseError{Input: cmd, Msg: "unknown command"}
	}
}

func (d *Debugger) step(n int) error {
	for i := 0; i < n; i++ {
		pc := d.Engine.CPU.Reg.PC
		mem := d.peekBytes(pc, 3)
		text, _ := disasm.Format(pc, mem)
		if _, err := d.Engine.Step(); err != nil {
			fmt.Fprintln(d.out, text)
			return fmt.Errorf("debugger: %w", err)
		}
		fmt.Fprintln(d.out, text)
		if _, hit := d.Breakpoints[d.Engine.CPU.Reg.PC]; hit {
			fmt.Fprintf(d.out, "breakpoint hit at %#04x\n", d.Engine.CPU.Reg.PC)
			break
		}
	}
	return nil
}

func (d *Debugger) resume() error {
	for {
		if _, err := d.Engine.Step(); err != nil {
			return fmt.Errorf("debugger: %w", err)
		}
		if _, hit := d.Breakpoints[d.Engine.CPU.Reg.PC]; hit {
			fmt.Fprintf(d.out, "breakpoint hit at %#04x\n", d.Engine.CPU.Reg.PC)
			return nil
		}
	}
}

func (d *Debugger) show(args []string) error {
	if len(args) == 0 {
		return &ParseError{Input: "show", Msg: "missing subcommand (regs|registers|mem|memory)"}
	}
	switch args[0] {
	case "regs", "registers":
		d.printRegs()
		return nil
	case "mem", "memory":
		if len(args) < 2 {
			return &ParseError{Input: "show mem", Msg: "missing LO address"}
		}
		lo, err := parseNumber(args[1])
		if err != nil {
			return &ParseError{Input: args[1], Msg: "bad address"}
		}
		hi := lo
		if len(args) >= 3 {
			hi, err = parseNumber(args[2])
			if err != nil {
				return &ParseError{Input: args[2], Msg: "bad address"}
			}
		}
		d.printMem(lo, hi)
		return nil
	default:
		return &ParseError{Input: args[0], Msg: "unknown show target"}
	}
}

func (d *Debugger) set(args []string) error {
	if len(args) == 0 {
		return &ParseError{Input: "set", Msg: "missing subcommand (bp|break|mem)"}
	}
	switch args[0] {
	case "bp", "break":
		if len(args) < 2 {
			return &ParseError{Input: "set bp", Msg: "missing address"}
		}
		addr, err := parseNumber(args[1])
		if err != nil {
			return &ParseError{Input: args[1], Msg: "bad address"}
		}
		d.Breakpoints[addr] = struct{}{}
		fmt.Fprintf(d.out, "breakpoint set at %#04x\n", addr)
		return nil
	case "mem":
		if len(args) < 3 {
			return &ParseError{Input: "set mem", Msg: "need ADDR and VAL"}
		}
		addr, err := parseNumber(args[1])
		if err != nil {
			return &ParseError{Input: args[1], Msg: "bad address"}
		}
		val, err := parseNumber(args[2])
		if err != nil {
			return &ParseError{Input: args[2], Msg: "bad value"}
		}
		d.Engine.MMU.Write(addr, uint8(val))
		return nil
	default:
		return &ParseError{Input: args[0], Msg: "unknown set target"}
	}
}

func (d *Debugger) printRegs() {
	r := d.Engine.CPU.Reg
	fmt.Fprintf(d.out, "A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X\n",
		r.A, r.F(), r.B, r.C, r.D, r.E, r.H, r.L)
	fmt.Fprintf(d.out, "AF=%04X BC=%04X DE=%04X HL=%04X\n", r.AF(), r.BC(), r.DE(), r.HL())
	fmt.Fprintf(d.out, "PC=%04X SP=%04X\n", r.PC, r.SP)
	fmt.Fprintf(d.out, "flags: Z=%v N=%v H=%v C=%v\n", r.Z(), r.N(), r.H(), r.C())
	fmt.Fprintf(d.out, "state: %s\n", d.Engine.CPU.State)
}

func (d *Debugger) printMem(lo, hi uint16) {
	row := lo &^ 0x0F
	for {
		fmt.Fprintf(d.out, "%04X: ", row)
		for col := uint16(0); col < 16; col++ {
			fmt.Fprintf(d.out, "%02X ", d.Engine.MMU.Read(row+col))
		}
		fmt.Fprintln(d.out)
		if row >= hi || row+16 < row { // reached hi, or would overflow uint16
			break
		}
		row += 16
	}
}

func (d *Debugger) peekBytes(addr uint16, n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = d.Engine.MMU.Read(addr + uint16(i))
	}
	return b
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.out, "step N            run N instructions (default 1)")
	fmt.Fprintln(d.out, "resume|go|start   run until breakpoint or quit")
	fmt.Fprintln(d.out, "restart|r         reset engine state")
	fmt.Fprintln(d.out, "quit|exit|q       exit process")
	fmt.Fprintln(d.out, "show regs         print registers")
	fmt.Fprintln(d.out, "show mem LO [HI]  dump memory")
	fmt.Fprintln(d.out, "set bp ADDR       add breakpoint")
	fmt.Fprintln(d.out, "set mem ADDR VAL  poke memory")
	fmt.Fprintln(d.out, "help|h            this text")
}

// parseNumber accepts decimal or 0x-prefixed hex.
func parseNumber(s string) (uint16, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
