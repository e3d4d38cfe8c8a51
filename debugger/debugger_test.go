package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kwbrandt/dmg01/cpu"
	"github.com/kwbrandt/dmg01/engine"
	"github.com/kwbrandt/dmg01/mmu"
	"github.com/kwbrandt/dmg01/rom"
)

// newTestDebugger builds a headless engine with an all-zero boot image,
// so execution from 0x0000 runs NOPs instead of scrolling the logo.
func newTestDebugger(t *testing.T) (*Debugger, *bytes.Buffer) {
	t.Helper()
	cart, err := rom.New(make([]byte, rom.MinSize))
	if err != nil {
		t.Fatalf("rom.New: %v", err)
	}
	e := &engine.Engine{CPU: cpu.New()}
	e.MMU = mmu.NewWithBoot(cart, nil, [0x100]uint8{})
	var out bytes.Buffer
	return New(e, &out), &out
}

func TestParseNumberDecimalAndHex(t *testing.T) {
	cases := []struct {
		in   string
		want uint16
	}{
		{"10", 10},
		{"0x10", 0x10},
		{"0X1A", 0x1A},
		{"65535", 0xFFFF},
	}
	for _, tc := range cases {
		got, err := parseNumber(tc.in)
		if err != nil {
			t.Errorf("parseNumber(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseNumber(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestStepAdvancesEngine(t *testing.T) {
	d, _ := newTestDebugger(t)
	startPC := d.Engine.CPU.Reg.PC
	if err := d.dispatch("step"); err != nil {
		t.Fatalf("dispatch step: %v", err)
	}
	if d.Engine.CPU.Reg.PC == startPC {
		t.Error("PC did not advance after step")
	}
}

func TestSetBreakpointStopsResume(t *testing.T) {
	d, _ := newTestDebugger(t)
	// The zeroed boot image and cartridge read back as NOP (0x00)
	// everywhere, so two steps land squarely on the breakpoint.
	if err := d.dispatch("set bp 0x0002"); err != nil {
		t.Fatalf("set bp: %v", err)
	}
	if err := d.dispatch("resume"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if d.Engine.CPU.Reg.PC != 0x0002 {
		t.Errorf("PC = %#x, want 0x0002 (breakpoint)", d.Engine.CPU.Reg.PC)
	}
}

func TestSetMemPokes(t *testing.T) {
	d, _ := newTestDebugger(t)
	if err := d.dispatch("set mem 0xC000 0x42"); err != nil {
		t.Fatalf("set mem: %v", err)
	}
	if got := d.Engine.MMU.Read(0xC000); got != 0x42 {
		t.Errorf("mem[0xC000] = %#x, want 0x42", got)
	}
}

func TestShowRegsPrintsPC(t *testing.T) {
	d, out := newTestDebugger(t)
	if err := d.dispatch("show regs"); err != nil {
		t.Fatalf("show regs: %v", err)
	}
	if !strings.Contains(out.String(), "PC=") {
		t.Errorf("output missing PC=, got %q", out.String())
	}
}

func TestUnknownCommandIsParseError(t *testing.T) {
	d, _ := newTestDebugger(t)
	err := d.dispatch("frobnicate")
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("err = %T, want *ParseError", err)
	}
}

func TestQuitReturnsErrQuit(t *testing.T) {
	d, _ := newTestDebugger(t)
	if err := d.dispatch("quit"); err != ErrQuit {
		t.Errorf("dispatch(quit) = %v, want ErrQuit", err)
	}
}

func TestRunEOFReturnsNil(t *testing.T) {
	d, _ := newTestDebugger(t)
	if err := d.Run(strings.NewReader("")); err != nil {
		t.Errorf("Run on empty input = %v, want nil", err)
	}
}
