package cpu

import (
	"testing"

	"github.com/kwbrandt/dmg01/mmu"
	"github.com/kwbrandt/dmg01/rom"
)

// testCart is the byte slice backing the cartridge newTestSystem
// builds. rom.New wraps it without copying, so loadProgram can place
// program bytes in cartridge space, which the MMU itself treats as
// read-only.
var testCart []byte

func newTestSystem(t *testing.T) (*CPU, *mmu.MMU) {
	t.Helper()
	testCart = make([]byte, rom.MinSize)
	cart, err := rom.New(testCart)
	if err != nil {
		t.Fatalf("rom.New: %v", err)
	}
	// Boot image unmapped at once: PC starts at 0 and addresses
	// 0x0000-0x7FFF hit the cartridge directly, matching the scenarios'
	// "PC points to bytes ..." framing without a boot handshake.
	m := mmu.NewWithBoot(cart, nil, [0x100]uint8{})
	m.Write(0xFF50, 1)
	return New(), m
}

func loadProgram(m *mmu.MMU, at uint16, bytes ...uint8) {
	for i, b := range bytes {
		addr := at + uint16(i)
		if addr <= 0x7FFF {
			testCart[addr] = b
			continue
		}
		m.Write(addr, b)
	}
}

func TestXorAClears(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.A = 0x5A
	c.Reg.SetN(true)
	c.Reg.SetH(true)
	c.Reg.SetC(true)
	loadProgram(m, 0x0000, 0xAF) // XOR A

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if c.Reg.A != 0x00 {
		t.Errorf("A = %#x, want 0x00", c.Reg.A)
	}
	if !c.Reg.Z() || c.Reg.N() || c.Reg.H() || c.Reg.C() {
		t.Errorf("flags Z=%v N=%v H=%v C=%v, want Z=1 N=H=C=0", c.Reg.Z(), c.Reg.N(), c.Reg.H(), c.Reg.C())
	}
}

func TestLDHLd16ThenLDHLDecA(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.A = 0x00
	loadProgram(m, 0x0000, 0x21, 0xFF, 0x9F, 0x32) // LD HL,0x9FFF ; LD (HL-),A
	startPC := c.Reg.PC

	if _, err := c.Step(m); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if _, err := c.Step(m); err != nil {
		t.Fatalf("step 2: %v", err)
	}

	if c.Reg.HL() != 0x9FFE {
		t.Errorf("HL = %#x, want 0x9FFE", c.Reg.HL())
	}
	if got := m.Read(0x9FFF); got != 0x00 {
		t.Errorf("mem[0x9FFF] = %#x, want 0x00", got)
	}
	if c.Reg.PC != startPC+4 {
		t.Errorf("PC = %#x, want %#x", c.Reg.PC, startPC+4)
	}
}

func TestJRNZTaken(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.SetZ(false)
	loadProgram(m, 0x0000, 0x20, 0xFB) // JR NZ,-5
	startPC := c.Reg.PC

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}

	want := startPC + 2 - 5
	if c.Reg.PC != want {
		t.Errorf("PC = %#x, want %#x", c.Reg.PC, want)
	}
}

func TestCallRetRoundTrip(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.SP = 0xFFFE
	loadProgram(m, 0x0000, 0xCD, 0x34, 0x12) // CALL 0x1234
	loadProgram(m, 0x1234, 0xC9)             // RET
	startPC := c.Reg.PC

	if _, err := c.Step(m); err != nil { // CALL
		t.Fatalf("CALL step: %v", err)
	}
	if c.Reg.PC != 0x1234 {
		t.Fatalf("PC after CALL = %#x, want 0x1234", c.Reg.PC)
	}
	if _, err := c.Step(m); err != nil { // RET
		t.Fatalf("RET step: %v", err)
	}

	if c.Reg.PC != startPC+3 {
		t.Errorf("PC after RET = %#x, want %#x", c.Reg.PC, startPC+3)
	}
	if c.Reg.SP != 0xFFFE {
		t.Errorf("SP after RET = %#x, want 0xFFFE", c.Reg.SP)
	}
}

func TestCPd8Equality(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.A = 0x42
	loadProgram(m, 0x0000, 0xFE, 0x42) // CP 0x42
	startPC := c.Reg.PC

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if !c.Reg.Z() || !c.Reg.N() || c.Reg.H() || c.Reg.C() {
		t.Errorf("flags Z=%v N=%v H=%v C=%v, want Z=1 N=1 H=0 C=0", c.Reg.Z(), c.Reg.N(), c.Reg.H(), c.Reg.C())
	}
	if c.Reg.A != 0x42 {
		t.Errorf("CP must not modify A, got %#x", c.Reg.A)
	}
	if c.Reg.PC != startPC+2 {
		t.Errorf("PC = %#x, want %#x", c.Reg.PC, startPC+2)
	}
}

func TestBit7HSetsAndClearsZ(t *testing.T) {
	cases := []struct {
		h     uint8
		wantZ bool
	}{
		{h: 0x80, wantZ: false},
		{h: 0x7F, wantZ: true},
	}
	for _, tc := range cases {
		c, m := newTestSystem(t)
		c.Reg.H = tc.h
		c.Reg.SetC(true)
		loadProgram(m, 0x0000, 0xCB, 0x7C) // BIT 7,H

		if _, err := c.Step(m); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if c.Reg.Z() != tc.wantZ {
			t.Errorf("H=%#x: Z=%v, want %v", tc.h, c.Reg.Z(), tc.wantZ)
		}
		if c.Reg.N() || !c.Reg.H() || !c.Reg.C() {
			t.Errorf("H=%#x: N=%v H=%v C=%v, want N=0 H=1 C preserved(1)", tc.h, c.Reg.N(), c.Reg.H(), c.Reg.C())
		}
	}
}

func TestAddFlagsHalfCarryWithoutFullCarry(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.A = 0x0F
	c.Reg.B = 0x01
	loadProgram(m, 0x0000, 0x80) // ADD A,B

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.Reg.A != 0x10 {
		t.Errorf("A = %#x, want 0x10", c.Reg.A)
	}
	if !c.Reg.H() || c.Reg.C() || c.Reg.N() || c.Reg.Z() {
		t.Errorf("flags H=%v C=%v N=%v Z=%v, want H=1 C=0 N=0 Z=0", c.Reg.H(), c.Reg.C(), c.Reg.N(), c.Reg.Z())
	}
}

func TestIncPreservesCarry(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.A = 0xFF
	c.Reg.SetC(true)
	loadProgram(m, 0x0000, 0x3C) // INC A

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.Reg.A != 0x00 {
		t.Errorf("A = %#x, want 0x00", c.Reg.A)
	}
	if !c.Reg.Z() || c.Reg.N() || !c.Reg.H() || !c.Reg.C() {
		t.Errorf("flags Z=%v N=%v H=%v C=%v, want Z=1 N=0 H=1 C=1(preserved)", c.Reg.Z(), c.Reg.N(), c.Reg.H(), c.Reg.C())
	}
}

func TestPopAFMasksLowNibble(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.SP = 0xFFFC
	m.Write16(0xFFFC, 0x1234) // pop low=0x34 high=0x12 -> A=0x12, F=0x30
	loadProgram(m, 0x0000, 0xF1) // POP AF

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.Reg.A != 0x12 {
		t.Errorf("A = %#x, want 0x12", c.Reg.A)
	}
	if c.Reg.F()&0x0F != 0 {
		t.Errorf("F low nibble = %#x, want 0", c.Reg.F()&0x0F)
	}
}

func TestHaltWakesOnPendingInterruptWithoutIME(t *testing.T) {
	c, m := newTestSystem(t)
	loadProgram(m, 0x0000, 0x76, 0x00) // HALT ; NOP
	m.Write(0xFFFF, mmu.IntVBlank)     // IE
	if _, err := c.Step(m); err != nil {
		t.Fatalf("HALT step: %v", err)
	}
	if c.State != Halted {
		t.Fatalf("state = %v, want Halted", c.State)
	}

	m.RequestVBlank() // sets IF
	if _, err := c.Step(m); err != nil {
		t.Fatalf("wake step: %v", err)
	}
	if c.State != Running {
		t.Errorf("state = %v, want Running (IME false: resume without service)", c.State)
	}
	if c.Reg.PC != 0x0002 {
		t.Errorf("PC = %#x, want 0x0002 (NOP executed, no interrupt serviced)", c.Reg.PC)
	}
}

func TestInterruptServicedWhenIMESet(t *testing.T) {
	c, m := newTestSystem(t)
	loadProgram(m, 0x0000, 0x00) // NOP
	m.Write(0xFFFF, mmu.IntVBlank)
	c.ime = true
	c.Reg.SP = 0xFFFE
	m.RequestVBlank()

	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if c.Reg.PC != 0x0040 {
		t.Errorf("PC = %#x, want 0x0040 (V-blank vector)", c.Reg.PC)
	}
	if c.ime {
		t.Error("IME should be cleared once an interrupt is serviced")
	}
	if c.Reg.SP != 0xFFFC {
		t.Errorf("SP = %#x, want 0xFFFC after pushing return PC", c.Reg.SP)
	}
	if got := m.Read16(c.Reg.SP); got != 0x0001 {
		t.Errorf("pushed return PC = %#x, want 0x0001", got)
	}
}

func TestEIDelaysEnableByOneInstruction(t *testing.T) {
	c, m := newTestSystem(t)
	loadProgram(m, 0x0000, 0xFB, 0x00) // EI ; NOP
	if _, err := c.Step(m); err != nil {
		t.Fatalf("EI step: %v", err)
	}
	if c.IME() {
		t.Error("IME must not be set immediately after EI")
	}
	if _, err := c.Step(m); err != nil {
		t.Fatalf("NOP step: %v", err)
	}
	if !c.IME() {
		t.Error("IME must be set once the instruction after EI completes")
	}
}

func TestDIIsImmediate(t *testing.T) {
	c, m := newTestSystem(t)
	c.ime = true
	loadProgram(m, 0x0000, 0xF3) // DI
	if _, err := c.Step(m); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.IME() {
		t.Error("DI must clear IME immediately")
	}
}

func TestIllegalOpcodeReturnsDecodeError(t *testing.T) {
	c, m := newTestSystem(t)
	loadProgram(m, 0x0000, 0xD3)
	_, err := c.Step(m)
	if err == nil {
		t.Fatal("expected a DecodeError for 0xD3")
	}
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err = %T, want *DecodeError", err)
	}
	if de.Code != 0xD3 {
		t.Errorf("DecodeError.Code = %#x, want 0xD3", de.Code)
	}
}

func TestPushPop16StackDiscipline(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.SP = 0xFFFE
	c.push16(m, 0xBEEF)
	if c.Reg.SP != 0xFFFC {
		t.Fatalf("SP after push = %#x, want 0xFFFC", c.Reg.SP)
	}
	if got := m.Read(0xFFFD); got != 0xBE {
		t.Errorf("high byte at SP+1 = %#x, want 0xBE", got)
	}
	if got := m.Read(0xFFFC); got != 0xEF {
		t.Errorf("low byte at SP = %#x, want 0xEF", got)
	}
	if got := c.pop16(m); got != 0xBEEF {
		t.Errorf("pop16 = %#x, want 0xBEEF", got)
	}
	if c.Reg.SP != 0xFFFE {
		t.Errorf("SP after pop = %#x, want 0xFFFE", c.Reg.SP)
	}
}

func TestDAAAfterBCDAddition(t *testing.T) {
	c, m := newTestSystem(t)
	c.Reg.A = 0x09
	c.Reg.B = 0x08
	loadProgram(m, 0x0000, 0x80, 0x27) // ADD A,B ; DAA
	if _, err := c.Step(m); err != nil {
		t.Fatalf("ADD step: %v", err)
	}
	if _, err := c.Step(m); err != nil {
		t.Fatalf("DAA step: %v", err)
	}
	if c.Reg.A != 0x17 {
		t.Errorf("A = %#x, want 0x17 (BCD 09+08=17)", c.Reg.A)
	}
}

func TestMnemonicLookup(t *testing.T) {
	name, ok := Mnemonic(0x00AF)
	if !ok || name != "XOR A,A" {
		t.Errorf("Mnemonic(0xAF) = %q,%v, want \"XOR A,A\",true", name, ok)
	}
	name, ok = Mnemonic(0xCB7C)
	if !ok || name != "BIT 7,H" {
		t.Errorf("Mnemonic(0xCB7C) = %q,%v, want \"BIT 7,H\",true", name, ok)
	}
	if _, ok := Mnemonic(0x00D3); ok {
		t.Error("Mnemonic(0xD3) should report illegal (ok=false)")
	}
}
