// Package cpu implements the Sharp LR35902-derived instruction
// fetch/decode/dispatch loop: the base and CB-prefixed opcode tables,
// the stack and interrupt-service discipline, and the HALT/STOP state
// machine. Dispatch is two 256-entry tables of direct
// func(*CPU, *mmu.MMU) int values, indexed directly by opcode byte
// rather than looked up by name.
package cpu

import (
	"fmt"

	"github.com/kwbrandt/dmg01/mmu"
	"github.com/kwbrandt/dmg01/registers"
)

// State is the CPU's run state.
type State int

const (
	Running State = iota
	Halted
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Halted:
		return "HALTED"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// DecodeError reports an illegal or unimplemented opcode.
type DecodeError struct {
	Code uint16
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("illegal opcode %#04x", e.Code)
}

// CPU is the register file plus the run-state and interrupt-master
// bookkeeping the fetch loop needs.
type CPU struct {
	Reg   *registers.File
	State State

	ime       bool
	eiPending bool
}

// New returns a CPU in its post-reset run state. Register power-on
// values live in registers.New; the boot ROM (mmu's default) brings
// the rest of the machine to the documented power-on state as it
// executes, matching real hardware rather than hardcoding it here.
func New() *CPU {
	return &CPU{Reg: registers.New(), State: Running}
}

// IME reports the interrupt master enable flag.
func (c *CPU) IME() bool { return c.ime }

// fetchOpcode reads the byte at PC, following a 0xCB prefix byte with
// a second byte to form the CB-page code, and returns a 16-bit code
// whose high byte is 0x00 (base page) or 0xCB (CB page).
func (c *CPU) fetchOpcode(m *mmu.MMU) uint16 {
	b := c.fetch8(m)
	if b != 0xCB {
		return uint16(b)
	}
	sub := c.fetch8(m)
	return 0xCB00 | uint16(sub)
}

// fetch8 reads the byte at PC and advances PC by one.
func (c *CPU) fetch8(m *mmu.MMU) uint8 {
	v := m.Read(c.Reg.PC)
	c.Reg.PC++
	return v
}

// fetch16 reads a little-endian word at PC and advances PC by two.
func (c *CPU) fetch16(m *mmu.MMU) uint16 {
	v := m.Read16(c.Reg.PC)
	c.Reg.PC += 2
	return v
}

// push16 decrements SP before each byte write, storing v high-then-low.
func (c *CPU) push16(m *mmu.MMU, v uint16) {
	c.Reg.SP--
	m.Write(c.Reg.SP, uint8(v>>8))
	c.Reg.SP--
	m.Write(c.Reg.SP, uint8(v&0xFF))
}

// pop16 reads low-then-high, incrementing SP after each byte.
func (c *CPU) pop16(m *mmu.MMU) uint16 {
	lo := uint16(m.Read(c.Reg.SP))
	c.Reg.SP++
	hi := uint16(m.Read(c.Reg.SP))
	c.Reg.SP++
	return hi<<8 | lo
}

// Step executes a single instruction (or, while halted or stopped,
// advances a minimal amount of time) and services at most one pending
// interrupt afterward. It returns the number of T-states consumed.
func (c *CPU) Step(m *mmu.MMU) (int, error) {
	if c.State == Stopped {
		if m.PendingInterrupts()&mmu.IntJoypad != 0 {
			c.State = Running
		} else {
			return 4, nil
		}
	}

	if c.State == Halted {
		if m.PendingInterrupts() != 0 {
			c.State = Running
		} else {
			return 4, nil
		}
	}

	wasEIPending := c.eiPending
	c.eiPending = false

	code := c.fetchOpcode(m)
	op, ok := lookup(code)
	if !ok {
		return 4, &DecodeError{Code: code}
	}

	cycles := op.fn(c, m)

	if wasEIPending {
		c.ime = true
	}

	cycles += c.serviceInterrupt(m)

	return cycles, nil
}

// interrupt dispatch vectors, indexed by interrupt bit position:
// V-blank, STAT, timer, serial, joypad.
var interruptVector = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

// serviceInterrupt services the single lowest-numbered pending,
// enabled interrupt if IME is set, and returns the extra T-states
// consumed (0 if nothing was serviced).
func (c *CPU) serviceInterrupt(m *mmu.MMU) int {
	if !c.ime {
		return 0
	}
	pending := m.PendingInterrupts()
	if pending == 0 {
		return 0
	}
	for bit := 0; bit < 5; bit++ {
		mask := uint8(1) << uint(bit)
		if pending&mask == 0 {
			continue
		}
		m.ClearInterrupt(mask)
		c.ime = false
		c.push16(m, c.Reg.PC)
		c.Reg.PC = interruptVector[bit]
		return 20
	}
	return 0
}
