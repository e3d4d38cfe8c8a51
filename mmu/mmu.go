// Package mmu implements the DMG address decoder: it routes 16-bit
// reads and writes to ROM, WRAM, HRAM, echo RAM, the PPU, I/O
// registers, and the interrupt enable register, and owns the PPU and
// the interrupt master enable flag.
package mmu

import (
	"github.com/kwbrandt/dmg01/bitops"
	"github.com/kwbrandt/dmg01/ppu"
	"github.com/kwbrandt/dmg01/rom"
)

const (
	wramSize = 0x2000
	sramSize = 0x2000
	hramSize = 0x7F // 0xFF80-0xFFFE

	regIF      = 0xFF0F
	regIE      = 0xFFFF
	regDMA     = 0xFF46
	regBootOff = 0xFF50

	// Scanline period in T-states; the PPU advances one scanline
	// every 456 T-states.
	tStatesPerScanline = 456
)

// Interrupt bit positions within IE/IF.
const (
	IntVBlank = 1 << 0
	IntSTAT   = 1 << 1
	IntTimer  = 1 << 2
	IntSerial = 1 << 3
	IntJoypad = 1 << 4
)

// MMU is the bus: the single owner of the PPU, WRAM/HRAM/SRAM
// storage, and the boot-ROM-unmap / IME / IE / IF state.
type MMU struct {
	cart *rom.ROM
	ppu  *ppu.PPU

	boot   [0x100]uint8
	inBoot bool

	sram [sramSize]uint8
	wram [wramSize]uint8
	hram [hramSize]uint8
	io   [0x80]uint8 // catch-all for unmodeled I/O (joypad, timer, serial, audio)

	ifReg uint8
	ie    uint8
	// IME is not read or written by the cpu package, which keeps its
	// own interrupt master enable flag (see cpu.CPU.IME).
	IME bool

	ppuCycleAcc int
}

// New wires a cartridge and a PPU frame sink into a fresh MMU. The
// default boot ROM is installed and in_boot starts true; use
// NewWithBoot to override it (e.g. to skip the boot handshake in
// headless tests).
func New(cart *rom.ROM, sink ppu.FrameSink) *MMU {
	return NewWithBoot(cart, sink, bootROM)
}

// NewWithBoot is New with an explicit 256-byte boot image. Passing a
// zeroed image and starting execution at 0x0100 is how tests skip the
// boot handshake without special-casing in_boot anywhere else.
func NewWithBoot(cart *rom.ROM, sink ppu.FrameSink, boot [0x100]uint8) *MMU {
	m := &MMU{cart: cart, boot: boot, inBoot: true}
	m.ppu = ppu.New(m, sink)
	return m
}

// RequestVBlank implements ppu.Bus: the PPU calls this once it enters
// V-Blank; the MMU raises IF's V-Blank bit for the CPU to observe.
func (m *MMU) RequestVBlank() {
	m.ifReg |= IntVBlank
}

// PPU exposes the owned PPU for callers that need direct access.
func (m *MMU) PPU() *ppu.PPU { return m.ppu }

// InBoot reports whether the boot ROM is still mapped at 0x0000-0x00FF.
func (m *MMU) InBoot() bool { return m.inBoot }

// Read returns the byte at addr. Reads never fail at the type level;
// unmapped ranges return 0xFF, matching the bus's pull-up behavior on
// real hardware.
func (m *MMU) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x00FF && m.inBoot:
		return m.boot[addr]
	case addr <= 0x7FFF:
		b, err := m.cart.At(uint32(addr))
		if err != nil {
			return 0xFF
		}
		return b
	case addr <= 0x9FFF:
		return m.ppu.ReadVRAM(addr)
	case addr <= 0xBFFF:
		return m.sram[addr-0xA000]
	case addr <= 0xDFFF:
		return m.wram[addr-0xC000]
	case addr <= 0xFDFF: // echo of 0xC000-0xDDFF
		return m.wram[addr-0xE000]
	case addr <= 0xFE9F:
		return m.ppu.ReadOAM(addr)
	case addr <= 0xFEFF: // unusable
		return 0xFF
	case addr == regIF:
		return m.ifReg
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return m.ppu.ReadReg(addr)
	case addr <= 0xFF7F:
		return m.io[addr-0xFF00]
	case addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	case addr == regIE:
		return m.ie
	default:
		return 0xFF
	}
}

// Write stores val at addr. Writes to ROM are silently dropped (no
// MBC in scope); writes to unmapped ranges are ignored.
func (m *MMU) Write(addr uint16, val uint8) {
	switch {
	case addr <= 0x7FFF:
		// ROM is read-only; no banking logic in this baseline.
	case addr <= 0x9FFF:
		m.ppu.WriteVRAM(addr, val)
	case addr <= 0xBFFF:
		m.sram[addr-0xA000] = val
	case addr <= 0xDFFF:
		m.wram[addr-0xC000] = val
	case addr <= 0xFDFF:
		m.wram[addr-0xE000] = val
	case addr <= 0xFE9F:
		m.ppu.WriteOAM(addr, val)
	case addr <= 0xFEFF:
		// unusable range; writes ignored
	case addr == regIF:
		m.ifReg = val & 0x1F
	case addr == regDMA:
		m.runDMA(val)
	case addr == regBootOff:
		if val != 0 {
			m.inBoot = false
		}
	case addr >= 0xFF40 && addr <= 0xFF4B:
		m.ppu.WriteReg(addr, val)
	case addr <= 0xFF7F:
		m.io[addr-0xFF00] = val
	case addr <= 0xFFFE:
		m.hram[addr-0xFF80] = val
	case addr == regIE:
		m.ie = val
	}
}

// runDMA performs the OAM-DMA transfer: 160 bytes copied from
// value*0x100 into OAM. The MMU drives this rather than the PPU
// because the source range can be any region on the bus.
func (m *MMU) runDMA(val uint8) {
	base := uint16(val) << 8
	for i := uint16(0); i < 160; i++ {
		m.ppu.WriteOAMByte(uint8(i), m.Read(base+i))
	}
}

// Read16 reads a little-endian word: low byte at addr, high at addr+1.
func (m *MMU) Read16(addr uint16) uint16 {
	lo := m.Read(addr)
	hi := m.Read(addr + 1)
	return bitops.Join(hi, lo)
}

// Write16 writes a little-endian word, matching Read16's byte order.
func (m *MMU) Write16(addr uint16, val uint16) {
	m.Write(addr, bitops.LowByte(val))
	m.Write(addr+1, bitops.HighByte(val))
}

// PendingInterrupts returns the enabled, pending interrupt bits
// (IE & IF), used by the CPU both to service interrupts (when IME is
// set) and to wake from HALT (regardless of IME).
func (m *MMU) PendingInterrupts() uint8 {
	return m.ie & m.ifReg & 0x1F
}

// ClearInterrupt clears a single pending interrupt bit in IF, called
// by the CPU once it has begun servicing that interrupt.
func (m *MMU) ClearInterrupt(bit uint8) {
	m.ifReg &^= bit
}

// Tick advances the PPU by tStates worth of elapsed CPU time. The PPU
// itself only exposes per-scanline granularity, so the MMU
// accumulates elapsed T-states and fires one ppu.Step every 456 of
// them — one DMG scanline's duration.
func (m *MMU) Tick(tStates int) {
	m.ppuCycleAcc += tStates
	for m.ppuCycleAcc >= tStatesPerScanline {
		m.ppu.Step()
		m.ppuCycleAcc -= tStatesPerScanline
	}
}
