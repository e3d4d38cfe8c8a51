// Package registers implements the SM83 register file: the eight
// 8-bit registers (A, F, B, C, D, E, H, L), the four virtual 16-bit
// pair views over them (AF, BC, DE, HL), and the Z/N/H/C flags packed
// into the high nibble of F. PC and SP are plain 16-bit registers.
package registers

import "github.com/kwbrandt/dmg01/bitops"

// Flag bit positions within F. The low nibble of F is always zero.
const (
	flagZ = 1 << 7
	flagN = 1 << 6
	flagH = 1 << 5
	flagC = 1 << 4
)

// File holds every addressable register of the SM83. Zero value is
// NOT the power-on state — use New for that.
type File struct {
	A, B, C, D, E, H, L uint8
	f                   uint8 // only the top nibble is ever non-zero
	PC, SP              uint16
}

// New returns a register file in its documented power-on state: PC at
// 0x0000, SP at 0xFFFE, every other register and flag zero.
func New() *File {
	return &File{SP: 0xFFFE}
}

// F returns the flags register with its low nibble masked to zero,
// matching real hardware: reads of F never observe garbage bits.
func (r *File) F() uint8 {
	return r.f & 0xF0
}

// SetF distributes the high nibble of val into the four flags; the
// low nibble is discarded, mirroring how POP AF and direct F writes
// behave on hardware.
func (r *File) SetF(val uint8) {
	r.f = val & 0xF0
}

func (r *File) Z() bool { return r.f&flagZ != 0 }
func (r *File) N() bool { return r.f&flagN != 0 }
func (r *File) H() bool { return r.f&flagH != 0 }
func (r *File) C() bool { return r.f&flagC != 0 }

func (r *File) SetZ(v bool) { r.setFlag(flagZ, v) }
func (r *File) SetN(v bool) { r.setFlag(flagN, v) }
func (r *File) SetH(v bool) { r.setFlag(flagH, v) }
func (r *File) SetC(v bool) { r.setFlag(flagC, v) }

func (r *File) setFlag(mask uint8, v bool) {
	if v {
		r.f |= mask
	} else {
		r.f &^= mask
	}
}

// AF returns the virtual pair view {A, F (masked)}.
func (r *File) AF() uint16 { return bitops.Join(r.A, r.F()) }

// SetAF writes the high byte to A and distributes the low byte's top
// nibble into the flags.
func (r *File) SetAF(v uint16) {
	r.A = bitops.HighByte(v)
	r.SetF(bitops.LowByte(v))
}

// BC returns the virtual pair view {B, C}.
func (r *File) BC() uint16 { return bitops.Join(r.B, r.C) }

// SetBC splits v across B (high) and C (low).
func (r *File) SetBC(v uint16) { r.B, r.C = bitops.HighByte(v), bitops.LowByte(v) }

// DE returns the virtual pair view {D, E}.
func (r *File) DE() uint16 { return bitops.Join(r.D, r.E) }

// SetDE splits v across D (high) and E (low).
func (r *File) SetDE(v uint16) { r.D, r.E = bitops.HighByte(v), bitops.LowByte(v) }

// HL returns the virtual pair view {H, L}.
func (r *File) HL() uint16 { return bitops.Join(r.H, r.L) }

// SetHL splits v across H (high) and L (low).
func (r *File) SetHL(v uint16) { r.H, r.L = bitops.HighByte(v), bitops.LowByte(v) }
