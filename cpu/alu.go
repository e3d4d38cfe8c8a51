package cpu

import "github.com/kwbrandt/dmg01/mmu"

// aluNames indexes the eight base ALU operations in opcode order:
// ADD, ADC, SUB, SBC, AND, XOR, OR, CP.
var aluNames = [8]string{"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP"}

// addWithFlags computes a+b(+carryIn) and the H/C flags that result
// (Z is set and N cleared by the caller for ADD/ADC).
func addWithFlags(a, b uint8, carryIn bool) (result uint8, h, carry bool) {
	var ci uint16
	if carryIn {
		ci = 1
	}
	sum := uint16(a) + uint16(b) + ci
	result = uint8(sum)
	h = (a&0xF)+(b&0xF)+uint8(ci) > 0xF
	carry = sum > 0xFF
	return
}

// subWithFlags computes a-b(-borrowIn) and the H/C flags that result
// (N is always set by the caller for SUB/SBC/CP).
func subWithFlags(a, b uint8, borrowIn bool) (result uint8, h, carry bool) {
	var bi uint8
	if borrowIn {
		bi = 1
	}
	h = (a & 0xF) < (b&0xF)+bi
	full := int(a) - int(b) - int(bi)
	carry = full < 0
	result = uint8(full)
	return
}

// applyALU performs aluNames[opIndex] with the accumulator and val,
// storing the result (except for CP, which only sets flags) and
// updating Z/N/H/C to match.
func (c *CPU) applyALU(opIndex int, val uint8) {
	a := c.Reg.A
	switch opIndex {
	case 0: // ADD
		res, h, cy := addWithFlags(a, val, false)
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(false)
		c.Reg.SetH(h)
		c.Reg.SetC(cy)
	case 1: // ADC
		res, h, cy := addWithFlags(a, val, c.Reg.C())
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(false)
		c.Reg.SetH(h)
		c.Reg.SetC(cy)
	case 2: // SUB
		res, h, cy := subWithFlags(a, val, false)
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(true)
		c.Reg.SetH(h)
		c.Reg.SetC(cy)
	case 3: // SBC
		res, h, cy := subWithFlags(a, val, c.Reg.C())
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(true)
		c.Reg.SetH(h)
		c.Reg.SetC(cy)
	case 4: // AND
		res := a & val
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(false)
		c.Reg.SetH(true)
		c.Reg.SetC(false)
	case 5: // XOR
		res := a ^ val
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(false)
		c.Reg.SetH(false)
		c.Reg.SetC(false)
	case 6: // OR
		res := a | val
		c.Reg.A = res
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(false)
		c.Reg.SetH(false)
		c.Reg.SetC(false)
	case 7: // CP
		res, h, cy := subWithFlags(a, val, false)
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(true)
		c.Reg.SetH(h)
		c.Reg.SetC(cy)
	}
}

// incR8 increments an 8-bit operand, affecting Z/N/H; C is preserved.
func (c *CPU) incR8(m *mmu.MMU, r int) {
	v := c.getR8(m, r)
	res := v + 1
	c.setR8(m, r, res)
	c.Reg.SetZ(res == 0)
	c.Reg.SetN(false)
	c.Reg.SetH(v&0xF == 0xF)
}

// decR8 decrements an 8-bit operand, affecting Z/N/H; C is preserved.
func (c *CPU) decR8(m *mmu.MMU, r int) {
	v := c.getR8(m, r)
	res := v - 1
	c.setR8(m, r, res)
	c.Reg.SetZ(res == 0)
	c.Reg.SetN(true)
	c.Reg.SetH(v&0xF == 0)
}

// addHL adds a 16-bit operand into HL: N=0, H=carry from bit 11,
// C=carry from bit 15, Z is preserved.
func (c *CPU) addHL(rp int) int {
	hl := c.Reg.HL()
	val := c.getRP(rp)
	sum := uint32(hl) + uint32(val)
	c.Reg.SetN(false)
	c.Reg.SetH((hl&0xFFF)+(val&0xFFF) > 0xFFF)
	c.Reg.SetC(sum > 0xFFFF)
	c.Reg.SetHL(uint16(sum))
	return 8
}

// spPlusR8 reads a signed 8-bit displacement and computes SP+r8 along
// with the H/C flags ADD SP,r8 and LD HL,SP+r8 share: both flags are
// computed on the *low byte* addition, using the operand's raw
// (unsigned) byte value, even though the 16-bit result sign-extends it.
func (c *CPU) spPlusR8(m *mmu.MMU) (result uint16, h, carry bool) {
	raw := c.fetch8(m)
	sp := c.Reg.SP
	h = (sp&0xF)+uint16(raw&0xF) > 0xF
	carry = (sp&0xFF)+uint16(raw) > 0xFF
	result = uint16(int32(sp) + int32(int8(raw)))
	return
}

// daa performs the BCD adjustment of A after an ADD/ADC/SUB/SBC
// sequence, using N/H/C to decide which nibbles to correct.
func (c *CPU) daa() int {
	a := c.Reg.A
	carry := c.Reg.C()
	if !c.Reg.N() {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.Reg.H() || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.Reg.H() {
			a -= 0x06
		}
	}
	c.Reg.A = a
	c.Reg.SetZ(a == 0)
	c.Reg.SetH(false)
	c.Reg.SetC(carry)
	return 4
}
