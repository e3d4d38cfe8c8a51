package cpu

import (
	"github.com/kwbrandt/dmg01/bitops"
	"github.com/kwbrandt/dmg01/mmu"
)

// action is the direct dispatch target every table slot holds: a
// function pointer that mutates the CPU/MMU and returns the T-states
// the instruction actually consumed (conditional branches return
// their taken or not-taken cost).
type action func(c *CPU, m *mmu.MMU) int

func nop(c *CPU, m *mmu.MMU) int { return 4 }

func halt(c *CPU, m *mmu.MMU) int {
	c.State = Halted
	return 4
}

func stop(c *CPU, m *mmu.MMU) int {
	c.fetch8(m) // STOP's second byte is conventionally 0x00
	c.State = Stopped
	return 4
}

func di(c *CPU, m *mmu.MMU) int {
	c.ime = false
	c.eiPending = false
	return 4
}

func ei(c *CPU, m *mmu.MMU) int {
	c.eiPending = true
	return 4
}

func rlca(c *CPU, m *mmu.MMU) int {
	a := c.Reg.A
	carry := bitops.GetBit(a, 7)
	a <<= 1
	if carry {
		a = bitops.SetBit(a, 0, 1)
	}
	c.Reg.A = a
	c.Reg.SetZ(false)
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(carry)
	return 4
}

func rrca(c *CPU, m *mmu.MMU) int {
	a := c.Reg.A
	carry := bitops.GetBit(a, 0)
	a >>= 1
	if carry {
		a = bitops.SetBit(a, 7, 1)
	}
	c.Reg.A = a
	c.Reg.SetZ(false)
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(carry)
	return 4
}

func rla(c *CPU, m *mmu.MMU) int {
	a := c.Reg.A
	oldCarry := c.Reg.C()
	newCarry := bitops.GetBit(a, 7)
	a <<= 1
	if oldCarry {
		a = bitops.SetBit(a, 0, 1)
	}
	c.Reg.A = a
	c.Reg.SetZ(false)
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(newCarry)
	return 4
}

func rra(c *CPU, m *mmu.MMU) int {
	a := c.Reg.A
	oldCarry := c.Reg.C()
	newCarry := bitops.GetBit(a, 0)
	a >>= 1
	if oldCarry {
		a = bitops.SetBit(a, 7, 1)
	}
	c.Reg.A = a
	c.Reg.SetZ(false)
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(newCarry)
	return 4
}

func daaOp(c *CPU, m *mmu.MMU) int { return c.daa() }

func cpl(c *CPU, m *mmu.MMU) int {
	c.Reg.A = ^c.Reg.A
	c.Reg.SetN(true)
	c.Reg.SetH(true)
	return 4
}

func scf(c *CPU, m *mmu.MMU) int {
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(true)
	return 4
}

func ccf(c *CPU, m *mmu.MMU) int {
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(!c.Reg.C())
	return 4
}

func ldBCA(c *CPU, m *mmu.MMU) int { m.Write(c.Reg.BC(), c.Reg.A); return 8 }
func ldDEA(c *CPU, m *mmu.MMU) int { m.Write(c.Reg.DE(), c.Reg.A); return 8 }
func ldABC(c *CPU, m *mmu.MMU) int { c.Reg.A = m.Read(c.Reg.BC()); return 8 }
func ldADE(c *CPU, m *mmu.MMU) int { c.Reg.A = m.Read(c.Reg.DE()); return 8 }

func ldHLIncA(c *CPU, m *mmu.MMU) int {
	m.Write(c.Reg.HL(), c.Reg.A)
	c.Reg.SetHL(c.Reg.HL() + 1)
	return 8
}

func ldHLDecA(c *CPU, m *mmu.MMU) int {
	m.Write(c.Reg.HL(), c.Reg.A)
	c.Reg.SetHL(c.Reg.HL() - 1)
	return 8
}

func ldAHLInc(c *CPU, m *mmu.MMU) int {
	c.Reg.A = m.Read(c.Reg.HL())
	c.Reg.SetHL(c.Reg.HL() + 1)
	return 8
}

func ldAHLDec(c *CPU, m *mmu.MMU) int {
	c.Reg.A = m.Read(c.Reg.HL())
	c.Reg.SetHL(c.Reg.HL() - 1)
	return 8
}

func ldhA8A(c *CPU, m *mmu.MMU) int {
	off := c.fetch8(m)
	m.Write(0xFF00+uint16(off), c.Reg.A)
	return 12
}

func ldhAA8(c *CPU, m *mmu.MMU) int {
	off := c.fetch8(m)
	c.Reg.A = m.Read(0xFF00 + uint16(off))
	return 12
}

func ldCA(c *CPU, m *mmu.MMU) int { m.Write(0xFF00+uint16(c.Reg.C), c.Reg.A); return 8 }
func ldAC(c *CPU, m *mmu.MMU) int { c.Reg.A = m.Read(0xFF00 + uint16(c.Reg.C)); return 8 }

func ldA16A(c *CPU, m *mmu.MMU) int {
	addr := c.fetch16(m)
	m.Write(addr, c.Reg.A)
	return 16
}

func ldAA16(c *CPU, m *mmu.MMU) int {
	addr := c.fetch16(m)
	c.Reg.A = m.Read(addr)
	return 16
}

func ldA16SP(c *CPU, m *mmu.MMU) int {
	addr := c.fetch16(m)
	m.Write16(addr, c.Reg.SP)
	return 20
}

func ldSPHL(c *CPU, m *mmu.MMU) int {
	c.Reg.SP = c.Reg.HL()
	return 8
}

func addSPR8(c *CPU, m *mmu.MMU) int {
	result, h, cy := c.spPlusR8(m)
	c.Reg.SP = result
	c.Reg.SetZ(false)
	c.Reg.SetN(false)
	c.Reg.SetH(h)
	c.Reg.SetC(cy)
	return 16
}

func ldHLSPR8(c *CPU, m *mmu.MMU) int {
	result, h, cy := c.spPlusR8(m)
	c.Reg.SetHL(result)
	c.Reg.SetZ(false)
	c.Reg.SetN(false)
	c.Reg.SetH(h)
	c.Reg.SetC(cy)
	return 12
}

func jpHL(c *CPU, m *mmu.MMU) int {
	c.Reg.PC = c.Reg.HL()
	return 4
}

func jpA16(c *CPU, m *mmu.MMU) int {
	addr := c.fetch16(m)
	c.Reg.PC = addr
	return 16
}

func jrR8(c *CPU, m *mmu.MMU) int {
	raw := c.fetch8(m)
	c.Reg.PC = uint16(int32(c.Reg.PC) + int32(int8(raw)))
	return 12
}

func callA16(c *CPU, m *mmu.MMU) int {
	addr := c.fetch16(m)
	c.push16(m, c.Reg.PC)
	c.Reg.PC = addr
	return 24
}

func ret(c *CPU, m *mmu.MMU) int {
	c.Reg.PC = c.pop16(m)
	return 16
}

func reti(c *CPU, m *mmu.MMU) int {
	c.Reg.PC = c.pop16(m)
	c.ime = true
	return 16
}

// Parameterized groups: each returns an action closing over the
// operand index the opcode's position in the table encodes.

func ldRPd16(rp int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.setRP(rp, c.fetch16(m))
		return 12
	}
}

func incRP(rp int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.setRP(rp, c.getRP(rp)+1)
		return 8
	}
}

func decRP(rp int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.setRP(rp, c.getRP(rp)-1)
		return 8
	}
}

func addHLRP(rp int) action {
	return func(c *CPU, m *mmu.MMU) int {
		return c.addHL(rp)
	}
}

func incR8Action(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.incR8(m, r)
		if r == 6 {
			return 12
		}
		return 4
	}
}

func decR8Action(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.decR8(m, r)
		if r == 6 {
			return 12
		}
		return 4
	}
}

func ldR8d8(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.fetch8(m)
		c.setR8(m, r, v)
		if r == 6 {
			return 12
		}
		return 8
	}
}

func ldR8R8(dst, src int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, src)
		c.setR8(m, dst, v)
		if dst == 6 || src == 6 {
			return 8
		}
		return 4
	}
}

func aluR8(opIndex, r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		c.applyALU(opIndex, v)
		if r == 6 {
			return 8
		}
		return 4
	}
}

func aluD8(opIndex int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.fetch8(m)
		c.applyALU(opIndex, v)
		return 8
	}
}

func jpCC(cc int) action {
	return func(c *CPU, m *mmu.MMU) int {
		addr := c.fetch16(m)
		if c.condTrue(cc) {
			c.Reg.PC = addr
			return 16
		}
		return 12
	}
}

func jrCC(cc int) action {
	return func(c *CPU, m *mmu.MMU) int {
		raw := c.fetch8(m)
		if c.condTrue(cc) {
			c.Reg.PC = uint16(int32(c.Reg.PC) + int32(int8(raw)))
			return 12
		}
		return 8
	}
}

func callCC(cc int) action {
	return func(c *CPU, m *mmu.MMU) int {
		addr := c.fetch16(m)
		if c.condTrue(cc) {
			c.push16(m, c.Reg.PC)
			c.Reg.PC = addr
			return 24
		}
		return 12
	}
}

func retCC(cc int) action {
	return func(c *CPU, m *mmu.MMU) int {
		if c.condTrue(cc) {
			c.Reg.PC = c.pop16(m)
			return 20
		}
		return 8
	}
}

func rst(addr uint16) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.push16(m, c.Reg.PC)
		c.Reg.PC = addr
		return 16
	}
}

func pushRP2(rp int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.push16(m, c.getRP2(rp))
		return 16
	}
}

func popRP2(rp int) action {
	return func(c *CPU, m *mmu.MMU) int {
		c.setRP2(rp, c.pop16(m))
		return 12
	}
}

// cbCost is the shared CB-page cost rule: register-direct operands
// cost 8, (HL) operands cost 16. BIT, which performs no write-back,
// does not use it: it costs 8 register-direct and 12 on (HL).
func cbCost(r int) int {
	if r == 6 {
		return 16
	}
	return 8
}

func setShiftFlags(c *CPU, res uint8, carry bool) {
	c.Reg.SetZ(res == 0)
	c.Reg.SetN(false)
	c.Reg.SetH(false)
	c.Reg.SetC(carry)
}

func cbRLC(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		carry := bitops.GetBit(v, 7)
		res := v << 1
		if carry {
			res = bitops.SetBit(res, 0, 1)
		}
		c.setR8(m, r, res)
		setShiftFlags(c, res, carry)
		return cbCost(r)
	}
}

func cbRRC(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		carry := bitops.GetBit(v, 0)
		res := v >> 1
		if carry {
			res = bitops.SetBit(res, 7, 1)
		}
		c.setR8(m, r, res)
		setShiftFlags(c, res, carry)
		return cbCost(r)
	}
}

func cbRL(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		oldCarry := c.Reg.C()
		newCarry := bitops.GetBit(v, 7)
		res := v << 1
		if oldCarry {
			res = bitops.SetBit(res, 0, 1)
		}
		c.setR8(m, r, res)
		setShiftFlags(c, res, newCarry)
		return cbCost(r)
	}
}

func cbRR(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		oldCarry := c.Reg.C()
		newCarry := bitops.GetBit(v, 0)
		res := v >> 1
		if oldCarry {
			res = bitops.SetBit(res, 7, 1)
		}
		c.setR8(m, r, res)
		setShiftFlags(c, res, newCarry)
		return cbCost(r)
	}
}

func cbSLA(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		carry := bitops.GetBit(v, 7)
		res := v << 1
		c.setR8(m, r, res)
		setShiftFlags(c, res, carry)
		return cbCost(r)
	}
}

func cbSRA(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		carry := bitops.GetBit(v, 0)
		res := (v >> 1) | (v & 0x80)
		c.setR8(m, r, res)
		setShiftFlags(c, res, carry)
		return cbCost(r)
	}
}

func cbSWAP(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		res := (v << 4) | (v >> 4)
		c.setR8(m, r, res)
		c.Reg.SetZ(res == 0)
		c.Reg.SetN(false)
		c.Reg.SetH(false)
		c.Reg.SetC(false)
		return cbCost(r)
	}
}

func cbSRL(r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		carry := bitops.GetBit(v, 0)
		res := v >> 1
		c.setR8(m, r, res)
		setShiftFlags(c, res, carry)
		return cbCost(r)
	}
}

func cbBIT(n, r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		c.Reg.SetZ(!bitops.GetBit(v, uint8(n)))
		c.Reg.SetN(false)
		c.Reg.SetH(true)
		if r == 6 {
			return 12
		}
		return 8
	}
}

func cbRES(n, r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		v = bitops.SetBit(v, uint8(n), 0)
		c.setR8(m, r, v)
		return cbCost(r)
	}
}

func cbSET(n, r int) action {
	return func(c *CPU, m *mmu.MMU) int {
		v := c.getR8(m, r)
		v = bitops.SetBit(v, uint8(n), 1)
		c.setR8(m, r, v)
		return cbCost(r)
	}
}
