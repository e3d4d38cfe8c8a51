package cpu

import "github.com/kwbrandt/dmg01/mmu"

// r8Names is the canonical SM83 8-bit operand encoding used
// throughout the base and CB tables: 0-5 are B,C,D,E,H,L, 6 is the
// byte at (HL), and 7 is A.
var r8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

func (c *CPU) getR8(m *mmu.MMU, r int) uint8 {
	switch r {
	case 0:
		return c.Reg.B
	case 1:
		return c.Reg.C
	case 2:
		return c.Reg.D
	case 3:
		return c.Reg.E
	case 4:
		return c.Reg.H
	case 5:
		return c.Reg.L
	case 6:
		return m.Read(c.Reg.HL())
	case 7:
		return c.Reg.A
	}
	panic("cpu: bad r8 index")
}

func (c *CPU) setR8(m *mmu.MMU, r int, v uint8) {
	switch r {
	case 0:
		c.Reg.B = v
	case 1:
		c.Reg.C = v
	case 2:
		c.Reg.D = v
	case 3:
		c.Reg.E = v
	case 4:
		c.Reg.H = v
	case 5:
		c.Reg.L = v
	case 6:
		m.Write(c.Reg.HL(), v)
	case 7:
		c.Reg.A = v
	default:
		panic("cpu: bad r8 index")
	}
}

// rpNames is the "group 1" 16-bit operand encoding (BC,DE,HL,SP) used
// by LD rp,d16, INC/DEC rp, and ADD HL,rp.
var rpNames = [4]string{"BC", "DE", "HL", "SP"}

func (c *CPU) getRP(rp int) uint16 {
	switch rp {
	case 0:
		return c.Reg.BC()
	case 1:
		return c.Reg.DE()
	case 2:
		return c.Reg.HL()
	case 3:
		return c.Reg.SP
	}
	panic("cpu: bad rp index")
}

func (c *CPU) setRP(rp int, v uint16) {
	switch rp {
	case 0:
		c.Reg.SetBC(v)
	case 1:
		c.Reg.SetDE(v)
	case 2:
		c.Reg.SetHL(v)
	case 3:
		c.Reg.SP = v
	default:
		panic("cpu: bad rp index")
	}
}

// rp2Names is the "group 2" encoding (BC,DE,HL,AF) used by PUSH/POP.
var rp2Names = [4]string{"BC", "DE", "HL", "AF"}

func (c *CPU) getRP2(rp int) uint16 {
	switch rp {
	case 0:
		return c.Reg.BC()
	case 1:
		return c.Reg.DE()
	case 2:
		return c.Reg.HL()
	case 3:
		return c.Reg.AF()
	}
	panic("cpu: bad rp2 index")
}

func (c *CPU) setRP2(rp int, v uint16) {
	switch rp {
	case 0:
		c.Reg.SetBC(v)
	case 1:
		c.Reg.SetDE(v)
	case 2:
		c.Reg.SetHL(v)
	case 3:
		c.Reg.SetAF(v)
	default:
		panic("cpu: bad rp2 index")
	}
}

// ccNames is the condition-code encoding used by JP/JR/CALL/RET cc.
var ccNames = [4]string{"NZ", "Z", "NC", "C"}

func (c *CPU) condTrue(cc int) bool {
	switch cc {
	case 0:
		return !c.Reg.Z()
	case 1:
		return c.Reg.Z()
	case 2:
		return !c.Reg.C()
	case 3:
		return c.Reg.C()
	}
	panic("cpu: bad cc index")
}
