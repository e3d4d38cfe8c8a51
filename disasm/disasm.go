// Package disasm pretty-prints instruction bytes using the cpu
// package's own opcode table metadata — no separate mnemonic data is
// maintained.
package disasm

import (
	"fmt"
	"strings"

	"github.com/kwbrandt/dmg01/cpu"
)

// Format decodes the single instruction at the front of mem (which
// should hold at least 3 bytes when available — the longest DMG
// instruction) and returns its text form alongside the number of
// bytes it occupies. If mem ends before the instruction's operand
// bytes, the placeholder is left in the text and the length is 0.
// pc is used only for the printed address.
func Format(pc uint16, mem []byte) (text string, length int) {
	if len(mem) == 0 {
		return fmt.Sprintf("%04X: <no bytes>", pc), 0
	}

	b0 := mem[0]
	var code uint16
	opLen := 1
	if b0 == 0xCB {
		if len(mem) < 2 {
			return fmt.Sprintf("%04X: DB 0xCB <truncated>", pc), 1
		}
		code = 0xCB00 | uint16(mem[1])
		opLen = 2
	} else {
		code = uint16(b0)
	}

	name, ok := cpu.Mnemonic(code)
	if !ok {
		return fmt.Sprintf("%04X: DB 0x%02X ; illegal opcode", pc, b0), opLen
	}

	rendered, extra := substituteOperand(name, mem[opLen:])
	if _, need := substituteOperand(name, []byte{0, 0}); need > extra {
		// Truncated operand: placeholder left as is, length 0.
		return fmt.Sprintf("%04X: %s", pc, rendered), 0
	}
	return fmt.Sprintf("%04X: %s", pc, rendered), opLen + extra
}

// substituteOperand replaces the one placeholder a mnemonic carries
// (d8/d16/a8/a16/r8, the immediate/address/displacement operand
// classes the SM83 encoding uses) with its decoded value, and reports
// how many extra bytes were consumed. Mnemonics with no placeholder
// (NOP, RET, PUSH BC, ...) pass through unchanged.
func substituteOperand(name string, operand []byte) (string, int) {
	switch {
	case strings.Contains(name, "d16"):
		if len(operand) < 2 {
			return name, 0
		}
		v := uint16(operand[0]) | uint16(operand[1])<<8
		return strings.Replace(name, "d16", fmt.Sprintf("0x%04X", v), 1), 2
	case strings.Contains(name, "a16"):
		if len(operand) < 2 {
			return name, 0
		}
		v := uint16(operand[0]) | uint16(operand[1])<<8
		return strings.Replace(name, "a16", fmt.Sprintf("0x%04X", v), 1), 2
	case strings.Contains(name, "d8"):
		if len(operand) < 1 {
			return name, 0
		}
		return strings.Replace(name, "d8", fmt.Sprintf("0x%02X", operand[0]), 1), 1
	case strings.Contains(name, "a8"):
		if len(operand) < 1 {
			return name, 0
		}
		return strings.Replace(name, "a8", fmt.Sprintf("0x%02X", operand[0]), 1), 1
	case strings.Contains(name, "r8"):
		if len(operand) < 1 {
			return name, 0
		}
		return strings.Replace(name, "r8", fmt.Sprintf("%+d", int8(operand[0])), 1), 1
	default:
		return name, 0
	}
}
