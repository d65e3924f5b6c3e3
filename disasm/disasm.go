// Package disasm implements a 6502 instruction disassembler producing
// the assembler's source dialect.
package disasm

import (
	"fmt"

	"github.com/SwiftSimpers/NES/cpu"
)

// Formatting for each addressing mode, filled with the operand value.
var modeFormat = []string{
	"#%s",      // IMM
	"%s",       // IMP
	"%s",       // REL
	"#(%s)",    // ZPG
	"#(%s, X)", // ZPX
	"#(%s, Y)", // ZPY
	"%s",       // ABS
	"%s, X",    // ABX
	"%s, Y",    // ABY
	"(%s)",     // IND
	"(%s, X)",  // IDX
	"(%s, Y)",  // IDY
	"A",        // ACC
}

// Disassemble decodes the instruction in memory 'm' at address 'addr'.
// It returns the source line for the instruction and the address of
// the instruction that follows. Undocumented opcodes decode as a
// single-byte NOP.
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16, err error) {
	opcode, err := m.ReadByte(addr)
	if err != nil {
		return "", addr, err
	}

	inst := &cpu.Instructions[opcode]
	if inst.Name == "" {
		return "NOP", addr + 1, nil
	}

	var operand string
	switch inst.Length {
	case 2:
		v, err := m.ReadByte(addr + 1)
		if err != nil {
			return "", addr, err
		}
		operand = fmt.Sprintf("0x%02X", v)
	case 3:
		v, err := m.ReadWord(addr + 1)
		if err != nil {
			return "", addr, err
		}
		operand = fmt.Sprintf("0x%04X", v)
	}

	switch inst.Mode {
	case cpu.IMP:
		line = inst.Name
	case cpu.ACC:
		line = inst.Name + " A"
	default:
		line = inst.Name + " " + fmt.Sprintf(modeFormat[inst.Mode], operand)
	}
	next = addr + uint16(inst.Length)
	return line, next, nil
}
