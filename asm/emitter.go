package asm

import (
	"fmt"

	"github.com/SwiftSimpers/NES/cpu"
)

// An EmitError reports a failure while generating machine code.
type EmitError struct {
	Mnemonic string
	Span     Span
	Msg      string
}

func (e *EmitError) Error() string {
	if e.Mnemonic != "" {
		return fmt.Sprintf("emit error at %s: %s: %s", e.Span.Start, e.Mnemonic, e.Msg)
	}
	return fmt.Sprintf("emit error at %s: %s", e.Span.Start, e.Msg)
}

// emitter turns a parsed program into machine code through a running
// cursor. Opcode selection is a lookup keyed on (mnemonic, addressing
// mode) against the CPU's instruction table, so the assembler and the
// executor share one source of truth.
type emitter struct {
	prog   *Program
	origin uint16
	code   []byte
	cursor int
}

func newEmitter(prog *Program, origin uint16) *emitter {
	return &emitter{
		prog:   prog,
		origin: origin,
		code:   make([]byte, prog.Size),
	}
}

func (e *emitter) run() ([]byte, error) {
	for _, n := range e.prog.Nodes {
		inst, ok := n.(*Instruction)
		if !ok {
			continue
		}
		if err := e.emitInstruction(inst); err != nil {
			return nil, err
		}
	}
	return e.code, nil
}

func (e *emitter) emitInstruction(inst *Instruction) error {
	if cpu.GetInstructions(inst.Mnemonic) == nil {
		return &EmitError{Mnemonic: inst.Mnemonic, Span: inst.Span, Msg: "invalid instruction"}
	}

	// Plain mnemonic: a single fixed opcode byte.
	if inst.Arg == nil {
		op := cpu.FindInstruction(inst.Mnemonic, cpu.IMP)
		if op == nil {
			return &EmitError{Mnemonic: inst.Mnemonic, Span: inst.Span, Msg: "missing argument"}
		}
		e.writeByte(op.Opcode)
		return nil
	}

	// Label references patch to an absolute address for JMP/JSR and to
	// a PC-relative offset for branches.
	if inst.Arg.Kind == ArgLabel {
		return e.emitLabelRef(inst)
	}

	mode, err := addressingMode(inst.Arg)
	if err != nil {
		return &EmitError{Mnemonic: inst.Mnemonic, Span: inst.Span, Msg: err.Error()}
	}
	op := cpu.FindInstruction(inst.Mnemonic, mode)
	if op == nil {
		return &EmitError{
			Mnemonic: inst.Mnemonic,
			Span:     inst.Span,
			Msg:      fmt.Sprintf("unexpected %s argument", inst.Arg.Kind),
		}
	}

	e.writeByte(op.Opcode)
	switch inst.Arg.size(inst.Mnemonic) {
	case 0:
	case 1:
		e.writeByte(byte(inst.Arg.Value))
	case 2:
		e.writeWord(uint16(inst.Arg.Value))
	}
	return nil
}

func (e *emitter) emitLabelRef(inst *Instruction) error {
	target, ok := e.prog.Labels[inst.Arg.Label]
	if !ok {
		return &EmitError{
			Mnemonic: inst.Mnemonic,
			Span:     inst.Span,
			Msg:      fmt.Sprintf("label %q not found", inst.Arg.Label),
		}
	}

	switch {
	case branchMnemonics[inst.Mnemonic]:
		op := cpu.FindInstruction(inst.Mnemonic, cpu.REL)
		offset := target - (inst.Offset + 2)
		if offset < -128 || offset > 127 {
			return &EmitError{
				Mnemonic: inst.Mnemonic,
				Span:     inst.Span,
				Msg:      fmt.Sprintf("branch to %q out of range (%d bytes)", inst.Arg.Label, offset),
			}
		}
		e.writeByte(op.Opcode)
		e.writeByte(byte(offset))
		return nil

	case inst.Mnemonic == "JMP" || inst.Mnemonic == "JSR":
		op := cpu.FindInstruction(inst.Mnemonic, cpu.ABS)
		e.writeByte(op.Opcode)
		e.writeWord(e.origin + uint16(target))
		return nil

	default:
		return &EmitError{
			Mnemonic: inst.Mnemonic,
			Span:     inst.Span,
			Msg:      "unexpected label argument",
		}
	}
}

func (e *emitter) writeByte(v byte) {
	e.code[e.cursor] = v
	e.cursor++
}

func (e *emitter) writeWord(v uint16) {
	e.writeByte(byte(v))
	e.writeByte(byte(v >> 8))
}

// addressingMode maps an argument variant to the CPU addressing mode
// used for opcode selection.
func addressingMode(a *Arg) (cpu.Mode, error) {
	switch a.Kind {
	case ArgImmediate:
		return cpu.IMM, nil
	case ArgZeroPage:
		return cpu.ZPG, nil
	case ArgZeroPageIndexed:
		if a.Index == IndexX {
			return cpu.ZPX, nil
		}
		return cpu.ZPY, nil
	case ArgAbsolute:
		return cpu.ABS, nil
	case ArgAbsoluteIndexed:
		if a.Index == IndexX {
			return cpu.ABX, nil
		}
		return cpu.ABY, nil
	case ArgIndirect:
		return cpu.IND, nil
	case ArgIndirectIndexed:
		if a.Index == IndexX {
			return cpu.IDX, nil
		}
		return cpu.IDY, nil
	case ArgRelative:
		return cpu.REL, nil
	case ArgAccumulator:
		return cpu.ACC, nil
	default:
		return 0, fmt.Errorf("unexpected %s argument", a.Kind)
	}
}
