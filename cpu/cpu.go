// Package cpu emulates the MOS 6502 CPU as used in the NES (the Ricoh
// 2A03 variant, which has no decimal mode). It implements the full
// documented instruction set, whole-instruction cycle accounting, and
// the fetch/decode/execute loop.
package cpu

import "fmt"

// Interrupt vectors
const (
	VectorNMI   = 0xfffa
	VectorReset = 0xfffc
	VectorIRQ   = 0xfffe
)

// ProgramOrigin is the address where stand-alone (non-cartridge)
// programs are loaded and executed.
const ProgramOrigin = 0x0600

// Memory is the bus interface the CPU reads and writes through. Words
// are little-endian. Implementations must return a deterministic byte
// or an error for every read; reads never return uninitialized data.
type Memory interface {
	ReadByte(addr uint16) (byte, error)
	WriteByte(addr uint16, v byte) error
	ReadWord(addr uint16) (uint16, error)
	WriteWord(addr uint16, v uint16) error
}

// Loader is implemented by memories that know how to install a program
// image and its reset vector.
type Loader interface {
	Load(program []byte, origin uint16) error
}

// Interrupt identifies the interrupt kind that ended a step.
type Interrupt byte

// Step results. InterruptNone means the step completed normally.
const (
	InterruptNone Interrupt = iota
	InterruptNMI
	InterruptIRQ
	InterruptReset
)

func (i Interrupt) String() string {
	switch i {
	case InterruptNone:
		return "OK"
	case InterruptNMI:
		return "NMI"
	case InterruptIRQ:
		return "IRQ"
	case InterruptReset:
		return "Reset"
	default:
		return fmt.Sprintf("Interrupt(%d)", byte(i))
	}
}

// A StackError reports a push beyond the bottom of the stack page or a
// pop past its top.
type StackError struct {
	Op string // "push" or "pop"
	SP byte   // stack pointer at the time of the fault
}

func (e *StackError) Error() string {
	switch e.Op {
	case "push":
		return fmt.Sprintf("stack overflow: push with SP=$%02X", e.SP)
	default:
		return fmt.Sprintf("stack underflow: pop with SP=$%02X", e.SP)
	}
}

// An OpcodeError reports an undocumented opcode fetched while the CPU
// is in strict mode.
type OpcodeError struct {
	Opcode byte
	PC     uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode $%02X at $%04X", e.Opcode, e.PC)
}

// CycleFunc is the pluggable cycle hook. It receives the instruction's
// base cycle cost and a thunk that executes the instruction. The hook
// must invoke the thunk exactly once; it may block the caller before or
// after to pace emulation. See Clock for a wall-clock pacing hook.
type CycleFunc func(cycles int, fn func())

// CPU represents a single 6502 CPU bound to a memory bus.
type CPU struct {
	Reg    Registers // CPU registers
	Mem    Memory    // assigned memory bus
	Cycles uint64    // total executed CPU cycles

	onCycles    CycleFunc
	strict      bool
	pageCrossed bool
	deltaCycles int8
	interrupt   Interrupt
	pending     Interrupt
}

// Option configures a CPU created by New.
type Option func(*CPU)

// WithStrictOpcodes makes the CPU fault on undocumented opcodes instead
// of treating them as NOP.
func WithStrictOpcodes() Option {
	return func(cpu *CPU) { cpu.strict = true }
}

// WithCycleHook installs the cycle hook invoked once per instruction.
func WithCycleHook(fn CycleFunc) Option {
	return func(cpu *CPU) { cpu.onCycles = fn }
}

// New creates an emulated 6502 CPU bound to the specified memory.
func New(m Memory, opts ...Option) *CPU {
	cpu := &CPU{
		Mem:      m,
		onCycles: func(cycles int, fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(cpu)
	}
	cpu.Reg.Init()
	return cpu
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
}

// Reset restores the documented power-on register state and loads the
// program counter from the reset vector at $FFFC.
func (cpu *CPU) Reset() error {
	cpu.Reg.Init()
	pc, err := cpu.Mem.ReadWord(VectorReset)
	if err != nil {
		return err
	}
	cpu.Reg.PC = pc
	return nil
}

// Load copies the program into memory at the program origin ($0600) and
// points the reset vector there.
func (cpu *CPU) Load(program []byte) error {
	if l, ok := cpu.Mem.(Loader); ok {
		return l.Load(program, ProgramOrigin)
	}
	for i, v := range program {
		if err := cpu.Mem.WriteByte(ProgramOrigin+uint16(i), v); err != nil {
			return err
		}
	}
	return cpu.Mem.WriteWord(VectorReset, ProgramOrigin)
}

// Run resets the CPU and steps it until an instruction surfaces an
// interrupt or a step fails.
func (cpu *CPU) Run() error {
	if err := cpu.Reset(); err != nil {
		return err
	}
	for {
		intr, err := cpu.Step()
		if err != nil {
			return err
		}
		if intr != InterruptNone {
			return nil
		}
	}
}

// LoadAndRun loads the program at the program origin and runs it to
// completion.
func (cpu *CPU) LoadAndRun(program []byte) error {
	if err := cpu.Load(program); err != nil {
		return err
	}
	return cpu.Run()
}

// SignalNMI requests a non-maskable interrupt. It is serviced before
// the next instruction fetch.
func (cpu *CPU) SignalNMI() {
	cpu.pending = InterruptNMI
}

// SignalIRQ requests a maskable interrupt. It is serviced before the
// next instruction fetch unless the interrupt-disable flag is set.
func (cpu *CPU) SignalIRQ() {
	if cpu.pending == InterruptNone {
		cpu.pending = InterruptIRQ
	}
}

// Step executes a single instruction. It returns InterruptNone when the
// instruction completed normally, or the interrupt kind that ended it.
// Stack and bus faults abort the step with an error.
func (cpu *CPU) Step() (Interrupt, error) {
	if intr := cpu.pending; intr != InterruptNone {
		// A masked IRQ stays pending until interrupts are re-enabled.
		if intr == InterruptNMI || !cpu.Reg.IsSet(InterruptDisable) {
			cpu.pending = InterruptNone
			if err := cpu.serviceInterrupt(intr); err != nil {
				return InterruptNone, err
			}
			return intr, nil
		}
	}

	// Grab the next opcode at the current PC.
	opcode, err := cpu.Mem.ReadByte(cpu.Reg.PC)
	if err != nil {
		return InterruptNone, err
	}

	inst := &Instructions[opcode]
	if inst.fn == nil {
		if cpu.strict {
			return InterruptNone, &OpcodeError{Opcode: opcode, PC: cpu.Reg.PC}
		}
		// Undocumented opcodes execute as single-byte NOPs.
		cpu.Reg.PC++
		cpu.Cycles += 2
		return InterruptNone, nil
	}

	// Fetch the operand (if any) and advance the PC.
	var buf [2]byte
	operand := buf[:inst.Length-1]
	for i := range operand {
		operand[i], err = cpu.Mem.ReadByte(cpu.Reg.PC + 1 + uint16(i))
		if err != nil {
			return InterruptNone, err
		}
	}
	cpu.Reg.PC += uint16(inst.Length)

	// Execute the instruction inside the cycle hook.
	cpu.pageCrossed = false
	cpu.deltaCycles = 0
	cpu.interrupt = InterruptNone
	cpu.onCycles(int(inst.Cycles), func() {
		err = inst.fn(cpu, inst, operand)
	})
	if err != nil {
		return InterruptNone, err
	}

	cpu.Cycles += uint64(int8(inst.Cycles) + cpu.deltaCycles)
	if cpu.pageCrossed {
		cpu.Cycles += uint64(inst.BPCycles)
	}
	return cpu.interrupt, nil
}

// ReadByte reads the byte at 'addr' through the CPU's bus.
func (cpu *CPU) ReadByte(addr uint16) (byte, error) {
	return cpu.Mem.ReadByte(addr)
}

// WriteByte writes 'v' at 'addr' through the CPU's bus.
func (cpu *CPU) WriteByte(addr uint16, v byte) error {
	return cpu.Mem.WriteByte(addr, v)
}

// Load a byte value using the requested addressing mode and the
// variable-sized instruction operand.
func (cpu *CPU) load(mode Mode, operand []byte) (byte, error) {
	switch mode {
	case IMM:
		return operand[0], nil
	case ZPG:
		return cpu.Mem.ReadByte(operandToAddress(operand))
	case ZPX:
		return cpu.Mem.ReadByte(offsetZeroPage(operand[0], cpu.Reg.X))
	case ZPY:
		return cpu.Mem.ReadByte(offsetZeroPage(operand[0], cpu.Reg.Y))
	case ABS:
		return cpu.Mem.ReadByte(operandToAddress(operand))
	case ABX:
		addr := operandToAddress(operand)
		addr, cpu.pageCrossed = offsetAddress(addr, cpu.Reg.X)
		return cpu.Mem.ReadByte(addr)
	case ABY:
		addr := operandToAddress(operand)
		addr, cpu.pageCrossed = offsetAddress(addr, cpu.Reg.Y)
		return cpu.Mem.ReadByte(addr)
	case IDX:
		addr, err := cpu.readZeroPageWord(offsetZeroPage(operand[0], cpu.Reg.X))
		if err != nil {
			return 0, err
		}
		return cpu.Mem.ReadByte(addr)
	case IDY:
		addr, err := cpu.readZeroPageWord(uint16(operand[0]))
		if err != nil {
			return 0, err
		}
		addr, cpu.pageCrossed = offsetAddress(addr, cpu.Reg.Y)
		return cpu.Mem.ReadByte(addr)
	case ACC:
		return cpu.Reg.A, nil
	default:
		panic("invalid addressing mode")
	}
}

// Store the value 'v' using the specified addressing mode and the
// variable-sized instruction operand.
func (cpu *CPU) store(mode Mode, operand []byte, v byte) error {
	switch mode {
	case ZPG:
		return cpu.Mem.WriteByte(operandToAddress(operand), v)
	case ZPX:
		return cpu.Mem.WriteByte(offsetZeroPage(operand[0], cpu.Reg.X), v)
	case ZPY:
		return cpu.Mem.WriteByte(offsetZeroPage(operand[0], cpu.Reg.Y), v)
	case ABS:
		return cpu.Mem.WriteByte(operandToAddress(operand), v)
	case ABX:
		addr, _ := offsetAddress(operandToAddress(operand), cpu.Reg.X)
		return cpu.Mem.WriteByte(addr, v)
	case ABY:
		addr, _ := offsetAddress(operandToAddress(operand), cpu.Reg.Y)
		return cpu.Mem.WriteByte(addr, v)
	case IDX:
		addr, err := cpu.readZeroPageWord(offsetZeroPage(operand[0], cpu.Reg.X))
		if err != nil {
			return err
		}
		return cpu.Mem.WriteByte(addr, v)
	case IDY:
		addr, err := cpu.readZeroPageWord(uint16(operand[0]))
		if err != nil {
			return err
		}
		addr, _ = offsetAddress(addr, cpu.Reg.Y)
		return cpu.Mem.WriteByte(addr, v)
	case ACC:
		cpu.Reg.A = v
		return nil
	default:
		panic("invalid addressing mode")
	}
}

// Load a 16-bit jump target using the requested addressing mode. The
// indirect mode reproduces the NMOS page-wrap defect: a vector at $xxFF
// reads its high byte from $xx00.
func (cpu *CPU) loadAddress(mode Mode, operand []byte) (uint16, error) {
	switch mode {
	case ABS:
		return operandToAddress(operand), nil
	case IND:
		addr := operandToAddress(operand)
		lo, err := cpu.Mem.ReadByte(addr)
		if err != nil {
			return 0, err
		}
		hiAddr := (addr & 0xff00) | uint16(byte(addr)+1)
		hi, err := cpu.Mem.ReadByte(hiAddr)
		if err != nil {
			return 0, err
		}
		return uint16(lo) | uint16(hi)<<8, nil
	default:
		panic("invalid addressing mode")
	}
}

// Read a word from the zero page, wrapping the high-byte read within
// the page.
func (cpu *CPU) readZeroPageWord(addr uint16) (uint16, error) {
	lo, err := cpu.Mem.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	hi, err := cpu.Mem.ReadByte(uint16(byte(addr) + 1))
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// Execute a branch using the instruction operand. The offset is signed
// and relative to the PC following the offset byte.
func (cpu *CPU) branch(operand []byte) {
	offset := operand[0]
	oldPC := cpu.Reg.PC
	if offset < 0x80 {
		cpu.Reg.PC += uint16(offset)
	} else {
		cpu.Reg.PC -= 0x100 - uint16(offset)
	}
	cpu.deltaCycles++
	if ((cpu.Reg.PC ^ oldPC) & 0xff00) != 0 {
		cpu.deltaCycles++
	}
}

// Push a value 'v' onto the stack.
func (cpu *CPU) push(v byte) error {
	if cpu.Reg.SP == 0x00 {
		return &StackError{Op: "push", SP: cpu.Reg.SP}
	}
	err := cpu.Mem.WriteByte(stackAddress(cpu.Reg.SP), v)
	cpu.Reg.SP--
	return err
}

// Push the 16-bit value 'addr' onto the stack, high byte first.
func (cpu *CPU) pushAddress(addr uint16) error {
	if err := cpu.push(byte(addr >> 8)); err != nil {
		return err
	}
	return cpu.push(byte(addr))
}

// Pop a value from the stack and return it.
func (cpu *CPU) pop() (byte, error) {
	if cpu.Reg.SP == 0xff {
		return 0, &StackError{Op: "pop", SP: cpu.Reg.SP}
	}
	cpu.Reg.SP++
	return cpu.Mem.ReadByte(stackAddress(cpu.Reg.SP))
}

// Pop a 16-bit value off the stack.
func (cpu *CPU) popAddress() (uint16, error) {
	lo, err := cpu.pop()
	if err != nil {
		return 0, err
	}
	hi, err := cpu.pop()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// Update the Zero and Negative flags based on the value of 'v'.
func (cpu *CPU) updateNZ(v byte) {
	cpu.Reg.SetFlag(Zero, v == 0)
	cpu.Reg.SetFlag(Negative, (v&0x80) != 0)
}

// Service a hardware interrupt: stack the PC and status byte, mask
// further IRQs, and vector to the handler.
func (cpu *CPU) serviceInterrupt(kind Interrupt) error {
	if err := cpu.pushAddress(cpu.Reg.PC); err != nil {
		return err
	}
	if err := cpu.push(cpu.Reg.SavePS(false)); err != nil {
		return err
	}
	cpu.Reg.SetFlag(InterruptDisable, true)

	vector := uint16(VectorIRQ)
	if kind == InterruptNMI {
		vector = VectorNMI
	}
	pc, err := cpu.Mem.ReadWord(vector)
	if err != nil {
		return err
	}
	cpu.Reg.PC = pc
	return nil
}

// Add with carry. Decimal mode is not implemented on the 2A03, so the
// decimal flag is ignored.
func (cpu *CPU) adc(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	acc := uint32(cpu.Reg.A)
	add := uint32(v)
	carry := uint32(0)
	if cpu.Reg.IsSet(Carry) {
		carry = 1
	}

	sum := acc + add + carry
	cpu.Reg.SetFlag(Carry, sum >= 0x100)
	cpu.Reg.SetFlag(Overflow, ((acc&0x80) == (add&0x80)) && ((acc&0x80) != (sum&0x80)))
	cpu.Reg.A = byte(sum)
	cpu.updateNZ(cpu.Reg.A)
	return nil
}

// Subtract with carry, implemented as ADC of the inverted operand.
func (cpu *CPU) sbc(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	acc := uint32(cpu.Reg.A)
	sub := uint32(v)
	carry := uint32(0)
	if cpu.Reg.IsSet(Carry) {
		carry = 1
	}

	sum := 0xff + acc - sub + carry
	cpu.Reg.SetFlag(Carry, sum >= 0x100)
	cpu.Reg.SetFlag(Overflow, ((acc&0x80) != (sub&0x80)) && ((acc&0x80) != (sum&0x80)))
	cpu.Reg.A = byte(sum)
	cpu.updateNZ(cpu.Reg.A)
	return nil
}

// Boolean AND
func (cpu *CPU) and(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.A &= v
	cpu.updateNZ(cpu.Reg.A)
	return err
}

// Arithmetic shift left. Operates on the accumulator or on memory,
// never both.
func (cpu *CPU) asl(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	cpu.Reg.SetFlag(Carry, (v&0x80) != 0)
	v <<= 1
	cpu.updateNZ(v)
	return cpu.store(inst.Mode, operand, v)
}

// Branch if carry clear
func (cpu *CPU) bcc(inst *Instruction, operand []byte) error {
	if !cpu.Reg.IsSet(Carry) {
		cpu.branch(operand)
	}
	return nil
}

// Branch if carry set
func (cpu *CPU) bcs(inst *Instruction, operand []byte) error {
	if cpu.Reg.IsSet(Carry) {
		cpu.branch(operand)
	}
	return nil
}

// Branch if equal (zero set)
func (cpu *CPU) beq(inst *Instruction, operand []byte) error {
	if cpu.Reg.IsSet(Zero) {
		cpu.branch(operand)
	}
	return nil
}

// Bit test
func (cpu *CPU) bit(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.SetFlag(Zero, (v&cpu.Reg.A) == 0)
	cpu.Reg.SetFlag(Negative, (v&0x80) != 0)
	cpu.Reg.SetFlag(Overflow, (v&0x40) != 0)
	return err
}

// Branch if minus (negative set)
func (cpu *CPU) bmi(inst *Instruction, operand []byte) error {
	if cpu.Reg.IsSet(Negative) {
		cpu.branch(operand)
	}
	return nil
}

// Branch if not equal (zero clear)
func (cpu *CPU) bne(inst *Instruction, operand []byte) error {
	if !cpu.Reg.IsSet(Zero) {
		cpu.branch(operand)
	}
	return nil
}

// Branch if plus (negative clear)
func (cpu *CPU) bpl(inst *Instruction, operand []byte) error {
	if !cpu.Reg.IsSet(Negative) {
		cpu.branch(operand)
	}
	return nil
}

// Break. The PC and status byte are stacked as on hardware, but instead
// of vectoring through $FFFE the interrupt is surfaced to the host and
// the run loop exits.
func (cpu *CPU) brk(inst *Instruction, operand []byte) error {
	cpu.Reg.PC++
	if err := cpu.pushAddress(cpu.Reg.PC); err != nil {
		return err
	}
	if err := cpu.push(cpu.Reg.SavePS(true)); err != nil {
		return err
	}
	cpu.Reg.SetFlag(InterruptDisable, true)
	cpu.interrupt = InterruptIRQ
	return nil
}

// Branch if overflow clear
func (cpu *CPU) bvc(inst *Instruction, operand []byte) error {
	if !cpu.Reg.IsSet(Overflow) {
		cpu.branch(operand)
	}
	return nil
}

// Branch if overflow set
func (cpu *CPU) bvs(inst *Instruction, operand []byte) error {
	if cpu.Reg.IsSet(Overflow) {
		cpu.branch(operand)
	}
	return nil
}

// Clear carry flag
func (cpu *CPU) clc(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(Carry, false)
	return nil
}

// Clear decimal flag. Decimal arithmetic is not implemented; only the
// flag bit changes.
func (cpu *CPU) cld(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(Decimal, false)
	return nil
}

// Clear interrupt-disable flag
func (cpu *CPU) cli(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(InterruptDisable, false)
	return nil
}

// Clear overflow flag
func (cpu *CPU) clv(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(Overflow, false)
	return nil
}

// Compare to accumulator. Carry is computed from the full-width
// comparison before the result is narrowed.
func (cpu *CPU) cmp(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.SetFlag(Carry, cpu.Reg.A >= v)
	cpu.updateNZ(cpu.Reg.A - v)
	return err
}

// Compare to X register
func (cpu *CPU) cpx(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.SetFlag(Carry, cpu.Reg.X >= v)
	cpu.updateNZ(cpu.Reg.X - v)
	return err
}

// Compare to Y register
func (cpu *CPU) cpy(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.SetFlag(Carry, cpu.Reg.Y >= v)
	cpu.updateNZ(cpu.Reg.Y - v)
	return err
}

// Decrement memory value
func (cpu *CPU) dec(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	v--
	cpu.updateNZ(v)
	return cpu.store(inst.Mode, operand, v)
}

// Decrement X register
func (cpu *CPU) dex(inst *Instruction, operand []byte) error {
	cpu.Reg.X--
	cpu.updateNZ(cpu.Reg.X)
	return nil
}

// Decrement Y register
func (cpu *CPU) dey(inst *Instruction, operand []byte) error {
	cpu.Reg.Y--
	cpu.updateNZ(cpu.Reg.Y)
	return nil
}

// Boolean XOR
func (cpu *CPU) eor(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.A ^= v
	cpu.updateNZ(cpu.Reg.A)
	return err
}

// Increment memory value
func (cpu *CPU) inc(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	v++
	cpu.updateNZ(v)
	return cpu.store(inst.Mode, operand, v)
}

// Increment X register
func (cpu *CPU) inx(inst *Instruction, operand []byte) error {
	cpu.Reg.X++
	cpu.updateNZ(cpu.Reg.X)
	return nil
}

// Increment Y register
func (cpu *CPU) iny(inst *Instruction, operand []byte) error {
	cpu.Reg.Y++
	cpu.updateNZ(cpu.Reg.Y)
	return nil
}

// Jump to memory address
func (cpu *CPU) jmp(inst *Instruction, operand []byte) error {
	var err error
	cpu.Reg.PC, err = cpu.loadAddress(inst.Mode, operand)
	return err
}

// Jump to subroutine. The stacked return address is the address of the
// instruction following the JSR, minus one.
func (cpu *CPU) jsr(inst *Instruction, operand []byte) error {
	addr, err := cpu.loadAddress(inst.Mode, operand)
	if err != nil {
		return err
	}
	if err := cpu.pushAddress(cpu.Reg.PC - 1); err != nil {
		return err
	}
	cpu.Reg.PC = addr
	return nil
}

// Load accumulator
func (cpu *CPU) lda(inst *Instruction, operand []byte) error {
	var err error
	cpu.Reg.A, err = cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.A)
	return err
}

// Load the X register
func (cpu *CPU) ldx(inst *Instruction, operand []byte) error {
	var err error
	cpu.Reg.X, err = cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.X)
	return err
}

// Load the Y register
func (cpu *CPU) ldy(inst *Instruction, operand []byte) error {
	var err error
	cpu.Reg.Y, err = cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.Y)
	return err
}

// Logical shift right
func (cpu *CPU) lsr(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	cpu.Reg.SetFlag(Carry, (v&1) != 0)
	v >>= 1
	cpu.updateNZ(v)
	return cpu.store(inst.Mode, operand, v)
}

// No operation
func (cpu *CPU) nop(inst *Instruction, operand []byte) error {
	return nil
}

// Boolean OR
func (cpu *CPU) ora(inst *Instruction, operand []byte) error {
	v, err := cpu.load(inst.Mode, operand)
	cpu.Reg.A |= v
	cpu.updateNZ(cpu.Reg.A)
	return err
}

// Push accumulator
func (cpu *CPU) pha(inst *Instruction, operand []byte) error {
	return cpu.push(cpu.Reg.A)
}

// Push processor status
func (cpu *CPU) php(inst *Instruction, operand []byte) error {
	return cpu.push(cpu.Reg.SavePS(true))
}

// Pull accumulator
func (cpu *CPU) pla(inst *Instruction, operand []byte) error {
	var err error
	cpu.Reg.A, err = cpu.pop()
	cpu.updateNZ(cpu.Reg.A)
	return err
}

// Pull processor status
func (cpu *CPU) plp(inst *Instruction, operand []byte) error {
	v, err := cpu.pop()
	if err != nil {
		return err
	}
	cpu.Reg.RestorePS(v)
	return nil
}

// Rotate left through carry
func (cpu *CPU) rol(inst *Instruction, operand []byte) error {
	tmp, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	v := tmp << 1
	if cpu.Reg.IsSet(Carry) {
		v |= 1
	}
	cpu.Reg.SetFlag(Carry, (tmp&0x80) != 0)
	cpu.updateNZ(v)
	return cpu.store(inst.Mode, operand, v)
}

// Rotate right through carry
func (cpu *CPU) ror(inst *Instruction, operand []byte) error {
	tmp, err := cpu.load(inst.Mode, operand)
	if err != nil {
		return err
	}
	v := tmp >> 1
	if cpu.Reg.IsSet(Carry) {
		v |= 0x80
	}
	cpu.Reg.SetFlag(Carry, (tmp&1) != 0)
	cpu.updateNZ(v)
	return cpu.store(inst.Mode, operand, v)
}

// Return from interrupt: pop the status byte, then the PC.
func (cpu *CPU) rti(inst *Instruction, operand []byte) error {
	v, err := cpu.pop()
	if err != nil {
		return err
	}
	cpu.Reg.RestorePS(v)
	cpu.Reg.PC, err = cpu.popAddress()
	return err
}

// Return from subroutine
func (cpu *CPU) rts(inst *Instruction, operand []byte) error {
	addr, err := cpu.popAddress()
	if err != nil {
		return err
	}
	cpu.Reg.PC = addr + 1
	return nil
}

// Set carry flag
func (cpu *CPU) sec(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(Carry, true)
	return nil
}

// Set decimal flag. Decimal arithmetic is not implemented; only the
// flag bit changes.
func (cpu *CPU) sed(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(Decimal, true)
	return nil
}

// Set interrupt-disable flag
func (cpu *CPU) sei(inst *Instruction, operand []byte) error {
	cpu.Reg.SetFlag(InterruptDisable, true)
	return nil
}

// Store accumulator
func (cpu *CPU) sta(inst *Instruction, operand []byte) error {
	return cpu.store(inst.Mode, operand, cpu.Reg.A)
}

// Store X register
func (cpu *CPU) stx(inst *Instruction, operand []byte) error {
	return cpu.store(inst.Mode, operand, cpu.Reg.X)
}

// Store Y register
func (cpu *CPU) sty(inst *Instruction, operand []byte) error {
	return cpu.store(inst.Mode, operand, cpu.Reg.Y)
}

// Transfer accumulator to X register
func (cpu *CPU) tax(inst *Instruction, operand []byte) error {
	cpu.Reg.X = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.X)
	return nil
}

// Transfer accumulator to Y register
func (cpu *CPU) tay(inst *Instruction, operand []byte) error {
	cpu.Reg.Y = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.Y)
	return nil
}

// Transfer stack pointer to X register
func (cpu *CPU) tsx(inst *Instruction, operand []byte) error {
	cpu.Reg.X = cpu.Reg.SP
	cpu.updateNZ(cpu.Reg.X)
	return nil
}

// Transfer X register to accumulator
func (cpu *CPU) txa(inst *Instruction, operand []byte) error {
	cpu.Reg.A = cpu.Reg.X
	cpu.updateNZ(cpu.Reg.A)
	return nil
}

// Transfer X register to stack pointer. Flags are unaffected.
func (cpu *CPU) txs(inst *Instruction, operand []byte) error {
	cpu.Reg.SP = cpu.Reg.X
	return nil
}

// Transfer Y register to accumulator
func (cpu *CPU) tya(inst *Instruction, operand []byte) error {
	cpu.Reg.A = cpu.Reg.Y
	cpu.updateNZ(cpu.Reg.A)
	return nil
}

// Return the offset address 'addr' + 'offset'. If the offset crossed a
// page boundary, return 'pageCrossed' as true.
func offsetAddress(addr uint16, offset byte) (newAddr uint16, pageCrossed bool) {
	newAddr = addr + uint16(offset)
	pageCrossed = (newAddr & 0xff00) != (addr & 0xff00)
	return newAddr, pageCrossed
}

// Offset a zero-page address by 'offset', wrapping within the page.
func offsetZeroPage(addr byte, offset byte) uint16 {
	return uint16(addr + offset)
}

// Convert a 1- or 2-byte operand into an address.
func operandToAddress(operand []byte) uint16 {
	switch len(operand) {
	case 1:
		return uint16(operand[0])
	case 2:
		return uint16(operand[0]) | uint16(operand[1])<<8
	}
	return 0
}

// Given a 1-byte stack pointer register, return the corresponding
// stack memory address.
func stackAddress(offset byte) uint16 {
	return 0x100 + uint16(offset)
}
