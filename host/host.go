// Package host implements an interactive monitor for the NES 6502
// core. Within the monitor it is possible to assemble and load machine
// code into memory, step through and run programs, set breakpoints,
// dump and change memory, disassemble code, and manipulate CPU
// registers and monitor settings.
package host

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/cmd"

	"github.com/SwiftSimpers/NES/asm"
	"github.com/SwiftSimpers/NES/bus"
	"github.com/SwiftSimpers/NES/cartridge"
	"github.com/SwiftSimpers/NES/cpu"
	"github.com/SwiftSimpers/NES/disasm"
)

type hostState byte

const (
	stateProcessingCommands hostState = iota
	stateRunning
	stateQuit
)

// A Host connects a CPU, a bus, the assembler, and the disassembler
// behind an interactive command interface.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	state       hostState
	lastCmd     *cmd.Selection
	settings    *settings
	breakpoints map[uint16]bool

	bus *bus.Bus
	cpu *cpu.CPU
}

// New creates a monitor host with a fresh bus and CPU.
func New() *Host {
	b := bus.New(bus.WithLogger(os.Stderr))
	return &Host{
		settings:    newSettings(),
		breakpoints: make(map[uint16]bool),
		bus:         b,
		cpu:         cpu.New(b),
	}
}

// CPU returns the host's CPU, for use by embedding applications.
func (h *Host) CPU() *cpu.CPU {
	return h.cpu
}

// Break interrupts a running program. It is safe to call from a signal
// handler goroutine.
func (h *Host) Break() {
	h.state = stateProcessingCommands
}

// AssembleFile assembles the source file at 'path' and writes the
// binary next to it.
func (h *Host) AssembleFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	code, err := asm.Assemble(string(source))
	if err != nil {
		return err
	}

	ext := filepath.Ext(path)
	binPath := path[:len(path)-len(ext)] + ".bin"
	return os.WriteFile(binPath, code, 0600)
}

// RunCommands reads commands from 'r' and processes them until EOF or
// a quit command. When 'interactive' is true a prompt is displayed.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive
	h.state = stateProcessingCommands

	for h.state != stateQuit {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(func(*Host, cmd.Selection) error)
		if err := handler(h, c); err != nil {
			break
		}
	}
	h.flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) displayPC() {
	line, _, err := disasm.Disassemble(h.cpu.Mem, h.cpu.Reg.PC)
	if err != nil {
		h.printf("$%04X-   ??\n", h.cpu.Reg.PC)
		return
	}
	h.printf("$%04X-   %s\n", h.cpu.Reg.PC, line)
}

// step executes one instruction, honoring the trace setting. It
// returns false when the run loop should stop.
func (h *Host) step() bool {
	if h.settings.Trace {
		h.displayPC()
	}

	intr, err := h.cpu.Step()
	switch {
	case err != nil:
		h.printf("ERROR: %v\n", err)
		return false
	case intr != cpu.InterruptNone:
		h.printf("%s at $%04X.\n", intr, h.cpu.Reg.PC)
		return false
	}
	return true
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	switch {
	case len(c.Args) == 0:
		h.println("Commands:")
		for _, b := range cmdBriefs {
			h.printf("    %-15s  %s\n", b[0], b[1])
		}
	default:
		s, err := cmds.Lookup(strings.Join(c.Args, " "))
		switch {
		case err != nil:
			h.printf("%v\n", err)
		case s.Command == nil:
			h.println("Command not found.")
		default:
			if s.Command.Usage != "" {
				h.printf("Syntax: %s\n\n", s.Command.Usage)
			}
			if s.Command.Description != "" {
				h.printf("%s\n", s.Command.Description)
			}
		}
	}
	return nil
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.println("Syntax: assemble <filename>")
		return nil
	}
	if err := h.AssembleFile(c.Args[0]); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Assembled '%s'.\n", filepath.Base(c.Args[0]))
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.println("Syntax: load <filename>")
		return nil
	}
	program, err := os.ReadFile(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if err := h.cpu.Load(program); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if err := h.cpu.Reset(); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Loaded %d bytes at $%04X.\n", len(program), cpu.ProgramOrigin)
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdROM(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.println("Syntax: rom <filename>")
		return nil
	}
	file, err := os.Open(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	defer file.Close()

	cart, err := cartridge.Read(file)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.bus.AttachCartridge(cart)
	if err := h.cpu.Reset(); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Loaded ROM: %d KiB PRG, %d KiB CHR, %s mirroring.\n",
		len(cart.PRG)/1024, len(cart.CHR)/1024, cart.Mirror)
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	if len(c.Args) > 0 {
		addr, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(addr)
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)
	h.flush()

	h.state = stateRunning
	for h.state == stateRunning {
		if !h.step() {
			break
		}
		if h.breakpoints[h.cpu.Reg.PC] {
			h.printf("Breakpoint hit at $%04X.\n", h.cpu.Reg.PC)
			break
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	if err := h.cpu.Reset(); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.displayRegisters()
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

var regKeys = map[string]cpu.RegKey{
	"A": cpu.RegA,
	"X": cpu.RegX,
	"Y": cpu.RegY,
	"S": cpu.RegS,
	"P": cpu.RegP,
}

func (h *Host) displayRegisters() {
	r := &h.cpu.Reg
	flags := ""
	for i, name := range []string{"N", "V", "-", "B", "D", "I", "Z", "C"} {
		if r.P&(1<<(7-i)) != 0 {
			flags += name
		} else {
			flags += "."
		}
	}
	h.printf("PC=$%04X A=$%02X X=$%02X Y=$%02X S=$%02X P=%s\n",
		r.PC, r.A, r.X, r.Y, r.SP, flags)
}

func (h *Host) cmdRegister(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.displayRegisters()
		h.displayPC()
	case 2:
		name := strings.ToUpper(c.Args[0])
		if name == "PC" {
			addr, err := h.parseAddr(c.Args[1])
			if err != nil {
				h.printf("%v\n", err)
				return nil
			}
			h.cpu.SetPC(addr)
			h.displayRegisters()
			return nil
		}
		key, ok := regKeys[name]
		if !ok {
			h.printf("Unknown register '%s'.\n", c.Args[0])
			return nil
		}
		v, err := h.parseByte(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.Reg.Store(key, v)
		h.displayRegisters()
	default:
		h.println("Syntax: register [<name> <value>]")
	}
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	addr := h.settings.NextDisasmAddr
	if len(c.Args) > 0 {
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		if n, err := strconv.Atoi(c.Args[1]); err == nil && n > 0 {
			lines = n
		}
	}

	for i := 0; i < lines; i++ {
		line, next, err := disasm.Disassemble(h.cpu.Mem, addr)
		if err != nil {
			h.printf("$%04X-   %v\n", addr, err)
			break
		}
		h.printf("$%04X-   %s\n", addr, line)
		addr = next
	}
	h.settings.NextDisasmAddr = addr
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	addr := h.settings.NextMemDumpAddr
	if len(c.Args) > 0 {
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	count := h.settings.MemDumpBytes
	if len(c.Args) > 1 {
		if n, err := strconv.Atoi(c.Args[1]); err == nil && n > 0 {
			count = n
		}
	}

	for i := 0; i < count; i += 16 {
		h.printf("$%04X-", addr+uint16(i))
		for j := 0; j < 16 && i+j < count; j++ {
			v, err := h.cpu.ReadByte(addr + uint16(i+j))
			if err != nil {
				v = 0
			}
			h.printf(" %02X", v)
		}
		h.println()
	}
	h.settings.NextMemDumpAddr = addr + uint16(count)
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.println("Syntax: memory set <address> <byte> [<byte> ...]")
		return nil
	}
	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	for i, arg := range c.Args[1:] {
		v, err := h.parseByte(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if err := h.cpu.WriteByte(addr+uint16(i), v); err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}
	return nil
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Breakpoints:")
	for addr := range h.breakpoints {
		h.printf("    $%04X\n", addr)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.println("Syntax: breakpoint add <address>")
		return nil
	}
	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.breakpoints[addr] = true
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.println("Syntax: breakpoint remove <address>")
		return nil
	}
	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if !h.breakpoints[addr] {
		h.printf("No breakpoint at $%04X.\n", addr)
		return nil
	}
	delete(h.breakpoints, addr)
	h.printf("Breakpoint removed from $%04X.\n", addr)
	return nil
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	count := 1
	if len(c.Args) > 0 {
		if n, err := strconv.Atoi(c.Args[0]); err == nil && n > 0 {
			count = n
		}
	}

	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		if !h.step() {
			break
		}
		switch {
		case i == h.settings.StepLines:
			h.println("...")
		case i < h.settings.StepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	count := 1
	if len(c.Args) > 0 {
		if n, err := strconv.Atoi(c.Args[0]); err == nil && n > 0 {
			count = n
		}
	}

	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		if !h.stepOver() {
			break
		}
		switch {
		case i == h.settings.StepLines:
			h.println("...")
		case i < h.settings.StepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

// stepOver steps one instruction, running a called subroutine to
// completion before returning.
func (h *Host) stepOver() bool {
	opcode, err := h.cpu.ReadByte(h.cpu.Reg.PC)
	if err != nil || cpu.Instructions[opcode].Name != "JSR" {
		return h.step()
	}

	next := h.cpu.Reg.PC + 3
	if !h.step() {
		return false
	}
	for h.state == stateRunning && h.cpu.Reg.PC != next {
		if !h.step() {
			return false
		}
	}
	return true
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Settings:")
		h.settings.Display(h.output)
	case 2:
		key, value := c.Args[0], c.Args[1]
		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			b, err = strconv.ParseBool(value)
			if err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			var n uint64
			n, err = parseUint(value)
			if err == nil {
				err = h.settings.Set(key, int(n))
			}
		}
		if err != nil {
			h.printf("%v\n", err)
		}
	default:
		h.println("Syntax: set [<name> <value>]")
	}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	h.state = stateQuit
	return nil
}

// parseUint parses a numeric literal in the assembler's radix syntax
// ($ or 0x hex, 0o octal, 0b binary, decimal otherwise).
func parseUint(s string) (uint64, error) {
	if strings.HasPrefix(s, "$") {
		return strconv.ParseUint(s[1:], 16, 64)
	}
	if len(s) > 2 && s[0] == '0' && strings.IndexByte("xXoObB", s[1]) >= 0 {
		return strconv.ParseUint(s, 0, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func (h *Host) parseAddr(s string) (uint16, error) {
	v, err := parseUint(s)
	if err != nil || v > 0xffff {
		return 0, fmt.Errorf("invalid address '%s'", s)
	}
	return uint16(v), nil
}

func (h *Host) parseByte(s string) (byte, error) {
	v, err := parseUint(s)
	if err != nil || v > 0xff {
		return 0, fmt.Errorf("invalid byte value '%s'", s)
	}
	return byte(v), nil
}
