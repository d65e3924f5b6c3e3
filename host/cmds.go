package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

// Top-level command summaries displayed by the help command.
var cmdBriefs = [][2]string{
	{"assemble", "Assemble a source file"},
	{"breakpoint", "Breakpoint commands"},
	{"disassemble", "Disassemble code"},
	{"help", "Display command help"},
	{"load", "Load a binary program"},
	{"memory", "Memory commands"},
	{"quit", "Quit the monitor"},
	{"register", "View or change registers"},
	{"reset", "Reset the CPU"},
	{"rom", "Load an iNES ROM"},
	{"run", "Run the CPU"},
	{"set", "View or change a setting"},
	{"step", "Step the CPU"},
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "nes6502"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "assemble",
		Brief: "Assemble a source file",
		Description: "Run the assembler on the specified source file," +
			" producing a binary file next to it if successful.",
		Usage: "assemble <filename>",
		Data:  (*Host).cmdAssemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a binary program",
		Description: "Load a binary program file into RAM at the program" +
			" origin ($0600) and point the reset vector at it.",
		Usage: "load <filename>",
		Data:  (*Host).cmdLoad,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "rom",
		Brief: "Load an iNES ROM",
		Description: "Parse an iNES ROM file, attach its PRG banks to the" +
			" bus, and reset the CPU through the cartridge reset vector.",
		Usage: "rom <filename>",
		Data:  (*Host).cmdROM,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Step the CPU until a BRK instruction, a breakpoint," +
			" or a fault. An optional address sets the PC first.",
		Usage: "run [<address>]",
		Data:  (*Host).cmdRun,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "reset",
		Brief: "Reset the CPU",
		Description: "Restore the power-on register state and reload the" +
			" PC from the reset vector.",
		Usage: "reset",
		Data:  (*Host).cmdReset,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "register",
		Brief: "View or change registers",
		Description: "With no arguments, display the register file. With" +
			" a register name and a value, assign the register.",
		Usage: "register [<name> <value>]",
		Data:  (*Host).cmdRegister,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble memory starting at the given address," +
			" or continue from the previous disassembly.",
		Usage: "disassemble [<address>] [<lines>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "View or change a setting",
		Description: "With no arguments, display all monitor settings." +
			" With a name and value, change the setting.",
		Usage: "set [<name> <value>]",
		Data:  (*Host).cmdSet,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the monitor",
		Description: "Exit the monitor.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})

	// Memory commands
	mem := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	mem.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory bytes",
		Description: "Dump memory starting at the given address, or" +
			" continue from the previous dump.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  (*Host).cmdMemoryDump,
	})
	mem.AddCommand(cmd.CommandDescriptor{
		Name:        "set",
		Brief:       "Set memory bytes",
		Description: "Write one or more byte values starting at the given address.",
		Usage:       "memory set <address> <byte> [<byte> ...]",
		Data:        (*Host).cmdMemorySet,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "add",
		Brief:       "Add a breakpoint",
		Description: "Add a breakpoint at the specified address.",
		Usage:       "breakpoint add <address>",
		Data:        (*Host).cmdBreakpointAdd,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove the breakpoint at the specified address.",
		Usage:       "breakpoint remove <address>",
		Data:        (*Host).cmdBreakpointRemove,
	})

	// Step commands
	st := root.AddSubtree(cmd.TreeDescriptor{Name: "step", Brief: "Step commands"})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "in",
		Brief: "Step into next instruction",
		Description: "Step the CPU by a single instruction, stepping into" +
			" subroutine calls. The number of steps may be given as an option.",
		Usage: "step in [<count>]",
		Data:  (*Host).cmdStepIn,
	})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "over",
		Brief: "Step over next instruction",
		Description: "Step the CPU by a single instruction, stepping over" +
			" subroutine calls. The number of steps may be given as an option.",
		Usage: "step over [<count>]",
		Data:  (*Host).cmdStepOver,
	})

	// Command shortcuts.
	root.AddShortcut("a", "assemble")
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut("s", "step over")
	root.AddShortcut("si", "step in")
	root.AddShortcut("?", "help")

	cmds = root
}
