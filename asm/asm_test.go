package asm

import (
	"errors"
	"testing"
)

var hex = "0123456789ABCDEF"

func checkASM(t *testing.T, source string, expected string) {
	t.Helper()
	code, err := Assemble(source)
	if err != nil {
		t.Error(err)
		return
	}

	b := make([]byte, len(code)*2)
	for i, j := 0, 0; i < len(code); i, j = i+1, j+2 {
		v := code[i]
		b[j+0] = hex[v>>4]
		b[j+1] = hex[v&0x0f]
	}
	s := string(b)

	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
}

func TestImmediate(t *testing.T) {
	source := `
	LDA #0x20
	LDX #0x20
	LDY #0x20
	ADC #0x20
	SBC #0x20
	CMP #0x20
	CPX #0x20
	CPY #0x20
	AND #0x20
	ORA #0x20
	EOR #0x20`

	checkASM(t, source, "A920A220A0206920E920C920E020C020292009204920")
}

func TestZeroPage(t *testing.T) {
	source := `
	LDA #(0x20)
	LDX #(0x20)
	LDY #(0x20)
	STA #(0x20)
	STX #(0x20)
	STY #(0x20)
	BIT #(0x20)
	INC #(0x20)
	DEC #(0x20)
	ASL #(0x20)
	LSR #(0x20)`

	checkASM(t, source, "A520A620A4208520862084202420E620C62006204620")
}

func TestZeroPageIndexed(t *testing.T) {
	source := `
	LDA #(0x20, X)
	LDY #(0x20, X)
	LDX #(0x20, Y)
	STA #(0x20, X)
	STX #(0x20, Y)
	STY #(0x20, X)`

	checkASM(t, source, "B520B420B620952096209420")
}

func TestAbsolute(t *testing.T) {
	source := `
	LDA 0x2000
	STA 0x2000
	JMP 0x2000
	JSR 0x2000
	INC 0x2000`

	checkASM(t, source, "AD00208D00204C0020200020EE0020")
}

func TestAbsoluteIndexed(t *testing.T) {
	source := `
	LDA 0x2000, X
	LDA 0x2000, Y
	STA 0x2000, X
	STA 0x2000, Y`

	checkASM(t, source, "BD0020B900209D0020990020")
}

func TestIndirect(t *testing.T) {
	checkASM(t, "JMP (0x1234)", "6C3412")
}

func TestIndirectIndexed(t *testing.T) {
	source := `
	LDA (0x20, X)
	LDA (0x20, Y)
	STA (0x20, X)
	STA (0x20, Y)`

	checkASM(t, source, "A120B12081209120")
}

func TestAccumulator(t *testing.T) {
	source := `
	ASL A
	LSR A
	ROL A
	ROR a`

	checkASM(t, source, "0A4A2A6A")
}

func TestRelativeRaw(t *testing.T) {
	// A bare number on a branch mnemonic is the raw offset byte.
	checkASM(t, "BNE 0xFC", "D0FC")
}

func TestImplied(t *testing.T) {
	source := `
	BRK
	CLC
	SEC
	CLI
	SEI
	CLV
	CLD
	SED
	NOP
	TAX
	TXA
	TAY
	TYA
	TXS
	TSX
	INX
	INY
	DEX
	DEY
	PHA
	PLA
	PHP
	PLP
	RTI
	RTS`

	checkASM(t, source, "0018385878B8D8F8EAAA8AA8989ABAE8C8CA88486808284060")
}

func TestRadixes(t *testing.T) {
	source := `
	LDA #0x2A
	LDA #0o52
	LDA #0b101010
	LDA #42`

	checkASM(t, source, "A92AA92AA92AA92A")
}

func TestComments(t *testing.T) {
	source := `
	// program start
	LDA #0x01 // load one
	/* a block
	   comment */
	BRK`

	checkASM(t, source, "A90100")
}

func TestBranchToLabel(t *testing.T) {
	source := `
	main: LDA #0x69
	CMP #0x69
	BPL plus
	minus: LDA #0xFF
	BRK
	plus: LDA #0x60
	BRK`

	checkASM(t, source, "A969C9691003A9FF00A96000")
}

func TestBranchBackToLabel(t *testing.T) {
	source := `
	loop: DEX
	BNE loop
	BRK`

	// BNE offset: 0 - (1 + 2) = -3 -> $FD
	checkASM(t, source, "CAD0FD00")
}

func TestSubroutines(t *testing.T) {
	source := `
	main: JSR init
	JSR test
	BRK
	init: LDA #0xFF
	RTS
	test: LDX #0x61
	RTS`

	checkASM(t, source, "200706200A0600A9FF60A26160")
}

func TestJumpToLabel(t *testing.T) {
	source := `
	JMP end
	LDA #0x01
	end: BRK`

	checkASM(t, source, "4C0506A90100")
}

func TestSizeMatchesBuffer(t *testing.T) {
	source := `
	start: LDA #0x01
	BEQ done
	JMP start
	done: BRK`

	a := New()
	if err := a.Lex(source); err != nil {
		t.Fatal(err)
	}
	if err := a.Parse(); err != nil {
		t.Fatal(err)
	}
	if err := a.Assemble(); err != nil {
		t.Fatal(err)
	}
	if len(a.Code()) != a.Program().Size {
		t.Errorf("buffer length %d != computed size %d", len(a.Code()), a.Program().Size)
	}
}

func TestPipelineOrder(t *testing.T) {
	a := New()
	if err := a.Parse(); !errors.Is(err, ErrNotLexed) {
		t.Errorf("expected ErrNotLexed, got %v", err)
	}
	if err := a.Assemble(); !errors.Is(err, ErrNotParsed) {
		t.Errorf("expected ErrNotParsed, got %v", err)
	}
}

func TestReusableAfterError(t *testing.T) {
	a := New()
	if err := a.Lex("LDA @"); err == nil {
		t.Fatal("expected lex error")
	}
	if err := a.Lex("LDA #0x01"); err != nil {
		t.Fatalf("assembler not reusable: %v", err)
	}
	if err := a.Parse(); err != nil {
		t.Fatal(err)
	}
	if err := a.Assemble(); err != nil {
		t.Fatal(err)
	}
	if len(a.Code()) != 2 {
		t.Errorf("code length incorrect: %d", len(a.Code()))
	}
}

func TestDuplicateLabel(t *testing.T) {
	source := `
	foo: BRK
	foo: BRK`

	_, err := Assemble(source)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestInvalidIndexRegister(t *testing.T) {
	_, err := Assemble("LDA 0x2000, Q")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLabelNotFound(t *testing.T) {
	_, err := Assemble("JMP nowhere")
	var emitErr *EmitError
	if !errors.As(err, &emitErr) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestMissingArgument(t *testing.T) {
	_, err := Assemble("LDA")
	var emitErr *EmitError
	if !errors.As(err, &emitErr) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestUnexpectedArgument(t *testing.T) {
	// STA has no immediate form.
	_, err := Assemble("STA #0x10")
	var emitErr *EmitError
	if !errors.As(err, &emitErr) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestBranchOutOfRange(t *testing.T) {
	source := "BEQ far\n"
	for i := 0; i < 100; i++ {
		source += "LDA 0x2000\n"
	}
	source += "far: BRK"

	_, err := Assemble(source)
	var emitErr *EmitError
	if !errors.As(err, &emitErr) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestLabelOffsets(t *testing.T) {
	source := `
	start: LDA #0x01
	middle: JMP start
	end: BRK`

	a := New()
	if err := a.Lex(source); err != nil {
		t.Fatal(err)
	}
	if err := a.Parse(); err != nil {
		t.Fatal(err)
	}
	labels := a.Program().Labels
	if labels["start"] != 0 {
		t.Errorf("start offset incorrect: %d", labels["start"])
	}
	if labels["middle"] != 2 {
		t.Errorf("middle offset incorrect: %d", labels["middle"])
	}
	if labels["end"] != 5 {
		t.Errorf("end offset incorrect: %d", labels["end"])
	}
}
