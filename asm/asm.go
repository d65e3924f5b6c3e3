package asm

import (
	"errors"

	"github.com/SwiftSimpers/NES/cpu"
)

// Pipeline sequencing errors.
var (
	ErrNotLexed  = errors.New("asm: no token stream; call Lex first")
	ErrNotParsed = errors.New("asm: no parsed program; call Parse first")
)

// An Assembler drives the lex/parse/emit pipeline. Each stage must be
// run in order; a failed stage leaves the assembler ready for a fresh
// Lex.
type Assembler struct {
	origin uint16
	tokens []Token
	prog   *Program
	code   []byte
}

// Option configures an Assembler created by New.
type Option func(*Assembler)

// WithOrigin overrides the program origin used to resolve labels to
// absolute addresses. The default is the CPU's program origin, $0600.
func WithOrigin(origin uint16) Option {
	return func(a *Assembler) { a.origin = origin }
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{origin: cpu.ProgramOrigin}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lex scans 'source' into the token stream, discarding any previous
// pipeline state.
func (a *Assembler) Lex(source string) error {
	a.tokens = nil
	a.prog = nil
	a.code = nil

	tokens, err := newLexer(source).run()
	if err != nil {
		return err
	}
	a.tokens = tokens
	return nil
}

// Tokens returns the token stream produced by Lex.
func (a *Assembler) Tokens() []Token {
	return a.tokens
}

// Parse builds the node list and label table from the token stream.
func (a *Assembler) Parse() error {
	if a.tokens == nil {
		return ErrNotLexed
	}
	prog, err := newParser(a.tokens).run()
	if err != nil {
		a.tokens = nil
		return err
	}
	a.prog = prog
	return nil
}

// Program returns the parsed program produced by Parse.
func (a *Assembler) Program() *Program {
	return a.prog
}

// Assemble emits machine code from the parsed program and fills the
// output buffer.
func (a *Assembler) Assemble() error {
	if a.prog == nil {
		return ErrNotParsed
	}
	code, err := newEmitter(a.prog, a.origin).run()
	if err != nil {
		a.tokens = nil
		a.prog = nil
		return err
	}
	a.code = code
	return nil
}

// Code returns the output byte buffer produced by Assemble.
func (a *Assembler) Code() []byte {
	return a.code
}

// Assemble runs the full pipeline on 'source' with the default origin
// and returns the machine code.
func Assemble(source string) ([]byte, error) {
	a := New()
	if err := a.Lex(source); err != nil {
		return nil, err
	}
	if err := a.Parse(); err != nil {
		return nil, err
	}
	if err := a.Assemble(); err != nil {
		return nil, err
	}
	return a.Code(), nil
}
