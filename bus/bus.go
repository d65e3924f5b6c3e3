// Package bus implements the NES CPU address space: 2 KiB of mirrored
// internal RAM, host-installable handler regions for the PPU register
// window, and cartridge PRG ROM.
package bus

import (
	"fmt"
	"io"
	"log"

	"github.com/SwiftSimpers/NES/cartridge"
)

// Address ranges decoded by the bus.
const (
	ramEnd      = 0x1fff // $0000-$1FFF: internal RAM, mirrored every $0800
	ramMask     = 0x07ff
	ppuStart    = 0x2000 // $2000-$3FFF: PPU register window
	ppuEnd      = 0x3fff
	prgStart    = 0x8000 // $8000-$FFFF: cartridge PRG ROM
	vectorReset = 0xfffc
)

// A BusError reports a fault raised by an address-space access.
type BusError struct {
	Addr  uint16
	Write bool
	Msg   string
}

func (e *BusError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("bus: %s $%04X: %s", op, e.Addr, e.Msg)
}

// A Handler services reads and writes for an address range installed by
// the host. Handlers are consulted in installation order before the
// built-in dispatch, so a host may stub the PPU window or shadow any
// other region. A nil Read or Write leaves that direction to the
// built-in dispatch.
type Handler struct {
	Start uint16
	End   uint16
	Read  func(addr uint16) (byte, error)
	Write func(addr uint16, v byte) error
}

// Bus is the NES CPU memory bus. The zero value is not usable; call New.
type Bus struct {
	ram      [0x0800]byte
	cart     *cartridge.Cartridge
	vector   [2]byte // reset vector override for RAM-loaded programs
	hasVec   bool
	handlers []Handler
	logger   *log.Logger
}

// Option configures a Bus created by New.
type Option func(*Bus)

// WithLogger routes unmapped-access diagnostics to 'w'. The default
// discards them.
func WithLogger(w io.Writer) Option {
	return func(b *Bus) { b.logger = log.New(w, "bus: ", 0) }
}

// New creates a bus with zeroed RAM and no cartridge.
func New(opts ...Option) *Bus {
	b := &Bus{
		logger: log.New(io.Discard, "bus: ", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AttachCartridge routes the PRG ROM region to 'cart'.
func (b *Bus) AttachCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.hasVec = false
}

// Install adds a handler region consulted before the built-in dispatch.
func (b *Bus) Install(h Handler) {
	b.handlers = append(b.handlers, h)
}

// ReadByte reads the byte at 'addr'. Unmapped reads log and return 0.
func (b *Bus) ReadByte(addr uint16) (byte, error) {
	for i := range b.handlers {
		h := &b.handlers[i]
		if h.Read != nil && addr >= h.Start && addr <= h.End {
			return h.Read(addr)
		}
	}

	switch {
	case addr <= ramEnd:
		return b.ram[addr&ramMask], nil

	case addr >= ppuStart && addr <= ppuEnd:
		return 0, &BusError{Addr: addr, Msg: "PPU registers not present"}

	case addr >= prgStart:
		if b.hasVec && addr >= vectorReset && addr <= vectorReset+1 {
			return b.vector[addr-vectorReset], nil
		}
		if b.cart == nil {
			return 0, &BusError{Addr: addr, Msg: "no cartridge loaded"}
		}
		return b.cart.ReadPRG(addr - prgStart), nil

	default:
		b.logger.Printf("unmapped read $%04X", addr)
		return 0, nil
	}
}

// WriteByte writes 'v' at 'addr'. Writes to ROM fault; unmapped writes
// log and are dropped.
func (b *Bus) WriteByte(addr uint16, v byte) error {
	for i := range b.handlers {
		h := &b.handlers[i]
		if h.Write != nil && addr >= h.Start && addr <= h.End {
			return h.Write(addr, v)
		}
	}

	switch {
	case addr <= ramEnd:
		b.ram[addr&ramMask] = v
		return nil

	case addr >= ppuStart && addr <= ppuEnd:
		return &BusError{Addr: addr, Write: true, Msg: "PPU registers not present"}

	case addr >= prgStart:
		return &BusError{Addr: addr, Write: true, Msg: "PRG ROM is read-only"}

	default:
		b.logger.Printf("unmapped write $%04X = $%02X", addr, v)
		return nil
	}
}

// ReadWord reads a little-endian word at 'addr'. The high-byte address
// is computed with 16-bit wrap-around.
func (b *Bus) ReadWord(addr uint16) (uint16, error) {
	lo, err := b.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	hi, err := b.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// WriteWord writes the little-endian word 'v' at 'addr'.
func (b *Bus) WriteWord(addr uint16, v uint16) error {
	if err := b.WriteByte(addr, byte(v)); err != nil {
		return err
	}
	return b.WriteByte(addr+1, byte(v>>8))
}

// Load copies 'program' into RAM starting at 'origin' and points the
// reset vector at it. The vector bytes live in the ROM address range,
// so the bus shadows them rather than writing through.
func (b *Bus) Load(program []byte, origin uint16) error {
	if int(origin&ramMask)+len(program) > len(b.ram) {
		return &BusError{Addr: origin, Write: true, Msg: "program exceeds RAM"}
	}
	copy(b.ram[origin&ramMask:], program)
	b.vector[0] = byte(origin)
	b.vector[1] = byte(origin >> 8)
	b.hasVec = true
	return nil
}
