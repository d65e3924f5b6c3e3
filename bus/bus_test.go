package bus

import (
	"errors"
	"testing"

	"github.com/SwiftSimpers/NES/cartridge"
)

func TestRAMMirroring(t *testing.T) {
	b := New()
	if err := b.WriteByte(0x0042, 0x99); err != nil {
		t.Fatal(err)
	}
	for _, addr := range []uint16{0x0042, 0x0842, 0x1042, 0x1842} {
		v, err := b.ReadByte(addr)
		if err != nil {
			t.Fatal(err)
		}
		if v != 0x99 {
			t.Errorf("mirror at $%04X incorrect. exp: $99, got: $%02X", addr, v)
		}
	}
}

func TestWordRoundTrip(t *testing.T) {
	b := New()
	words := []uint16{0x0000, 0x0001, 0x00ff, 0x1234, 0xffff}
	for _, w := range words {
		if err := b.WriteWord(0x0200, w); err != nil {
			t.Fatal(err)
		}
		got, err := b.ReadWord(0x0200)
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("word round trip incorrect. exp: $%04X, got: $%04X", w, got)
		}
	}
}

func TestWordIsLittleEndian(t *testing.T) {
	b := New()
	if err := b.WriteWord(0x0300, 0x1234); err != nil {
		t.Fatal(err)
	}
	lo, _ := b.ReadByte(0x0300)
	hi, _ := b.ReadByte(0x0301)
	if lo != 0x34 || hi != 0x12 {
		t.Errorf("byte order incorrect. got: %02X %02X", lo, hi)
	}
}

func TestLoadSetsResetVector(t *testing.T) {
	b := New()
	if err := b.Load([]byte{0xa9, 0x01, 0x00}, 0x0600); err != nil {
		t.Fatal(err)
	}
	vec, err := b.ReadWord(0xfffc)
	if err != nil {
		t.Fatal(err)
	}
	if vec != 0x0600 {
		t.Errorf("reset vector incorrect. exp: $0600, got: $%04X", vec)
	}
	v, _ := b.ReadByte(0x0600)
	if v != 0xa9 {
		t.Errorf("program byte incorrect. exp: $A9, got: $%02X", v)
	}
}

func TestLoadTooLarge(t *testing.T) {
	b := New()
	err := b.Load(make([]byte, 0x0300), 0x0600)
	var busErr *BusError
	if !errors.As(err, &busErr) {
		t.Fatalf("expected bus error, got %v", err)
	}
}

func TestPPURegionFaults(t *testing.T) {
	b := New()
	if _, err := b.ReadByte(0x2002); err == nil {
		t.Error("expected fault reading PPU region")
	}
	if err := b.WriteByte(0x2000, 0x01); err == nil {
		t.Error("expected fault writing PPU region")
	}
}

func TestPPURegionHandler(t *testing.T) {
	b := New()
	var wrote byte
	b.Install(Handler{
		Start: 0x2000,
		End:   0x3fff,
		Read:  func(addr uint16) (byte, error) { return 0x42, nil },
		Write: func(addr uint16, v byte) error { wrote = v; return nil },
	})
	v, err := b.ReadByte(0x2002)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x42 {
		t.Errorf("handler read incorrect. exp: $42, got: $%02X", v)
	}
	if err := b.WriteByte(0x2000, 0x07); err != nil {
		t.Fatal(err)
	}
	if wrote != 0x07 {
		t.Errorf("handler write incorrect. exp: $07, got: $%02X", wrote)
	}
}

func TestUnmappedAccess(t *testing.T) {
	b := New()
	v, err := b.ReadByte(0x5000)
	if err != nil {
		t.Fatalf("unmapped read should not fault: %v", err)
	}
	if v != 0 {
		t.Errorf("unmapped read incorrect. exp: 0, got: $%02X", v)
	}
	if err := b.WriteByte(0x5000, 0xff); err != nil {
		t.Fatalf("unmapped write should not fault: %v", err)
	}
}

func TestPRGReadAndMirroring(t *testing.T) {
	prg := make([]byte, 16*1024)
	prg[0] = 0xab
	prg[0x3ffc] = 0x34
	prg[0x3ffd] = 0x12
	cart := &cartridge.Cartridge{PRG: prg}

	b := New()
	b.AttachCartridge(cart)

	v, err := b.ReadByte(0x8000)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xab {
		t.Errorf("PRG read incorrect. exp: $AB, got: $%02X", v)
	}

	// A 16 KiB bank mirrors into the upper window.
	v, _ = b.ReadByte(0xc000)
	if v != 0xab {
		t.Errorf("PRG mirror incorrect. exp: $AB, got: $%02X", v)
	}

	// The reset vector reads from the mirrored bank.
	vec, err := b.ReadWord(0xfffc)
	if err != nil {
		t.Fatal(err)
	}
	if vec != 0x1234 {
		t.Errorf("reset vector incorrect. exp: $1234, got: $%04X", vec)
	}
}

func TestROMIsReadOnly(t *testing.T) {
	cart := &cartridge.Cartridge{PRG: make([]byte, 16*1024)}
	b := New()
	b.AttachCartridge(cart)

	err := b.WriteByte(0x8000, 0x01)
	var busErr *BusError
	if !errors.As(err, &busErr) {
		t.Fatalf("expected bus error, got %v", err)
	}
	if !busErr.Write {
		t.Error("expected a write fault")
	}
}

func TestReadWithoutCartridgeFaults(t *testing.T) {
	b := New()
	if _, err := b.ReadByte(0x8000); err == nil {
		t.Error("expected fault reading PRG without a cartridge")
	}
}
