// Package rom implements a read-only cartridge byte image with
// bounded, indexed access. No memory-bank-controller logic lives
// here: a flat 32 KiB ROM is the only supported cartridge shape;
// larger images are accepted but only the first 32 KiB are
// addressable.
package rom

import (
	"fmt"
	"io"
	"os"
)

// MinSize is the smallest cartridge image the loader accepts.
const MinSize = 32 * 1024

// ErrTooSmall is returned when a cartridge image is below MinSize.
var ErrTooSmall = fmt.Errorf("cartridge image smaller than %d bytes", MinSize)

// ROM is a read-only, bounds-checked byte image.
type ROM struct {
	data []byte
}

// New validates and wraps raw cartridge bytes.
func New(data []byte) (*ROM, error) {
	if len(data) < MinSize {
		return nil, fmt.Errorf("rom.New: %d bytes: %w", len(data), ErrTooSmall)
	}
	return &ROM{data: data}, nil
}

// Load reads a cartridge image from path.
func Load(path string) (*ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rom.Load: opening %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("rom.Load: reading %q: %w", path, err)
	}

	return New(data)
}

// ErrOutOfRange is returned by At when addr falls outside the image.
var ErrOutOfRange = fmt.Errorf("address out of range")

// At returns the byte at addr, or an error if addr is beyond the
// loaded image. Callers inside the MMU only ever pass addresses in
// [0, MinSize), so this should never fail for a valid program; it
// exists to keep cartridge access type-safe for external collaborators
// (e.g. a disassembler reading arbitrary offsets).
func (r *ROM) At(addr uint32) (uint8, error) {
	if int(addr) >= len(r.data) {
		return 0, fmt.Errorf("rom.At(%#x): %w", addr, ErrOutOfRange)
	}
	return r.data[addr], nil
}

// Len returns the number of addressable bytes in the image (at least
// MinSize; more if the supplied image was larger, though only the
// first MinSize bytes are ever routed to by the MMU).
func (r *ROM) Len() int {
	return len(r.data)
}
