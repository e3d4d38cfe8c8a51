// Package ppu implements the DMG picture processing unit: VRAM/OAM
// storage, the LCD control/status registers, the three palettes, and
// a per-scanline framebuffer renderer that invokes a caller-supplied
// callback once per completed frame. Sprite and window rendering are
// not modeled; this renders the background tile layer only.
package ppu

import (
	"image/color"

	"github.com/kwbrandt/dmg01/bitops"
)

const (
	vramSize = 0x2000 // 8 KiB
	oamSize  = 0xA0   // 160 B

	// Width and Height are the DMG's fixed LCD resolution.
	Width  = 160
	Height = 144

	totalScanlines = 154
	vblankStartLY  = 144
)

// Bus is the narrow interface the PPU needs back into its owner (the
// MMU) to raise the V-Blank interrupt line.
type Bus interface {
	RequestVBlank()
}

// FrameSink is invoked once per completed frame with the just-finished
// 160x144 framebuffer. The slice is reused between calls; sinks that
// need to retain pixels across frames must copy it.
type FrameSink func(frame []color.RGBA)

// Register addresses, within the I/O page.
const (
	RegLCDC = 0xFF40
	RegSTAT = 0xFF41
	RegSCY  = 0xFF42
	RegSCX  = 0xFF43
	RegLY   = 0xFF44
	RegLYC  = 0xFF45
	RegDMA  = 0xFF46
	RegBGP  = 0xFF47
	RegOBP0 = 0xFF48
	RegOBP1 = 0xFF49
	RegWY   = 0xFF4A
	RegWX   = 0xFF4B
)

// LCDC (Control) bit positions.
const (
	lcdcBGEnable         = 1 << 0
	lcdcSpriteEnable     = 1 << 1
	lcdcSpriteSize       = 1 << 2
	lcdcBGTileMapSelect  = 1 << 3
	lcdcBGDataSelect     = 1 << 4
	lcdcWindowEnable     = 1 << 5
	lcdcWindowTileMapSel = 1 << 6
	lcdcLCDEnable        = 1 << 7
)

// STAT bit positions. The bottom 3 bits (mode + coincidence) are
// read-only from the CPU's perspective; writes leave them unchanged.
const (
	statMode0     = 0 // Mode field occupies bits 0-1
	statCoincBit  = 1 << 2
	statHblankInt = 1 << 3
	statOAMInt    = 1 << 4
	statVBlankInt = 1 << 5
	statLYCInt    = 1 << 6
	statWriteMask = 0xF8 // bits the CPU may actually set
)

// Mode values for STAT's bottom 2 bits.
const (
	ModeHBlank = 0
	ModeVBlank = 1
	ModeOAM    = 2
	ModeTransfer = 3
)

// Shade is one of the four DMG gray levels a 2-bit color index maps
// to through a palette.
type Shade uint8

const (
	ShadeWhite Shade = iota
	ShadeLightGray
	ShadeDarkGray
	ShadeBlack
)

// shadeColor is the fixed 24-bit-plus-alpha color each shade renders
// as: the classic DMG LCD's four greens, from lightest to darkest.
var shadeColor = [4]color.RGBA{
	ShadeWhite:     {R: 0x9B, G: 0xBC, B: 0x0F, A: 0xFF},
	ShadeLightGray: {R: 0x8B, G: 0xAC, B: 0x0F, A: 0xFF},
	ShadeDarkGray:  {R: 0x30, G: 0x62, B: 0x30, A: 0xFF},
	ShadeBlack:     {R: 0x0F, G: 0x38, B: 0x0F, A: 0xFF},
}

// palette maps each of the four 2-bit color indices to a shade, per
// the byte layout of BGP/OBP0/OBP1: bits [2n+1:2n] hold the shade for
// color index n.
type palette [4]Shade

func decodePalette(b uint8) palette {
	var p palette
	for i := range p {
		n := uint8(i) * 2
		var v uint8
		if bitops.GetBit(b, n) {
			v |= 1
		}
		if bitops.GetBit(b, n+1) {
			v |= 2
		}
		p[i] = Shade(v)
	}
	return p
}

func (p palette) encode() uint8 {
	var b uint8
	for i, s := range p {
		n := uint8(i) * 2
		b = bitops.SetBit(b, n, uint8(s)&1)
		b = bitops.SetBit(b, n+1, (uint8(s)>>1)&1)
	}
	return b
}

// PPU holds all picture-processing state owned exclusively by the
// MMU: VRAM, OAM, LCD registers, palettes, and the in-progress
// framebuffer.
type PPU struct {
	bus  Bus
	sink FrameSink

	vram [vramSize]uint8
	oam  [oamSize]uint8

	lcdc uint8
	stat uint8
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	wy   uint8
	wx   uint8

	bgp, obp0, obp1 palette

	frame []color.RGBA // current framebuffer, Height rows of Width pixels
}

// New returns a PPU wired to bus for interrupt delivery and sink for
// completed-frame delivery. sink may be nil (useful for headless
// tests); it is invoked synchronously from Step, on whatever goroutine
// calls it.
func New(bus Bus, sink FrameSink) *PPU {
	p := &PPU{
		bus:   bus,
		sink:  sink,
		frame: make([]color.RGBA, Width*Height),
	}
	for i := range p.frame {
		p.frame[i] = shadeColor[ShadeWhite]
	}
	return p
}

// --- VRAM / OAM direct access (0x8000-0x9FFF, 0xFE00-0xFE9F) ---

func (p *PPU) ReadVRAM(addr uint16) uint8  { return p.vram[addr&0x1FFF] }
func (p *PPU) WriteVRAM(addr uint16, v uint8) { p.vram[addr&0x1FFF] = v }

func (p *PPU) ReadOAM(addr uint16) uint8 {
	i := addr - 0xFE00
	if int(i) >= oamSize {
		return 0xFF
	}
	return p.oam[i]
}

func (p *PPU) WriteOAM(addr uint16, v uint8) {
	i := addr - 0xFE00
	if int(i) < oamSize {
		p.oam[i] = v
	}
}

// WriteOAMByte writes OAM by a zero-based index, used by the MMU's
// OAM-DMA transfer rather than by absolute address.
func (p *PPU) WriteOAMByte(i uint8, v uint8) {
	p.oam[i] = v
}

// --- I/O register access (0xFF40-0xFF4B) ---

func (p *PPU) ReadReg(addr uint16) uint8 {
	switch addr {
	case RegLCDC:
		return p.lcdc
	case RegSTAT:
		return p.stat | p.coincidenceBit() | 0x80
	case RegSCY:
		return p.scy
	case RegSCX:
		return p.scx
	case RegLY:
		return p.ly
	case RegLYC:
		return p.lyc
	case RegDMA:
		return 0xFF // write-only in practice; no meaningful readback
	case RegBGP:
		return p.bgp.encode()
	case RegOBP0:
		return p.obp0.encode()
	case RegOBP1:
		return p.obp1.encode()
	case RegWY:
		return p.wy
	case RegWX:
		return p.wx
	default:
		return 0xFF
	}
}

func (p *PPU) WriteReg(addr uint16, v uint8) {
	switch addr {
	case RegLCDC:
		p.lcdc = v
	case RegSTAT:
		p.stat = v&statWriteMask | p.stat&^statWriteMask
	case RegSCY:
		p.scy = v
	case RegSCX:
		p.scx = v
	case RegLY:
		// LY is read-only from the CPU's perspective; writes are ignored.
	case RegLYC:
		p.lyc = v
	case RegDMA:
		// The actual 160-byte transfer is driven by the MMU, which
		// alone can read arbitrary source addresses; this package
		// only owns OAM itself (see WriteOAMByte).
	case RegBGP:
		p.bgp = decodePalette(v)
	case RegOBP0:
		p.obp0 = decodePalette(v)
	case RegOBP1:
		p.obp1 = decodePalette(v)
	case RegWY:
		p.wy = v
	case RegWX:
		p.wx = v
	}
}

func (p *PPU) coincidenceBit() uint8 {
	if p.ly == p.lyc {
		return statCoincBit
	}
	return 0
}

func (p *PPU) mode() uint8 {
	return p.stat & 0x03
}

func (p *PPU) setMode(m uint8) {
	p.stat = (p.stat &^ 0x03) | m
}

// LY exposes the current scanline for tests and debuggers.
func (p *PPU) LY() uint8 { return p.ly }

// Frame returns the current (possibly in-progress) framebuffer. Tests
// and debuggers may read it directly instead of waiting on the sink.
func (p *PPU) Frame() []color.RGBA { return p.frame }

// Step advances the PPU by exactly one scanline's worth of work. The
// frame-ready callback fires with the just completed buffer at the
// START of line 0's processing, before line 0 is rendered, so the
// sink always observes a fully finished frame rather than one with
// its first row already overwritten by the next pass.
func (p *PPU) Step() {
	if p.ly == 0 && p.sink != nil {
		p.sink(p.frame)
	}

	if p.ly < vblankStartLY {
		p.renderScanline()
		p.setMode(ModeHBlank)
	}

	if p.ly == vblankStartLY {
		p.setMode(ModeVBlank)
		p.bus.RequestVBlank()
	}

	p.ly++
	if p.ly >= totalScanlines {
		p.ly = 0
	}
}

const (
	tileDataSize  = 16 // bytes per 8x8 2bpp tile
	tilesPerRow   = 32
	visibleTiles  = Width / 8
	tileMapBase0  = 0x9800
	tileMapBase1  = 0x9C00
	tileDataBase0 = 0x9000 // signed indexing
	tileDataBase1 = 0x8000 // unsigned indexing
)

// renderScanline fills row p.ly of the framebuffer by walking the
// visible background tiles one scanline at a time, the cheapest
// rendering granularity that still produces a correct frame.
func (p *PPU) renderScanline() {
	row := p.frame[int(p.ly)*Width : int(p.ly)*Width+Width]

	if p.lcdc&lcdcBGEnable == 0 {
		for i := range row {
			row[i] = shadeColor[ShadeWhite]
		}
		return
	}

	tileMapBase := uint16(tileMapBase0)
	if p.lcdc&lcdcBGTileMapSelect != 0 {
		tileMapBase = tileMapBase1
	}

	tileRow := uint16(uint16(p.scy)+uint16(p.ly)) / 8 % tilesPerRow
	fineY := (uint16(p.scy) + uint16(p.ly)) % 8

	for tileCol := 0; tileCol < visibleTiles; tileCol++ {
		mapAddr := tileMapBase + tileRow*tilesPerRow + uint16(tileCol)
		idx := p.ReadVRAM(mapAddr)

		tileAddr := p.tileDataAddr(idx)
		lo := p.ReadVRAM(tileAddr + fineY*2)
		hi := p.ReadVRAM(tileAddr + fineY*2 + 1)

		for bit := 0; bit < 8; bit++ {
			n := uint8(7 - bit)
			var colorIdx uint8
			if bitops.GetBit(lo, n) {
				colorIdx |= 1
			}
			if bitops.GetBit(hi, n) {
				colorIdx |= 2
			}
			shade := p.bgp[colorIdx]
			row[tileCol*8+bit] = shadeColor[shade]
		}
	}
}

// tileDataAddr resolves a tile index to its 16-byte tile data address,
// under the two addressing schemes LCDC's data-select bit chooses
// between: unsigned from 0x8000, or signed from 0x9000.
func (p *PPU) tileDataAddr(idx uint8) uint16 {
	if p.lcdc&lcdcBGDataSelect != 0 {
		return tileDataBase1 + uint16(idx)*tileDataSize
	}
	return uint16(int32(tileDataBase0) + int32(int8(idx))*tileDataSize)
}
