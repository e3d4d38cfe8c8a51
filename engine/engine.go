// Package engine owns the Cpu/Mmu ownership tree and drives the
// cooperative step/frame loop the front-ends use.
package engine

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/kwbrandt/dmg01/cpu"
	"github.com/kwbrandt/dmg01/mmu"
	"github.com/kwbrandt/dmg01/ppu"
	"github.com/kwbrandt/dmg01/rom"
)

// Engine is the single ownership root: ROM, Mmu (which owns the Ppu)
// and Cpu. There is no sharing beyond this tree.
type Engine struct {
	CPU *cpu.CPU
	MMU *mmu.MMU

	latestFrame []color.RGBA
	frameReady  bool
}

// New wires a cartridge into a fresh Engine and registers the
// Engine's own frame handler as the display sink. The sink is
// registered once, here, and invoked synchronously from the Ppu's own
// Step — it keeps the latest frame (drawn by Game.Draw) and tracks
// whether a frame has landed since the last RunFrame call.
func New(cart *rom.ROM) *Engine {
	e := &Engine{}
	e.MMU = mmu.New(cart, e.onFrame)
	e.CPU = cpu.New()
	return e
}

// NewWithBoot is New with an explicit boot ROM image, for front-ends
// that support a -boot override.
func NewWithBoot(cart *rom.ROM, boot [0x100]uint8) *Engine {
	e := &Engine{}
	e.MMU = mmu.NewWithBoot(cart, e.onFrame, boot)
	e.CPU = cpu.New()
	return e
}

func (e *Engine) onFrame(frame []color.RGBA) {
	e.latestFrame = frame
	e.frameReady = true
}

// Step executes exactly one CPU instruction (or halted/stopped
// minimum tick), advances the Mmu/Ppu by the consumed T-states, and
// returns the T-state cost. A *cpu.DecodeError is fatal: the front-end
// decides whether to stop or report it.
func (e *Engine) Step() (int, error) {
	t, err := e.CPU.Step(e.MMU)
	e.MMU.Tick(t)
	return t, err
}

// RunFrame steps the engine until exactly one new Ppu frame has been
// produced, then returns it.
func (e *Engine) RunFrame() ([]color.RGBA, error) {
	e.frameReady = false
	for !e.frameReady {
		if _, err := e.Step(); err != nil {
			return nil, err
		}
	}
	return e.latestFrame, nil
}

// Reset rebuilds Cpu state to its post-reset values without
// re-loading the cartridge, used by the debugger's "restart" command.
func (e *Engine) Reset() {
	e.CPU = cpu.New()
}

// Game adapts an Engine to the ebiten.Game interface: Update drives
// nothing (the emulation loop runs on its own goroutine), Draw blits
// the latest frame, and Layout pins the window to the native
// 160x144 resolution.
type Game struct {
	Engine *Engine
}

func NewGame(e *Engine) *Game { return &Game{Engine: e} }

func (g *Game) Update() error { return nil }

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.Width, ppu.Height
}

func (g *Game) Draw(screen *ebiten.Image) {
	frame := g.Engine.latestFrame
	if frame == nil {
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, ppu.Width, ppu.Height))
	for i, px := range frame {
		img.SetRGBA(i%ppu.Width, i/ppu.Width, px)
	}
	screen.WritePixels(img.Pix)
}

// Run drives the emulation loop on the calling goroutine until stop
// is closed or a decode error occurs.
func (e *Engine) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if _, err := e.Step(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}
}
