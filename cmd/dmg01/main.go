// Command dmg01 loads a cartridge image and runs it in an ebiten
// window, with the emulation loop running on its own goroutine
// alongside ebiten.RunGame on the main goroutine.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/kwbrandt/dmg01/engine"
	"github.com/kwbrandt/dmg01/ppu"
	"github.com/kwbrandt/dmg01/rom"
)

var (
	romPath  = flag.String("rom", "", "Path to the cartridge image to run.")
	bootPath = flag.String("boot", "", "Path to a 256-byte boot ROM image, overriding the built-in default.")
	scale    = flag.Int("scale", 3, "Integer window scale factor over the native 160x144 resolution.")
)

func main() {
	flag.Parse()

	if *romPath == "" {
		log.Fatalf("missing required -rom flag")
	}

	cart, err := rom.Load(*romPath)
	if err != nil {
		log.Fatalf("invalid ROM: %v", err)
	}

	var e *engine.Engine
	if *bootPath != "" {
		boot, err := loadBoot(*bootPath)
		if err != nil {
			log.Fatalf("invalid boot ROM: %v", err)
		}
		e = engine.NewWithBoot(cart, boot)
	} else {
		e = engine.New(cart)
	}
	game := engine.NewGame(e)

	ebiten.SetWindowSize(ppu.Width*(*scale), ppu.Height*(*scale))
	ebiten.SetWindowTitle("dmg01")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	stop := make(chan struct{})
	go func() {
		if err := e.Run(stop); err != nil {
			log.Printf("emulation stopped: %v", err)
		}
	}()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
	close(stop)
}

func loadBoot(path string) ([0x100]uint8, error) {
	var boot [0x100]uint8
	data, err := os.ReadFile(path)
	if err != nil {
		return boot, err
	}
	if len(data) != len(boot) {
		return boot, fmt.Errorf("boot ROM must be exactly %d bytes, got %d", len(boot), len(data))
	}
	copy(boot[:], data)
	return boot, nil
}
