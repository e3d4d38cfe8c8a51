// Command dmgdbg runs the line-oriented debugger REPL against a
// cartridge image, with no ebiten window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kwbrandt/dmg01/debugger"
	"github.com/kwbrandt/dmg01/engine"
	"github.com/kwbrandt/dmg01/rom"
)

var (
	romPath  = flag.String("rom", "", "Path to the cartridge image to debug.")
	bootPath = flag.String("boot", "", "Path to a 256-byte boot ROM image, overriding the built-in default.")
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

	d := debugger.New(e, os.Stdout)
	if err := d.Run(os.Stdin); err == debugger.ErrQuit {
		os.Exit(1)
	}
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
