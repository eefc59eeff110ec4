// Neopixelctl - NeoPixel strip control for 3D printer hosts
//
// Neopixelctl drives an LED strip through a privileged worker, filtering
// M150 G-code commands from a print stream and exposing one-shot colour,
// brightness and pixel commands.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/neopixel/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
