// Neopixeld - privileged NeoPixel worker
//
// Neopixeld owns the LED strip and applies newline-delimited JSON messages
// received on a Unix socket. It is normally started by neopixelctl.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/neopixel/internal/workercli"
)

func main() {
	if err := workercli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
