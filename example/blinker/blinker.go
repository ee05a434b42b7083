// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warthog618/sysfsgpio"
)

// This example drives GPIO 4.
// The pin is toggled high and low at 1Hz with a 50% duty cycle.
// Do not run this on a board which has this pin externally driven.
func main() {
	reg, err := sysfsgpio.NewRegistry()
	if err != nil {
		panic(err)
	}
	defer reg.Close()
	pin, err := reg.Export(4, sysfsgpio.WithDirection(sysfsgpio.DirectionOut))
	if err != nil {
		panic(err)
	}
	defer pin.Unexport()
	defer pin.SetDirection(sysfsgpio.DirectionIn)
	// capture exit signals to ensure pin is reverted to input on exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	for {
		select {
		case <-time.After(500 * time.Millisecond):
			if _, err := pin.Toggle(); err != nil {
				fmt.Println("Toggle failed:", err)
				return
			}
			v, _ := pin.Value()
			fmt.Println("Toggled", v)
		case <-quit:
			return
		}
	}
}
