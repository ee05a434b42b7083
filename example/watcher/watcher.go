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

// Watches GPIO 4 and reports when it changes state.
func main() {
	reg, err := sysfsgpio.NewRegistry()
	if err != nil {
		panic(err)
	}
	defer reg.Close()
	pin, err := reg.Export(4,
		sysfsgpio.WithDirection(sysfsgpio.DirectionIn),
		sysfsgpio.WithEdge(sysfsgpio.EdgeBoth))
	if err != nil {
		panic(err)
	}
	defer pin.Unexport()

	// capture exit signals to ensure resources are released on exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// In a real application the main thread would do something useful here.
	// But we'll just run for a minute then exit.
	fmt.Println("Watching Pin 4...")
	timeout := time.After(time.Minute)
	for {
		select {
		case irq := <-pin.Interrupts():
			level := "low"
			if irq.Value == 0 {
				level = "high"
			}
			fmt.Printf("Pin 4 is %s\n", level)
		case <-timeout:
			return
		case <-quit:
			return
		}
	}
}
