// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package sysfsgpio provides GPIO access on Linux via the kernel's sysfs
// GPIO interface (/sys/class/gpio).
//
// Supports:
//   - Pin export and unexport
//   - Pin direction (in/out)
//   - Pin value read, write and toggle
//   - Active low
//   - Edge triggered interrupts
//
// The package intentionally does not support:
//   - debouncing
//   - pin multiplexing or alternate functions
//   - atomic operations across multiple pins
//
// Example of use:
//
//	reg, err := sysfsgpio.NewRegistry()
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//
//	pin, err := reg.Export(4,
//		sysfsgpio.WithDirection(sysfsgpio.DirectionIn),
//		sysfsgpio.WithEdge(sysfsgpio.EdgeBoth))
//	if err != nil {
//		return err
//	}
//	defer pin.Unexport()
//
//	for irq := range pin.Interrupts() {
//		fmt.Println("pin", irq.Pin, "value", irq.Value)
//	}
//
// All pins exported by a Registry share a single epoll instance and
// goroutine. Interrupts for a given pin are delivered in the order the
// kernel raised them.
//
// Note that the Value reported in an Interrupt is inverted relative to the
// value file: it is 1 when the file reads "0" following the edge, and 0
// otherwise. Pin.Value is not inverted.
//
// See https://www.kernel.org/doc/Documentation/gpio/sysfs.txt for details
// of the sysfs GPIO interface.
package sysfsgpio
