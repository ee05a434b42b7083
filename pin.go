// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

import (
	"strconv"
	"sync/atomic"
)

// Direction is the sysfs direction of a pin.
type Direction string

// Edge selects the transitions that raise interrupts on a pin.
type Edge string

// Directions.
const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Edges.
const (
	EdgeNone    Edge = "none"
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeBoth    Edge = "both"
)

// Pin represents a single exported GPIO pin.
type Pin struct {
	// Immutable fields
	n    int
	reg  *Registry
	fs   sysfs
	irqs *interruptQueue

	// Guarded by reg.watcher.mu
	watch *watch

	closed     atomic.Bool
	unexported atomic.Bool
}

func newPin(reg *Registry, n int) *Pin {
	return &Pin{
		n:    n,
		reg:  reg,
		fs:   reg.fs,
		irqs: newInterruptQueue(),
	}
}

// Number returns the kernel GPIO number of the pin.
func (pin *Pin) Number() int {
	return pin.n
}

// IsExported returns true if the pin is currently exported by the kernel.
// The kernel is checked on every call, so exports and unexports by other
// processes are reflected.
func (pin *Pin) IsExported() bool {
	return pin.fs.exists(pin.fs.pinPath(pin.n, attrValue))
}

// Watched returns true while the pin's value file is registered with the
// poller.
func (pin *Pin) Watched() bool {
	return pin.reg.watcher.watched(pin)
}

// Interrupts returns the channel the pin's interrupts are delivered to, in
// the order they were raised.
// The channel is closed when the pin is unexported or the Registry closed,
// and any interrupts not yet received are discarded.
func (pin *Pin) Interrupts() <-chan Interrupt {
	return pin.irqs.out
}

// Unexport stops watching the pin and releases it back to the kernel.
//
// The value file is removed from the poller and closed before the kernel
// unexport is requested. Unexporting a pin that is not exported is not an
// error. Once Unexport has succeeded, or the pin number has been exported
// again as a new Pin, further calls are no-ops.
func (pin *Pin) Unexport() error {
	if pin.unexported.Load() {
		return nil
	}
	reg := pin.reg
	reg.watcher.unwatch(pin)
	superseded := reg.forget(pin)
	pin.irqs.close()
	if superseded {
		pin.unexported.Store(true)
		return nil
	}
	if err := reg.unexport(pin.n); err != nil {
		return err
	}
	pin.unexported.Store(true)
	return nil
}

// Value returns the current value of the pin, 0 or 1.
func (pin *Pin) Value() (int, error) {
	s, err := pin.read(attrValue)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, ioError("read", pin.fs.pinPath(pin.n, attrValue), err)
	}
	return v, nil
}

// Set sets the value of the pin, to 1 if v is non-zero, else to 0.
// The direction of the pin is not checked.
func (pin *Pin) Set(v int) error {
	return pin.write(attrValue, boolText(v != 0))
}

// High sets the value of the pin to 1.
func (pin *Pin) High() error {
	return pin.Set(1)
}

// Reset sets the value of the pin to 0.
func (pin *Pin) Reset() error {
	return pin.Set(0)
}

// Toggle inverts the value of the pin and returns the value prior to the
// toggle.
//
// The read and write are separate operations, so a change by another
// writer between the two is overwritten.
func (pin *Pin) Toggle() (int, error) {
	v, err := pin.Value()
	if err != nil {
		return 0, err
	}
	next := 1
	if v != 0 {
		next = 0
	}
	if err = pin.Set(next); err != nil {
		return 0, err
	}
	return v, nil
}

// Direction returns the direction of the pin.
func (pin *Pin) Direction() (Direction, error) {
	s, err := pin.read(attrDirection)
	return Direction(s), err
}

// SetDirection sets the direction of the pin.
// The value is written as is, so must be one the kernel accepts.
func (pin *Pin) SetDirection(dir Direction) error {
	return pin.write(attrDirection, string(dir))
}

// Edge returns the edges that raise interrupts on the pin.
func (pin *Pin) Edge() (Edge, error) {
	s, err := pin.read(attrEdge)
	return Edge(s), err
}

// SetEdge sets the edges that raise interrupts on the pin.
// The value is written as is, so must be one the kernel accepts.
func (pin *Pin) SetEdge(edge Edge) error {
	return pin.write(attrEdge, string(edge))
}

// Invert returns true if the pin is active low.
func (pin *Pin) Invert() (bool, error) {
	s, err := pin.read(attrActiveLow)
	if err != nil {
		return false, err
	}
	return s != "0", nil
}

// SetInvert sets whether the pin is active low.
func (pin *Pin) SetInvert(invert bool) error {
	return pin.write(attrActiveLow, boolText(invert))
}

func (pin *Pin) read(attr string) (string, error) {
	path := pin.fs.pinPath(pin.n, attr)
	if pin.closed.Load() {
		return "", ioError("read", path, ErrClosed)
	}
	return pin.fs.read(path)
}

func (pin *Pin) write(attr, value string) error {
	path := pin.fs.pinPath(pin.n, attr)
	if pin.closed.Load() {
		return ioError("write", path, ErrClosed)
	}
	return pin.fs.write(path, value)
}
