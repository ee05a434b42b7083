// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

// ReadyHandler is called by a Poller, from a single goroutine, for each
// readiness event. The tag is the one provided when the fd was added.
type ReadyHandler func(fd int, tag uint32, events uint32)

// Poller provides edge-triggered priority readiness notification for
// sysfs GPIO value files.
type Poller interface {
	// Add registers the fd. Events for it are reported with tag.
	Add(fd int, tag uint32) error

	// Remove deregisters the fd.
	Remove(fd int) error

	// Close stops event delivery and releases the poller.
	// Once Close returns the handler will not be called again.
	Close() error
}

// ErrorHandler is called by a Poller if it stops delivering events due to
// an error.
type ErrorHandler func(err error)

// PollerFactory creates a Poller delivering events to the handler, and
// reporting failure to the errHandler.
type PollerFactory func(handler ReadyHandler, errHandler ErrorHandler) (Poller, error)
