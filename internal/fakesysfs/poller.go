// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package fakesysfs

import (
	"errors"
	"sort"
	"sync"
)

// ErrPollerClosed is returned by a Poller after Close.
var ErrPollerClosed = errors.New("poller closed")

// Poller records registered fds and calls the handler when the test
// triggers a readiness event.
type Poller struct {
	handler    func(fd int, tag uint32, events uint32)
	errHandler func(err error)

	mu      sync.Mutex
	fds     map[int]uint32
	lastTag map[int]uint32
	closed  bool
}

// PriEvents is the event mask reported by Trigger (POLLPRI|POLLERR).
const PriEvents = 0x0a

// NewPoller creates a Poller that delivers events to the handler and
// failures to the errHandler.
func NewPoller(handler func(fd int, tag uint32, events uint32), errHandler func(err error)) *Poller {
	return &Poller{
		handler:    handler,
		errHandler: errHandler,
		fds:        make(map[int]uint32),
		lastTag:    make(map[int]uint32),
	}
}

func (p *Poller) Add(fd int, tag uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPollerClosed
	}
	if _, ok := p.fds[fd]; ok {
		return errors.New("fd already registered")
	}
	p.fds[fd] = tag
	p.lastTag[fd] = tag
	return nil
}

func (p *Poller) Remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPollerClosed
	}
	if _, ok := p.fds[fd]; !ok {
		return errors.New("fd not registered")
	}
	delete(p.fds, fd)
	return nil
}

func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.fds = make(map[int]uint32)
	return nil
}

// Closed returns true once Close has been called.
func (p *Poller) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Fds returns the registered fds in ascending order.
func (p *Poller) Fds() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	fds := make([]int, 0, len(p.fds))
	for fd := range p.fds {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	return fds
}

// Trigger raises a readiness event for the fd, with the tag it was most
// recently registered with, whether or not it is still registered.
// The handler is called synchronously.
func (p *Poller) Trigger(fd int) {
	p.mu.Lock()
	tag := p.lastTag[fd]
	p.mu.Unlock()
	p.TriggerTag(fd, tag)
}

// TriggerTag raises a readiness event for the fd with the given tag.
func (p *Poller) TriggerTag(fd int, tag uint32) {
	p.handler(fd, tag, PriEvents)
}

// Fail reports the error to the errHandler, as a poller would on a fatal
// wait error.
func (p *Poller) Fail(err error) {
	if p.errHandler != nil {
		p.errHandler(err)
	}
}
