// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Interrupt delivery for exported pins.

package sysfsgpio

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Interrupt reports the level of a pin following an edge.
type Interrupt struct {
	Pin int
	// Value is 1 when the value file read "0" following the edge, else 0.
	Value int
	// Time the interrupt was dispatched.
	Time time.Time
}

// watch is the registration of a pin value file with the poller.
type watch struct {
	pin *Pin
	fd  int
	tag uint32
}

// watcher multiplexes the value files of all watched pins through a single
// poller and dispatches interrupts to the owning pins.
type watcher struct {
	fs     sysfs
	log    *logrus.Entry
	poller Poller

	mu sync.Mutex // Guards the following, and is held across each dispatch.
	// Map from value fd to registration.
	byFD map[int]*watch
	// Tag of the most recent registration.
	seq    uint32
	closed bool
}

func newWatcher(fs sysfs, log *logrus.Entry, factory PollerFactory) (*watcher, error) {
	w := &watcher{
		fs:   fs,
		log:  log,
		byFD: make(map[int]*watch),
	}
	p, err := factory(w.dispatch, w.pollFailed)
	if err != nil {
		return nil, ioError("poller", "", err)
	}
	w.poller = p
	return w, nil
}

// watch opens the value file of the pin and registers it with the poller.
//
// The value file is read once before registration, as sysfs reports the
// file as ready until it has been read.
func (w *watcher) watch(pin *Pin) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.fs.pinPath(pin.n, attrValue)
	if w.closed {
		return ioError("watch", path, ErrClosed)
	}
	if pin.watch != nil {
		return nil
	}
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return ioError("open", path, err)
	}
	var buf [1]byte
	if _, err = unix.Pread(fd, buf[:], 0); err != nil {
		unix.Close(fd)
		return ioError("read", path, err)
	}
	w.seq++
	wt := &watch{pin: pin, fd: fd, tag: w.seq}
	if err = w.poller.Add(fd, wt.tag); err != nil {
		unix.Close(fd)
		return ioError("watch", path, err)
	}
	w.byFD[fd] = wt
	pin.watch = wt
	w.log.WithFields(logrus.Fields{"pin": pin.n, "fd": fd}).Debug("watching")
	return nil
}

// unwatch removes the pin from the poller and closes its value fd.
//
// Once unwatch returns no further interrupts are dispatched to the pin.
func (w *watcher) unwatch(pin *Pin) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wt := pin.watch
	if wt == nil {
		return
	}
	pin.watch = nil
	delete(w.byFD, wt.fd)
	if err := w.poller.Remove(wt.fd); err != nil {
		w.log.WithError(err).WithField("pin", pin.n).Warn("poller remove failed")
	}
	unix.Close(wt.fd)
	w.log.WithFields(logrus.Fields{"pin": pin.n, "fd": wt.fd}).Debug("unwatched")
}

func (w *watcher) watched(pin *Pin) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return pin.watch != nil
}

// dispatch handles a readiness event from the poller.
//
// The value is read synchronously, clearing the interrupt, and queued to
// the pin before the next event is handled, so interrupts for a pin are
// queued in the order the kernel raised them.
func (w *watcher) dispatch(fd int, tag uint32, events uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wt, ok := w.byFD[fd]
	if !ok || wt.tag != tag {
		// unwatched after the event was collected.
		w.log.WithFields(logrus.Fields{"fd": fd, "tag": tag}).Debug("dropped interrupt")
		return
	}
	var buf [1]byte
	n, err := unix.Pread(fd, buf[:], 0)
	if err != nil || n != 1 {
		w.log.WithError(err).WithField("pin", wt.pin.n).Warn("interrupt read failed")
		return
	}
	value := 0
	if buf[0] == '0' {
		value = 1
	}
	wt.pin.irqs.push(Interrupt{Pin: wt.pin.n, Value: value, Time: time.Now()})
}

// pollFailed reports the poller no longer delivering interrupts to any
// watched pin.
func (w *watcher) pollFailed(err error) {
	w.mu.Lock()
	n := len(w.byFD)
	w.mu.Unlock()
	w.log.WithError(err).WithField("watched", n).Warn("poller failed, interrupts stopped")
}

// close shuts down the poller then closes all watched value fds.
func (w *watcher) close() error {
	// The poller must be closed without holding mu, as the poll goroutine
	// may be waiting on it in dispatch.
	err := w.poller.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	for fd, wt := range w.byFD {
		unix.Close(fd)
		wt.pin.watch = nil
	}
	w.byFD = make(map[int]*watch)
	w.closed = true
	if err != nil {
		return ioError("poller", "", err)
	}
	return nil
}

// interruptQueue is an unbounded FIFO between dispatch and the consumer of
// a pin's interrupt channel, so a slow consumer never stalls the poller.
type interruptQueue struct {
	mu     sync.Mutex
	q      *queue.Queue
	closed bool

	signal chan struct{}
	stop   chan struct{}
	out    chan Interrupt
}

func newInterruptQueue() *interruptQueue {
	iq := &interruptQueue{
		q:      queue.New(),
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		out:    make(chan Interrupt),
	}
	go iq.pump()
	return iq
}

func (iq *interruptQueue) push(evt Interrupt) {
	iq.mu.Lock()
	if iq.closed {
		iq.mu.Unlock()
		return
	}
	iq.q.Add(evt)
	iq.mu.Unlock()
	select {
	case iq.signal <- struct{}{}:
	default:
	}
}

// close discards any undelivered interrupts and closes the out channel.
func (iq *interruptQueue) close() {
	iq.mu.Lock()
	defer iq.mu.Unlock()
	if iq.closed {
		return
	}
	iq.closed = true
	close(iq.stop)
}

func (iq *interruptQueue) next() (Interrupt, bool) {
	iq.mu.Lock()
	defer iq.mu.Unlock()
	if iq.q.Length() == 0 {
		return Interrupt{}, false
	}
	return iq.q.Remove().(Interrupt), true
}

func (iq *interruptQueue) pump() {
	defer close(iq.out)
	for {
		select {
		case <-iq.stop:
			return
		default:
		}
		evt, ok := iq.next()
		if !ok {
			select {
			case <-iq.signal:
				continue
			case <-iq.stop:
				return
			}
		}
		select {
		case iq.out <- evt:
		case <-iq.stop:
			return
		}
	}
}
