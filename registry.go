// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"
)

const (
	// DefaultExportTimeout is how long Export waits for the kernel, and
	// udev, to make a newly exported pin accessible.
	// This can take > 100ms on older Pis.
	DefaultExportTimeout = 500 * time.Millisecond

	exportPollInterval = 50 * time.Millisecond
)

var errExportTimeout = errors.New("timeout waiting for export")

// Registry tracks the pins exported by the process and owns the poller
// used to deliver their interrupts.
type Registry struct {
	fs            sysfs
	log           *logrus.Entry
	exportTimeout time.Duration
	watcher       *watcher
	exports       singleflight.Group

	mu sync.Mutex // Guards the following.
	// Map from pin number to live pin.
	pins   map[int]*Pin
	closed bool
}

// Option modifies the construction of a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	root          string
	log           *logrus.Entry
	poller        PollerFactory
	exportTimeout time.Duration
}

// WithRoot sets the sysfs GPIO class directory. Defaults to DefaultRoot.
func WithRoot(root string) Option {
	return func(c *registryConfig) {
		c.root = root
	}
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *registryConfig) {
		c.log = log
	}
}

// WithPoller sets the factory for the readiness poller.
// Defaults to NewEpollPoller.
func WithPoller(f PollerFactory) Option {
	return func(c *registryConfig) {
		c.poller = f
	}
}

// WithExportTimeout sets how long Export waits for a newly exported pin
// to become accessible.
func WithExportTimeout(d time.Duration) Option {
	return func(c *registryConfig) {
		c.exportTimeout = d
	}
}

// NewRegistry creates a Registry and starts its poller.
func NewRegistry(options ...Option) (*Registry, error) {
	cfg := registryConfig{
		root:          DefaultRoot,
		poller:        NewEpollPoller,
		exportTimeout: DefaultExportTimeout,
	}
	for _, option := range options {
		option(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logrus.NewEntry(logrus.StandardLogger())
	}
	fs := sysfs{root: cfg.root}
	w, err := newWatcher(fs, cfg.log, cfg.poller)
	if err != nil {
		return nil, err
	}
	return &Registry{
		fs:            fs,
		log:           cfg.log,
		exportTimeout: cfg.exportTimeout,
		watcher:       w,
		pins:          make(map[int]*Pin),
	}, nil
}

// PinOption configures a pin as part of Export.
type PinOption func(*pinConfig)

type pinConfig struct {
	direction *Direction
	edge      *Edge
	invert    *bool
}

// WithDirection sets the direction of the pin.
func WithDirection(dir Direction) PinOption {
	return func(c *pinConfig) {
		c.direction = &dir
	}
}

// WithEdge sets the edges that raise interrupts.
func WithEdge(edge Edge) PinOption {
	return func(c *pinConfig) {
		c.edge = &edge
	}
}

// WithInvert sets whether the pin is active low.
func WithInvert(invert bool) PinOption {
	return func(c *pinConfig) {
		c.invert = &invert
	}
}

// ParsePin converts a textual pin number.
func ParsePin(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPin, s)
	}
	return n, nil
}

// Export exports the pin, applies the options, and starts watching the
// pin for interrupts.
//
// The configuration is applied in order: direction, invert, then edge.
// A failure aborts the export, and any configuration already applied is
// left in place.
//
// If the pin has already been exported by the Registry then that pin is
// returned and the options are ignored.
// Concurrent exports of the same pin are collapsed into one.
func (r *Registry) Export(n int, options ...PinOption) (*Pin, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, n)
	}
	if pin, err := r.lookup(n); pin != nil || err != nil {
		return pin, err
	}
	v, err, _ := r.exports.Do(strconv.Itoa(n), func() (interface{}, error) {
		if pin, err := r.lookup(n); pin != nil || err != nil {
			return pin, err
		}
		return r.exportPin(n, options)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pin), nil
}

// Pin returns the pin if it has been exported by the Registry.
func (r *Registry) Pin(n int) (*Pin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pin, ok := r.pins[n]
	return pin, ok
}

// Close stops the poller, closes the value files of all watched pins, and
// forgets all pins. Pins are left exported.
//
// Intended for process shutdown. Subsequent operations on the pins, other
// than Unexport, fail with ErrClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	pins := r.pins
	r.pins = make(map[int]*Pin)
	r.mu.Unlock()

	err := r.watcher.close()
	for _, pin := range pins {
		pin.closed.Store(true)
		pin.irqs.close()
	}
	r.log.Debug("closed")
	return err
}

func (r *Registry) lookup(n int) (*Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ioError("export", r.fs.path(ctrlExport), ErrClosed)
	}
	return r.pins[n], nil
}

func (r *Registry) exportPin(n int, options []PinOption) (*Pin, error) {
	var cfg pinConfig
	for _, option := range options {
		option(&cfg)
	}
	pin, err := r.export(n)
	if err != nil {
		return nil, err
	}
	if err = r.configure(pin, cfg); err != nil {
		pin.irqs.close()
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// closed while exporting
		r.watcher.unwatch(pin)
		pin.irqs.close()
		return nil, ioError("export", r.fs.path(ctrlExport), ErrClosed)
	}
	r.pins[n] = pin
	return pin, nil
}

func (r *Registry) configure(pin *Pin, cfg pinConfig) error {
	if cfg.direction != nil {
		if err := pin.SetDirection(*cfg.direction); err != nil {
			return err
		}
	}
	if cfg.invert != nil {
		if err := pin.SetInvert(*cfg.invert); err != nil {
			return err
		}
	}
	if cfg.edge != nil {
		if err := pin.SetEdge(*cfg.edge); err != nil {
			return err
		}
	}
	return r.watcher.watch(pin)
}

// export requests the kernel export the pin, if it is not already exported.
func (r *Registry) export(n int) (*Pin, error) {
	ctrl := r.fs.path(ctrlExport)
	if _, err := os.Stat(ctrl); err != nil {
		return nil, ioError("export", ctrl, fmt.Errorf("%w: %w", ErrPlatformUnsupported, err))
	}
	if !r.fs.exists(r.fs.pinPath(n, attrValue)) {
		err := r.fs.write(ctrl, strconv.Itoa(n))
		if errors.Is(err, unix.EBUSY) {
			// the pin has already been exported
			err = nil
		}
		if err != nil {
			return nil, err
		}
		// wait for pin to be exported on sysfs
		if err = r.waitExported(n); err != nil {
			return nil, err
		}
		r.log.WithField("pin", n).Debug("exported")
	}
	return newPin(r, n), nil
}

// Wait for the value file to become writable.
func (r *Registry) waitExported(n int) error {
	path := r.fs.pinPath(n, attrValue)
	deadline := time.Now().Add(r.exportTimeout)
	for !r.fs.writable(path) {
		if time.Now().After(deadline) {
			return ioError("export", path, errExportTimeout)
		}
		time.Sleep(exportPollInterval)
	}
	return nil
}

// Unexport releases the pin back to the kernel.
//
// If the pin has been exported by the Registry this is the same as
// Pin.Unexport. Otherwise the kernel unexport is requested only if the pin
// is exported, so no pin is exported in the process.
func (r *Registry) Unexport(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, n)
	}
	if pin, ok := r.Pin(n); ok {
		return pin.Unexport()
	}
	return r.unexport(n)
}

// unexport requests the kernel unexport the pin, if it is exported.
func (r *Registry) unexport(n int) error {
	ctrl := r.fs.path(ctrlUnexport)
	if _, err := os.Stat(ctrl); err != nil {
		return ioError("unexport", ctrl, fmt.Errorf("%w: %w", ErrPlatformUnsupported, err))
	}
	if !r.fs.exists(r.fs.pinPath(n, attrValue)) {
		return nil
	}
	if err := r.fs.write(ctrl, strconv.Itoa(n)); err != nil {
		return err
	}
	r.log.WithField("pin", n).Debug("unexported")
	return nil
}

// forget removes the pin from the registry, if it is the live pin for its
// number, and returns true if another pin has since been exported with
// the same number.
func (r *Registry) forget(pin *Pin) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.pins[pin.n]
	if !ok {
		return false
	}
	if live == pin {
		delete(r.pins, pin.n)
		return false
	}
	return true
}
