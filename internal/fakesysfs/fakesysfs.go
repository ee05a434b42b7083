// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package fakesysfs builds a sysfs GPIO class tree in a regular directory,
// optionally emulating the kernel's handling of the export and unexport
// control files, and provides a poller whose readiness events are raised
// by the test.
package fakesysfs

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Sysfs is a fake /sys/class/gpio.
type Sysfs struct {
	Root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates the control files of an empty GPIO class tree in root.
func New(root string) (*Sysfs, error) {
	for _, ctrl := range []string{"export", "unexport"} {
		if err := os.WriteFile(filepath.Join(root, ctrl), nil, 0o600); err != nil {
			return nil, err
		}
	}
	return &Sysfs{Root: root}, nil
}

// PinDir returns the directory of the pin.
func (s *Sysfs) PinDir(n int) string {
	return filepath.Join(s.Root, "gpio"+strconv.Itoa(n))
}

// AddPin creates the attribute files of an exported pin in its default
// state: input, no edge, not active low, value 0.
func (s *Sysfs) AddPin(n int) error {
	dir := s.PinDir(n)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	// value last, as its presence indicates the pin is exported.
	attrs := []struct{ name, value string }{
		{"direction", "in"},
		{"edge", "none"},
		{"active_low", "0"},
		{"value", "0"},
	}
	for _, a := range attrs {
		if err := os.WriteFile(filepath.Join(dir, a.name), []byte(a.value+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// RemovePin removes the pin as if it were unexported.
func (s *Sysfs) RemovePin(n int) error {
	return os.RemoveAll(s.PinDir(n))
}

// AddChip creates a gpiochip controller entry.
func (s *Sysfs) AddChip(base, ngpio int, label string) error {
	dir := filepath.Join(s.Root, "gpiochip"+strconv.Itoa(base))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	attrs := map[string]string{
		"base":  strconv.Itoa(base),
		"ngpio": strconv.Itoa(ngpio),
		"label": label,
	}
	for name, value := range attrs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o444); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the trimmed content of a pin attribute, or of a control
// file if n is negative.
func (s *Sysfs) Read(n int, attr string) (string, error) {
	path := filepath.Join(s.Root, attr)
	if n >= 0 {
		path = filepath.Join(s.PinDir(n), attr)
	}
	buf, err := os.ReadFile(path)
	return strings.TrimSpace(string(buf)), err
}

// Write replaces the content of a pin attribute, as the kernel would when
// the line changes.
func (s *Sysfs) Write(n int, attr, value string) error {
	return os.WriteFile(filepath.Join(s.PinDir(n), attr), []byte(value+"\n"), 0o644)
}

// Emulate starts creating and removing pins in response to writes to the
// export and unexport control files.
func (s *Sysfs) Emulate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return errors.New("already emulating")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = w.Add(s.Root); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	s.done = make(chan struct{})
	go s.emulate(w, s.done)
	return nil
}

// Close stops any emulation.
func (s *Sysfs) Close() error {
	s.mu.Lock()
	w, done := s.watcher, s.done
	s.watcher = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

func (s *Sysfs) emulate(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case evt, ok := <-w.Events:
			if !ok {
				return
			}
			if !evt.Has(fsnotify.Write) {
				continue
			}
			switch filepath.Base(evt.Name) {
			case "export":
				if n, ok := s.control("export"); ok && !s.exported(n) {
					s.AddPin(n)
				}
			case "unexport":
				if n, ok := s.control("unexport"); ok {
					s.RemovePin(n)
				}
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *Sysfs) exported(n int) bool {
	_, err := os.Stat(s.PinDir(n))
	return err == nil
}

// control returns the pin number last written to the control file.
func (s *Sysfs) control(name string) (int, bool) {
	v, err := s.Read(-1, name)
	if err != nil || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}
