// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrInvalidPin indicates a pin number that is not a non-negative integer.
	ErrInvalidPin = errors.New("invalid pin number")

	// ErrPlatformUnsupported indicates the host lacks the sysfs GPIO
	// control files.
	ErrPlatformUnsupported = errors.New("sysfs GPIO not supported")

	// ErrClosed indicates the Registry owning the pin has been closed.
	ErrClosed = errors.New("registry closed")
)

// IOError is returned for any failure accessing sysfs, opening a value file,
// or registering with the poller.
//
// The underlying error is available via errors.Unwrap, so
// errors.Is(err, fs.ErrNotExist) and friends work as expected.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	if pe, ok := err.(*fs.PathError); ok && pe.Path == path {
		err = pe.Err
	}
	return &IOError{Op: op, Path: path, Err: err}
}
