// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultRoot is the kernel's sysfs GPIO class directory.
const DefaultRoot = "/sys/class/gpio"

// Names of the sysfs attribute files.
const (
	attrValue     = "value"
	attrDirection = "direction"
	attrEdge      = "edge"
	attrActiveLow = "active_low"
	ctrlExport    = "export"
	ctrlUnexport  = "unexport"
)

// sysfs provides uncached, single attempt access to the attribute files
// below a GPIO class directory.
type sysfs struct {
	root string
}

func (s sysfs) path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

func (s sysfs) pinPath(pin int, attr string) string {
	return filepath.Join(s.root, "gpio"+strconv.Itoa(pin), attr)
}

// read returns the trimmed content of the file.
func (s sysfs) read(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", ioError("read", path, err)
	}
	return strings.TrimSpace(string(buf)), nil
}

// write replaces the content of an existing file with value.
func (s sysfs) write(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return ioError("write", path, err)
	}
	_, err = f.WriteString(value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ioError("write", path, err)
	}
	return nil
}

func (s sysfs) exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s sysfs) writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

func boolText(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
