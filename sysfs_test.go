// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysfsPaths(t *testing.T) {
	s := sysfs{root: "/sys/class/gpio"}
	assert.Equal(t, "/sys/class/gpio/export", s.path(ctrlExport))
	assert.Equal(t, "/sys/class/gpio/gpiochip0/base", s.path("gpiochip0", "base"))
	assert.Equal(t, "/sys/class/gpio/gpio17/value", s.pinPath(17, attrValue))
}

func TestSysfsReadWrite(t *testing.T) {
	s := sysfs{root: t.TempDir()}
	path := s.path("attr")

	_, err := s.read(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)
	assert.Equal(t, path, ioErr.Path)
	assert.Equal(t, "read "+path+": no such file or directory", err.Error())

	// files are never created
	err = s.write(path, "1")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, s.exists(path))

	require.Nil(t, os.WriteFile(path, []byte(" both \n"), 0o644))
	assert.True(t, s.exists(path))
	assert.True(t, s.writable(path))
	v, err := s.read(path)
	assert.Nil(t, err)
	assert.Equal(t, "both", v)

	// content is replaced, not appended
	assert.Nil(t, s.write(path, "in"))
	buf, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "in", string(buf))
}

func TestSysfsWritable(t *testing.T) {
	s := sysfs{root: t.TempDir()}
	assert.False(t, s.writable(s.path("missing")))
	assert.True(t, s.writable(s.root))
	path := filepath.Join(s.root, "ro")
	require.Nil(t, os.WriteFile(path, nil, 0o444))
	if os.Geteuid() != 0 {
		assert.False(t, s.writable(path))
	}
}

func TestBoolText(t *testing.T) {
	assert.Equal(t, "1", boolText(true))
	assert.Equal(t, "0", boolText(false))
}

func TestIOError(t *testing.T) {
	err := ioError("poller", "", errors.New("boom"))
	assert.Equal(t, "poller: boom", err.Error())

	err = ioError("unexport", "/x/unexport", ErrClosed)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, "unexport /x/unexport: registry closed", err.Error())

	// PathErrors for other paths are kept intact
	pe := &fs.PathError{Op: "stat", Path: "/y", Err: fs.ErrNotExist}
	err = ioError("export", "/x/export", pe)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var target *fs.PathError
	assert.True(t, errors.As(err, &target))
}
