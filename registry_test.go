// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Test suite for registry module.
//
// Tests run against a fake sysfs tree and poller, so need no hardware.
package sysfsgpio_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/sysfsgpio"
	"github.com/warthog618/sysfsgpio/internal/fakesysfs"
)

func setup(t *testing.T, pins []int, options ...sysfsgpio.Option) (*sysfsgpio.Registry, *fakesysfs.Sysfs, *fakesysfs.Poller) {
	t.Helper()
	sfs, err := fakesysfs.New(t.TempDir())
	require.Nil(t, err)
	t.Cleanup(func() { sfs.Close() })
	for _, n := range pins {
		require.Nil(t, sfs.AddPin(n))
	}
	var fp *fakesysfs.Poller
	options = append([]sysfsgpio.Option{
		sysfsgpio.WithRoot(sfs.Root),
		sysfsgpio.WithPoller(func(h sysfsgpio.ReadyHandler, eh sysfsgpio.ErrorHandler) (sysfsgpio.Poller, error) {
			fp = fakesysfs.NewPoller(h, eh)
			return fp, nil
		}),
	}, options...)
	reg, err := sysfsgpio.NewRegistry(options...)
	require.Nil(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg, sfs, fp
}

func readCtrl(t *testing.T, sfs *fakesysfs.Sysfs, name string) string {
	t.Helper()
	v, err := sfs.Read(-1, name)
	require.Nil(t, err)
	return v
}

func clearCtrl(t *testing.T, sfs *fakesysfs.Sysfs, name string) {
	t.Helper()
	require.Nil(t, os.WriteFile(filepath.Join(sfs.Root, name), nil, 0o600))
}

func TestParsePin(t *testing.T) {
	patterns := []struct {
		name string
		in   string
		pin  int
		err  error
	}{
		{"number", "17", 17, nil},
		{"zero", "0", 0, nil},
		{"padded", " 4\n", 4, nil},
		{"text", "gpio4", 0, sysfsgpio.ErrInvalidPin},
		{"negative", "-1", 0, sysfsgpio.ErrInvalidPin},
		{"float", "1.5", 0, sysfsgpio.ErrInvalidPin},
		{"empty", "", 0, sysfsgpio.ErrInvalidPin},
	}
	for _, p := range patterns {
		t.Run(p.name, func(t *testing.T) {
			pin, err := sysfsgpio.ParsePin(p.in)
			assert.ErrorIs(t, err, p.err)
			assert.Equal(t, p.pin, pin)
		})
	}
}

func TestExportInvalid(t *testing.T) {
	reg, _, _ := setup(t, nil)
	pin, err := reg.Export(-1)
	assert.ErrorIs(t, err, sysfsgpio.ErrInvalidPin)
	assert.Nil(t, pin)
}

func TestExportExported(t *testing.T) {
	reg, sfs, fp := setup(t, []int{17})
	pin, err := reg.Export(17)
	require.Nil(t, err)
	require.NotNil(t, pin)
	assert.Equal(t, 17, pin.Number())
	assert.True(t, pin.IsExported())
	assert.True(t, pin.Watched())
	assert.Len(t, fp.Fds(), 1)
	// already exported, so no request to the kernel
	assert.Equal(t, "", readCtrl(t, sfs, "export"))
	p, ok := reg.Pin(17)
	assert.True(t, ok)
	assert.Same(t, pin, p)
}

func TestExport(t *testing.T) {
	reg, sfs, fp := setup(t, nil)
	require.Nil(t, sfs.Emulate())
	pin, err := reg.Export(17)
	require.Nil(t, err)
	assert.Equal(t, "17", readCtrl(t, sfs, "export"))
	assert.True(t, pin.IsExported())
	assert.Len(t, fp.Fds(), 1)
}

func TestExportTwice(t *testing.T) {
	reg, sfs, fp := setup(t, nil)
	require.Nil(t, sfs.Emulate())
	pin, err := reg.Export(17)
	require.Nil(t, err)
	clearCtrl(t, sfs, "export")
	pin2, err := reg.Export(17)
	require.Nil(t, err)
	assert.Same(t, pin, pin2)
	// no second kernel export
	assert.Equal(t, "", readCtrl(t, sfs, "export"))
	assert.Len(t, fp.Fds(), 1)
}

func TestExportConcurrent(t *testing.T) {
	reg, sfs, fp := setup(t, nil)
	require.Nil(t, sfs.Emulate())
	const count = 10
	pins := make([]*sysfsgpio.Pin, count)
	errs := make([]error, count)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pins[i], errs[i] = reg.Export(12)
		}(i)
	}
	wg.Wait()
	for i := 0; i < count; i++ {
		require.Nil(t, errs[i])
		assert.Same(t, pins[0], pins[i])
	}
	assert.Len(t, fp.Fds(), 1)
}

func TestExportOptions(t *testing.T) {
	reg, sfs, _ := setup(t, []int{17})
	pin, err := reg.Export(17,
		sysfsgpio.WithDirection(sysfsgpio.DirectionOut),
		sysfsgpio.WithInvert(false))
	require.Nil(t, err)
	v, err := sfs.Read(17, "direction")
	assert.Nil(t, err)
	assert.Equal(t, "out", v)
	v, err = sfs.Read(17, "active_low")
	assert.Nil(t, err)
	assert.Equal(t, "0", v)
	v, err = sfs.Read(17, "edge")
	assert.Nil(t, err)
	assert.Equal(t, "none", v)

	assert.Nil(t, pin.Set(1))
	val, err := pin.Value()
	assert.Nil(t, err)
	assert.Equal(t, 1, val)
}

func TestExportOptionsEdge(t *testing.T) {
	reg, sfs, _ := setup(t, []int{4})
	_, err := reg.Export(4,
		sysfsgpio.WithDirection(sysfsgpio.DirectionIn),
		sysfsgpio.WithInvert(true),
		sysfsgpio.WithEdge(sysfsgpio.EdgeBoth))
	require.Nil(t, err)
	v, _ := sfs.Read(4, "direction")
	assert.Equal(t, "in", v)
	v, _ = sfs.Read(4, "active_low")
	assert.Equal(t, "1", v)
	v, _ = sfs.Read(4, "edge")
	assert.Equal(t, "both", v)
}

func TestExportRepeatIgnoresOptions(t *testing.T) {
	reg, sfs, _ := setup(t, []int{17})
	pin, err := reg.Export(17, sysfsgpio.WithDirection(sysfsgpio.DirectionOut))
	require.Nil(t, err)
	pin2, err := reg.Export(17, sysfsgpio.WithDirection(sysfsgpio.DirectionIn))
	require.Nil(t, err)
	assert.Same(t, pin, pin2)
	v, _ := sfs.Read(17, "direction")
	assert.Equal(t, "out", v)
}

func TestExportPartialFailure(t *testing.T) {
	reg, sfs, fp := setup(t, []int{5})
	// pin without interrupt support
	require.Nil(t, os.Remove(filepath.Join(sfs.PinDir(5), "edge")))
	pin, err := reg.Export(5,
		sysfsgpio.WithDirection(sysfsgpio.DirectionOut),
		sysfsgpio.WithEdge(sysfsgpio.EdgeBoth))
	assert.Nil(t, pin)
	var ioErr *sysfsgpio.IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	// direction is not rolled back
	v, _ := sfs.Read(5, "direction")
	assert.Equal(t, "out", v)
	assert.Empty(t, fp.Fds())
	_, ok := reg.Pin(5)
	assert.False(t, ok)

	// and a retry repeats the configuration
	require.Nil(t, sfs.Write(5, "edge", "none"))
	pin, err = reg.Export(5,
		sysfsgpio.WithDirection(sysfsgpio.DirectionIn),
		sysfsgpio.WithEdge(sysfsgpio.EdgeBoth))
	require.Nil(t, err)
	v, _ = sfs.Read(5, "direction")
	assert.Equal(t, "in", v)
	assert.True(t, pin.Watched())
}

func TestExportPlatformUnsupported(t *testing.T) {
	reg, sfs, _ := setup(t, nil)
	require.Nil(t, os.Remove(filepath.Join(sfs.Root, "export")))
	pin, err := reg.Export(17)
	assert.Nil(t, pin)
	assert.ErrorIs(t, err, sysfsgpio.ErrPlatformUnsupported)
	var ioErr *sysfsgpio.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestExportTimeout(t *testing.T) {
	// no emulation so the pin never appears.
	reg, sfs, _ := setup(t, nil, sysfsgpio.WithExportTimeout(10*time.Millisecond))
	pin, err := reg.Export(9)
	assert.Nil(t, pin)
	var ioErr *sysfsgpio.IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "9", readCtrl(t, sfs, "export"))
}

func TestExportWatchFailure(t *testing.T) {
	reg, sfs, _ := setup(t, []int{3})
	// value that cannot be read
	require.Nil(t, os.Remove(filepath.Join(sfs.PinDir(3), "value")))
	require.Nil(t, os.Mkdir(filepath.Join(sfs.PinDir(3), "value"), 0o755))
	pin, err := reg.Export(3)
	assert.Nil(t, pin)
	var ioErr *sysfsgpio.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestClose(t *testing.T) {
	reg, sfs, fp := setup(t, []int{17})
	pin, err := reg.Export(17, sysfsgpio.WithDirection(sysfsgpio.DirectionOut))
	require.Nil(t, err)
	require.Nil(t, reg.Close())
	assert.True(t, fp.Closed())
	assert.False(t, pin.Watched())
	_, ok := reg.Pin(17)
	assert.False(t, ok)

	_, err = pin.Value()
	assert.ErrorIs(t, err, sysfsgpio.ErrClosed)
	var ioErr *sysfsgpio.IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, pin.Set(1), sysfsgpio.ErrClosed)
	_, err = pin.Direction()
	assert.ErrorIs(t, err, sysfsgpio.ErrClosed)

	_, ok = <-pin.Interrupts()
	assert.False(t, ok)

	_, err = reg.Export(17)
	assert.ErrorIs(t, err, sysfsgpio.ErrClosed)

	// idempotent
	assert.Nil(t, reg.Close())

	// still possible to release the pin
	assert.Nil(t, pin.Unexport())
	assert.Equal(t, "17", readCtrl(t, sfs, "unexport"))
}

func TestControllers(t *testing.T) {
	reg, sfs, _ := setup(t, nil)
	chips, err := reg.Controllers()
	assert.Nil(t, err)
	assert.Empty(t, chips)

	require.Nil(t, sfs.AddChip(504, 8, "raspberrypi-exp-gpio"))
	require.Nil(t, sfs.AddChip(0, 54, "pinctrl-bcm2835"))
	chips, err = reg.Controllers()
	assert.Nil(t, err)
	assert.Equal(t, []sysfsgpio.Chip{
		{Name: "gpiochip0", Base: 0, Label: "pinctrl-bcm2835", Ngpio: 54},
		{Name: "gpiochip504", Base: 504, Label: "raspberrypi-exp-gpio", Ngpio: 8},
	}, chips)

	chip, err := reg.Controller(504)
	assert.Nil(t, err)
	assert.Equal(t, 8, chip.Ngpio)

	_, err = reg.Controller(32)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewRegistryPollerFailure(t *testing.T) {
	perr := errors.New("no poll for you")
	reg, err := sysfsgpio.NewRegistry(
		sysfsgpio.WithRoot(t.TempDir()),
		sysfsgpio.WithPoller(func(h sysfsgpio.ReadyHandler, eh sysfsgpio.ErrorHandler) (sysfsgpio.Poller, error) {
			return nil, perr
		}))
	assert.Nil(t, reg)
	assert.ErrorIs(t, err, perr)
}

func TestRegistryUnexport(t *testing.T) {
	reg, sfs, fp := setup(t, []int{8, 17})

	// not exported, so nothing to do
	assert.Nil(t, reg.Unexport(9))
	assert.Equal(t, "", readCtrl(t, sfs, "export"))
	assert.Equal(t, "", readCtrl(t, sfs, "unexport"))
	assert.Empty(t, fp.Fds())

	// exported, but not by the registry
	assert.Nil(t, reg.Unexport(8))
	assert.Equal(t, "8", readCtrl(t, sfs, "unexport"))
	assert.Empty(t, fp.Fds())

	// exported by the registry
	pin, err := reg.Export(17)
	require.Nil(t, err)
	assert.Nil(t, reg.Unexport(17))
	assert.Equal(t, "17", readCtrl(t, sfs, "unexport"))
	assert.False(t, pin.Watched())
	_, ok := reg.Pin(17)
	assert.False(t, ok)

	assert.ErrorIs(t, reg.Unexport(-1), sysfsgpio.ErrInvalidPin)

	require.Nil(t, os.Remove(filepath.Join(sfs.Root, "unexport")))
	assert.ErrorIs(t, reg.Unexport(8), sysfsgpio.ErrPlatformUnsupported)
}
