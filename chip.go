// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sysfsgpio

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// Chip describes a GPIO controller.
type Chip struct {
	Name string
	// The first GPIO number managed by the chip.
	Base int
	// Provided for diagnostics, not always unique.
	Label string
	// The chip manages pins Base to Base+Ngpio-1.
	Ngpio int
}

// Controllers returns the GPIO controllers available, ordered by base.
func (r *Registry) Controllers() ([]Chip, error) {
	entries, err := os.ReadDir(r.fs.root)
	if err != nil {
		return nil, ioError("read", r.fs.root, err)
	}
	var chips []Chip
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "gpiochip") {
			continue
		}
		chip, err := r.chip(e.Name())
		if err != nil {
			return nil, err
		}
		chips = append(chips, chip)
	}
	sort.Slice(chips, func(i, j int) bool { return chips[i].Base < chips[j].Base })
	return chips, nil
}

// Controller returns the GPIO controller gpiochipN, where N is its base.
func (r *Registry) Controller(n int) (Chip, error) {
	return r.chip("gpiochip" + strconv.Itoa(n))
}

func (r *Registry) chip(name string) (Chip, error) {
	chip := Chip{Name: name}
	var err error
	if chip.Base, err = r.chipInt(name, "base"); err != nil {
		return chip, err
	}
	if chip.Label, err = r.fs.read(r.fs.path(name, "label")); err != nil {
		return chip, err
	}
	chip.Ngpio, err = r.chipInt(name, "ngpio")
	return chip, err
}

func (r *Registry) chipInt(name, attr string) (int, error) {
	path := r.fs.path(name, attr)
	s, err := r.fs.read(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, ioError("read", path, err)
	}
	return v, nil
}
