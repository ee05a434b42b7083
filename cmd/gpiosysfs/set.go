// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/sysfsgpio"
)

func init() {
	setCmd.Flags().BoolVarP(&setOpts.ActiveLow, "active-low", "l", false, "treat the line level as active low")
	setCmd.SetHelpTemplate(setCmd.HelpTemplate() + extendedSetHelp)
	rootCmd.AddCommand(setCmd)
	toggleCmd.SetHelpTemplate(toggleCmd.HelpTemplate() + extendedPinHelp)
	rootCmd.AddCommand(toggleCmd)
}

var (
	setCmd = &cobra.Command{
		Use:     "set <pin1>=<level1>...",
		Short:   "Set the level of a pin or pins",
		Args:    cobra.MinimumNArgs(1),
		RunE:    set,
		Example: "  gpiosysfs set 17=high 27=0",
	}
	setOpts = struct {
		ActiveLow bool
	}{}
	toggleCmd = &cobra.Command{
		Use:     "toggle <pin1>...",
		Short:   "Toggle the level of a pin or pins",
		Long:    `Toggle the level of output pins and print the levels prior to the toggle.`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    toggle,
		Example: "  gpiosysfs toggle 17",
	}
)

var extendedSetHelp = extendedPinHelp + `
Levels:
  Levels may be [high|hi|true|1|low|lo|false|0] and are case insensitive.

Note that setting a pin forces it into output mode.
`

func set(cmd *cobra.Command, args []string) error {
	nn := []int(nil)
	vv := []int(nil)
	for _, arg := range args {
		n, v, err := parsePinLevel(arg)
		if err != nil {
			return err
		}
		nn = append(nn, n)
		vv = append(vv, v)
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	options := []sysfsgpio.PinOption{sysfsgpio.WithDirection(sysfsgpio.DirectionOut)}
	if cmd.Flags().Changed("active-low") {
		options = append(options, sysfsgpio.WithInvert(setOpts.ActiveLow))
	}
	pp, err := exportPins(reg, nn, options...)
	if err != nil {
		return err
	}
	for i, pin := range pp {
		if err = pin.Set(vv[i]); err != nil {
			return err
		}
	}
	return nil
}

func toggle(cmd *cobra.Command, args []string) error {
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	pp, err := exportPins(reg, nn)
	if err != nil {
		return err
	}
	vv := make([]int, len(pp))
	for i, pin := range pp {
		if vv[i], err = pin.Toggle(); err != nil {
			return err
		}
	}
	printValuesShort(vv)
	return nil
}

func parsePinLevel(arg string) (int, int, error) {
	aa := strings.Split(arg, "=")
	if len(aa) != 2 {
		return 0, 0, fmt.Errorf("invalid pin<->level mapping: %s", arg)
	}
	n, err := sysfsgpio.ParsePin(aa[0])
	if err != nil {
		return 0, 0, err
	}
	v, err := parseLevel(aa[1])
	if err != nil {
		return 0, 0, err
	}
	return n, v, nil
}

func parseLevel(arg string) (int, error) {
	if l, ok := levelNames[strings.ToLower(arg)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("can't parse level '%s'", arg)
}

var levelNames = map[string]int{
	"high":  1,
	"hi":    1,
	"true":  1,
	"1":     1,
	"low":   0,
	"lo":    0,
	"false": 0,
	"0":     0,
}
