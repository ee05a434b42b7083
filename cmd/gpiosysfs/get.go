// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/sysfsgpio"
)

func init() {
	getCmd.Flags().BoolVarP(&getOpts.ActiveLow, "active-low", "l", false, "treat the line level as active low")
	getCmd.Flags().BoolVarP(&getOpts.Input, "input", "i", false, "set the pin to input before reading")
	getCmd.Flags().BoolVarP(&getOpts.Short, "short", "s", false, "single line output format")
	getCmd.SetHelpTemplate(getCmd.HelpTemplate() + extendedPinHelp)
	rootCmd.AddCommand(getCmd)
}

var (
	getCmd = &cobra.Command{
		Use:     "get <pin1>...",
		Short:   "Read the level of a pin or pins",
		Example: "  gpiosysfs get 23 17",
		Args:    cobra.MinimumNArgs(1),
		RunE:    get,
	}
	getOpts = struct {
		ActiveLow bool
		Input     bool
		Short     bool
	}{}
)

func get(cmd *cobra.Command, args []string) error {
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	var options []sysfsgpio.PinOption
	if getOpts.Input {
		options = append(options, sysfsgpio.WithDirection(sysfsgpio.DirectionIn))
	}
	if cmd.Flags().Changed("active-low") {
		options = append(options, sysfsgpio.WithInvert(getOpts.ActiveLow))
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	pp, err := exportPins(reg, nn, options...)
	if err != nil {
		return err
	}
	vv := make([]int, len(pp))
	for i, pin := range pp {
		if vv[i], err = pin.Value(); err != nil {
			return err
		}
	}
	if getOpts.Short {
		printValuesShort(vv)
	} else {
		printValues(nn, vv)
	}
	return nil
}

func printValues(nn []int, vv []int) {
	for i, n := range nn {
		fmt.Printf("pin %3d: %d\n", n, vv[i])
	}
}

func printValuesShort(vv []int) {
	fmt.Printf("%d", vv[0])
	for _, v := range vv[1:] {
		fmt.Printf(" %d", v)
	}
	fmt.Println()
}
