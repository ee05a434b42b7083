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
	directionCmd.Flags().StringVarP(&directionOpts.Set, "set", "d", "", "set the direction [in|out]")
	directionCmd.Flags().BoolVarP(&directionOpts.Short, "short", "s", false, "single line output format")
	directionCmd.SetHelpTemplate(directionCmd.HelpTemplate() + extendedPinHelp)
	rootCmd.AddCommand(directionCmd)
}

var (
	directionCmd = &cobra.Command{
		Use:     "direction <pin1>...",
		Short:   "Read or set the direction of a pin or pins",
		Args:    cobra.MinimumNArgs(1),
		RunE:    direction,
		Example: "  gpiosysfs direction 17\n  gpiosysfs direction -d out 17 27",
	}
	directionOpts = struct {
		Set   string
		Short bool
	}{}
)

func direction(cmd *cobra.Command, args []string) error {
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	var options []sysfsgpio.PinOption
	if directionOpts.Set != "" {
		dir, err := parseDirection(directionOpts.Set)
		if err != nil {
			return err
		}
		options = append(options, sysfsgpio.WithDirection(dir))
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
	if directionOpts.Set != "" {
		return nil
	}
	dd := make([]sysfsgpio.Direction, len(pp))
	for i, pin := range pp {
		if dd[i], err = pin.Direction(); err != nil {
			return err
		}
	}
	if directionOpts.Short {
		ss := make([]string, len(dd))
		for i, d := range dd {
			ss[i] = string(d)
		}
		fmt.Println(strings.Join(ss, " "))
		return nil
	}
	for i, n := range nn {
		fmt.Printf("pin %3d: %s\n", n, dd[i])
	}
	return nil
}

func parseDirection(arg string) (sysfsgpio.Direction, error) {
	switch d := sysfsgpio.Direction(strings.ToLower(arg)); d {
	case sysfsgpio.DirectionIn, sysfsgpio.DirectionOut:
		return d, nil
	}
	return "", fmt.Errorf("can't parse direction '%s'", arg)
}
