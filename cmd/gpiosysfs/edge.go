// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/sysfsgpio"
)

func init() {
	edgeCmd.Flags().BoolVarP(&edgeOpts.Rising, "rising", "r", false, "interrupt on rising edges")
	edgeCmd.Flags().BoolVarP(&edgeOpts.Falling, "falling", "f", false, "interrupt on falling edges")
	edgeCmd.Flags().BoolVarP(&edgeOpts.Both, "both", "b", false, "interrupt on both edges")
	edgeCmd.Flags().BoolVarP(&edgeOpts.None, "none", "n", false, "disable interrupts")
	edgeCmd.SetHelpTemplate(edgeCmd.HelpTemplate() + extendedPinHelp)
	rootCmd.AddCommand(edgeCmd)
}

var (
	edgeCmd = &cobra.Command{
		Use:     "edge <pin1>...",
		Short:   "Read or set the interrupt edge of a pin or pins",
		Long:    `Without an edge flag the current edge of each pin is printed.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preedge,
		RunE:    edge,
		Example: "  gpiosysfs edge -b 17 27",
	}
	edgeOpts = struct {
		Rising  bool
		Falling bool
		Both    bool
		None    bool
	}{}
)

func preedge(cmd *cobra.Command, args []string) error {
	count := 0
	for _, f := range []bool{edgeOpts.Rising, edgeOpts.Falling, edgeOpts.Both, edgeOpts.None} {
		if f {
			count++
		}
	}
	if count > 1 {
		return errors.New("must specify only one edge")
	}
	return nil
}

func edge(cmd *cobra.Command, args []string) error {
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	var e sysfsgpio.Edge
	switch {
	case edgeOpts.Rising:
		e = sysfsgpio.EdgeRising
	case edgeOpts.Falling:
		e = sysfsgpio.EdgeFalling
	case edgeOpts.Both:
		e = sysfsgpio.EdgeBoth
	case edgeOpts.None:
		e = sysfsgpio.EdgeNone
	}
	var options []sysfsgpio.PinOption
	if e != "" {
		options = append(options, sysfsgpio.WithEdge(e))
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	pp, err := exportPins(reg, nn, options...)
	if err != nil || e != "" {
		return err
	}
	for i, pin := range pp {
		pe, err := pin.Edge()
		if err != nil {
			return err
		}
		fmt.Printf("pin %3d: %s\n", nn[i], pe)
	}
	return nil
}

func parseEdge(arg string) (sysfsgpio.Edge, error) {
	switch e := sysfsgpio.Edge(strings.ToLower(arg)); e {
	case sysfsgpio.EdgeNone, sysfsgpio.EdgeRising, sysfsgpio.EdgeFalling, sysfsgpio.EdgeBoth:
		return e, nil
	}
	return "", fmt.Errorf("can't parse edge '%s'", arg)
}
