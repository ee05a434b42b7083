// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"github.com/spf13/cobra"
	"github.com/warthog618/sysfsgpio"
)

func init() {
	exportCmd.Flags().StringVarP(&exportOpts.Direction, "direction", "d", "", "set the direction [in|out]")
	exportCmd.Flags().StringVarP(&exportOpts.Edge, "edge", "e", "", "set the interrupt edge [none|rising|falling|both]")
	exportCmd.Flags().BoolVarP(&exportOpts.ActiveLow, "active-low", "l", false, "set the pin active low")
	exportCmd.SetHelpTemplate(exportCmd.HelpTemplate() + extendedPinHelp)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(unexportCmd)
}

var (
	exportCmd = &cobra.Command{
		Use:     "export <pin1>...",
		Short:   "Export a pin or pins",
		Args:    cobra.MinimumNArgs(1),
		RunE:    export,
		Example: "  gpiosysfs export -d in -e both 17 27",
	}
	exportOpts = struct {
		Direction string
		Edge      string
		ActiveLow bool
	}{}
	unexportCmd = &cobra.Command{
		Use:     "unexport <pin1>...",
		Short:   "Unexport a pin or pins",
		Args:    cobra.MinimumNArgs(1),
		RunE:    unexport,
		Example: "  gpiosysfs unexport 17 27",
	}
)

func export(cmd *cobra.Command, args []string) error {
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	var options []sysfsgpio.PinOption
	if exportOpts.Direction != "" {
		dir, err := parseDirection(exportOpts.Direction)
		if err != nil {
			return err
		}
		options = append(options, sysfsgpio.WithDirection(dir))
	}
	if cmd.Flags().Changed("active-low") {
		options = append(options, sysfsgpio.WithInvert(exportOpts.ActiveLow))
	}
	if exportOpts.Edge != "" {
		edge, err := parseEdge(exportOpts.Edge)
		if err != nil {
			return err
		}
		options = append(options, sysfsgpio.WithEdge(edge))
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	_, err = exportPins(reg, nn, options...)
	return err
}

func unexport(cmd *cobra.Command, args []string) error {
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	for _, n := range nn {
		if err = reg.Unexport(n); err != nil {
			return err
		}
	}
	return nil
}
