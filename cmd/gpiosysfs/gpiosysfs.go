// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/sysfsgpio"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("root", sysfsgpio.DefaultRoot, "sysfs GPIO class directory")
	pf.StringP("config-file", "c", "", "JSON configuration file")
	pf.String("log-level", "warning", "log level (panic|fatal|error|warning|info|debug|trace)")
	pf.Duration("export-timeout", sysfsgpio.DefaultExportTimeout, "time to wait for an exported pin to become accessible")
}

var rootCmd = &cobra.Command{
	Use:   "gpiosysfs",
	Short: "gpiosysfs is a utility to control GPIO pins via sysfs",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "gpiosysfs %s: %s\n", cmd.Name(), err)
}

var extendedPinHelp = `
Pins:
  Pins are identified by their kernel GPIO number.
  Pins are exported as required and are left exported on exit.
`

// newRegistry creates a Registry configured from the command's flags, the
// environment, and the config file.
func newRegistry(cmd *cobra.Command) (*sysfsgpio.Registry, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.MustGet("log.level").String())
	if err != nil {
		return nil, err
	}
	return sysfsgpio.NewRegistry(
		sysfsgpio.WithRoot(cfg.MustGet("root").String()),
		sysfsgpio.WithLogger(log.WithField("prefix", cmd.Name())),
		sysfsgpio.WithExportTimeout(cfg.MustGet("export.timeout").Duration()))
}

func parsePins(args []string) ([]int, error) {
	nn := []int(nil)
	for _, arg := range args {
		n, err := sysfsgpio.ParsePin(arg)
		if err != nil {
			return nil, err
		}
		nn = append(nn, n)
	}
	return nn, nil
}

// exportPins exports each of the pins with the same options.
func exportPins(reg *sysfsgpio.Registry, nn []int, options ...sysfsgpio.PinOption) ([]*sysfsgpio.Pin, error) {
	pp := make([]*sysfsgpio.Pin, len(nn))
	for i, n := range nn {
		pin, err := reg.Export(n, options...)
		if err != nil {
			return nil, err
		}
		pp[i] = pin
	}
	return pp, nil
}
