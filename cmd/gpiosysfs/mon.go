// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/sysfsgpio"
)

func init() {
	monCmd.Flags().BoolVarP(&monOpts.ActiveLow, "active-low", "l", false, "treat the line state as active low")
	monCmd.Flags().BoolVarP(&monOpts.FallingEdge, "falling-edge", "f", false, "detect only falling edge events")
	monCmd.Flags().BoolVarP(&monOpts.RisingEdge, "rising-edge", "r", false, "detect only rising edge events")
	monCmd.Flags().UintVarP(&monOpts.NumEvents, "num-events", "n", 0, "exit after n edges")
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display event details")
	monCmd.SetHelpTemplate(monCmd.HelpTemplate() + extendedMonHelp)
	rootCmd.AddCommand(monCmd)
}

var extendedMonHelp = extendedPinHelp + `
By default both rising and falling edge events are detected and reported.
`

var (
	monCmd = &cobra.Command{
		Use:   "mon <pin1>...",
		Short: "Monitor the level of a pin or pins",
		Long:  `Wait for edge events on GPIO pins and print them to standard output.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  mon,
	}
	monOpts = struct {
		ActiveLow   bool
		RisingEdge  bool
		FallingEdge bool
		Quiet       bool
		NumEvents   uint
	}{}
)

func mon(cmd *cobra.Command, args []string) error {
	if monOpts.RisingEdge && monOpts.FallingEdge {
		return errors.New("can't filter both falling-edge and rising-edge events")
	}
	nn, err := parsePins(args)
	if err != nil {
		return err
	}
	edge := sysfsgpio.EdgeBoth
	switch {
	case monOpts.RisingEdge:
		edge = sysfsgpio.EdgeRising
	case monOpts.FallingEdge:
		edge = sysfsgpio.EdgeFalling
	}
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	// active low is applied by the kernel, so edges are in terms of the
	// logical level.
	pp, err := exportPins(reg, nn,
		sysfsgpio.WithDirection(sysfsgpio.DirectionIn),
		sysfsgpio.WithInvert(monOpts.ActiveLow),
		sysfsgpio.WithEdge(edge))
	if err != nil {
		return err
	}
	evtchan := make(chan sysfsgpio.Interrupt)
	for _, pin := range pp {
		go func(irqs <-chan sysfsgpio.Interrupt) {
			for irq := range irqs {
				evtchan <- irq
			}
		}(pin.Interrupts())
	}
	monWait(evtchan)
	return nil
}

func monWait(evtchan <-chan sysfsgpio.Interrupt) {
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt)
	defer signal.Stop(sigdone)
	count := uint(0)
	for {
		select {
		case evt := <-evtchan:
			if !monOpts.Quiet {
				fmt.Printf("event:%3d %-7s %s\n", evt.Pin, edgeName(evt), evt.Time.Format(time.RFC3339Nano))
			}
			count++
			if monOpts.NumEvents > 0 && count >= monOpts.NumEvents {
				return
			}
		case <-sigdone:
			return
		}
	}
}

// edgeName returns the edge implied by the level following the interrupt.
// An Interrupt Value of 1 indicates a low level.
func edgeName(evt sysfsgpio.Interrupt) string {
	if evt.Value == 1 {
		return "falling"
	}
	return "rising"
}
