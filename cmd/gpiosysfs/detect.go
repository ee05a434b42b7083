// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List the GPIO controllers",
	Args:  cobra.NoArgs,
	RunE:  detect,
}

func detect(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	defer reg.Close()
	chips, err := reg.Controllers()
	if err != nil {
		return err
	}
	for _, c := range chips {
		fmt.Printf("%s [%s] (%d lines from %d)\n", c.Name, c.Label, c.Ngpio, c.Base)
	}
	return nil
}
