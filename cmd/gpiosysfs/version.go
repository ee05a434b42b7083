// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

// Overridden at build time with -ldflags "-X main.version=..."
var version = "undefined"
