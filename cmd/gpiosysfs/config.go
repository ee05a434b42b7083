// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/sysfsgpio"
)

// Map from command line flag to config key.
var flagKeys = map[string]string{
	"root":           "root",
	"config-file":    "config.file",
	"log-level":      "log.level",
	"export-timeout": "export.timeout",
}

// loadConfig builds the configuration from, in order of priority, the
// flags set on the command line, GPIOSYSFS_ prefixed environment
// variables, the config file, and the defaults.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	defaultConfig := map[string]interface{}{
		"root":           sysfsgpio.DefaultRoot,
		"log.level":      "warning",
		"export.timeout": sysfsgpio.DefaultExportTimeout.String(),
	}
	def := dict.New(dict.WithMap(defaultConfig))
	set := map[string]interface{}{}
	flags.Visit(func(f *pflag.Flag) {
		if k, ok := flagKeys[f.Name]; ok {
			set[k] = f.Value.String()
		}
	})
	// highest priority sources first - flags override environment
	cfg := config.New(
		dict.New(dict.WithMap(set)),
		env.New(env.WithEnvPrefix("GPIOSYSFS_")),
		config.WithDefault(def))
	// an explicitly requested file must exist, else it is optional
	if v, err := cfg.Get("config.file"); err == nil {
		if _, err := os.Stat(v.String()); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "gpiosysfs.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	// durations are only converted on use, so check early
	if _, err := time.ParseDuration(cfg.MustGet("export.timeout").String()); err != nil {
		return nil, fmt.Errorf("config: export.timeout: %w", err)
	}
	return cfg, nil
}
