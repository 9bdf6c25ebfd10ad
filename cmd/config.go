package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maddsua/pingline"
	"github.com/maddsua/pingline/config"
	"github.com/spf13/pflag"
)

const (
	defaultIntervalMs = config.DefaultInterval / time.Millisecond
	defaultTimeout    = config.DefaultTimeout
)

var configLocations = []string{
	"./pingline.yml",
	"./pingline.yaml",
	"/etc/pingline/pingline.yml",
}

func formatChoices() string {
	return strings.Join(pingline.Formats(), ", ")
}

// resolveConfig layers defaults, the config file and explicitly set flags, in that order
func resolveConfig(flags *pflag.FlagSet, cli *CliFlags, args []string, locations []string) (config.Config, error) {

	cfg := config.Default()

	cfgPath := cli.Config
	if cfgPath == "" {
		if loc, has := config.FindConfig(locations); has {
			cfgPath = loc
		}
	}

	if cfgPath != "" {

		file, err := config.LoadConfigFile(cfgPath)
		if err != nil {
			return cfg, err
		}

		if err := cfg.ApplyFile(file); err != nil {
			return cfg, &usageError{err}
		}
	}

	if len(args) > 0 {
		cfg.Server = args[0]
	}

	if flags.Changed("interval") {
		if cli.Interval <= 0 {
			return cfg, &usageError{errors.New("interval must be a positive number of milliseconds")}
		}
		if int64(cli.Interval) > config.MaxIntervalMillis {
			return cfg, &usageError{fmt.Errorf("interval exceeds %d milliseconds", config.MaxIntervalMillis)}
		}
		cfg.Interval = time.Duration(cli.Interval) * time.Millisecond
	}

	if flags.Changed("format") {
		cfg.Format = cli.Format
	}

	if flags.Changed("driver") {
		cfg.Driver = cli.Driver
	}

	if flags.Changed("timeout") {
		cfg.Timeout = cli.Timeout
	}

	if flags.Changed("privileged") {
		cfg.Privileged = cli.Privileged
	}

	if err := cfg.Validate(); err != nil {
		return cfg, &usageError{err}
	}

	return cfg, nil
}
