package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maddsua/pingline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
)

type CliFlags struct {
	Interval   int
	Format     pingline.Format
	Driver     pingline.Driver
	Timeout    time.Duration
	Privileged bool
	Config     string
	Verbose    bool
}

// usageError marks failures caused by bad invocation
type usageError struct {
	err error
}

func (this *usageError) Error() string {
	return this.err.Error()
}

func (this *usageError) Unwrap() error {
	return this.err
}

func main() {

	godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {

		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "error: %s\nRun 'pingline --help' for usage.\n", err.Error())
			os.Exit(2)
		}

		slog.Error("Startup failed",
			slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {

	var cli CliFlags

	cmd := &cobra.Command{
		Use:     "pingline [flags] <server>",
		Short:   "Continuous ICMP echo prober",
		Long:    "Sends one ICMP echo request per interval and prints one line per probe.",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return &usageError{fmt.Errorf("expected a single server address, got %d arguments", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &cli, args)
		},
	}

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	registerFlags(cmd.Flags(), &cli)

	return cmd
}

func registerFlags(flags *pflag.FlagSet, cli *CliFlags) {
	flags.IntVarP(&cli.Interval, "interval", "i", int(defaultIntervalMs), "delay between probes in milliseconds")
	flags.VarP(&cli.Format, "format", "f", fmt.Sprintf("output format (%s)", formatChoices()))
	flags.VarP(&cli.Driver, "driver", "d", "echo driver (icmp, fastping, probing)")
	flags.DurationVarP(&cli.Timeout, "timeout", "t", defaultTimeout, "per-probe reply timeout")
	flags.BoolVar(&cli.Privileged, "privileged", false, "use raw sockets (requires CAP_NET_RAW)")
	flags.StringVarP(&cli.Config, "config", "c", "", "config file location")
	flags.BoolVarP(&cli.Verbose, "verbose", "v", false, "enable debug logging")
}

func run(cmd *cobra.Command, cli *CliFlags, args []string) error {

	log := newLogger(os.Stderr, loggerOptions{
		Debug: cli.Verbose || os.Getenv("DEBUG") == "true",
		Json:  os.Getenv("LOGFMT") == "json",
	})
	slog.SetDefault(log)

	cfg, err := resolveConfig(cmd.Flags(), cli, args, configLocations)
	if err != nil {
		return err
	}

	if cfg.Privileged {
		if err := pingline.RequirePrivileges(); err != nil {
			return err
		}
	}

	echoer, err := pingline.NewEchoer(cfg.Driver, pingline.EchoOptions{
		Timeout:    cfg.Timeout,
		Privileged: cfg.Privileged,
	})
	if err != nil {
		return &usageError{err}
	}

	formatter, err := pingline.NewFormatter(cfg.Format)
	if err != nil {
		return &usageError{err}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	writers, err := newSampleWriters(ctx, cfg.Exporters, os.Getenv)
	if err != nil {
		return err
	}

	exporter := pingline.NewExporter(pingline.ExporterOptions{Logger: log}, writers...)
	defer func() {
		if err := exporter.Close(); err != nil {
			log.Error("Failed to close exporters",
				slog.String("err", err.Error()))
		}
		if dropped := exporter.Dropped(); dropped > 0 {
			log.Warn("Samples dropped by exporter",
				slog.Int64("count", dropped))
		}
	}()

	prober, err := pingline.NewProber(pingline.ProberConfig{
		Target:    cfg.Target,
		Interval:  cfg.Interval,
		Echoer:    echoer,
		Formatter: formatter,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Logger:    log,
		Exporter:  exporter,
	})
	if err != nil {
		return err
	}

	log.Debug("Starting prober",
		slog.String("target", cfg.Target.String()),
		slog.Duration("interval", cfg.Interval),
		slog.String("format", cfg.Format.String()),
		slog.String("driver", cfg.Driver.String()))

	return prober.Run(ctx)
}
