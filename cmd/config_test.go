package main

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maddsua/pingline"
	"github.com/maddsua/pingline/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func parseTestFlags(t *testing.T, argv ...string) (*pflag.FlagSet, *CliFlags, []string) {
	t.Helper()

	var cli CliFlags
	flags := pflag.NewFlagSet("pingline", pflag.ContinueOnError)
	registerFlags(flags, &cli)

	require.NoError(t, flags.Parse(argv))
	return flags, &cli, flags.Args()
}

func writeTestConfig(t *testing.T, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveConfig_defaults(t *testing.T) {
	t.Parallel()

	flags, cli, args := parseTestFlags(t, "192.0.2.1")

	cfg, err := resolveConfig(flags, cli, args, nil)
	require.NoError(t, err)
	require.True(t, net.ParseIP("192.0.2.1").Equal(cfg.Target))
	require.Equal(t, 100*time.Millisecond, cfg.Interval)
	require.Equal(t, pingline.FormatHuman, cfg.Format)
	require.Equal(t, pingline.DriverIcmp, cfg.Driver)
	require.Equal(t, 2*time.Second, cfg.Timeout)
	require.False(t, cfg.Privileged)
}

func TestResolveConfig_flags(t *testing.T) {
	t.Parallel()

	flags, cli, args := parseTestFlags(t, "-i", "250", "-f", "csv", "--driver", "probing", "-t", "500ms", "2001:db8::1")

	cfg, err := resolveConfig(flags, cli, args, nil)
	require.NoError(t, err)
	require.True(t, net.ParseIP("2001:db8::1").Equal(cfg.Target))
	require.Equal(t, 250*time.Millisecond, cfg.Interval)
	require.Equal(t, pingline.FormatCsv, cfg.Format)
	require.Equal(t, pingline.DriverProbing, cfg.Driver)
	require.Equal(t, 500*time.Millisecond, cfg.Timeout)
}

func TestResolveConfig_fileThenFlags(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, "pingline.yml", `
server: 198.51.100.4
interval: 1s
format: json
driver: fastping
`)

	flags, cli, args := parseTestFlags(t, "-c", path, "-f", "csv")

	cfg, err := resolveConfig(flags, cli, args, nil)
	require.NoError(t, err)
	require.True(t, net.ParseIP("198.51.100.4").Equal(cfg.Target))
	require.Equal(t, time.Second, cfg.Interval)
	require.Equal(t, pingline.FormatCsv, cfg.Format)
	require.Equal(t, pingline.DriverFastping, cfg.Driver)

	flags, cli, args = parseTestFlags(t, "-c", path, "-i", "50", "192.0.2.9")

	cfg, err = resolveConfig(flags, cli, args, nil)
	require.NoError(t, err)
	require.True(t, net.ParseIP("192.0.2.9").Equal(cfg.Target))
	require.Equal(t, 50*time.Millisecond, cfg.Interval)
}

func TestResolveConfig_foundInLocations(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, "pingline.json", `{"server": "127.0.0.1", "interval": "20"}`)

	flags, cli, args := parseTestFlags(t)

	cfg, err := resolveConfig(flags, cli, args, []string{filepath.Join(t.TempDir(), "missing.yml"), path})
	require.NoError(t, err)
	require.True(t, net.ParseIP("127.0.0.1").Equal(cfg.Target))
	require.Equal(t, 20*time.Millisecond, cfg.Interval)
}

func TestResolveConfig_usageErrors(t *testing.T) {
	t.Parallel()

	for _, argv := range [][]string{
		{},
		{"not-an-ip"},
		{"example.com"},
		{"-i", "0", "127.0.0.1"},
		{"-i", "-5", "127.0.0.1"},
		{"-i", "9223372036855", "127.0.0.1"},
	} {
		flags, cli, args := parseTestFlags(t, argv...)

		_, err := resolveConfig(flags, cli, args, nil)
		require.Error(t, err, "%v", argv)

		var usage *usageError
		require.True(t, errors.As(err, &usage), "%v: %v", argv, err)
	}
}

func TestResolveConfig_badFile(t *testing.T) {
	t.Parallel()

	flags, cli, args := parseTestFlags(t, "-c", filepath.Join(t.TempDir(), "missing.yml"), "127.0.0.1")
	_, err := resolveConfig(flags, cli, args, nil)
	require.Error(t, err)

	path := writeTestConfig(t, "pingline.yml", "format: xml\n")
	flags, cli, args = parseTestFlags(t, "-c", path, "127.0.0.1")
	_, err = resolveConfig(flags, cli, args, nil)

	var usage *usageError
	require.ErrorAs(t, err, &usage)
}

func TestFlags_rejectUnknownValues(t *testing.T) {
	t.Parallel()

	var cli CliFlags
	flags := pflag.NewFlagSet("pingline", pflag.ContinueOnError)
	flags.SetOutput(discardWriter{})
	registerFlags(flags, &cli)

	require.Error(t, flags.Parse([]string{"-f", "xml", "127.0.0.1"}))
	require.Error(t, flags.Parse([]string{"-d", "carrier-pigeon", "127.0.0.1"}))
	require.Error(t, flags.Parse([]string{"-i", "fast", "127.0.0.1"}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestRootCmd_usageErrors(t *testing.T) {
	t.Parallel()

	for _, argv := range [][]string{
		{"127.0.0.1", "127.0.0.2"},
		{"--format", "xml", "127.0.0.1"},
		{"--no-such-flag", "127.0.0.1"},
	} {
		cmd := newRootCmd()
		cmd.SetArgs(argv)
		cmd.SetOut(discardWriter{})
		cmd.SetErr(discardWriter{})

		err := cmd.Execute()

		var usage *usageError
		require.ErrorAs(t, err, &usage, "%v", argv)
	}
}

func TestExportersFromEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"TIMESCALE_URL":   "postgres://localhost/pings",
		"INFLUX_URL":      "http://localhost:8086",
		"INFLUX_TOKEN":    "token",
		"INFLUX_ORG":      "org",
		"PUSHGATEWAY_URL": "http://localhost:9091",
	}

	var getenv = func(key string) string {
		return env[key]
	}

	cfg := exportersFromEnv(config.ExportersConfig{}, getenv)
	require.NotNil(t, cfg.Timescale)
	require.Equal(t, "postgres://localhost/pings", cfg.Timescale.Url)
	require.Nil(t, cfg.Influx, "influx needs a bucket too")
	require.NotNil(t, cfg.Pushgateway)

	fromFile := config.ExportersConfig{Pushgateway: &config.PushgatewayConfig{Url: "http://gateway:9091"}}
	cfg = exportersFromEnv(fromFile, getenv)
	require.Equal(t, "http://gateway:9091", cfg.Pushgateway.Url)

	env["INFLUX_BUCKET"] = "pings"
	cfg = exportersFromEnv(config.ExportersConfig{}, getenv)
	require.NotNil(t, cfg.Influx)
	require.Equal(t, "pings", cfg.Influx.Bucket)
}

func TestNewSampleWriters_none(t *testing.T) {
	t.Parallel()

	writers, err := newSampleWriters(t.Context(), config.ExportersConfig{}, func(string) string { return "" })
	require.NoError(t, err)
	require.Empty(t, writers)
}
