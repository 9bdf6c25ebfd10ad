package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maddsua/pingline"
	"github.com/maddsua/pingline/config"
	"github.com/maddsua/pingline/storage/influx"
	"github.com/maddsua/pingline/storage/pushgateway"
	"github.com/maddsua/pingline/storage/timescale"
)

// exportersFromEnv fills exporters the config file leaves unset from the environment
func exportersFromEnv(cfg config.ExportersConfig, getenv func(string) string) config.ExportersConfig {

	if cfg.Timescale == nil {
		if val := getenv("TIMESCALE_URL"); val != "" {
			cfg.Timescale = &config.TimescaleConfig{Url: val}
		}
	}

	if cfg.Influx == nil {
		influxCfg := config.InfluxConfig{
			Url:    getenv("INFLUX_URL"),
			Token:  getenv("INFLUX_TOKEN"),
			Org:    getenv("INFLUX_ORG"),
			Bucket: getenv("INFLUX_BUCKET"),
		}
		if influxCfg.Url != "" && influxCfg.Token != "" && influxCfg.Org != "" && influxCfg.Bucket != "" {
			cfg.Influx = &influxCfg
		}
	}

	if cfg.Pushgateway == nil {
		if val := getenv("PUSHGATEWAY_URL"); val != "" {
			cfg.Pushgateway = &config.PushgatewayConfig{Url: val}
		}
	}

	return cfg
}

func newSampleWriters(ctx context.Context, cfg config.ExportersConfig, getenv func(string) string) ([]pingline.SampleWriter, error) {

	cfg = exportersFromEnv(cfg, getenv)

	if err := cfg.Validate(); err != nil {
		return nil, &usageError{err}
	}

	var writers []pingline.SampleWriter

	var closeAll = func() {
		for _, writer := range writers {
			writer.Close()
		}
	}

	if cfg.Timescale != nil {
		storage, err := timescale.NewTimescaleStorage(ctx, cfg.Timescale.Url)
		if err != nil {
			closeAll()
			return nil, errors.New("failed to set up timescale storage: " + err.Error())
		}
		writers = append(writers, storage)
	}

	if cfg.Influx != nil {
		storage, err := influx.NewInfluxStorage(ctx, influx.Options{
			Url:    cfg.Influx.Url,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			closeAll()
			return nil, errors.New("failed to set up influxdb storage: " + err.Error())
		}
		writers = append(writers, storage)
	}

	if cfg.Pushgateway != nil {
		storage, err := pushgateway.NewPushgatewayStorage(ctx, cfg.Pushgateway.Url)
		if err != nil {
			closeAll()
			return nil, errors.New("failed to set up prometheus push gateway storage: " + err.Error())
		}
		writers = append(writers, storage)
	}

	for _, writer := range writers {
		slog.Debug("Using storage",
			slog.String("type", writer.Type()),
			slog.String("version", writer.Version()))
	}

	return writers, nil
}
