package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/maddsua/pingline"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultTimeout  = 2 * time.Second
)

// FileConfig mirrors the optional config file; every field is a fallback for the matching flag
type FileConfig struct {
	Server     string          `yaml:"server" json:"server"`
	Interval   string          `yaml:"interval" json:"interval"`
	Format     string          `yaml:"format" json:"format"`
	Driver     string          `yaml:"driver" json:"driver"`
	Timeout    string          `yaml:"timeout" json:"timeout"`
	Privileged bool            `yaml:"privileged" json:"privileged"`
	Exporters  ExportersConfig `yaml:"exporters" json:"exporters"`
}

type ExportersConfig struct {
	Timescale   *TimescaleConfig   `yaml:"timescale" json:"timescale"`
	Influx      *InfluxConfig      `yaml:"influx" json:"influx"`
	Pushgateway *PushgatewayConfig `yaml:"pushgateway" json:"pushgateway"`
}

func (this *ExportersConfig) Validate() error {

	if this.Timescale != nil {
		if err := this.Timescale.Validate(); err != nil {
			return fmt.Errorf("invalid timescale exporter config: %s", err.Error())
		}
	}

	if this.Influx != nil {
		if err := this.Influx.Validate(); err != nil {
			return fmt.Errorf("invalid influx exporter config: %s", err.Error())
		}
	}

	if this.Pushgateway != nil {
		if err := this.Pushgateway.Validate(); err != nil {
			return fmt.Errorf("invalid pushgateway exporter config: %s", err.Error())
		}
	}

	return nil
}

type TimescaleConfig struct {
	Url string `yaml:"url" json:"url"`
}

func (this *TimescaleConfig) Validate() error {

	val, err := expandEnv(this.Url)
	if err != nil {
		return err
	}

	if _, err := url.Parse(val); err != nil {
		return fmt.Errorf("invalid database url: %s", err.Error())
	}

	this.Url = val
	return nil
}

type InfluxConfig struct {
	Url    string `yaml:"url" json:"url"`
	Token  string `yaml:"token" json:"token"`
	Org    string `yaml:"org" json:"org"`
	Bucket string `yaml:"bucket" json:"bucket"`
}

func (this *InfluxConfig) Validate() error {

	for _, field := range []*string{&this.Url, &this.Token, &this.Org, &this.Bucket} {
		val, err := expandEnv(*field)
		if err != nil {
			return err
		}
		*field = val
	}

	switch {
	case this.Url == "":
		return errors.New("url is empty")
	case this.Token == "":
		return errors.New("token is empty")
	case this.Org == "":
		return errors.New("org is empty")
	case this.Bucket == "":
		return errors.New("bucket is empty")
	}

	return nil
}

type PushgatewayConfig struct {
	Url string `yaml:"url" json:"url"`
}

func (this *PushgatewayConfig) Validate() error {

	val, err := expandEnv(this.Url)
	if err != nil {
		return err
	}

	parsed, err := url.Parse(val)
	if err != nil {
		return fmt.Errorf("invalid pushgateway url: %s", err.Error())
	}

	if parsed.Host == "" {
		return errors.New("missing url host")
	}

	this.Url = val
	return nil
}

// expandEnv resolves values written as $VARIABLE
func expandEnv(val string) (string, error) {

	val = strings.TrimSpace(val)

	if !strings.HasPrefix(val, "$") {
		return val, nil
	}

	resolved := os.Getenv(val[1:])
	if resolved == "" {
		return "", fmt.Errorf("variable '%s' is not defined", val)
	}

	return resolved, nil
}

// Config is the fully resolved runtime configuration
type Config struct {
	Server     string
	Target     net.IP
	Interval   time.Duration
	Format     pingline.Format
	Driver     pingline.Driver
	Timeout    time.Duration
	Privileged bool
	Exporters  ExportersConfig
}

func Default() Config {
	return Config{
		Interval: DefaultInterval,
		Format:   pingline.FormatHuman,
		Driver:   pingline.DriverIcmp,
		Timeout:  DefaultTimeout,
	}
}

// ApplyFile copies every value the file sets onto the config
func (this *Config) ApplyFile(file *FileConfig) error {

	if file == nil {
		return nil
	}

	if file.Server != "" {
		this.Server = file.Server
	}

	if file.Interval != "" {
		val, err := ParseInterval(file.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval '%s': %s", file.Interval, err.Error())
		}
		this.Interval = val
	}

	if file.Format != "" {
		if err := this.Format.Set(file.Format); err != nil {
			return err
		}
	}

	if file.Driver != "" {
		if err := this.Driver.Set(file.Driver); err != nil {
			return err
		}
	}

	if file.Timeout != "" {
		val, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout '%s': %s", file.Timeout, err.Error())
		}
		this.Timeout = val
	}

	if file.Privileged {
		this.Privileged = true
	}

	this.Exporters = file.Exporters

	return nil
}

// Validate parses the server address and checks every value the prober depends on
func (this *Config) Validate() error {

	if this.Server = strings.TrimSpace(this.Server); this.Server == "" {
		return errors.New("server address is required")
	}

	target := net.ParseIP(strings.Trim(this.Server, "[]"))
	if target == nil {
		return fmt.Errorf("invalid server address '%s': IPv4 or IPv6 literal expected", this.Server)
	}

	this.Target = target

	if this.Interval <= 0 {
		return errors.New("interval must be positive")
	}

	if this.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if _, err := pingline.NewFormatter(this.Format); err != nil {
		return err
	}

	if err := this.Exporters.Validate(); err != nil {
		return err
	}

	return nil
}
