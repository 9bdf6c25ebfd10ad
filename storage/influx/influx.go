package influx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/maddsua/pingline"
)

const measurement = "icmp_echo"

type Options struct {
	Url    string
	Token  string
	Org    string
	Bucket string
}

func (this Options) Validate() error {

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

	baseUrl, err := url.Parse(this.Url)
	if err != nil {
		return err
	}

	switch baseUrl.Scheme {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("unsupported protocol scheme '%s'", baseUrl.Scheme)
	}
}

// pointWriter is the part of the blocking write api this storage needs
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

func NewInfluxStorage(ctx context.Context, opts Options) (*influxStorage, error) {

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	client := influxdb2.NewClient(opts.Url, opts.Token)

	if ok, err := client.Ping(ctx); err != nil || !ok {
		client.Close()
		if err == nil {
			err = errors.New("server not ready")
		}
		return nil, fmt.Errorf("unable to connect: %v", err)
	}

	slog.Debug("Storage: Influx enabled",
		slog.String("org", opts.Org),
		slog.String("bucket", opts.Bucket))

	return &influxStorage{
		client: client,
		writer: client.WriteAPIBlocking(opts.Org, opts.Bucket),
	}, nil
}

type influxStorage struct {
	client influxdb2.Client
	writer pointWriter
}

func (this *influxStorage) Type() string {
	return "influx"
}

func (this *influxStorage) Version() string {
	return "v2"
}

func (this *influxStorage) Close() error {
	if this.client != nil {
		this.client.Close()
	}
	return nil
}

func (this *influxStorage) WriteSample(ctx context.Context, target net.IP, sample pingline.Sample) error {

	if target == nil {
		return errors.New("empty sample target")
	}

	return this.writer.WritePoint(ctx, samplePoint(target, sample))
}

func samplePoint(target net.IP, sample pingline.Sample) *write.Point {
	return write.NewPoint(
		measurement,
		map[string]string{"target": target.String()},
		map[string]any{"rtt_ms": sample.Rtt},
		sample.Time())
}
