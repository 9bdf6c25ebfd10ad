package pushgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/maddsua/pingline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "pingline"

func NewPushgatewayStorage(ctx context.Context, hostUrl string) (*pushgatewayStorage, error) {

	baseUrl, err := url.Parse(hostUrl)
	if err != nil {
		return nil, err
	}

	if baseUrl.Host == "" {
		return nil, fmt.Errorf("missing url host")
	}

	switch baseUrl.Scheme {
	case "":
		baseUrl.Scheme = "http"
	case "http", "https":
		break
	default:
		return nil, fmt.Errorf("unsupported protocol scheme '%s'", baseUrl.Scheme)
	}

	this := &pushgatewayStorage{
		hostUrl: url.URL{
			Scheme: baseUrl.Scheme,
			Host:   baseUrl.Host,
			User:   baseUrl.User,
		},
		client: http.DefaultClient,
	}

	if err := this.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to connect: %v", err)
	}

	slog.Debug("Storage: Pushgateway enabled",
		slog.String("host", baseUrl.Host))

	return this, nil
}

type pushgatewayStorage struct {
	hostUrl url.URL
	client  *http.Client
}

func (this *pushgatewayStorage) Type() string {
	return "prometheus"
}

func (this *pushgatewayStorage) Version() string {
	return "v1"
}

func (this *pushgatewayStorage) Close() error {
	return nil
}

func (this *pushgatewayStorage) Ping(ctx context.Context) error {

	pingUrl := this.hostUrl
	pingUrl.Path = "/api/v1/status"

	req, err := http.NewRequestWithContext(ctx, "GET", pingUrl.String(), nil)
	if err != nil {
		return err
	}

	resp, err := this.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// WriteSample replaces the target's metric group with the latest sample
func (this *pushgatewayStorage) WriteSample(ctx context.Context, target net.IP, sample pingline.Sample) error {

	if target == nil {
		return errors.New("empty sample target")
	}

	rtt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pingline_last_rtt_ms",
		Help: "Round trip time of the latest echo reply in milliseconds",
	})
	rtt.Set(sample.Rtt)

	timestamp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pingline_last_sample_timestamp_seconds",
		Help: "Unix time of the latest echo reply",
	})
	timestamp.Set(sample.Timestamp)

	return push.New(this.hostUrl.String(), jobName).
		Client(this.client).
		Grouping("target", target.String()).
		Collector(rtt).
		Collector(timestamp).
		PushContext(ctx)
}
