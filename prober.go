package pingline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
)

type ProberConfig struct {
	Target    net.IP
	Interval  time.Duration
	Echoer    Echoer
	Formatter Formatter

	// Successful samples, one line each; defaults to os.Stdout
	Stdout io.Writer
	// Probe failures, one line each; defaults to os.Stderr
	Stderr io.Writer

	Logger   *slog.Logger
	Clock    clockwork.Clock
	Exporter *Exporter
}

func (this *ProberConfig) Validate() error {

	switch {
	case this.Target == nil:
		return errors.New("target address is required")
	case this.Interval <= 0:
		return errors.New("interval must be positive")
	case this.Echoer == nil:
		return errors.New("echoer is required")
	case this.Formatter == nil:
		return errors.New("formatter is required")
	}

	if this.Stdout == nil {
		this.Stdout = os.Stdout
	}

	if this.Stderr == nil {
		this.Stderr = os.Stderr
	}

	if this.Logger == nil {
		this.Logger = slog.Default()
	}

	if this.Clock == nil {
		this.Clock = clockwork.NewRealClock()
	}

	return nil
}

// Prober runs the echo loop against a single target.
// Probes are strictly sequential and nothing is retained between ticks.
type Prober struct {
	cfg ProberConfig
}

func NewProber(cfg ProberConfig) (*Prober, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Prober{cfg: cfg}, nil
}

// Run probes until ctx is cancelled, waiting a fixed interval after every probe.
// Probe failures never end the loop; only output write errors do.
func (this *Prober) Run(ctx context.Context) error {

	this.cfg.Logger.Debug("Prober started",
		slog.String("target", this.cfg.Target.String()),
		slog.Duration("interval", this.cfg.Interval))

	for {

		if ctx.Err() != nil {
			break
		}

		if err := this.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		select {
		case <-ctx.Done():
		case <-this.cfg.Clock.After(this.cfg.Interval):
		}
	}

	this.cfg.Logger.Debug("Prober stopped",
		slog.String("target", this.cfg.Target.String()))

	return nil
}

// Tick issues a single echo and writes its outcome: the rendered sample to Stdout
// or the failure reason to Stderr. Echo failures are reported, not returned.
func (this *Prober) Tick(ctx context.Context) error {

	rtt, err := this.cfg.Echoer.Echo(ctx, this.cfg.Target)
	if err != nil {

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := fmt.Fprintf(this.cfg.Stderr, "error: %s\n", err.Error()); err != nil {
			return fmt.Errorf("write probe error: %w", err)
		}

		this.cfg.Logger.Debug("Probe failed",
			slog.String("target", this.cfg.Target.String()),
			slog.String("err", err.Error()))

		return nil
	}

	sample := NewSample(this.cfg.Clock.Now(), rtt)

	if _, err := fmt.Fprintln(this.cfg.Stdout, this.cfg.Formatter(sample)); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	this.cfg.Exporter.Export(this.cfg.Target, sample)

	return nil
}
