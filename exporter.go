package pingline

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
)

const (
	defaultExportQueue   = 256
	defaultExportTimeout = 10 * time.Second
)

// SampleWriter ships samples to an external store
type SampleWriter interface {
	Type() string
	Version() string
	WriteSample(ctx context.Context, target net.IP, sample Sample) error
	Close() error
}

// Exporter hands samples over to writers off the probe loop.
// A nil Exporter accepts and discards everything.
type Exporter struct {
	writers []SampleWriter
	pool    pond.Pool
	log     *slog.Logger
	timeout time.Duration
	dropped atomic.Int64
}

type ExporterOptions struct {
	Logger *slog.Logger
	// Max samples waiting for export; further samples get dropped
	QueueSize int
	// Deadline for a single write
	Timeout time.Duration
}

// NewExporter returns nil when there are no writers to feed
func NewExporter(opts ExporterOptions, writers ...SampleWriter) *Exporter {

	if len(writers) == 0 {
		return nil
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultExportQueue
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultExportTimeout
	}

	return &Exporter{
		writers: writers,
		pool:    pond.NewPool(1, pond.WithQueueSize(opts.QueueSize)),
		log:     opts.Logger,
		timeout: opts.Timeout,
	}
}

// Export queues a sample for all writers without blocking the caller
func (this *Exporter) Export(target net.IP, sample Sample) {

	if this == nil {
		return
	}

	if _, ok := this.pool.TrySubmit(func() { this.write(target, sample) }); !ok {
		this.dropped.Add(1)
		this.log.Warn("Export queue full, sample dropped",
			slog.Float64("timestamp", sample.Timestamp))
	}
}

func (this *Exporter) write(target net.IP, sample Sample) {

	for _, writer := range this.writers {

		ctx, cancel := context.WithTimeout(context.Background(), this.timeout)
		err := writer.WriteSample(ctx, target, sample)
		cancel()

		if err != nil {
			this.log.Error("Failed to export sample",
				slog.String("storage", writer.Type()),
				slog.String("err", err.Error()))
			continue
		}

		this.log.Debug("Sample exported",
			slog.String("storage", writer.Type()),
			slog.Float64("rtt", sample.Rtt))
	}
}

// Dropped reports how many samples were discarded due to a full queue
func (this *Exporter) Dropped() int64 {

	if this == nil {
		return 0
	}

	return this.dropped.Load()
}

// Close waits for queued samples and closes every writer
func (this *Exporter) Close() error {

	if this == nil {
		return nil
	}

	this.pool.StopAndWait()

	var errs []error
	for _, writer := range this.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
