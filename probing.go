package pingline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbingEchoer sends one pro-bing echo per request
type ProbingEchoer struct {
	Timeout    time.Duration
	Privileged bool
}

func NewProbingEchoer(opts EchoOptions) *ProbingEchoer {
	return &ProbingEchoer{
		Timeout:    opts.timeout(),
		Privileged: opts.Privileged,
	}
}

func (this *ProbingEchoer) Echo(ctx context.Context, target net.IP) (time.Duration, error) {

	if target == nil {
		return 0, errors.New("target address is nil")
	}

	pinger, err := probing.NewPinger(target.String())
	if err != nil {
		return 0, fmt.Errorf("failed to create pinger: %w", err)
	}
	defer pinger.Stop()

	pinger.SetPrivileged(this.Privileged)
	pinger.Count = 1
	pinger.Timeout = this.Timeout

	var rtt time.Duration
	var received bool

	pinger.OnRecv = func(pkt *probing.Packet) {
		rtt = pkt.Rtt
		received = true
	}

	if err := pinger.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, ClassifyEchoError(err)
	}

	if !received {
		return 0, &EchoError{Kind: EchoTimeout, Err: errors.New("no reply within " + this.Timeout.String())}
	}

	return rtt, nil
}
