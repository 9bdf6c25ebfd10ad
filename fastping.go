package pingline

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/tatsushid/go-fastping"
)

// FastpingEchoer drives a single-shot go-fastping round per echo.
// go-fastping always carries its own timestamp payload.
type FastpingEchoer struct {
	Timeout    time.Duration
	Privileged bool
}

func NewFastpingEchoer(opts EchoOptions) *FastpingEchoer {
	return &FastpingEchoer{
		Timeout:    opts.timeout(),
		Privileged: opts.Privileged,
	}
}

func (this *FastpingEchoer) Echo(ctx context.Context, target net.IP) (time.Duration, error) {
	rtt, _, err := this.echo(ctx, target)
	return rtt, err
}

// echo returns the pinger it used; the pinger has fully stopped by the time echo returns
func (this *FastpingEchoer) echo(ctx context.Context, target net.IP) (time.Duration, *fastping.Pinger, error) {

	if target == nil {
		return 0, nil, errors.New("target address is nil")
	}

	pinger := fastping.NewPinger()
	pinger.MaxRTT = this.Timeout
	pinger.AddIPAddr(&net.IPAddr{IP: target})

	if !this.Privileged {
		if _, err := pinger.Network("udp"); err != nil {
			return 0, nil, ClassifyEchoError(err)
		}
	}

	//	handlers run on the pinger goroutine and must never block it
	rttCh := make(chan time.Duration, 1)
	idleCh := make(chan struct{}, 1)

	started := time.Now()

	//	datagram sockets get their echo id rewritten, so go-fastping can't read its timestamp back and reports zero
	pinger.OnRecv = func(addr *net.IPAddr, rtt time.Duration) {
		if rtt <= 0 {
			rtt = time.Since(started)
		}
		select {
		case rttCh <- rtt:
		default:
		}
	}

	pinger.OnIdle = func() {
		select {
		case idleCh <- struct{}{}:
		default:
		}
	}

	//	RunLoop creates the round before returning; Stop below depends on that
	pinger.RunLoop()

	var rtt time.Duration
	var err error

	select {
	case rtt = <-rttCh:
	case <-idleCh:
		err = &EchoError{Kind: EchoTimeout, Err: errors.New("no reply within " + this.Timeout.String())}
	case <-pinger.Done():
		err = &EchoError{Kind: EchoOther, Err: errors.New("pinger stopped")}
	case <-ctx.Done():
		err = ctx.Err()
	}

	pinger.Stop()

	//	a reply may land together with the idle tick
	if err != nil && ctx.Err() == nil {
		select {
		case rtt = <-rttCh:
			return rtt, pinger, nil
		default:
		}
	}

	if runErr := pinger.Err(); runErr != nil && ctx.Err() == nil {
		return 0, pinger, ClassifyEchoError(runErr)
	}

	if err != nil {
		return 0, pinger, err
	}

	return rtt, pinger, nil
}
