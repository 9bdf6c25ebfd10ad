package pingline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
)

// IcmpEchoer sends echo requests with an empty payload over golang.org/x/net/icmp.
// Every request opens its own socket which is closed once the reply, an error or the timeout arrives.
type IcmpEchoer struct {
	Timeout    time.Duration
	Privileged bool

	id  int
	seq atomic.Uint32
}

func NewIcmpEchoer(opts EchoOptions) *IcmpEchoer {
	return &IcmpEchoer{
		Timeout:    opts.timeout(),
		Privileged: opts.Privileged,
		id:         os.Getpid() & 0xffff,
	}
}

type icmpFamily struct {
	network   string
	listen    string
	proto     int
	request   icmp.Type
	reply     icmp.Type
	unreach   icmp.Type
	ipHeadLen func(data []byte) int
}

func (this *IcmpEchoer) family(target net.IP) icmpFamily {

	if target.To4() != nil {

		family := icmpFamily{
			network: "udp4",
			listen:  "0.0.0.0",
			proto:   protocolICMP,
			request: ipv4.ICMPTypeEcho,
			reply:   ipv4.ICMPTypeEchoReply,
			unreach: ipv4.ICMPTypeDestinationUnreachable,
			ipHeadLen: func(data []byte) int {
				if len(data) == 0 {
					return 0
				}
				return int(data[0]&0x0f) * 4
			},
		}

		if this.Privileged {
			family.network = "ip4:icmp"
		}

		return family
	}

	family := icmpFamily{
		network: "udp6",
		listen:  "::",
		proto:   protocolIPv6ICMP,
		request: ipv6.ICMPTypeEchoRequest,
		reply:   ipv6.ICMPTypeEchoReply,
		unreach: ipv6.ICMPTypeDestinationUnreachable,
		ipHeadLen: func(data []byte) int {
			return ipv6.HeaderLen
		},
	}

	if this.Privileged {
		family.network = "ip6:ipv6-icmp"
	}

	return family
}

func (this *IcmpEchoer) Echo(ctx context.Context, target net.IP) (time.Duration, error) {

	if target == nil {
		return 0, errors.New("target address is nil")
	}

	family := this.family(target)

	conn, err := icmp.ListenPacket(family.network, family.listen)
	if err != nil {
		return 0, ClassifyEchoError(fmt.Errorf("listen %s: %w", family.network, err))
	}
	defer conn.Close()

	deadline := time.Now().Add(this.Timeout)
	if val, has := ctx.Deadline(); has && val.Before(deadline) {
		deadline = val
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return 0, ClassifyEchoError(err)
	}

	//	unblock the pending read as soon as the caller goes away
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	seq := int(this.seq.Add(1) & 0xffff)

	request, err := (&icmp.Message{
		Type: family.request,
		Body: &icmp.Echo{ID: this.id, Seq: seq},
	}).Marshal(nil)
	if err != nil {
		return 0, fmt.Errorf("marshal echo request: %w", err)
	}

	var dst net.Addr = &net.UDPAddr{IP: target}
	if this.Privileged {
		dst = &net.IPAddr{IP: target}
	}

	started := time.Now()

	if _, err := conn.WriteTo(request, dst); err != nil {
		return 0, ClassifyEchoError(fmt.Errorf("send echo: %w", err))
	}

	buff := make([]byte, 1500)

	for {

		size, peer, err := conn.ReadFrom(buff)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, ClassifyEchoError(err)
		}

		rtt := time.Since(started)

		verdict, err := this.inspect(family, buff[:size], peer, target, seq)
		if err != nil {
			return 0, err
		}

		switch verdict {
		case replyEcho:
			return rtt, nil
		case replyUnreachable:
			return 0, &EchoError{Kind: EchoUnreachable, Err: fmt.Errorf("destination unreachable reported by %s", peer)}
		}
	}
}

type replyVerdict int

const (
	replyIgnore replyVerdict = iota
	replyEcho
	replyUnreachable
)

// inspect decides what a received message means for the pending echo.
// Raw sockets see all ICMP traffic on the host, so replies must come from the target,
// while an unreachable may come from any router as long as it quotes our own request.
func (this *IcmpEchoer) inspect(family icmpFamily, data []byte, peer net.Addr, target net.IP, seq int) (replyVerdict, error) {

	msg, err := icmp.ParseMessage(family.proto, data)
	if err != nil {
		if this.Privileged && !peerMatches(peer, target) {
			return replyIgnore, nil
		}
		return replyIgnore, &EchoError{Kind: EchoMalformed, Err: err}
	}

	switch msg.Type {

	case family.reply:

		if this.Privileged && !peerMatches(peer, target) {
			return replyIgnore, nil
		}

		echo, ok := msg.Body.(*icmp.Echo)
		if !ok {
			return replyIgnore, &EchoError{Kind: EchoMalformed, Err: errors.New("echo reply without echo body")}
		}

		if this.matches(echo, seq) {
			return replyEcho, nil
		}

	case family.unreach:

		body, ok := msg.Body.(*icmp.DstUnreach)
		if !ok {
			if this.Privileged {
				return replyIgnore, nil
			}
			return replyIgnore, &EchoError{Kind: EchoMalformed, Err: errors.New("destination unreachable without body")}
		}

		if this.Privileged && !this.unreachableMatches(family, body.Data, seq) {
			return replyIgnore, nil
		}

		return replyUnreachable, nil
	}

	return replyIgnore, nil
}

// unprivileged sockets get their echo id rewritten by the kernel, so only the sequence is reliable there
func (this *IcmpEchoer) matches(echo *icmp.Echo, seq int) bool {

	if echo.Seq != seq {
		return false
	}

	return !this.Privileged || echo.ID == this.id
}

func (this *IcmpEchoer) unreachableMatches(family icmpFamily, data []byte, seq int) bool {

	headLen := family.ipHeadLen(data)
	if headLen <= 0 || len(data) < headLen+8 {
		return false
	}

	original, err := icmp.ParseMessage(family.proto, data[headLen:])
	if err != nil {
		return false
	}

	echo, ok := original.Body.(*icmp.Echo)
	return ok && this.matches(echo, seq)
}

func peerMatches(peer net.Addr, target net.IP) bool {
	switch addr := peer.(type) {
	case *net.IPAddr:
		return addr.IP.Equal(target)
	case *net.UDPAddr:
		return addr.IP.Equal(target)
	default:
		return false
	}
}
