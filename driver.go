package pingline

import (
	"fmt"
	"strings"
	"time"
)

const defaultEchoTimeout = 2 * time.Second

// Driver selects the echo implementation
type Driver int

const (
	DriverIcmp Driver = iota
	DriverFastping
	DriverProbing
)

var driverNames = map[Driver]string{
	DriverIcmp:     "icmp",
	DriverFastping: "fastping",
	DriverProbing:  "probing",
}

func (this Driver) String() string {
	return driverNames[this]
}

func (this *Driver) Set(val string) error {

	driver, err := ParseDriver(val)
	if err != nil {
		return err
	}

	*this = driver
	return nil
}

func (this *Driver) Type() string {
	return "driver"
}

func ParseDriver(val string) (Driver, error) {

	token := strings.ToLower(strings.TrimSpace(val))

	for driver, name := range driverNames {
		if name == token {
			return driver, nil
		}
	}

	return 0, fmt.Errorf("unknown driver '%s' (available: icmp, fastping, probing)", val)
}

type EchoOptions struct {
	// Per-request timeout; defaults to 2s
	Timeout time.Duration
	// Use raw sockets instead of unprivileged datagram sockets
	Privileged bool
}

func (this EchoOptions) timeout() time.Duration {
	if this.Timeout <= 0 {
		return defaultEchoTimeout
	}
	return this.Timeout
}

func NewEchoer(driver Driver, opts EchoOptions) (Echoer, error) {
	switch driver {
	case DriverIcmp:
		return NewIcmpEchoer(opts), nil
	case DriverFastping:
		return NewFastpingEchoer(opts), nil
	case DriverProbing:
		return NewProbingEchoer(opts), nil
	default:
		return nil, fmt.Errorf("unsupported driver '%d'", driver)
	}
}
