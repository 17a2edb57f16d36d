package upload

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Prober answers whether the network is worth trying
type Prober interface {
	Reachable(ctx context.Context) error
}

// DialProbe opens and closes a TCP connection to Address
type DialProbe struct {
	Address string
	Timeout time.Duration
}

func NewDialProbe(address string, timeout time.Duration) *DialProbe {
	return &DialProbe{Address: address, Timeout: timeout}
}

// Reachable returns nil or an error wrapping ErrNoConnectivity
func (p *DialProbe) Reachable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoConnectivity, err)
	}
	return conn.Close()
}

// ProbeFunc adapts a function to Prober
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Reachable(ctx context.Context) error {
	return f(ctx)
}
