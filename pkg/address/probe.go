package address

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

const (
	// DefaultProbeIPv6 is Google Public DNS; nothing is ever sent to it.
	DefaultProbeIPv6 = "2001:4860:4860::8888"

	// DefaultProbeIPv4 is the IPv4 counterpart of DefaultProbeIPv6.
	DefaultProbeIPv4 = "8.8.8.8"

	probePort = 1
)

// Probe learns the local source address the kernel would pick to reach a
// remote address. It "connects" a UDP socket, which only performs route
// selection, and reads back the local endpoint. No datagram is sent.
type Probe struct {
	family provider.Family
	target netip.AddrPort
	dialer net.Dialer
}

// NewProbe creates a Probe towards target. target may be a bare address or
// an address:port pair; empty selects the family default.
func NewProbe(family provider.Family, target string) (*Probe, error) {
	if target == "" {
		target = DefaultProbeIPv6
		if family == provider.FamilyIPv4 {
			target = DefaultProbeIPv4
		}
	}

	ap, err := parseAddrPort(target)
	if err != nil {
		return nil, fmt.Errorf("invalid probe address %q: %w", target, err)
	}
	if !family.Matches(ap.Addr()) {
		return nil, fmt.Errorf("probe address %s is not an %s address", ap.Addr(), family)
	}

	return &Probe{family: family, target: ap}, nil
}

func parseAddrPort(s string) (netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return netip.AddrPortFrom(addr, probePort), nil
}

// Family implements Source.
func (p *Probe) Family() provider.Family {
	return p.family
}

// Target returns the probe destination.
func (p *Probe) Target() netip.AddrPort {
	return p.target
}

// Lookup implements Source.
func (p *Probe) Lookup(ctx context.Context) (netip.Addr, error) {
	network := "udp6"
	if p.family == provider.FamilyIPv4 {
		network = "udp4"
	}

	addr := net.JoinHostPort(p.target.Addr().String(), strconv.Itoa(int(p.target.Port())))
	conn, err := p.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: no route to %s: %w", ErrUnavailable, p.target, err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: unexpected local address %v", ErrUnavailable, conn.LocalAddr())
	}

	ip, ok := netip.AddrFromSlice(local.IP)
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: unparseable local address %v", ErrUnavailable, local.IP)
	}

	return accept(p.family, ip)
}
