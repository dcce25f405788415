package address

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// OpenDNS answers myip.opendns.com with the address the query came from.
const (
	DefaultDNSName       = "myip.opendns.com."
	DefaultDNSServerIPv4 = "208.67.222.222:53"
	DefaultDNSServerIPv6 = "[2620:119:35::35]:53"
	DefaultDNSTimeout    = 5 * time.Second
)

// DNS asks a resolver that reflects the client address back.
type DNS struct {
	family provider.Family
	server string
	name   string
	client *dns.Client
}

// NewDNS creates a DNS source; empty server and name select OpenDNS.
func NewDNS(family provider.Family, server, name string) *DNS {
	network := "udp6"
	if server == "" {
		server = DefaultDNSServerIPv6
	}
	if family == provider.FamilyIPv4 {
		network = "udp4"
		if server == DefaultDNSServerIPv6 {
			server = DefaultDNSServerIPv4
		}
	}
	if name == "" {
		name = DefaultDNSName
	}

	return &DNS{
		family: family,
		server: server,
		name:   dns.Fqdn(name),
		client: &dns.Client{Net: network, Timeout: DefaultDNSTimeout},
	}
}

// Family implements Source.
func (d *DNS) Family() provider.Family {
	return d.family
}

// Lookup implements Source.
func (d *DNS) Lookup(ctx context.Context) (netip.Addr, error) {
	qtype := dns.TypeAAAA
	if d.family == provider.FamilyIPv4 {
		qtype = dns.TypeA
	}

	msg := new(dns.Msg)
	msg.SetQuestion(d.name, qtype)

	resp, _, err := d.client.ExchangeContext(ctx, msg, d.server)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: querying %s: %w", ErrUnavailable, d.server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("%w: %s answered %s", ErrUnavailable, d.server, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		var raw []byte
		switch v := rr.(type) {
		case *dns.A:
			raw = v.A
		case *dns.AAAA:
			raw = v.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(raw); ok {
			if got, err := accept(d.family, addr); err == nil {
				return got, nil
			}
		}
	}

	return netip.Addr{}, fmt.Errorf("%w: no %s answer for %s", ErrUnavailable, d.family, d.name)
}
