// Package address discovers the host's current public addresses.
//
// Every discovery method implements Source and is bound to a single
// address family. A Source that cannot produce an address of its family
// returns an error wrapping ErrUnavailable; callers treat that as "this
// family is not updated this run" rather than as a failure.
package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// ErrUnavailable indicates no address of the requested family could be found.
var ErrUnavailable = errors.New("address unavailable")

// Discovery method names accepted by New.
const (
	MethodNone      = "none"
	MethodProbe     = "probe"
	MethodHTTP      = "http"
	MethodDNS       = "dns"
	MethodInterface = "interface"
)

// Methods lists every accepted method name.
var Methods = []string{MethodNone, MethodProbe, MethodHTTP, MethodDNS, MethodInterface}

// Source returns the current address for one family.
type Source interface {
	// Family returns the address family this source reports.
	Family() provider.Family

	// Lookup returns the current address, or an error wrapping
	// ErrUnavailable when none can be determined.
	Lookup(ctx context.Context) (netip.Addr, error)
}

// Options configures the sources built by New. Zero values select the
// per-family defaults.
type Options struct {
	ProbeAddress string // probe: target address, with or without port
	URL          string // http: "what is my IP" endpoint
	DNSServer    string // dns: resolver host:port
	DNSName      string // dns: name answered with the caller's address
	Interface    string // interface: link name

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ValidMethod reports whether method is a known discovery method.
func ValidMethod(method string) bool {
	for _, m := range Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// New builds the Source for method and family. MethodNone (or an empty
// method) returns a nil Source, meaning the family is disabled.
func New(method string, family provider.Family, opts Options) (Source, error) {
	switch strings.ToLower(method) {
	case "", MethodNone:
		return nil, nil
	case MethodProbe:
		return NewProbe(family, opts.ProbeAddress)
	case MethodHTTP:
		return NewHTTP(family, opts.URL, opts.HTTPClient), nil
	case MethodDNS:
		return NewDNS(family, opts.DNSServer, opts.DNSName), nil
	case MethodInterface:
		if opts.Interface == "" {
			return nil, errors.New("interface method requires an interface name")
		}
		return NewInterface(family, opts.Interface), nil
	default:
		return nil, fmt.Errorf("unknown address method %q (must be one of %s)",
			method, strings.Join(Methods, ", "))
	}
}

// accept checks that addr belongs to family and is usable as a record
// value.
func accept(family provider.Family, addr netip.Addr) (netip.Addr, error) {
	addr = addr.WithZone("")
	if family == provider.FamilyIPv4 {
		addr = addr.Unmap()
	}
	if !family.Matches(addr) || addr.IsUnspecified() {
		return netip.Addr{}, fmt.Errorf("%w: %q is not a usable %s address", ErrUnavailable, addr, family)
	}
	return addr, nil
}
