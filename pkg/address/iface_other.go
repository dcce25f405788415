//go:build !linux

package address

import (
	"context"
	"fmt"
	"net/netip"
)

// Lookup implements Source. Interface discovery needs netlink.
func (i *Interface) Lookup(_ context.Context) (netip.Addr, error) {
	return netip.Addr{}, fmt.Errorf("%w: interface discovery is only supported on linux", ErrUnavailable)
}
