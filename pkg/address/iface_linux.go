//go:build linux

package address

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// skipFlags marks addresses that must not be published: privacy
// addresses, addresses being phased out and ones still in DAD.
const skipFlags = unix.IFA_F_TEMPORARY | unix.IFA_F_DEPRECATED | unix.IFA_F_TENTATIVE | unix.IFA_F_DADFAILED

// Lookup implements Source. It returns the first global unicast,
// non-private address on the link.
func (i *Interface) Lookup(_ context.Context) (netip.Addr, error) {
	link, err := netlink.LinkByName(i.name)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: interface %s: %w", ErrUnavailable, i.name, err)
	}

	nlFamily := netlink.FAMILY_V6
	if i.family == provider.FamilyIPv4 {
		nlFamily = netlink.FAMILY_V4
	}

	addrs, err := netlink.AddrList(link, nlFamily)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: listing addresses on %s: %w", ErrUnavailable, i.name, err)
	}

	for _, a := range addrs {
		if a.Flags&skipFlags != 0 {
			continue
		}
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if !ip.IsGlobalUnicast() || ip.IsPrivate() {
			continue
		}
		if got, err := accept(i.family, ip); err == nil {
			return got, nil
		}
	}

	return netip.Addr{}, fmt.Errorf("%w: no global %s address on %s", ErrUnavailable, i.family, i.name)
}
