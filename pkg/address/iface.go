package address

import (
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// Interface reads the address configured on a local network interface.
// It is only functional on Linux, where addresses are read over netlink.
type Interface struct {
	family provider.Family
	name   string
}

// NewInterface creates an Interface source for the named link.
func NewInterface(family provider.Family, name string) *Interface {
	return &Interface{family: family, name: name}
}

// Family implements Source.
func (i *Interface) Family() provider.Family {
	return i.family
}
