package connection

import (
	"net"
)

// Resolver turns an interface identifier into a local bind address
type Resolver interface {
	Resolve(iface string) (net.IP, error)
}

// SystemResolver accepts literal IP addresses and OS interface names.
// Names resolve to the first IPv4 address of the interface, or to its
// first address when it has no IPv4 one.
type SystemResolver struct{}

// Resolve implements Resolver
func (SystemResolver) Resolve(iface string) (net.IP, error) {
	if ip := net.ParseIP(iface); ip != nil {
		return ip, nil
	}

	ni, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, NewInterfaceNotFoundError(iface, err)
	}
	addrs, err := ni.Addrs()
	if err != nil {
		return nil, NewInterfaceNotFoundError(iface, err)
	}
	return pickAddress(iface, addrs)
}

func pickAddress(iface string, addrs []net.Addr) (net.IP, error) {
	var fallback net.IP
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		if ip == nil {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		if fallback == nil {
			fallback = ip
		}
	}
	if fallback == nil {
		return nil, NewNoAddressError(iface)
	}
	return fallback, nil
}
