/*
	privnet package detects hosts that resolve to loopback, private or
	link-local addresses so that the fetcher can refuse them.
*/

package privnet

import (
	"context"
	"net"
	"time"

	"github.com/mycok/siteSearch/fetcher"
)

// Static and compile-time check to ensure NetDetector implements
// fetcher.PrivateNetworkDetector interface.
var _ fetcher.PrivateNetworkDetector = (*NetDetector)(nil)

const lookupTimeout = 5 * time.Second

var defaultPrivateCIDRs = []string{
	// Loopback.
	"127.0.0.0/8",
	"::1/128",
	// Private networks (RFC1918) and IPv6 unique local addresses.
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",
	// Link-local addresses, cloud metadata endpoints included.
	"169.254.0.0/16",
	"fe80::/10",
	// Misc.
	"0.0.0.0/8",
	"255.255.255.255/32",
}

// Resolver is implemented by *net.Resolver.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// NetDetector checks whether a host name resolves to a private network
// address.
type NetDetector struct {
	resolver  Resolver
	netBlocks []*net.IPNet
}

// NewDetector returns a NetDetector configured with the default list of
// private IPv4/IPv6 CIDR blocks.
func NewDetector() (*NetDetector, error) {
	return NewDetectorFromCIDRs(defaultPrivateCIDRs...)
}

// NewDetectorFromCIDRs returns a NetDetector that treats the provided CIDR
// blocks as private.
func NewDetectorFromCIDRs(cidrs ...string) (*NetDetector, error) {
	netBlocks := make([]*net.IPNet, len(cidrs))

	for i, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}

		netBlocks[i] = block
	}

	return &NetDetector{resolver: net.DefaultResolver, netBlocks: netBlocks}, nil
}

// WithResolver replaces the resolver used for host name lookups.
func (d *NetDetector) WithResolver(r Resolver) *NetDetector {
	d.resolver = r

	return d
}

// IsNetworkPrivate reports whether host is, or resolves to, a private
// address. A host resolving to several addresses is private as soon as one
// of them is.
func (d *NetDetector) IsNetworkPrivate(host string) (bool, error) {
	if ip := net.ParseIP(host); ip != nil {
		return d.isPrivateIP(ip), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	addrs, err := d.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return false, err
	}

	for _, addr := range addrs {
		if d.isPrivateIP(addr.IP) {
			return true, nil
		}
	}

	return false, nil
}

func (d *NetDetector) isPrivateIP(ip net.IP) bool {
	for _, block := range d.netBlocks {
		if block.Contains(ip) {
			return true
		}
	}

	return false
}
