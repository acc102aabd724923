package privnet_test

import (
	"context"
	"errors"
	"net"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/fetcher/privnet"
)

var _ = check.Suite(new(detectorTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) { check.TestingT(t) }

type detectorTestSuite struct{}

type staticResolver map[string][]string

func (r staticResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, exists := r[host]
	if !exists {
		return nil, errors.New("no such host")
	}

	addrs := make([]net.IPAddr, len(ips))
	for i, ip := range ips {
		addrs[i] = net.IPAddr{IP: net.ParseIP(ip)}
	}

	return addrs, nil
}

func (s *detectorTestSuite) TestLiteralAddresses(c *check.C) {
	specs := []struct {
		descr    string
		input    string
		expected bool
	}{
		{descr: "loopback address", input: "127.0.0.1", expected: true},
		{descr: "private address (10.x.x.x)", input: "10.0.0.128", expected: true},
		{descr: "private address (192.x.x.x)", input: "192.168.0.127", expected: true},
		{descr: "private address (172.x.x.x)", input: "172.16.10.10", expected: true},
		{descr: "link-local address", input: "169.254.169.254", expected: true},
		{descr: "IPv6 loopback", input: "::1", expected: true},
		{descr: "public address", input: "8.8.8.8", expected: false},
	}

	detector, err := privnet.NewDetector()
	c.Assert(err, check.IsNil)

	for _, spec := range specs {
		isPrivate, err := detector.IsNetworkPrivate(spec.input)
		c.Assert(err, check.IsNil, check.Commentf(spec.descr))
		c.Assert(isPrivate, check.Equals, spec.expected, check.Commentf(spec.descr))
	}
}

func (s *detectorTestSuite) TestHostNames(c *check.C) {
	detector, err := privnet.NewDetector()
	c.Assert(err, check.IsNil)

	detector.WithResolver(staticResolver{
		"public.example":  {"93.184.216.34"},
		"sneaky.example":  {"93.184.216.34", "10.1.2.3"},
		"metadata.intern": {"169.254.169.254"},
	})

	isPrivate, err := detector.IsNetworkPrivate("public.example")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, false)

	isPrivate, err = detector.IsNetworkPrivate("sneaky.example")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, true)

	isPrivate, err = detector.IsNetworkPrivate("metadata.intern")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, true)

	_, err = detector.IsNetworkPrivate("unknown.example")
	c.Assert(err, check.NotNil)
}

func (s *detectorTestSuite) TestCustomCIDRs(c *check.C) {
	detector, err := privnet.NewDetectorFromCIDRs("8.8.8.8/16")
	c.Assert(err, check.IsNil)

	isPrivate, err := detector.IsNetworkPrivate("8.8.8.8")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, true)

	_, err = privnet.NewDetectorFromCIDRs("not-a-cidr")
	c.Assert(err, check.NotNil)
}
