package hostsfile

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/miekg/dns"
)

var (
	ErrInvalidAddress  = errors.New("invalid IPv4 address")
	ErrNoHostnames     = errors.New("no hostnames provided to append")
	ErrInvalidHostname = errors.New("invalid hostname")
)

// Every operation goes through this one validator. Only plain dotted-quad
// IPv4 is accepted, so out of range octets, IPv6 and IPv4-mapped IPv6 are all
// refused.
func ValidateIPv4(ip string) error {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, ip)
	}

	if !addr.Is4() {
		return fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, ip)
	}

	return nil
}

// Hostnames are written as whitespace separated tokens, so anything that
// would split or comment out the token is refused along with names that
// aren't valid domain names at all.
func ValidateHostname(hostname string) error {
	if hostname == "" || strings.ContainsAny(hostname, "# \t\r\n\v\f") {
		return fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
	}

	if _, ok := dns.IsDomainName(hostname); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
	}

	return nil
}

// Checks the hostnames being added to an entry. At least one is required.
func ValidateHostnames(hostnames []string) error {
	if len(hostnames) == 0 {
		return ErrNoHostnames
	}

	for _, hostname := range hostnames {
		if err := ValidateHostname(hostname); err != nil {
			return err
		}
	}

	return nil
}
