package discovery

import (
	"context"
	"log"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

const (
	defaultServiceType   = "_http._tcp.local."
	defaultPollInterval  = 100 * time.Millisecond
	defaultQueryInterval = time.Second
	entryBufferSize      = 32
)

// ServiceEntry is one resolved DNS-SD instance.
type ServiceEntry struct {
	Instance string
	Host     string
	Port     int
	Addrs    []netip.Addr
}

// PreferredAddr returns the first IPv4 address, falling back to the first address.
func (e ServiceEntry) PreferredAddr() (netip.Addr, bool) {
	for _, addr := range e.Addrs {
		if addr.Is4() {
			return addr, true
		}
	}
	if len(e.Addrs) > 0 {
		return e.Addrs[0], true
	}
	return netip.Addr{}, false
}

// Browser streams service instances of the given type until ctx is done.
type Browser interface {
	Browse(ctx context.Context, service string, entries chan<- ServiceEntry) error
}

type queryFunc func(ctx context.Context, params *mdns.QueryParam) error

// MulticastBrowser browses DNS-SD over mDNS. It implements both Browser
// and HostLookup; a .local name is looked up by browsing Service and
// keeping the instance whose target host matches.
type MulticastBrowser struct {
	// Service is browsed by LookupNetIP.
	Service string
	// QueryInterval is the length of one query round. Unanswered rounds
	// are repeated until ctx is done.
	QueryInterval time.Duration

	query  queryFunc
	logger *log.Logger
}

func NewMulticastBrowser(service string) *MulticastBrowser {
	if len(service) == 0 {
		service = defaultServiceType
	}
	return &MulticastBrowser{
		Service:       service,
		QueryInterval: defaultQueryInterval,
		query:         mdns.QueryContext,
		logger:        log.New(mdnsLogWriter{}, "", 0),
	}
}

func (b *MulticastBrowser) Browse(ctx context.Context, service string, entries chan<- ServiceEntry) error {
	name, domain, err := splitServiceType(service)
	if err != nil {
		return err
	}

	interval := b.QueryInterval
	if interval <= 0 {
		interval = defaultQueryInterval
	}

	seen := make(map[string]bool)

	for ctx.Err() == nil {
		found := make(chan *mdns.ServiceEntry, entryBufferSize)
		params := &mdns.QueryParam{
			Service:     name,
			Domain:      domain,
			Timeout:     roundTimeout(ctx, interval),
			Entries:     found,
			DisableIPv6: true,
			Logger:      b.logger,
		}

		roundErr := make(chan error, 1)
		go func() {
			roundErr <- b.query(ctx, params)
			close(found)
		}()

		for raw := range found {
			entry, ok := fromMDNS(raw, service)
			if !ok {
				continue
			}
			key := entry.Instance + "|" + entry.Host
			if seen[key] {
				continue
			}
			seen[key] = true

			logrus.WithFields(logrus.Fields{
				"instance": entry.Instance,
				"host":     entry.Host,
				"addrs":    entry.Addrs,
			}).Debugln("Discovered service instance")

			select {
			case entries <- entry:
			case <-ctx.Done():
			}
		}

		if err := <-roundErr; err != nil && ctx.Err() == nil {
			return models.WrapError(models.KindNetworkError, err, "mdns query for %s failed", service)
		}
	}
	return nil
}

// LookupNetIP resolves a .local name from the service instances it
// advertises. The signature matches net.Resolver so both can back a
// HostLookup.
func (b *MulticastBrowser) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	browseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan ServiceEntry, entryBufferSize)
	browseErr := make(chan error, 1)
	go func() {
		browseErr <- b.Browse(browseCtx, b.Service, entries)
	}()

	want := strings.TrimSuffix(host, ".")
	for {
		select {
		case entry := <-entries:
			if !strings.EqualFold(entry.Host, want) {
				continue
			}
			if addrs := filterFamily(entry.Addrs, network); len(addrs) > 0 {
				return addrs, nil
			}

		case err := <-browseErr:
			if err != nil {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, &net.DNSError{Err: "no multicast answer", Name: host, IsTimeout: true}
			}
			return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		}
	}
}

// splitServiceType turns "_http._tcp.local." into the service and domain
// halves mdns queries with.
func splitServiceType(service string) (string, string, error) {
	labels := dns.SplitDomainName(service)
	if len(labels) < 3 || !strings.HasPrefix(labels[0], "_") || !strings.HasPrefix(labels[1], "_") {
		return "", "", models.NewError(models.KindInvalidArgument, "invalid service type %q", service)
	}
	return labels[0] + "." + labels[1], strings.Join(labels[2:], "."), nil
}

func fromMDNS(raw *mdns.ServiceEntry, service string) (ServiceEntry, bool) {
	if raw == nil {
		return ServiceEntry{}, false
	}

	var addrs []netip.Addr
	for _, ip := range []net.IP{raw.AddrV4, raw.AddrV6} {
		if len(ip) == 0 {
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}
	if len(addrs) == 0 {
		return ServiceEntry{}, false
	}

	suffix := "." + strings.ToLower(dns.Fqdn(service))
	instance := dns.Fqdn(raw.Name)
	if strings.HasSuffix(strings.ToLower(instance), suffix) {
		instance = instance[:len(instance)-len(suffix)]
	}

	return ServiceEntry{
		Instance: strings.TrimSuffix(instance, "."),
		Host:     strings.TrimSuffix(raw.Host, "."),
		Port:     raw.Port,
		Addrs:    addrs,
	}, true
}

func filterFamily(addrs []netip.Addr, network string) []netip.Addr {
	var out []netip.Addr
	for _, addr := range addrs {
		switch network {
		case "ip4":
			if !addr.Is4() {
				continue
			}
		case "ip6":
			if !addr.Is6() {
				continue
			}
		}
		out = append(out, addr)
	}
	return out
}

// roundTimeout caps one query round at interval or the time left on ctx.
func roundTimeout(ctx context.Context, interval time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < interval {
			return left
		}
	}
	return interval
}

// mdnsLogWriter forwards the mdns package's log output to logrus at debug.
type mdnsLogWriter struct{}

func (mdnsLogWriter) Write(p []byte) (int, error) {
	logrus.WithField("component", "mdns").Debugln(strings.TrimSpace(string(p)))
	return len(p), nil
}
