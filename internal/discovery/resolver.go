package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

// HostLookup resolves a name to addresses. *net.Resolver satisfies it.
type HostLookup interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

type Options struct {
	Hostname        string
	Match           string
	ServiceType     string
	Port            int
	ProbeTimeout    time.Duration
	ResolveTimeout  time.Duration
	DiscoveryWindow time.Duration
	PollInterval    time.Duration
}

func OptionsFromConfig(cfg models.DeviceConfig) Options {
	return Options{
		Hostname:        cfg.Hostname,
		Match:           cfg.Match,
		ServiceType:     cfg.ServiceType,
		Port:            cfg.HTTPPort,
		ProbeTimeout:    cfg.ProbeTimeout,
		ResolveTimeout:  cfg.ResolveTimeout,
		DiscoveryWindow: cfg.DiscoveryWindow,
		PollInterval:    cfg.PollInterval,
	}
}

// Resolver finds the device on the local network.
type Resolver struct {
	opts    Options
	lookups []HostLookup
	browser Browser
	client  *resty.Client
}

type ResolverOption func(*Resolver)

// WithLookups replaces the name resolution chain. Lookups are tried in order.
func WithLookups(lookups ...HostLookup) ResolverOption {
	return func(r *Resolver) {
		r.lookups = lookups
	}
}

func WithBrowser(browser Browser) ResolverOption {
	return func(r *Resolver) {
		r.browser = browser
	}
}

func WithHTTPClient(client *resty.Client) ResolverOption {
	return func(r *Resolver) {
		r.client = client
	}
}

func NewResolver(opts Options, options ...ResolverOption) *Resolver {
	if opts.DiscoveryWindow <= 0 {
		opts.DiscoveryWindow = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = 2 * time.Second
	}

	multicast := NewMulticastBrowser(opts.ServiceType)

	r := &Resolver{
		opts:    opts,
		lookups: []HostLookup{net.DefaultResolver, multicast},
		browser: multicast,
		client: resty.New().
			SetTimeout(opts.ProbeTimeout).
			SetHeader("User-Agent", common.GetUserAgent("move-installer")),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Resolve tries name resolution plus an HTTP probe first and falls back to
// service discovery. The first strategy to succeed wins.
func (r *Resolver) Resolve(ctx context.Context) (models.DeviceHandle, error) {
	var reasons []string

	logrus.WithFields(logrus.Fields{
		"hostname": r.opts.Hostname,
	}).Debugln("Starting device discovery")

	addr, err := r.lookup(ctx)
	if err != nil {
		logrus.WithError(err).Debugln("Hostname resolution failed, trying service discovery")
		reasons = append(reasons, fmt.Sprintf("dns: %v", err))
	} else {
		if _, err := r.Validate(ctx, addr); err == nil {
			logrus.WithFields(logrus.Fields{
				"hostname": r.opts.Hostname,
				"address":  addr.String(),
			}).Infoln("Device found by name")

			return models.DeviceHandle{Hostname: r.opts.Hostname, Address: addr}, nil
		} else {
			logrus.WithError(err).Debugln("Device probe failed, trying service discovery")
			reasons = append(reasons, fmt.Sprintf("probe %s: %v", addr, err))
		}
	}

	if ctx.Err() != nil {
		return models.DeviceHandle{}, models.WrapError(models.KindNotFound, ctx.Err(),
			"device not found (%s)", strings.Join(reasons, "; "))
	}

	handle, err := r.discover(ctx)
	if err == nil {
		logrus.WithFields(logrus.Fields{
			"hostname": handle.Hostname,
			"address":  handle.Address.String(),
		}).Infoln("Device found by service discovery")
		return handle, nil
	}
	reasons = append(reasons, fmt.Sprintf("discovery: %v", err))

	return models.DeviceHandle{}, models.NewError(models.KindNotFound,
		"device not found, ensure it is on the same network (%s)", strings.Join(reasons, "; "))
}

// Validate probes the device HTTP root. Any HTTP response counts as
// reachable; only a transport failure is an error.
func (r *Resolver) Validate(ctx context.Context, addr netip.Addr) (bool, error) {
	url := models.BaseURLFor(addr, r.opts.Port)

	resp, err := r.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return false, models.WrapError(models.KindUnreachable, err, "cannot reach device at %s", url)
	}

	logrus.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode(),
	}).Debugln("Device probe answered")

	return true, nil
}

func (r *Resolver) lookup(ctx context.Context) (netip.Addr, error) {
	var errs []error

	for _, lookup := range r.lookups {
		lookupCtx, cancel := context.WithTimeout(ctx, r.opts.ResolveTimeout)
		addrs, err := lookup.LookupNetIP(lookupCtx, "ip4", r.opts.Hostname)
		cancel()

		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(addrs) == 0 {
			errs = append(errs, fmt.Errorf("no addresses returned for %s", r.opts.Hostname))
			continue
		}

		return addrs[0].Unmap(), nil
	}

	if len(errs) == 0 {
		return netip.Addr{}, fmt.Errorf("no resolvers configured")
	}
	return netip.Addr{}, errors.Join(errs...)
}

// discover browses for at most the discovery window, checking for a
// matching instance every poll interval.
func (r *Resolver) discover(ctx context.Context) (models.DeviceHandle, error) {
	if r.browser == nil {
		return models.DeviceHandle{}, fmt.Errorf("service discovery unavailable")
	}

	browseCtx, cancel := context.WithTimeout(ctx, r.opts.DiscoveryWindow)
	defer cancel()

	entries := make(chan ServiceEntry, 16)
	browseErr := make(chan error, 1)

	go func() {
		browseErr <- r.browser.Browse(browseCtx, r.opts.ServiceType, entries)
	}()

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-browseCtx.Done():
			return models.DeviceHandle{}, fmt.Errorf("no %q service matching %q within %s",
				r.opts.ServiceType, r.opts.Match, r.opts.DiscoveryWindow)

		case err := <-browseErr:
			if err != nil {
				return models.DeviceHandle{}, err
			}
			// The browser gave up early; keep draining until the window closes.
			browseErr = nil

		case <-ticker.C:
			for drained := false; !drained; {
				select {
				case entry := <-entries:
					if handle, ok := r.match(entry); ok {
						return handle, nil
					}
				default:
					drained = true
				}
			}
		}
	}
}

func (r *Resolver) match(entry ServiceEntry) (models.DeviceHandle, bool) {
	if !common.ContainsInsensitive(entry.Host, r.opts.Match) &&
		!common.ContainsInsensitive(entry.Instance, r.opts.Match) {
		return models.DeviceHandle{}, false
	}

	addr, ok := entry.PreferredAddr()
	if !ok {
		return models.DeviceHandle{}, false
	}

	hostname := strings.TrimSuffix(entry.Host, ".")
	if len(hostname) == 0 {
		hostname = r.opts.Hostname
	}
	return models.DeviceHandle{Hostname: hostname, Address: addr.Unmap()}, true
}
