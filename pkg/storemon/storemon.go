// Package storemon implements a concrete monitor over the two stores
// the reconciliation tool depends on. It registers reachability checks
// for the engine repository and the mirror store plus a DNS resolution
// check for their hostnames, and reports failed checks through the
// dispatcher's notification extension point by logging them.
package storemon

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/monitor"
)

const (
	// TypeName is the registered monitor type name.
	TypeName = "store-monitor"

	// DefaultTimeout bounds each individual check.
	DefaultTimeout = 5 * time.Second

	// DefaultResolvConf is consulted for the DNS server when none is
	// configured.
	DefaultResolvConf = "/etc/resolv.conf"
)

func init() {
	monitor.MustRegisterType(TypeName, "")
	monitor.MustRegisterCheck(TypeName, "engine-reachable", func(m monitor.Monitor) error {
		return m.(*StoreMonitor).checkEngine()
	})
	monitor.MustRegisterCheck(TypeName, "mirror-reachable", func(m monitor.Monitor) error {
		return m.(*StoreMonitor).checkMirror()
	})
	monitor.MustRegisterCheck(TypeName, "store-hosts-resolve", func(m monitor.Monitor) error {
		return m.(*StoreMonitor).checkDNS()
	})
}

// Pinger is the health probe surface both stores expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreMonitor runs the registered store checks through the embedded
// dispatcher.
type StoreMonitor struct {
	*monitor.Dispatcher

	engine   Pinger
	mirror   Pinger
	hosts    []string
	resolver string
	timeout  time.Duration
	logger   *logrus.Logger
}

// Option is a functional option for configuring a StoreMonitor.
type Option func(*StoreMonitor) error

// WithTimeout sets the per-check timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *StoreMonitor) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		m.timeout = d
		return nil
	}
}

// WithResolver sets the DNS server (host:port) used by the resolution
// check instead of the system resolver configuration.
func WithResolver(addr string) Option {
	return func(m *StoreMonitor) error {
		if addr == "" {
			return fmt.Errorf("resolver address must not be empty")
		}
		m.resolver = addr
		return nil
	}
}

// New creates a StoreMonitor probing the given stores and resolving the
// given hostnames.
func New(engine, mirror Pinger, hosts []string, logger *logrus.Logger, opts ...Option) (*StoreMonitor, error) {
	if engine == nil || mirror == nil {
		return nil, fmt.Errorf("storemon: both store probes are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("storemon: logger is required")
	}

	m := &StoreMonitor{
		engine:  engine,
		mirror:  mirror,
		hosts:   hosts,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("storemon: %w", err)
		}
	}

	d, err := monitor.New(TypeName, monitor.DefaultRegistry, m)
	if err != nil {
		return nil, err
	}
	m.Dispatcher = d
	return m, nil
}

// DispatchNotification logs a failed check with its captured failure
// kind and message; the panic trace, when present, goes to debug.
func (m *StoreMonitor) DispatchNotification(check monitor.CheckDef, outcome monitor.Outcome) {
	m.logger.WithFields(logrus.Fields{
		"check": check.Name,
		"kind":  outcome.Kind,
	}).Errorf("check failed: %s", outcome.Message)

	if outcome.Trace != "" {
		m.logger.Debug(outcome.Trace)
	}
}

func (m *StoreMonitor) checkEngine() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.engine.Ping(ctx); err != nil {
		return fmt.Errorf("engine repository unreachable: %w", err)
	}
	return nil
}

func (m *StoreMonitor) checkMirror() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.mirror.Ping(ctx); err != nil {
		return fmt.Errorf("mirror store unreachable: %w", err)
	}
	return nil
}

// checkDNS resolves every configured store hostname. Literal IP
// addresses are skipped. The check fails on the first name that does
// not resolve to at least one A record.
func (m *StoreMonitor) checkDNS() error {
	resolver := m.resolver
	if resolver == "" {
		conf, err := dns.ClientConfigFromFile(DefaultResolvConf)
		if err != nil {
			return fmt.Errorf("reading resolver configuration: %w", err)
		}
		if len(conf.Servers) == 0 {
			return fmt.Errorf("no DNS servers in %s", DefaultResolvConf)
		}
		resolver = net.JoinHostPort(conf.Servers[0], conf.Port)
	}

	client := &dns.Client{Timeout: m.timeout}
	for _, host := range m.hosts {
		if net.ParseIP(host) != nil {
			continue
		}

		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
		resp, _, err := client.Exchange(msg, resolver)
		if err != nil {
			return fmt.Errorf("resolving %s via %s: %w", host, resolver, err)
		}
		if resp.Rcode != dns.RcodeSuccess {
			return fmt.Errorf("resolving %s via %s: rcode %s", host, resolver, dns.RcodeToString[resp.Rcode])
		}
		if len(resp.Answer) == 0 {
			return fmt.Errorf("resolving %s via %s: no answers", host, resolver)
		}
	}
	return nil
}
