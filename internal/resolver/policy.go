// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package resolver

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"

	"github.com/veridect/veridect/internal/config"
)

// Policy decides which references the resolver may touch. Host rules run on
// the URL before any connection; address rules run again at dial time on the
// resolved IP, so a DNS answer (or rebind) pointing at internal ranges is
// rejected even when the hostname looked fine.
type Policy struct {
	schemes     map[string]struct{}
	allowlist   []string
	denylist    []string
	denyPrivate bool
}

// NewPolicy builds the acquisition policy from resolver config.
func NewPolicy(cfg config.ResolverConfig) *Policy {
	schemes := make(map[string]struct{}, len(cfg.AllowedSchemes))
	for _, s := range cfg.AllowedSchemes {
		schemes[strings.ToLower(s)] = struct{}{}
	}
	return &Policy{
		schemes:     schemes,
		allowlist:   normalizeHosts(cfg.HostAllowlist),
		denylist:    normalizeHosts(cfg.HostDenylist),
		denyPrivate: cfg.DenyPrivateAddresses,
	}
}

// ValidateURL parses and checks a reference URL against scheme and host
// policy. It is called for the initial URL and again for every redirect.
func (p *Policy) ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, wrapError(KindInvalidReference, err, "unparseable url")
	}
	if _, ok := p.schemes[strings.ToLower(u.Scheme)]; !ok {
		return nil, newError(KindInvalidReference, "scheme %q not allowed", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, newError(KindInvalidReference, "url has no host")
	}
	if err := p.CheckHost(host); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckHost applies the deny list, the allow list and, for literal IP
// hosts, the private-address rules.
func (p *Policy) CheckHost(host string) error {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, d := range p.denylist {
		if hostMatches(host, d) {
			return newError(KindForbiddenHost, "host %q is denylisted", host)
		}
	}
	if len(p.allowlist) > 0 {
		allowed := false
		for _, a := range p.allowlist {
			if hostMatches(host, a) {
				allowed = true
				break
			}
		}
		if !allowed {
			return newError(KindForbiddenHost, "host %q is not on the allowlist", host)
		}
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return p.CheckAddr(addr)
	}
	return nil
}

// CheckAddr rejects addresses in ranges the resolver must never reach.
func (p *Policy) CheckAddr(addr netip.Addr) error {
	if !p.denyPrivate {
		return nil
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified() || addr.IsMulticast() {
		return newError(KindForbiddenHost, "address %s is in a forbidden range", addr)
	}
	return nil
}

// DialControl is installed as net.Dialer.Control so the resolved connect
// address is re-checked after DNS resolution.
func (p *Policy) DialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("dial address %q: %w", address, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("dial address %q: %w", address, err)
	}
	return p.CheckAddr(addr)
}

// hostMatches reports whether host equals pattern or is a subdomain of it.
func hostMatches(host, pattern string) bool {
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(h, ".")))
		h = strings.TrimPrefix(h, "*.")
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
