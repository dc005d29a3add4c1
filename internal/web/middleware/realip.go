package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// RequestMetadata resolves the client address and user agent recorded in
// audit entries and stores both in the request context.
//
// The first X-Forwarded-For entry, or X-Real-IP when that header is absent,
// is honored only when the connection comes from one of trustedProxies
// (CIDRs or single addresses). Otherwise the peer address is used, so a
// client cannot choose the IP written to the audit log. r.RemoteAddr is
// replaced by the resolved address for the rate limiter and the access log.
func RequestMetadata(trustedProxies []string) func(http.Handler) http.Handler {
	trusted := parsePrefixes(trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := core.ClientIP(forwardedFor(r, trusted), r.RemoteAddr)
			r.RemoteAddr = ip

			ctx := core.ContextWithIPAddress(r.Context(), ip)
			ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// forwardedFor returns the proxy-supplied client address, or "" when the
// peer is not trusted or the header does not hold a valid address.
func forwardedFor(r *http.Request, trusted []netip.Prefix) string {
	if len(trusted) == 0 || !isTrusted(peerAddr(r.RemoteAddr), trusted) {
		return ""
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	candidate := strings.TrimSpace(first)
	if candidate == "" {
		candidate = strings.TrimSpace(r.Header.Get("X-Real-IP"))
	}
	if _, err := netip.ParseAddr(candidate); err != nil {
		return ""
	}
	return candidate
}

func parsePrefixes(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if p, err := netip.ParsePrefix(c); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(c); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "value", c)
	}
	return out
}

func peerAddr(remote string) netip.Addr {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return a.Unmap()
}

func isTrusted(a netip.Addr, trusted []netip.Prefix) bool {
	if !a.IsValid() {
		return false
	}
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
