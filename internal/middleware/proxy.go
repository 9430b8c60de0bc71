package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustProxies rewrites r.RemoteAddr to the client address reported by a
// trusted reverse proxy. Forwarding headers are honoured only when the
// connection itself comes from one of the trusted prefixes; otherwise they
// are ignored, so a client cannot choose its own rate-limit key. With no
// prefixes configured the middleware is a pass-through.
func TrustProxies(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := parseAddr(clientIP(r))
			if ok && inPrefixes(peer, trusted) {
				if client := forwardedClient(r, trusted); client != "" {
					r2 := r.Clone(r.Context())
					r2.RemoteAddr = client
					r = r2
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedClient walks X-Forwarded-For from the nearest hop outwards and
// returns the first address that is not a trusted proxy. X-Real-IP is the
// fallback when no usable X-Forwarded-For hop exists.
func forwardedClient(r *http.Request, trusted []netip.Prefix) string {
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseAddr(strings.TrimSpace(hops[i]))
		if !ok {
			break
		}
		if !inPrefixes(addr, trusted) {
			return addr.String()
		}
	}
	if addr, ok := parseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ok {
		return addr.String()
	}
	return ""
}

func parseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func inPrefixes(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP returns the host part of r.RemoteAddr. Behind a proxy,
// TrustProxies has already replaced it with the forwarded client address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
