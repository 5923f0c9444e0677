package handler

import (
	"net"
	"net/http"
	"strings"
)

// clientAddr prefers the first X-Forwarded-For hop.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestBaseURL is scheme://host as seen by the client. Forwarded schemes
// other than http and https are ignored.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		switch first = strings.ToLower(strings.TrimSpace(first)); first {
		case "http", "https":
			scheme = first
		}
	}
	return scheme + "://" + r.Host
}
