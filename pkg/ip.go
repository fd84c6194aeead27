package pkg

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	localDockerIpRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1:\d{1,5}`)
)

func IPIsLocal(ipAddr string) bool {
	// used in local development ?
	if strings.HasPrefix(ipAddr, "127.0.0.1:") || strings.HasPrefix(ipAddr, "[::1]:") {
		return true
	}

	// user within docker container ?
	return localDockerIpRegex.MatchString(ipAddr)
}

// ReadUserIP returns the client address, preferring the proxy headers.
// Only the first hop of X-Forwarded-For is used.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		ipAddr = r.Header.Get("X-Forwarded-For")
		if first, _, found := strings.Cut(ipAddr, ","); found {
			ipAddr = first
		}
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}
	ipAddr = strings.TrimSpace(ipAddr)

	// used in development
	if IPIsLocal(ipAddr) {
		log.Tracef("read user IP: local request from %s", ipAddr)
		return "localhost", nil
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		ipAddr = host
	}

	if ip := net.ParseIP(ipAddr); ip == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ipAddr, nil
}
