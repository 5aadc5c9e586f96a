package middleware

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// IPExtractor resolves the client address for c.RealIP().  Without trusted
// proxies the TCP peer is used and X-Forwarded-For is ignored.  Otherwise
// X-Forwarded-For is walked from the right, skipping only hops inside the
// given CIDRs.
func IPExtractor(trusted []string) echo.IPExtractor {
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, raw := range trusted {
		cidr := strings.TrimSpace(raw)
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil && ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Warn().Str("cidr", raw).Msg("trusted proxy ignored: invalid CIDR")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	if len(opts) == 3 {
		return echo.ExtractIPDirect()
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
