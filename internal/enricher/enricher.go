// Package enricher derives browsing context (browser, OS, device class,
// country) from the user agent and client IP so the dashboard can break
// aggregates down demographically.
package enricher

import (
	"net"

	"github.com/mssola/useragent"
	"github.com/oschwald/geoip2-golang"
)

type Enricher struct {
	geoIP *geoip2.Reader
}

// New opens the GeoIP database when a path is configured. A missing or
// unreadable database disables country resolution instead of failing startup.
func New(geoIPPath string) *Enricher {
	var geoIP *geoip2.Reader
	if geoIPPath != "" {
		geoIP, _ = geoip2.Open(geoIPPath)
	}
	return &Enricher{geoIP: geoIP}
}

// Context is the derived browsing context stored alongside a sample.
type Context struct {
	Browser    string
	OS         string
	DeviceType string
	Country    string
}

// Enrich parses the raw (pre-sanitization) user agent and resolves the client
// IP to a country code when GeoIP is available.
func (e *Enricher) Enrich(userAgentString, clientIP string) Context {
	var ctx Context

	if userAgentString != "" {
		ua := useragent.New(userAgentString)
		ctx.Browser, _ = ua.Browser()
		ctx.OS = ua.OS()
		ctx.DeviceType = deviceType(ua)
	}

	if e.geoIP != nil && clientIP != "" {
		if ip := net.ParseIP(clientIP); ip != nil {
			if record, err := e.geoIP.Country(ip); err == nil {
				ctx.Country = record.Country.IsoCode
			}
		}
	}
	return ctx
}

func deviceType(ua *useragent.UserAgent) string {
	if ua.Mobile() {
		return "mobile"
	}
	if ua.Bot() {
		return "bot"
	}
	return "desktop"
}

func (e *Enricher) Close() {
	if e.geoIP != nil {
		e.geoIP.Close()
	}
}
