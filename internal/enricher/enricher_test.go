package enricher

import "testing"

func TestEnrichDesktopUserAgent(t *testing.T) {
	e := New("")
	defer e.Close()

	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	ctx := e.Enrich(ua, "203.0.113.10")
	if ctx.Browser != "Chrome" {
		t.Fatalf("expected Chrome, got %q", ctx.Browser)
	}
	if ctx.DeviceType != "desktop" {
		t.Fatalf("expected desktop, got %q", ctx.DeviceType)
	}
	if ctx.Country != "" {
		t.Fatalf("expected no country without a GeoIP database, got %q", ctx.Country)
	}
}

func TestEnrichMobileUserAgent(t *testing.T) {
	e := New("")
	defer e.Close()

	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ctx := e.Enrich(ua, "")
	if ctx.DeviceType != "mobile" {
		t.Fatalf("expected mobile, got %q", ctx.DeviceType)
	}
}

func TestEnrichEmptyInput(t *testing.T) {
	e := New("")
	defer e.Close()

	ctx := e.Enrich("", "")
	if ctx != (Context{}) {
		t.Fatalf("expected zero context, got %+v", ctx)
	}
}
