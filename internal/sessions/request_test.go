package sessions

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPPrefersForwardedForFirstEntry(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4312"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.2, 10.0.0.1")

	if got := ClientIP(r); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded entry, got %q", got)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.44:51000"

	if got := ClientIP(r); got != "192.0.2.44" {
		t.Fatalf("expected remote addr host, got %q", got)
	}
}

func TestContextFromRequestCapturesUserAgent(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.44:51000"
	r.Header.Set("User-Agent", chromeDesktopUA)

	rc := ContextFromRequest(r)
	if rc.IP != "192.0.2.44" {
		t.Fatalf("unexpected ip %q", rc.IP)
	}
	if rc.UserAgent != chromeDesktopUA {
		t.Fatalf("unexpected user agent %q", rc.UserAgent)
	}
}
