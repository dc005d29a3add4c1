package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

func TestRequestMetadata(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		xff     string
		xRealIP string
		want    string
	}{
		{"no proxies configured", nil, "192.0.2.10:5000", "203.0.113.7", "", "192.0.2.10"},
		{"untrusted peer ignores header", []string{"10.0.0.0/8"}, "192.0.2.10:5000", "203.0.113.7", "", "192.0.2.10"},
		{"trusted peer uses first forwarded", []string{"10.0.0.0/8"}, "10.1.2.3:443", "203.0.113.7, 10.1.2.3", "", "203.0.113.7"},
		{"forwarded wins over x-real-ip", []string{"10.0.0.1"}, "10.0.0.1:443", "198.51.100.1", "203.0.113.9", "198.51.100.1"},
		{"x-real-ip without forwarded", []string{"10.0.0.1"}, "10.0.0.1:443", "", "203.0.113.9", "203.0.113.9"},
		{"invalid forwarded value", []string{"10.0.0.0/8"}, "10.1.2.3:443", "not-an-ip", "", "10.1.2.3"},
		{"mapped peer normalized", nil, "[::ffff:192.0.2.44]:80", "", "", "192.0.2.44"},
		{"ipv6 loopback", []string{"bogus"}, "[::1]:80", "", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIP, gotUA, gotRemote string
			handler := RequestMetadata(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIP = core.GetIPAddressFromContext(r.Context())
				gotUA = core.GetUserAgentFromContext(r.Context())
				gotRemote = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("User-Agent", "test-agent")
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if gotIP != tt.want || gotRemote != tt.want {
				t.Errorf("ip = %q remote = %q, want %q", gotIP, gotRemote, tt.want)
			}
			if gotUA != "test-agent" {
				t.Errorf("user agent = %q", gotUA)
			}
		})
	}
}
