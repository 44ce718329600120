package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"fundvault/pkg/requestcontext"
)

// ClientMetadata extracts the client IP and a device, browser and OS
// classification from the User-Agent. Audit entries record the triple for
// forensics.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), raw)
		ctx = requestcontext.WithDeviceInfo(ctx, deviceInfo(raw))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the first X-Forwarded-For hop set by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func deviceInfo(raw string) requestcontext.DeviceInfo {
	if raw == "" {
		return requestcontext.DeviceInfo{}
	}

	ua := useragent.New(raw)
	device := "desktop"
	switch {
	case ua.Bot():
		device = "bot"
	case ua.Mobile():
		device = "mobile"
	case strings.Contains(raw, "iPad") || strings.Contains(strings.ToLower(raw), "tablet"):
		device = "tablet"
	}

	browser, _ := ua.Browser()
	return requestcontext.DeviceInfo{
		Device:  device,
		Browser: browser,
		OS:      ua.OSInfo().Name,
	}
}
