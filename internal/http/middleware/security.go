package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultHSTSMaxAge applies when HSTS is enabled without a positive max age.
const defaultHSTSMaxAge = 180 * 24 * time.Hour

// exposeHeadersHeader is the CORS response header listing readable headers.
const exposeHeadersHeader = "Access-Control-Expose-Headers"

// correlationHeaders are exposed to browser clients whenever the response
// carries them.
var correlationHeaders = []string{requestIDHeader, transactionIDHeader}

// SecurityOptions selects the optional headers emitted by SecurityHeaders.
//
// EnableHSTS only takes effect on requests that arrived over HTTPS, directly or
// behind a proxy that sets X-Forwarded-Proto.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool // Cache-Control: no-store plus Pragma/Expires
	EnablePolicy bool // Permissions-Policy and X-Permitted-Cross-Domain-Policies
}

type headerValue struct{ name, value string }

// staticHeaders returns the request-independent headers for opt.
func staticHeaders(opt SecurityOptions) []headerValue {
	hs := []headerValue{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		hs = append(hs,
			headerValue{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			headerValue{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	if opt.NoStore {
		hs = append(hs,
			headerValue{"Cache-Control", "no-store"},
			headerValue{"Pragma", "no-cache"},
			headerValue{"Expires", "0"},
		)
	}
	return hs
}

// hstsValue renders Strict-Transport-Security for maxAge.
func hstsValue(maxAge time.Duration) string {
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	return "max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains; preload"
}

// SecurityHeaders hardens JSON responses. No CSP is sent since the API serves
// no HTML. Correlation headers already present on the response are appended
// to Access-Control-Expose-Headers.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := staticHeaders(opt)
	hsts := hstsValue(opt.HSTSMaxAge)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, hv := range static {
			h.Set(hv.name, hv.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		for _, name := range correlationHeaders {
			if h.Get(name) != "" {
				exposeHeader(h, name)
			}
		}
		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers unless listed.
func exposeHeader(h http.Header, name string) {
	cur := h.Get(exposeHeadersHeader)
	if cur == "" {
		h.Set(exposeHeadersHeader, name)
		return
	}
	for _, v := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return
		}
	}
	h.Set(exposeHeadersHeader, cur+", "+name)
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
