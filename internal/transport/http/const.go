package http

import (
	"net/http"
	"time"

	"github.com/oshokin/ncm-grabber/internal/utils"
)

const (
	// DefaultTimeout is the timeout for catalog API requests.
	// Audio and cover transfers use no client timeout and rely on transport defaults.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent mimics a desktop browser; the catalog rejects empty agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36" //nolint: lll
)

// NewTransport builds the RoundTripper chain: User-Agent injection on top of debug logging on top of next.
func NewTransport(next http.RoundTripper, userAgent string) http.RoundTripper {
	return NewUserAgentInjector(
		NewLogTransport(next, 0),
		utils.NewSimpleUserAgentProvider(userAgent))
}
