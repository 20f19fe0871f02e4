package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultMaxInflated = 1 << 20

var errInflatedTooLarge = errors.New("inflated request body too large")

// InflateConfig configures InflateRequests.
type InflateConfig struct {
	// Skipper defaults to SkipWebhooks.
	Skipper middleware.Skipper
	// MaxSize caps the inflated body in bytes. Zero means 1MB.
	MaxSize int64
}

// SkipWebhooks skips payment webhooks, whose signatures cover the body
// exactly as sent.
func SkipWebhooks(c echo.Context) bool {
	return strings.HasSuffix(c.Request().URL.Path, "/webhook")
}

// InflateRequests replaces gzip-encoded request bodies with their inflated
// content, capped at cfg.MaxSize. Bodies that are not valid gzip get a 400.
func InflateRequests(cfg InflateConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = SkipWebhooks
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxInflated
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if cfg.Skipper(c) || !gzipEncoded(req.Header) {
				return next(c)
			}
			zr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return respondError(c, http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = &inflatedBody{zr: zr, raw: req.Body, left: cfg.MaxSize}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func gzipEncoded(h http.Header) bool {
	for _, enc := range strings.Split(h.Get(echo.HeaderContentEncoding), ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

// inflatedBody reads at most left inflated bytes and closes both readers.
type inflatedBody struct {
	zr   *gzip.Reader
	raw  io.Closer
	left int64
}

func (b *inflatedBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		var extra [1]byte
		if n, err := b.zr.Read(extra[:]); n == 0 && err != nil {
			return 0, err
		}
		return 0, errInflatedTooLarge
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.zr.Read(p)
	b.left -= int64(n)
	return n, err
}

func (b *inflatedBody) Close() error {
	return errors.Join(b.zr.Close(), b.raw.Close())
}
