package monitor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FetchConfig bounds one page fetch.
type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// FetchResult is a successful page fetch.
type FetchResult struct {
	StatusCode int
	Body       string
	Header     http.Header
}

// PageFetcher is what the monitor cycle needs from the HTTP layer.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Fetcher performs browser-like GETs. When certificate verification
// fails it retries exactly once with verification disabled, so self
// hosted mirrors behind broken cert chains still get monitored.
type Fetcher struct {
	client   *resty.Client
	insecure *resty.Client
	log      *zap.Logger
}

var _ PageFetcher = (*Fetcher)(nil)

func NewFetcher(cfg FetchConfig, log *zap.Logger) *Fetcher {
	build := func(skipVerify bool) *resty.Client {
		c := resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", cfg.UserAgent)
		if skipVerify {
			c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402 -- deliberate fallback path
		}
		return c
	}
	return &Fetcher{client: build(false), insecure: build(true), log: log}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil && isTLSTrustError(err) {
		f.log.Warn("certificate verification failed, retrying without verification",
			zap.String("url", url), zap.Error(err))
		resp, err = f.insecure.R().SetContext(ctx).Get(url)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, code)
	}
	return &FetchResult{
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
		Header:     resp.Header(),
	}, nil
}

func isTLSTrustError(err error) bool {
	var cve *tls.CertificateVerificationError
	if errors.As(err, &cve) {
		return true
	}
	var ua x509.UnknownAuthorityError
	var hn x509.HostnameError
	var ci x509.CertificateInvalidError
	return errors.As(err, &ua) || errors.As(err, &hn) || errors.As(err, &ci)
}
