package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

// DefaultUserAgent identifies the reviewer to the sites it audits.
const DefaultUserAgent = "DOAJ-Reviewer/0.1 (+https://github.com/ikhwan-arief/DOAJ-Reviewer)"

// insecureTag marks documents retrieved without certificate verification so
// downstream consumers can treat them as lower-trust evidence.
const insecureTag = "tls=insecure-no-verify"

// StaticConfig controls the static fetcher.
type StaticConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// StaticFetcher performs single HTTP retrievals through a Colly collector.
type StaticFetcher struct {
	cfg           StaticConfig
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewStaticFetcher builds a configured fetcher.
func NewStaticFetcher(cfg StaticConfig, logger *zap.Logger) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2_000_000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(colly.Async(false), colly.UserAgent(cfg.UserAgent))
	base.IgnoreRobotsTxt = true
	base.ParseHTTPErrorResponse = true
	base.AllowURLRevisit = true
	base.MaxBodySize = cfg.MaxBodyBytes
	base.SetRequestTimeout(cfg.Timeout)

	return &StaticFetcher{
		cfg:           cfg,
		baseCollector: base,
		logger:        logger,
	}
}

// Fetch issues one GET and decodes the response into a Document. When the
// TLS certificate cannot be verified it retries exactly once over a
// non-verifying transport and tags the content type as insecure; every other
// transport failure propagates to the caller.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) (document.Document, error) {
	staticFetches.Inc()
	raw, err := f.fetchRaw(ctx, url, newTransport(false))
	if err != nil {
		if !isCertVerificationError(err) {
			return document.Document{}, err
		}
		insecureRetries.Inc()
		f.logger.Warn("certificate verification failed, retrying without verification",
			zap.String("url", url), zap.Error(err))
		raw, err = f.fetchRaw(ctx, url, newTransport(true))
		if err != nil {
			return document.Document{}, err
		}
		if raw.contentType == "" {
			raw.contentType = "text/html"
		}
		raw.contentType += "; " + insecureTag
	}

	html := document.DecodeBody(raw.body, raw.contentType)
	return document.Parse(url, raw.statusCode, raw.contentType, html)
}

type rawResponse struct {
	statusCode  int
	contentType string
	body        []byte
}

func (f *StaticFetcher) fetchRaw(ctx context.Context, url string, transport *http.Transport) (rawResponse, error) {
	collector := f.baseCollector.Clone()
	collector.WithTransport(transport)

	var (
		result   rawResponse
		received bool
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		result = rawResponse{
			statusCode:  r.StatusCode,
			contentType: r.Headers.Get("Content-Type"),
			body:        append([]byte(nil), r.Body...),
		}
		received = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		// ParseHTTPErrorResponse routes error statuses through OnResponse;
		// anything landing here is a transport-level failure.
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return rawResponse{}, fmt.Errorf("fetch %s canceled: %w", url, ctx.Err())
	case visitErr := <-done:
		switch {
		case fetchErr != nil:
			return rawResponse{}, fmt.Errorf("fetch %s: %w", url, fetchErr)
		case visitErr != nil:
			return rawResponse{}, fmt.Errorf("fetch %s: %w", url, visitErr)
		case !received:
			return rawResponse{}, fmt.Errorf("fetch %s produced no response", url)
		}
		return result, nil
	}
}

func newTransport(insecure bool) *http.Transport {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          32,
		IdleConnTimeout:       90 * time.Second,
	}
	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- deliberate one-shot downgrade, result is tagged
	}
	return t
}

func isCertVerificationError(err error) bool {
	if err == nil {
		return false
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "certificate verify failed") ||
		strings.Contains(text, "certificate signed by unknown authority") ||
		strings.Contains(text, "certificate is not trusted")
}
