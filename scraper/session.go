package scraper

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-channels/config"
	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/parser"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

const (
	ctxStart    = "start"
	ctxResponse = "response"
)

// Session is the cookie-carrying HTTP client used for one run. It wraps a
// synchronous colly collector so every request returns its response inline.
type Session struct {
	cfg       *config.Config
	collector *colly.Collector
	headers   http.Header
	metrics   *Metrics
	log       zerolog.Logger
}

// NewSession builds a collector for cfg. A nil transport selects the default
// pooled transport.
func NewSession(cfg *config.Config, transport http.RoundTripper, metrics *Metrics) (*Session, error) {
	parsed, err := url.Parse(cfg.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("site url must include a host")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	collector.WithTransport(transport)

	s := &Session{
		cfg:       cfg,
		collector: collector,
		headers:   browserHeaders(cfg),
		metrics:   metrics,
		log:       logging.NewLogger("session"),
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
		s.metrics.IncRequest("started")
	})
	collector.OnResponse(func(r *colly.Response) {
		s.observe(r)
		r.Ctx.Put(ctxResponse, r)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		s.observe(r)
		if r.StatusCode != 0 {
			r.Ctx.Put(ctxResponse, r)
		}
	})

	return s, nil
}

func browserHeaders(cfg *config.Config) http.Header {
	h := http.Header{}
	h.Set("User-Agent", cfg.UserAgent)
	h.Set("Accept", cfg.Accept)
	h.Set("Accept-Language", cfg.AcceptLanguage)
	h.Set("Referer", cfg.SiteURL)
	h.Set("Origin", cfg.Origin())
	h.Set("Connection", "keep-alive")
	return h
}

// Bootstrap visits the site root once so that anti-bot cookies land in the
// session jar. Callers treat the returned *BootstrapError as non-fatal.
func (s *Session) Bootstrap() error {
	resp, err := s.do(s.cfg.SiteURL)
	if err == nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		err = newBadStatus(resp.StatusCode, resp.Body)
	}
	if err != nil {
		s.metrics.IncBootstrapFailure()
		return &BootstrapError{URL: s.cfg.SiteURL, Err: err}
	}

	s.log.Debug().
		Str("url", s.cfg.SiteURL).
		Int("cookies", len(s.collector.Cookies(s.cfg.SiteURL))).
		Msg("session bootstrapped")
	return nil
}

// FetchPage requests one page and returns its records. Anything but HTTP 200
// is a *BadStatusError; network and decode failures are *TransportError.
func (s *Session) FetchPage(req models.PageRequest) ([]models.ChannelRecord, error) {
	resp, err := s.do(s.cfg.PageURL(req.Offset, req.Limit))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newBadStatus(resp.StatusCode, resp.Body)
	}

	records, err := parser.DecodePage(resp.Body, s.cfg.RecordKey)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return records, nil
}

// Cookies returns the cookies the session would send to rawURL.
func (s *Session) Cookies(rawURL string) []*http.Cookie {
	return s.collector.Cookies(rawURL)
}

// do issues a GET and returns the response for any status code the server
// produced. Only failures without a response are errors.
func (s *Session) do(rawURL string) (*colly.Response, error) {
	ctx := colly.NewContext()
	err := s.collector.Request(http.MethodGet, rawURL, nil, ctx, s.headers.Clone())
	if resp, ok := ctx.GetAny(ctxResponse).(*colly.Response); ok && resp != nil {
		return resp, nil
	}
	if err == nil {
		err = errors.New("no response received")
	}
	return nil, &TransportError{Err: err}
}

func (s *Session) observe(r *colly.Response) {
	if r.Request == nil || r.Ctx == nil {
		return
	}
	if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
		s.metrics.ObserveDuration(time.Since(start))
	}
}
