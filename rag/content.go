package rag

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.ContentStore = (*ContentStore)(nil)

// ContentStore serves page content from the cache, fetching and extracting
// pages the first time they are requested. It is the only writer of page
// content records.
type ContentStore struct {
	Cache       catalogqa.Cache
	Fetcher     catalogqa.Fetcher
	Extractor   catalogqa.Extractor
	Converter   catalogqa.Converter
	RateLimiter catalogqa.DomainLimiter
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// GetContent returns the content of the page at pageURL.
func (s *ContentStore) GetContent(ctx context.Context, pageURL string) (*catalogqa.PageContent, error) {
	if pageURL == "" {
		return nil, catalogqa.Errorf(catalogqa.EINVALID, "page URL required")
	}

	page, err := s.cached(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if page != nil {
		return page, nil
	}

	content, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page = &catalogqa.PageContent{URL: pageURL, Content: content}
	data, err := catalogqa.MarshalPageContent(page)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, PageKey(pageURL), ContentField, data); err != nil {
		return nil, err
	}

	return page, nil
}

// cached returns the cached page or nil on a miss. Records that fail to
// decode count as misses and are overwritten by the caller.
func (s *ContentStore) cached(ctx context.Context, pageURL string) (*catalogqa.PageContent, error) {
	data, err := s.Cache.Get(ctx, PageKey(pageURL), ContentField)
	if catalogqa.ErrorCode(err) == catalogqa.ENOTFOUND {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	page, err := catalogqa.UnmarshalPageContent(data)
	if err != nil {
		logger(s.Logger).Warn("discarding cached page", "url", pageURL, "error", err)
		return nil, nil
	}
	if page.URL != pageURL {
		logger(s.Logger).Warn("discarding cached page", "url", pageURL, "recordURL", page.URL)
		return nil, nil
	}

	return page, nil
}

// fetch downloads the page and reduces its content region to text.
func (s *ContentStore) fetch(ctx context.Context, pageURL string) (string, error) {
	if s.RateLimiter != nil {
		u, err := url.Parse(pageURL)
		if err != nil {
			return "", catalogqa.Errorf(catalogqa.EFETCH, "invalid page URL %q", pageURL)
		}
		if err := s.RateLimiter.Wait(ctx, u.Host); err != nil {
			return "", catalogqa.Errorf(catalogqa.EFETCH, "rate limit wait for %s: %v", pageURL, err)
		}
	}

	fetchCtx, cancel := withTimeout(ctx, s.CallTimeout)
	defer cancel()

	html, err := s.Fetcher.Fetch(fetchCtx, pageURL)
	if err != nil {
		if catalogqa.IsTimeout(err) {
			return "", catalogqa.Errorf(catalogqa.ETIMEOUT, "fetch %s timed out", pageURL)
		}
		if catalogqa.ErrorCode(err) == catalogqa.EINTERNAL {
			return "", catalogqa.Errorf(catalogqa.EFETCH, "fetch %s: %v", pageURL, err)
		}
		return "", err
	}

	region, err := s.Extractor.Extract(html)
	if err != nil {
		return "", err
	}

	return s.Converter.Convert(region)
}

// logger returns l, or a logger that discards everything when l is nil.
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
