package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodFetcher drives one headless browser instance for a whole enrichment run.
// Pages are opened in an incognito context per URL so goroutines can fetch in
// parallel without sharing cookies or cache.
type RodFetcher struct {
	mu        sync.Mutex
	launcher  *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser

	pruneThreshold float64
	logger         *slog.Logger
}

func NewRodFetcher(pruneThreshold float64, logger *slog.Logger) *RodFetcher {
	return &RodFetcher{
		pruneThreshold: pruneThreshold,
		logger:         logger,
	}
}

// ensureBrowser launches the browser lazily on first use. Launch failures are
// returned per fetch so a broken environment degrades to empty raw content
// rather than aborting the run.
func (f *RodFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.incognito != nil {
		return f.incognito, nil
	}

	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open incognito context: %w", err)
	}

	f.launcher = l
	f.browser = browser
	f.incognito = incognito
	return incognito, nil
}

// Fetch navigates to url, waits for DOM content, and returns the page as
// pruned markdown. The ctx deadline bounds the whole operation. An empty
// string with a nil error means the page rendered nothing usable.
func (f *RodFetcher) Fetch(ctx context.Context, url string) (string, error) {
	incognito, err := f.ensureBrowser()
	if err != nil {
		return "", err
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)

	// Always fetch fresh content; enrichment runs care about current pages.
	if err := (proto.NetworkSetCacheDisabled{CacheDisabled: true}).Call(page); err != nil {
		f.logger.Debug("cache_bypass_unavailable", slog.String("url", url), slog.String("error", err.Error()))
	}

	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}

	return ProjectMarkdown(html, f.pruneThreshold), nil
}

// Close tears down the shared browser. Safe to call without a prior Fetch.
func (f *RodFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
		f.incognito = nil
	}
	if f.launcher != nil {
		f.launcher.Cleanup()
		f.launcher = nil
	}
	return err
}
