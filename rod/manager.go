// Package rod provides browser-automation-backed implementations of
// shelfwatch.Fetcher and shelfwatch.RedirectResolver using Chrome.
package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 50

// DefaultMaxSessions is the default bound on concurrently open pages.
const DefaultMaxSessions = 2

// BrowserManager manages browser lifecycle with automatic recycling to
// prevent memory accumulation, and bounds the number of concurrently open
// pages so parallel fetches cannot exhaust the host.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	bin       string
	pageCount int64
	maxPages  int64
	sessions  chan struct{}
	mu        sync.Mutex
	closed    atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages before the browser is recycled.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithMaxSessions bounds the number of concurrently open pages.
func WithMaxSessions(n int) ManagerOption {
	return func(bm *BrowserManager) {
		bm.sessions = make(chan struct{}, n)
	}
}

// WithBrowserBin sets an explicit Chrome binary path instead of letting
// the launcher find or download one.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// NewBrowserManager launches a headless Chrome browser. Close must be
// called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(bm)
	}
	if bm.sessions == nil {
		bm.sessions = make(chan struct{}, DefaultMaxSessions)
	}

	if err := bm.launchBrowser(); err != nil {
		return nil, err
	}

	return bm, nil
}

// Page opens a new browser page bound to ctx. The returned release
// function closes the page and frees the session slot; callers must
// invoke it on every exit path.
func (bm *BrowserManager) Page(ctx context.Context) (*rod.Page, func(), error) {
	select {
	case bm.sessions <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	browser := bm.currentBrowser()
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		<-bm.sessions
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}
	page = page.Context(ctx)

	release := func() {
		_ = page.Close()
		atomic.AddInt64(&bm.pageCount, 1)
		<-bm.sessions
	}
	return page, release, nil
}

// currentBrowser returns the browser, recycling it first if the page
// count has reached maxPages.
func (bm *BrowserManager) currentBrowser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if atomic.LoadInt64(&bm.pageCount) >= bm.maxPages {
		bm.recycleBrowser()
	}

	return bm.browser
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	return bm.closeBrowser()
}

// launchBrowser starts a new browser instance. The flag set mirrors what
// the marketplaces tolerate from automated sessions.
func (bm *BrowserManager) launchBrowser() error {
	lnchr := launcher.New().
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("disable-dev-shm-usage").
		Set("disable-browser-side-navigation").
		Set("blink-settings", "imagesEnabled=false").
		NoSandbox(true).
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		lnchr = lnchr.Bin(bm.bin)
	}

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	bm.browser = browser
	bm.launcher = lnchr
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (bm *BrowserManager) closeBrowser() error {
	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (bm *BrowserManager) recycleBrowser() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launchBrowser(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	atomic.StoreInt64(&bm.pageCount, 0)
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}
