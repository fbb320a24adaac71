package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var errElementNotFound = errors.New("element not found")

// Selector locates the price element on a product page. CSS is tried first,
// then XPath.
type Selector struct {
	CSS   string
	XPath string
}

// Scraper reads a price from a web page. It uses plain HTTP first and falls
// back to a headless browser when the element is missing from the static
// HTML.
type Scraper struct {
	client  *http.Client
	pw      *playwright.Playwright
	browser playwright.Browser
	mu      sync.Mutex
	started bool
}

func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Start launches the headless browser. It is called lazily by the
// fallback path.
func (s *Scraper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := playwright.Install(); err != nil {
		return fmt.Errorf("could not install playwright: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("could not launch browser: %w", err)
	}
	s.pw = pw
	s.browser = browser
	s.started = true

	slog.Info("Playwright browser started")
	return nil
}

// Stop closes the browser if it was started.
func (s *Scraper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.pw != nil {
		s.pw.Stop()
	}
	s.started = false
	slog.Info("Playwright browser stopped")
}

// ScrapePrice returns the trimmed text of the price element at url.
func (s *Scraper) ScrapePrice(ctx context.Context, url string, sel Selector) (string, error) {
	price, err := s.scrapePriceHTTP(ctx, url, sel)
	if err == nil {
		return price, nil
	}

	if errors.Is(err, errElementNotFound) && sel.CSS != "" {
		slog.Info("HTTP scrape failed, trying Playwright", "url", url, "error", err)
		return s.scrapePricePlaywright(ctx, url, sel.CSS)
	}
	return "", err
}

func (s *Scraper) scrapePriceHTTP(ctx context.Context, url string, sel Selector) (string, error) {
	if sel.CSS == "" && sel.XPath == "" {
		return "", fmt.Errorf("no selector provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		return "", err
	}

	if sel.CSS != "" {
		selection := goquery.NewDocumentFromNode(doc).Find(sel.CSS).First()
		if selection.Length() > 0 {
			return strings.TrimSpace(selection.Text()), nil
		}
	}
	if sel.XPath != "" {
		node, err := htmlquery.Query(doc, sel.XPath)
		if err != nil {
			return "", fmt.Errorf("invalid xpath %s: %w", sel.XPath, err)
		}
		if node != nil {
			return strings.TrimSpace(htmlquery.InnerText(node)), nil
		}
	}
	return "", fmt.Errorf("%w: css=%q xpath=%q", errElementNotFound, sel.CSS, sel.XPath)
}

func (s *Scraper) scrapePricePlaywright(ctx context.Context, url, cssSelector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.Start(); err != nil {
		return "", fmt.Errorf("failed to start playwright: %w", err)
	}
	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
		Locale:            playwright.String("es-ES"),
		TimezoneId:        playwright.String("Europe/Madrid"),
		JavaScriptEnabled: playwright.Bool(true),
		ExtraHttpHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "es-ES,es;q=0.9,en;q=0.8",
		},
	})
	if err != nil {
		return "", fmt.Errorf("could not create context: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("could not create page: %w", err)
	}
	defer page.Close()

	// Hide navigator.webdriver from bot checks.
	err = page.AddInitScript(playwright.Script{
		Content: playwright.String(`Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`),
	})
	if err != nil {
		slog.Warn("Could not add stealth script", "error", err)
	}

	// Closing the page aborts a pending navigation or wait.
	stop := context.AfterFunc(ctx, func() { page.Close() })
	defer stop()

	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("could not navigate to page: %w", err)
	}

	locator := page.Locator(cssSelector).First()
	err = locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(15000),
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w with css selector (Playwright): %s", errElementNotFound, cssSelector)
	}

	text, err := locator.TextContent()
	if err != nil {
		return "", fmt.Errorf("could not get text content: %w", err)
	}
	return strings.TrimSpace(text), nil
}
