package scraper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

const systemChromium = "/usr/bin/chromium-browser"

// stealthScript hides the most common headless-browser fingerprints
const stealthScript = `
	Object.defineProperty(navigator, 'userAgent', {
		get: function () { return 'Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36'; }
	});
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
	window.chrome = { runtime: {} };
`

// RodConfig configures the headless browser fetcher
type RodConfig struct {
	BrowserBin string
	Timeout    time.Duration
	// SettleDelay is how long to wait after load for client-rendered prices
	SettleDelay time.Duration
}

// RodFetcher renders product pages in headless Chromium and returns the final DOM
type RodFetcher struct {
	browser  *rod.Browser
	config   RodConfig
	detector *BotDetector
	log      logrus.FieldLogger
}

// NewRodFetcher launches (or locates) Chromium and connects to it
func NewRodFetcher(cfg RodConfig, log logrus.FieldLogger) (*RodFetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	log = log.WithField("fetcher", "rod")

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	switch {
	case cfg.BrowserBin != "":
		l = l.Bin(cfg.BrowserBin)
	default:
		if _, err := os.Stat(systemChromium); err == nil {
			l = l.Bin(systemChromium)
			log.Info("Using system Chromium")
		} else {
			log.Info("Using auto-detected Chromium")
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	log.WithField("control_url", controlURL).Info("🌐 Browser connected")

	return &RodFetcher{
		browser:  browser,
		config:   cfg,
		detector: NewBotDetector(),
		log:      log,
	}, nil
}

// Close closes the browser
func (f *RodFetcher) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}

// Fetch navigates to sourceID and returns the rendered HTML
func (f *RodFetcher) Fetch(ctx context.Context, sourceID string) (string, error) {
	if strings.TrimSpace(sourceID) == "" {
		return "", fmt.Errorf("%w: empty source id", ErrRetrievalFailed)
	}

	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("%w: failed to open page: %v", ErrRetrievalFailed, err)
	}
	defer page.Close()

	page = page.Timeout(f.config.Timeout)
	defer page.CancelTimeout()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		return "", fmt.Errorf("%w: failed to set viewport: %v", ErrRetrievalFailed, err)
	}

	if _, err := page.EvalOnNewDocument(stealthScript); err != nil {
		return "", fmt.Errorf("%w: failed to install stealth script: %v", ErrRetrievalFailed, err)
	}

	if err := page.Navigate(sourceID); err != nil {
		return "", fmt.Errorf("%w: navigation failed: %v", ErrRetrievalFailed, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("%w: page did not load: %v", ErrRetrievalFailed, err)
	}

	if f.config.SettleDelay > 0 {
		select {
		case <-time.After(f.config.SettleDelay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrRetrievalFailed, ctx.Err())
		}
	}

	markup, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: failed to read DOM: %v", ErrRetrievalFailed, err)
	}
	if strings.TrimSpace(markup) == "" {
		return "", ErrEmptyDocument
	}

	if err := f.detector.Check(markup); err != nil {
		f.log.WithField("source_id", sourceID).Warnf("🤖 %v", err)
		return "", err
	}

	return markup, nil
}
