package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"time"

	"robust-element/internal/application/port/output"
	"robust-element/internal/domain/entity"
	"robust-element/internal/domain/locator"
	"robust-element/internal/infrastructure/browser/pagesource"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrClosed     = errors.New("browser is closed")
)

const (
	defaultTimeout    = 10 * time.Second
	maxScreenshotSide = 1024
)

// BrowserAdapter drives a single Chromium page through go-rod and serves as
// the root search context of that page.
type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	log      output.LoggerPort

	implicitWait time.Duration
	caps         locator.Capabilities
	closed       bool
}

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	// Timeout bounds navigation and page-level calls.
	Timeout   time.Duration
	NoSandbox bool
	DevTools  bool
	Stealth   bool
	// ImplicitWait is the initial implicit wait applied by find calls.
	ImplicitWait time.Duration
	// DisableXPath hides XPath support from callers, which then fall back to
	// CSS based lookups.
	DisableXPath bool
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Timeout:  defaultTimeout,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, log output.LoggerPort) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		Context(ctx).
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	log.Debug("browser started", "headless", cfg.Headless, "stealth", cfg.Stealth)

	return &BrowserAdapter{
		browser:      browser,
		launcher:     l,
		page:         page,
		timeout:      cfg.Timeout,
		log:          log,
		implicitWait: cfg.ImplicitWait,
		caps:         locator.Capabilities{CSS: true, XPath: !cfg.DisableXPath},
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	if b.closed {
		return ErrClosed
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	if err := page.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load failed: %w", err)
	}
	b.log.Debug("navigated", "url", rawURL)
	return nil
}

func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "file", "about":
		return nil
	}
	return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
}

func (b *BrowserAdapter) CurrentURL() string {
	if b.closed {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// PageSource returns the current document's body with scripts, styles and
// noisy attributes stripped.
func (b *BrowserAdapter) PageSource(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return pagesource.Clean(html, nil), nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	data, err := b.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return encodeScreenshot(data)
}

// encodeScreenshot scales a captured image down to maxScreenshotSide wide and
// re-encodes it as JPEG.
func encodeScreenshot(data []byte) (*entity.Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotSide {
		img = imaging.Resize(img, maxScreenshotSide, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) FindElement(ctx context.Context, by locator.By) (output.Element, error) {
	return b.findOne(ctx, scope{page: b.page}, by)
}

func (b *BrowserAdapter) FindElements(ctx context.Context, by locator.By) ([]output.Element, error) {
	return b.findAll(ctx, scope{page: b.page}, by)
}

// The page root never goes stale, so it is its own refreshed context.

func (b *BrowserAdapter) WrappedContext(ctx context.Context) (output.SearchContext, error) {
	return b, nil
}

func (b *BrowserAdapter) RefreshContext(ctx context.Context) (output.SearchContext, error) {
	return b, nil
}

func (b *BrowserAdapter) Session() output.Session { return b }

func (b *BrowserAdapter) Capabilities() locator.Capabilities { return b.caps }

func (b *BrowserAdapter) ImplicitWait() time.Duration { return b.implicitWait }

func (b *BrowserAdapter) SetImplicitWait(d time.Duration) {
	if d < 0 {
		d = 0
	}
	b.implicitWait = d
}

func (b *BrowserAdapter) ElementByScript(ctx context.Context, sc output.SearchContext, js string, args ...any) (output.Element, error) {
	var (
		el  *rod.Element
		err error
	)
	switch s := sc.(type) {
	case *BrowserAdapter:
		el, err = s.page.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(js, args...))
	case *element:
		if err := s.guard(ctx); err != nil {
			return nil, err
		}
		el, err = s.el.Context(ctx).ElementByJS(rod.Eval(js, args...))
	default:
		return nil, fmt.Errorf("%w: unsupported search context %T", output.ErrInvalidArgument, sc)
	}
	return b.scriptResult(el, err)
}

// scriptResult maps the outcome of a lookup program. A null result surfaces
// from rod as ElementNotFoundError and becomes ErrNoSuchElement.
func (b *BrowserAdapter) scriptResult(el *rod.Element, err error) (output.Element, error) {
	if err != nil {
		return nil, classify(err)
	}
	if el == nil {
		return nil, fmt.Errorf("%w: lookup script returned no element", output.ErrNoSuchElement)
	}
	return &element{el: el, b: b}, nil
}

func (b *BrowserAdapter) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	b.log.Debug("browser closed")
}
