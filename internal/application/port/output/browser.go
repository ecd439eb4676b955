package output

import (
	"context"
	"time"

	"robust-element/internal/domain/entity"
	"robust-element/internal/domain/locator"
)

// SearchContext runs find queries scoped to itself: the page root or an
// element acting as a sub-root.
type SearchContext interface {
	// FindElement returns the first match or an error wrapping
	// ErrNoSuchElement, honouring the session implicit wait.
	FindElement(ctx context.Context, by locator.By) (Element, error)
	// FindElements returns every match in document order; no match is an
	// empty slice, not an error.
	FindElements(ctx context.Context, by locator.By) ([]Element, error)
}

// ContextWrapper exposes a search context that can re-acquire itself after it
// went stale.
type ContextWrapper interface {
	WrappedContext(ctx context.Context) (SearchContext, error)
	RefreshContext(ctx context.Context) (SearchContext, error)
	Session() Session
}

// Element is a handle to a node of the live document. Any operation on a node
// that left the document fails with an error wrapping ErrStaleElement.
type Element interface {
	SearchContext

	TagName(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	// Attribute returns nil when the attribute is not set.
	Attribute(ctx context.Context, name string) (*string, error)
	CSSValue(ctx context.Context, property string) (string, error)

	Location(ctx context.Context) (entity.Point, error)
	Size(ctx context.Context) (entity.Size, error)
	Rect(ctx context.Context) (entity.Rect, error)

	Displayed(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Selected(ctx context.Context) (bool, error)

	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Submit(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
}

// Session is the root search context of a browser page.
type Session interface {
	SearchContext
	ContextWrapper

	Capabilities() locator.Capabilities

	ImplicitWait() time.Duration
	SetImplicitWait(d time.Duration)

	// ElementByScript runs one of the lookup programs with scope bound as
	// this. A null result is reported as ErrNoSuchElement.
	ElementByScript(ctx context.Context, scope SearchContext, js string, args ...any) (Element, error)
}

// BrowserPort is a Session that also drives the page itself.
type BrowserPort interface {
	Session

	Navigate(ctx context.Context, url string) error
	CurrentURL() string
	PageSource(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	Close()
}
