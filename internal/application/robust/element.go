// Package robust provides element references that survive page mutations.
//
// An Element remembers how it was found (search context, locator and match
// position) and, when the session reports that its handle went stale, finds
// the same logical element again and retries the interrupted operation once.
package robust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robust-element/internal/application/port/output"
	"robust-element/internal/application/wait"
	"robust-element/internal/domain/locator"
	"robust-element/internal/domain/script"
)

// Mode selects which match of a locator an Element wraps. Values >= 0 are
// zero-based positions built with Nth.
type Mode int

const (
	// Optional wraps the first match, which may legitimately not exist.
	Optional Mode = -2
	// First wraps the first match; equivalent to Nth(0).
	First Mode = -1
)

func Nth(n int) Mode { return Mode(n) }

func (m Mode) String() string {
	switch m {
	case Optional:
		return "optional"
	case First:
		return "first"
	}
	return fmt.Sprintf("nth(%d)", int(m))
}

// position is the zero-based match index the mode requires.
func (m Mode) position() int {
	if m < 0 {
		return 0
	}
	return int(m)
}

const DefaultImpliedTimeout = 10 * time.Second

type Config struct {
	// ImpliedTimeout bounds how long a stale reference keeps trying to find
	// its element again.
	ImpliedTimeout time.Duration
	Logger         output.LoggerPort
}

func DefaultConfig() Config {
	return Config{ImpliedTimeout: DefaultImpliedTimeout}
}

// Element is a resilient reference to a page element. It is not safe for
// concurrent use.
type Element struct {
	wrapped output.Element

	context  output.ContextWrapper
	session  output.Session
	locator  locator.By
	mode     Mode
	strategy locator.Strategy
	selector string

	cfg Config
	log output.LoggerPort
}

var (
	_ output.Element        = (*Element)(nil)
	_ output.ContextWrapper = (*Element)(nil)
)

// GetElement returns a reference to the match of by in wc selected by mode.
// Unless mode is Optional, the element must appear within the implied timeout.
func GetElement(ctx context.Context, wc output.ContextWrapper, by locator.By, mode Mode, cfg Config) (*Element, error) {
	return newElement(ctx, nil, wc, by, mode, cfg)
}

// Wrap adopts an already resolved handle. If el is itself an *Element the
// result is a copy of it and the other arguments are ignored.
func Wrap(ctx context.Context, el output.Element, wc output.ContextWrapper, by locator.By, mode Mode, cfg Config) (*Element, error) {
	return newElement(ctx, el, wc, by, mode, cfg)
}

// GetElements returns references to every current match of by in wc, in
// document order. The reference at position k re-resolves to the k-th match.
func GetElements(ctx context.Context, wc output.ContextWrapper, by locator.By, cfg Config) ([]*Element, error) {
	if wc == nil {
		return nil, fmt.Errorf("%w: context cannot be nil", output.ErrInvalidArgument)
	}
	if by.IsZero() {
		return nil, fmt.Errorf("%w: locator cannot be empty", output.ErrInvalidArgument)
	}

	sc, err := wc.WrappedContext(ctx)
	if err != nil {
		return nil, err
	}
	handles, err := sc.FindElements(ctx, by)
	if errors.Is(err, output.ErrStaleElement) {
		if sc, err = wc.RefreshContext(ctx); err == nil {
			handles, err = sc.FindElements(ctx, by)
		}
	}
	if err != nil {
		return nil, err
	}

	elements := make([]*Element, 0, len(handles))
	for i, h := range handles {
		el, err := newElement(ctx, h, wc, by, Nth(i), cfg)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return elements, nil
}

func newElement(ctx context.Context, el output.Element, wc output.ContextWrapper, by locator.By, mode Mode, cfg Config) (*Element, error) {
	if r, ok := el.(*Element); ok {
		adopted := *r
		return &adopted, nil
	}

	if wc == nil {
		return nil, fmt.Errorf("%w: context cannot be nil", output.ErrInvalidArgument)
	}
	if by.IsZero() {
		return nil, fmt.Errorf("%w: locator cannot be empty", output.ErrInvalidArgument)
	}
	if mode < Optional {
		return nil, fmt.Errorf("%w: index %d is out of range", output.ErrInvalidArgument, int(mode))
	}

	session := wc.Session()
	plan := locator.Classify(by, mode.position(), session.Capabilities())

	e := &Element{
		wrapped:  el,
		context:  wc,
		session:  session,
		locator:  plan.Locator,
		mode:     mode,
		strategy: plan.Strategy,
		selector: plan.Selector,
		cfg:      cfg,
		log:      loggerOrNop(cfg.Logger).WithFields(map[string]any{"locator": plan.Locator.String(), "mode": mode.String()}),
	}

	if el == nil {
		var err error
		if mode == Optional {
			err = e.acquire(ctx)
		} else {
			err = e.refresh(ctx, nil)
		}
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Context returns the search context the element was found in.
func (e *Element) Context() output.ContextWrapper { return e.context }

// Locator returns the locator used to resolve the element. For indexed path
// references this is the rewritten XPath locator.
func (e *Element) Locator() locator.By { return e.locator }

func (e *Element) Mode() Mode { return e.mode }
func (e *Element) Strategy() locator.Strategy { return e.strategy }
func (e *Element) Session() output.Session { return e.session }

// HasReference reports whether the element currently wraps a handle. For an
// Optional reference with no handle it makes one lookup attempt first; every
// other mode always reports true.
func (e *Element) HasReference(ctx context.Context) (bool, error) {
	if e.mode == Optional && e.wrapped == nil {
		if err := e.acquire(ctx); err != nil {
			return false, err
		}
		return e.wrapped != nil, nil
	}
	return true, nil
}

// WrappedElement returns the live handle, resolving it first when the
// reference holds none.
func (e *Element) WrappedElement(ctx context.Context) (output.Element, error) {
	if e.wrapped == nil {
		if err := e.refresh(ctx, nil); err != nil {
			return nil, err
		}
	}
	if e.wrapped == nil {
		return nil, fmt.Errorf("%w: optional %s is absent", output.ErrNoSuchElement, e.locator)
	}
	return e.wrapped, nil
}

func (e *Element) WrappedContext(ctx context.Context) (output.SearchContext, error) {
	return e.WrappedElement(ctx)
}

// RefreshContext drops the current handle and resolves the element again.
func (e *Element) RefreshContext(ctx context.Context) (output.SearchContext, error) {
	e.wrapped = nil
	if err := e.refresh(ctx, nil); err != nil {
		return nil, err
	}
	return e, nil
}

// refresh polls acquire until the element resolves or the implied timeout
// elapses. cause is the stale error that triggered the refresh, if any; it is
// what the caller sees when the refresh fails.
func (e *Element) refresh(ctx context.Context, cause error) error {
	_, err := wait.Until(ctx, e.context, wait.Options{
		Timeout: e.cfg.ImpliedTimeout,
		Message: "element reference to be refreshed",
		Ignore:  []error{output.ErrNoSuchElement},
	}, func(ctx context.Context, wc output.ContextWrapper) (struct{}, error) {
		err := e.acquire(ctx)
		if errors.Is(err, output.ErrStaleElement) {
			e.log.Debug("search context is stale, refreshing it", "error", err)
			if _, rerr := wc.RefreshContext(ctx); rerr != nil {
				return struct{}{}, rerr
			}
			err = e.acquire(ctx)
		}
		return struct{}{}, err
	})
	if err == nil {
		return nil
	}

	e.log.Debug("element reference refresh failed", "error", err)
	if cause != nil {
		return fmt.Errorf("%w (refresh: %v)", cause, err)
	}
	var timeout *wait.TimeoutError
	if errors.As(err, &timeout) && timeout.Cause != nil {
		return timeout.Cause
	}
	return err
}

// acquire makes a single lookup attempt with the element's strategy.
func (e *Element) acquire(ctx context.Context) error {
	sc, err := e.context.WrappedContext(ctx)
	if err != nil {
		return err
	}

	switch e.strategy {
	case locator.IndexedScriptSelector:
		el, err := e.session.ElementByScript(ctx, sc, script.LocateByCSS, e.selector, e.mode.position())
		if err != nil {
			return err
		}
		e.wrapped = el
	case locator.IndexedPath:
		el, err := e.session.ElementByScript(ctx, sc, script.LocateByXPath, e.selector)
		if err != nil {
			return err
		}
		e.wrapped = el
	default:
		return e.acquireDirect(ctx, sc)
	}
	return nil
}

func (e *Element) acquireDirect(ctx context.Context, sc output.SearchContext) error {
	implicit := e.session.ImplicitWait()
	e.session.SetImplicitWait(0)
	defer e.session.SetImplicitWait(implicit)

	var (
		el  output.Element
		err error
	)
	if n := e.mode.position(); n > 0 {
		var all []output.Element
		all, err = sc.FindElements(ctx, e.locator)
		if err == nil {
			if n < len(all) {
				el = all[n]
			} else {
				err = fmt.Errorf("%w: %s has %d matches, want index %d", output.ErrNoSuchElement, e.locator, len(all), n)
			}
		}
	} else {
		el, err = sc.FindElement(ctx, e.locator)
	}

	if err != nil {
		if e.mode == Optional && errors.Is(err, output.ErrNoSuchElement) {
			e.wrapped = nil
			return nil
		}
		return err
	}
	e.wrapped = el
	return nil
}

// recover handles a stale failure of an operation: the handle is dropped and
// resolved again. The returned handle is used for the single retry.
func (e *Element) recover(ctx context.Context, cause error) (output.Element, error) {
	if e.strategy == locator.Direct {
		e.log.Debug("element reference is stale, re-resolving", "strategy", e.strategy.String())
	} else {
		e.log.Debug("element reference is stale, re-resolving", "strategy", e.strategy.String(), "script_version", script.Version)
	}
	e.wrapped = nil
	if err := e.refresh(ctx, cause); err != nil {
		return nil, err
	}
	if e.wrapped == nil {
		return nil, fmt.Errorf("%w: %w", output.ErrNoSuchElement, cause)
	}
	return e.wrapped, nil
}

// call runs op against the live handle. A stale failure triggers one
// re-resolution and one retry; a second stale failure is returned as is.
func call[T any](ctx context.Context, e *Element, op func(output.Element) (T, error)) (T, error) {
	var zero T

	el, err := e.WrappedElement(ctx)
	if err != nil {
		return zero, err
	}
	v, err := op(el)
	if !errors.Is(err, output.ErrStaleElement) {
		return v, err
	}

	el, err = e.recover(ctx, err)
	if err != nil {
		return zero, err
	}
	return op(el)
}

func do(ctx context.Context, e *Element, op func(output.Element) error) error {
	_, err := call(ctx, e, func(el output.Element) (struct{}, error) {
		return struct{}{}, op(el)
	})
	return err
}
