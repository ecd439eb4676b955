package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"robust-element/internal/application/port/output"
	"robust-element/internal/domain/entity"
	"robust-element/internal/domain/locator"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.Element = (*element)(nil)

// element is a raw handle to a node. It goes stale as soon as the node leaves
// the document; it never re-resolves itself.
type element struct {
	el *rod.Element
	b  *BrowserAdapter
}

// scope is either the page or an element; finds run below it.
type scope struct {
	page *rod.Page
	el   *rod.Element
}

// Messages CDP reports for handles whose node or execution context is gone.
var staleMessages = []string{
	"could not find node with given id",
	"no node with given id found",
	"node with given id does not belong to the document",
	"node is detached from document",
	"cannot find context with specified id",
	"execution context was destroyed",
	"cannot find object with id",
}

// classify maps rod and CDP failures onto output error kinds. Anything else is
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, output.ErrStaleElement) || errors.Is(err, output.ErrNoSuchElement) {
		return err
	}

	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", output.ErrNoSuchElement, err)
	}
	var objectGone *rod.ObjectNotFoundError
	if errors.As(err, &objectGone) {
		return fmt.Errorf("%w: %v", output.ErrStaleElement, err)
	}
	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		msg := strings.ToLower(cdpErr.Message)
		for _, m := range staleMessages {
			if strings.Contains(msg, m) {
				return fmt.Errorf("%w: %v", output.ErrStaleElement, err)
			}
		}
	}
	return err
}

// query renders a locator for rod, preferring CSS.
func query(by locator.By) (q string, xpath bool, err error) {
	if css, ok := locator.CSSFor(by); ok {
		return css, false, nil
	}
	if xp, ok := locator.XPathFor(by); ok {
		return xp, true, nil
	}
	return "", false, fmt.Errorf("%w: cannot render %s", output.ErrInvalidArgument, by)
}

func (s scope) guard(ctx context.Context) error {
	if s.el == nil {
		return nil
	}
	return (&element{el: s.el}).guard(ctx)
}

// waitFirst blocks until the query matches something or d elapses.
func (s scope) waitFirst(ctx context.Context, d time.Duration, q string, xpath bool) error {
	var err error
	switch {
	case s.el != nil && xpath:
		_, err = s.el.Context(ctx).Timeout(d).ElementX(q)
	case s.el != nil:
		_, err = s.el.Context(ctx).Timeout(d).Element(q)
	case xpath:
		_, err = s.page.Context(ctx).Timeout(d).ElementX(q)
	default:
		_, err = s.page.Context(ctx).Timeout(d).Element(q)
	}
	return err
}

func (s scope) all(ctx context.Context, q string, xpath bool) (rod.Elements, error) {
	switch {
	case s.el != nil && xpath:
		return s.el.Context(ctx).ElementsX(q)
	case s.el != nil:
		return s.el.Context(ctx).Elements(q)
	case xpath:
		return s.page.Context(ctx).ElementsX(q)
	default:
		return s.page.Context(ctx).Elements(q)
	}
}

// findAll lists the matches below s. With a non-zero implicit wait it first
// waits for at least one match; running out of time yields an empty list.
func (b *BrowserAdapter) findAll(ctx context.Context, s scope, by locator.By) ([]output.Element, error) {
	if b.closed {
		return nil, ErrClosed
	}
	q, xpath, err := query(by)
	if err != nil {
		return nil, err
	}
	if err := s.guard(ctx); err != nil {
		return nil, err
	}

	if wait := b.implicitWait; wait > 0 {
		if err := s.waitFirst(ctx, wait, q, xpath); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, classify(err)
		}
	}

	found, err := s.all(ctx, q, xpath)
	if err != nil {
		return nil, classify(err)
	}
	elements := make([]output.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &element{el: el, b: b})
	}
	return elements, nil
}

func (b *BrowserAdapter) findOne(ctx context.Context, s scope, by locator.By) (output.Element, error) {
	found, err := b.findAll(ctx, s, by)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", output.ErrNoSuchElement, by)
	}
	return found[0], nil
}

// guard reports ErrStaleElement for a node that left the document. Rod keeps
// detached nodes readable, so every operation checks first.
func (e *element) guard(ctx context.Context) error {
	res, err := e.el.Context(ctx).Eval(`() => this.isConnected`)
	if err != nil {
		return classify(err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: node is detached from document", output.ErrStaleElement)
	}
	return nil
}

func (e *element) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	if err := e.guard(ctx); err != nil {
		return nil, err
	}
	res, err := e.el.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

func (e *element) FindElement(ctx context.Context, by locator.By) (output.Element, error) {
	return e.b.findOne(ctx, scope{el: e.el}, by)
}

func (e *element) FindElements(ctx context.Context, by locator.By) ([]output.Element, error) {
	return e.b.findAll(ctx, scope{el: e.el}, by)
}

func (e *element) TagName(ctx context.Context) (string, error) {
	res, err := e.eval(ctx, `() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.guard(ctx); err != nil {
		return "", err
	}
	text, err := e.el.Context(ctx).Text()
	if err != nil {
		return "", classify(err)
	}
	return text, nil
}

func (e *element) Attribute(ctx context.Context, name string) (*string, error) {
	if err := e.guard(ctx); err != nil {
		return nil, err
	}
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return nil, classify(err)
	}
	return v, nil
}

func (e *element) CSSValue(ctx context.Context, property string) (string, error) {
	res, err := e.eval(ctx, `(p) => getComputedStyle(this).getPropertyValue(p)`, property)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) Rect(ctx context.Context) (entity.Rect, error) {
	res, err := e.eval(ctx, `() => {
		const r = this.getBoundingClientRect();
		return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
	}`)
	if err != nil {
		return entity.Rect{}, err
	}
	v := res.Value
	return entity.Rect{
		Point: entity.Point{X: v.Get("x").Int(), Y: v.Get("y").Int()},
		Size:  entity.Size{Width: v.Get("width").Int(), Height: v.Get("height").Int()},
	}, nil
}

func (e *element) Location(ctx context.Context) (entity.Point, error) {
	r, err := e.Rect(ctx)
	return r.Point, err
}

func (e *element) Size(ctx context.Context) (entity.Size, error) {
	r, err := e.Rect(ctx)
	return r.Size, err
}

func (e *element) Displayed(ctx context.Context) (bool, error) {
	if err := e.guard(ctx); err != nil {
		return false, err
	}
	visible, err := e.el.Context(ctx).Visible()
	if err != nil {
		return false, classify(err)
	}
	return visible, nil
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	res, err := e.eval(ctx, `() => !this.disabled`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *element) Selected(ctx context.Context) (bool, error) {
	res, err := e.eval(ctx, `() => !!(this.checked || this.selected)`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.guard(ctx); err != nil {
		return err
	}
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(err)
	}
	return nil
}

func (e *element) Clear(ctx context.Context) error {
	_, err := e.eval(ctx, `() => {
		this.value = '';
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`)
	return err
}

func (e *element) Submit(ctx context.Context) error {
	res, err := e.eval(ctx, `() => {
		const form = this.tagName === 'FORM' ? this : this.form || this.closest('form');
		if (!form) return false;
		if (form.requestSubmit) form.requestSubmit(); else form.submit();
		return true;
	}`)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("submit: element is not inside a form")
	}
	return nil
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	if err := e.guard(ctx); err != nil {
		return err
	}
	if err := e.el.Context(ctx).Input(text); err != nil {
		return classify(err)
	}
	return nil
}

func (e *element) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := e.guard(ctx); err != nil {
		return nil, err
	}
	data, err := e.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, classify(err)
	}
	return encodeScreenshot(data)
}
