package robust

import (
	"context"

	"robust-element/internal/application/port/output"
	"robust-element/internal/domain/entity"
	"robust-element/internal/domain/locator"
)

// Every operation below runs against the live handle and survives one
// staleness failure. On an absent Optional reference they all fail with
// output.ErrNoSuchElement.

func (e *Element) TagName(ctx context.Context) (string, error) {
	return call(ctx, e, func(el output.Element) (string, error) { return el.TagName(ctx) })
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return call(ctx, e, func(el output.Element) (string, error) { return el.Text(ctx) })
}

func (e *Element) Attribute(ctx context.Context, name string) (*string, error) {
	return call(ctx, e, func(el output.Element) (*string, error) { return el.Attribute(ctx, name) })
}

func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	return call(ctx, e, func(el output.Element) (string, error) { return el.CSSValue(ctx, property) })
}

func (e *Element) Location(ctx context.Context) (entity.Point, error) {
	return call(ctx, e, func(el output.Element) (entity.Point, error) { return el.Location(ctx) })
}

func (e *Element) Size(ctx context.Context) (entity.Size, error) {
	return call(ctx, e, func(el output.Element) (entity.Size, error) { return el.Size(ctx) })
}

func (e *Element) Rect(ctx context.Context) (entity.Rect, error) {
	return call(ctx, e, func(el output.Element) (entity.Rect, error) { return el.Rect(ctx) })
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	return call(ctx, e, func(el output.Element) (bool, error) { return el.Displayed(ctx) })
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	return call(ctx, e, func(el output.Element) (bool, error) { return el.Enabled(ctx) })
}

func (e *Element) Selected(ctx context.Context) (bool, error) {
	return call(ctx, e, func(el output.Element) (bool, error) { return el.Selected(ctx) })
}

func (e *Element) Click(ctx context.Context) error {
	return do(ctx, e, func(el output.Element) error { return el.Click(ctx) })
}

func (e *Element) Clear(ctx context.Context) error {
	return do(ctx, e, func(el output.Element) error { return el.Clear(ctx) })
}

func (e *Element) Submit(ctx context.Context) error {
	return do(ctx, e, func(el output.Element) error { return el.Submit(ctx) })
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	return do(ctx, e, func(el output.Element) error { return el.SendKeys(ctx, text) })
}

func (e *Element) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return call(ctx, e, func(el output.Element) (*entity.Screenshot, error) { return el.Screenshot(ctx) })
}

// FindElement returns a resilient reference to the first match of by below
// this element.
func (e *Element) FindElement(ctx context.Context, by locator.By) (output.Element, error) {
	el, err := GetElement(ctx, e, by, First, e.cfg)
	if err != nil {
		return nil, err
	}
	return el, nil
}

// FindElements returns resilient references to every match of by below this
// element.
func (e *Element) FindElements(ctx context.Context, by locator.By) ([]output.Element, error) {
	found, err := GetElements(ctx, e, by, e.cfg)
	if err != nil {
		return nil, err
	}
	elements := make([]output.Element, len(found))
	for i, el := range found {
		elements[i] = el
	}
	return elements, nil
}
