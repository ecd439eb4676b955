package robust

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"robust-element/internal/application/port/output"
	"robust-element/internal/domain/entity"
	"robust-element/internal/domain/locator"
	"robust-element/internal/domain/script"
)

// fakeNode is a node of the in-memory document served by fakeSession.
type fakeNode struct {
	tag      string
	id       string
	class    string
	text     string
	parent   *fakeNode
	children []*fakeNode
	clicks   int
}

func node(tag, id, class, text string, children ...*fakeNode) *fakeNode {
	n := &fakeNode{tag: tag, id: id, class: class, text: text}
	for _, c := range children {
		n.append(c)
	}
	return n
}

func (n *fakeNode) append(c *fakeNode) {
	c.parent = n
	n.children = append(n.children, c)
}

func (n *fakeNode) remove() {
	if n.parent == nil {
		return
	}
	kids := n.parent.children
	for i, c := range kids {
		if c == n {
			n.parent.children = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *fakeNode) clone() *fakeNode {
	c := &fakeNode{tag: n.tag, id: n.id, class: n.class, text: n.text}
	for _, k := range n.children {
		c.append(k.clone())
	}
	return c
}

// descendants lists the nodes below n in document order.
func (n *fakeNode) descendants() []*fakeNode {
	var out []*fakeNode
	for _, c := range n.children {
		out = append(out, c)
		out = append(out, c.descendants()...)
	}
	return out
}

func (n *fakeNode) hasClass(class string) bool {
	for _, c := range strings.Fields(n.class) {
		if c == class {
			return true
		}
	}
	return false
}

// fakeSession is an in-memory output.Session. Handles go stale when their
// node leaves the document.
type fakeSession struct {
	root *fakeNode
	caps locator.Capabilities

	implicit       time.Duration
	implicitAtFind []time.Duration

	scripts []string
	finds   int
	// findErr is returned by the next find call.
	findErr error
	// forceStale makes the next n element operations fail as stale.
	forceStale int
}

var _ output.Session = (*fakeSession)(nil)

func newFakeSession(caps locator.Capabilities, children ...*fakeNode) *fakeSession {
	return &fakeSession{root: node("#document", "", "", "", children...), caps: caps}
}

// rerender replaces every node of the document with a copy, invalidating all
// handles.
func (s *fakeSession) rerender() {
	fresh := s.root.clone()
	for _, old := range s.root.children {
		old.parent = nil
	}
	s.root.children = nil
	for _, c := range fresh.children {
		s.root.append(c)
	}
}

func (s *fakeSession) connected(n *fakeNode) bool {
	for p := n; p != nil; p = p.parent {
		if p == s.root {
			return true
		}
	}
	return false
}

func (s *fakeSession) scopeNode(scope output.SearchContext) (*fakeNode, error) {
	switch sc := scope.(type) {
	case *fakeSession:
		return s.root, nil
	case *fakeElement:
		if !s.connected(sc.node) {
			return nil, fmt.Errorf("%w: scope node detached", output.ErrStaleElement)
		}
		return sc.node, nil
	}
	return nil, fmt.Errorf("%w: unsupported scope %T", output.ErrInvalidArgument, scope)
}

func (s *fakeSession) findAll(scope *fakeNode, by locator.By) ([]output.Element, error) {
	s.finds++
	s.implicitAtFind = append(s.implicitAtFind, s.implicit)
	if err := s.findErr; err != nil {
		s.findErr = nil
		return nil, err
	}

	var match func(*fakeNode) bool
	if css, ok := locator.CSSFor(by); ok {
		match = cssMatcher(css)
	} else {
		xpath, _ := locator.XPathFor(by)
		return s.evalXPath(scope, xpath), nil
	}

	var out []output.Element
	for _, n := range scope.descendants() {
		if match(n) {
			out = append(out, &fakeElement{node: n, s: s})
		}
	}
	return out, nil
}

func (s *fakeSession) FindElement(ctx context.Context, by locator.By) (output.Element, error) {
	return first(s.findAll(s.root, by))
}

func (s *fakeSession) FindElements(ctx context.Context, by locator.By) ([]output.Element, error) {
	return s.findAll(s.root, by)
}

func (s *fakeSession) WrappedContext(ctx context.Context) (output.SearchContext, error) { return s, nil }
func (s *fakeSession) RefreshContext(ctx context.Context) (output.SearchContext, error) { return s, nil }
func (s *fakeSession) Session() output.Session { return s }
func (s *fakeSession) Capabilities() locator.Capabilities { return s.caps }
func (s *fakeSession) ImplicitWait() time.Duration { return s.implicit }
func (s *fakeSession) SetImplicitWait(d time.Duration) { s.implicit = d }

func (s *fakeSession) ElementByScript(ctx context.Context, scope output.SearchContext, js string, args ...any) (output.Element, error) {
	root, err := s.scopeNode(scope)
	if err != nil {
		return nil, err
	}

	var found []output.Element
	switch js {
	case script.LocateByCSS:
		s.scripts = append(s.scripts, "css")
		match := cssMatcher(args[0].(string))
		index := args[1].(int)
		for _, n := range root.descendants() {
			if match(n) {
				found = append(found, &fakeElement{node: n, s: s})
			}
		}
		if index >= len(found) {
			return nil, fmt.Errorf("%w: script returned null", output.ErrNoSuchElement)
		}
		return found[index], nil
	case script.LocateByXPath:
		s.scripts = append(s.scripts, "xpath")
		return first(s.evalXPath(root, args[0].(string)), nil)
	}
	return nil, fmt.Errorf("unknown script")
}

var (
	positional = regexp.MustCompile(`^\((.*)\)\[(\d+)\]$`)
	byAttr     = regexp.MustCompile(`^\.//\*\[@(id|name)='([^']*)'\]$`)
	byClass    = regexp.MustCompile(`^\.//\*\[contains\(concat\(' ',normalize-space\(@class\),' '\),' ([^ ]+) '\)\]$`)
	byTag      = regexp.MustCompile(`^\.?//([a-z]+)$`)
)

// evalXPath understands the expressions produced by locator.XPathFor, wrapped
// or not in a positional predicate.
func (s *fakeSession) evalXPath(scope *fakeNode, expr string) []output.Element {
	pos := 0
	if m := positional.FindStringSubmatch(expr); m != nil {
		expr = m[1]
		pos, _ = strconv.Atoi(m[2])
	}

	var match func(*fakeNode) bool
	switch {
	case byAttr.MatchString(expr):
		m := byAttr.FindStringSubmatch(expr)
		match = func(n *fakeNode) bool { return m[1] == "id" && n.id == m[2] }
	case byClass.MatchString(expr):
		m := byClass.FindStringSubmatch(expr)
		match = func(n *fakeNode) bool { return n.hasClass(m[1]) }
	case byTag.MatchString(expr):
		m := byTag.FindStringSubmatch(expr)
		match = func(n *fakeNode) bool { return n.tag == m[1] }
	default:
		match = func(*fakeNode) bool { return false }
	}

	var out []output.Element
	for _, n := range scope.descendants() {
		if match(n) {
			out = append(out, &fakeElement{node: n, s: s})
		}
	}
	if pos > 0 {
		if pos > len(out) {
			return nil
		}
		return out[pos-1 : pos]
	}
	return out
}

func cssMatcher(css string) func(*fakeNode) bool {
	switch {
	case strings.HasPrefix(css, "#"):
		return func(n *fakeNode) bool { return n.id == css[1:] }
	case strings.HasPrefix(css, "."):
		return func(n *fakeNode) bool { return n.hasClass(css[1:]) }
	default:
		return func(n *fakeNode) bool { return n.tag == css }
	}
}

func first(all []output.Element, err error) (output.Element, error) {
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no match", output.ErrNoSuchElement)
	}
	return all[0], nil
}

type fakeElement struct {
	node *fakeNode
	s    *fakeSession
}

var _ output.Element = (*fakeElement)(nil)

func (e *fakeElement) check() error {
	if e.s.forceStale > 0 {
		e.s.forceStale--
		return fmt.Errorf("%w: forced", output.ErrStaleElement)
	}
	if !e.s.connected(e.node) {
		return fmt.Errorf("%w: node detached", output.ErrStaleElement)
	}
	return nil
}

func value[T any](e *fakeElement, v func() T) (T, error) {
	if err := e.check(); err != nil {
		var zero T
		return zero, err
	}
	return v(), nil
}

func (e *fakeElement) FindElement(ctx context.Context, by locator.By) (output.Element, error) {
	if !e.s.connected(e.node) {
		return nil, fmt.Errorf("%w: node detached", output.ErrStaleElement)
	}
	return first(e.s.findAll(e.node, by))
}

func (e *fakeElement) FindElements(ctx context.Context, by locator.By) ([]output.Element, error) {
	if !e.s.connected(e.node) {
		return nil, fmt.Errorf("%w: node detached", output.ErrStaleElement)
	}
	return e.s.findAll(e.node, by)
}

func (e *fakeElement) TagName(ctx context.Context) (string, error) {
	return value(e, func() string { return e.node.tag })
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	return value(e, func() string { return e.node.text })
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (*string, error) {
	return value(e, func() *string {
		switch name {
		case "id":
			return &e.node.id
		case "class":
			return &e.node.class
		}
		return nil
	})
}

func (e *fakeElement) CSSValue(ctx context.Context, property string) (string, error) {
	return value(e, func() string { return "block" })
}

func (e *fakeElement) Location(ctx context.Context) (entity.Point, error) {
	return value(e, func() entity.Point { return entity.Point{X: 1, Y: 2} })
}

func (e *fakeElement) Size(ctx context.Context) (entity.Size, error) {
	return value(e, func() entity.Size { return entity.Size{Width: 3, Height: 4} })
}

func (e *fakeElement) Rect(ctx context.Context) (entity.Rect, error) {
	return value(e, func() entity.Rect {
		return entity.Rect{Point: entity.Point{X: 1, Y: 2}, Size: entity.Size{Width: 3, Height: 4}}
	})
}

func (e *fakeElement) Displayed(ctx context.Context) (bool, error) {
	return value(e, func() bool { return true })
}

func (e *fakeElement) Enabled(ctx context.Context) (bool, error) {
	return value(e, func() bool { return true })
}

func (e *fakeElement) Selected(ctx context.Context) (bool, error) {
	return value(e, func() bool { return false })
}

func (e *fakeElement) Click(ctx context.Context) error {
	_, err := value(e, func() int { e.node.clicks++; return e.node.clicks })
	return err
}

func (e *fakeElement) Clear(ctx context.Context) error {
	_, err := value(e, func() string { e.node.text = ""; return "" })
	return err
}

func (e *fakeElement) Submit(ctx context.Context) error {
	return e.check()
}

func (e *fakeElement) SendKeys(ctx context.Context, text string) error {
	_, err := value(e, func() string { e.node.text += text; return e.node.text })
	return err
}

func (e *fakeElement) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return value(e, func() *entity.Screenshot {
		return &entity.Screenshot{Data: []byte(e.node.text), Format: "png", Width: 3, Height: 4}
	})
}

// recordingLogger keeps every entry, with the fields of the logger it was
// derived from merged into the entry's args.
type recordingLogger struct {
	fields  map[string]any
	entries *[]logEntry
}

type logEntry struct {
	msg    string
	fields map[string]any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{fields: map[string]any{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) record(msg string, args ...any) {
	fields := make(map[string]any, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			fields[k] = args[i+1]
		}
	}
	*l.entries = append(*l.entries, logEntry{msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record(msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record(msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record(msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record(msg, args...) }

func (l *recordingLogger) WithField(key string, value any) output.LoggerPort {
	return l.WithFields(map[string]any{key: value})
}

func (l *recordingLogger) WithFields(fields map[string]any) output.LoggerPort {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{fields: merged, entries: l.entries}
}

func (l *recordingLogger) Close() error { return nil }

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	for _, e := range *l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}
