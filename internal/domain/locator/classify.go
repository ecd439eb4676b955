package locator

import "fmt"

// Strategy selects how an indexed element is looked up again after its handle
// goes stale.
type Strategy int

const (
	// Direct uses the search context's native find operations with the
	// original locator.
	Direct Strategy = iota
	// IndexedPath rewrites the locator into an XPath expression with a
	// positional predicate.
	IndexedPath
	// IndexedScriptSelector keeps the locator and fetches the Nth match of its
	// CSS rendering with an injected script.
	IndexedScriptSelector
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case IndexedPath:
		return "indexed-path"
	case IndexedScriptSelector:
		return "indexed-script-selector"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Capabilities reports which query dialects a session understands.
type Capabilities struct {
	CSS   bool
	XPath bool
}

// Plan is the outcome of Classify.
type Plan struct {
	Strategy Strategy
	// Locator is the locator to resolve with; for IndexedPath it is the
	// rewritten XPath locator.
	Locator By
	// Selector is the expression handed to the lookup script. Empty for Direct.
	Selector string
}

// Classify picks the resolution strategy for the match at position nth.
// Any nth <= 0 (first match, optional match) resolves directly. It never
// fails: when no indexed form is available the plan falls back to Direct.
func Classify(by By, nth int, caps Capabilities) Plan {
	plan := Plan{Strategy: Direct, Locator: by}
	if nth <= 0 {
		return plan
	}

	if caps.XPath && by.kind != KindCSS {
		if xpath, ok := XPathFor(by); ok {
			// Parenthesised so the predicate counts matches in document
			// order instead of positions among siblings.
			selector := fmt.Sprintf("(%s)[%d]", xpath, nth+1)
			return Plan{Strategy: IndexedPath, Locator: XPath(selector), Selector: selector}
		}
	}

	if caps.CSS {
		if css, ok := CSSFor(by); ok {
			return Plan{Strategy: IndexedScriptSelector, Locator: by, Selector: css}
		}
	}

	return plan
}
