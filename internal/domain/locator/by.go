package locator

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the query family of a locator.
type Kind int

const (
	KindID Kind = iota + 1
	KindName
	KindClassName
	KindTagName
	KindCSS
	KindXPath
	KindLinkText
	KindPartialLinkText
)

var kindNames = map[Kind]string{
	KindID:              "id",
	KindName:            "name",
	KindClassName:       "class",
	KindTagName:         "tag",
	KindCSS:             "css",
	KindXPath:           "xpath",
	KindLinkText:        "link",
	KindPartialLinkText: "partial-link",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// By describes how to find elements in a document. The zero value is not a
// valid locator.
type By struct {
	kind  Kind
	value string
}

func ID(id string) By { return By{kind: KindID, value: id} }
func Name(name string) By { return By{kind: KindName, value: name} }
func ClassName(class string) By { return By{kind: KindClassName, value: class} }
func TagName(tag string) By { return By{kind: KindTagName, value: tag} }
func CSS(selector string) By { return By{kind: KindCSS, value: selector} }
func XPath(expr string) By { return By{kind: KindXPath, value: expr} }
func LinkText(text string) By { return By{kind: KindLinkText, value: text} }
func PartialLinkText(text string) By { return By{kind: KindPartialLinkText, value: text} }

func (b By) Kind() Kind { return b.kind }
func (b By) Value() string { return b.value }
func (b By) IsZero() bool { return b.kind == 0 }

func (b By) String() string {
	return "By." + b.kind.String() + ": " + b.value
}

// Parse reads a locator written as "<kind>=<value>", e.g. "css=.item" or
// "xpath=//li". A value without a known prefix is treated as a CSS selector.
func Parse(s string) (By, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return By{}, fmt.Errorf("empty locator")
	}
	if prefix, value, ok := strings.Cut(s, "="); ok {
		for kind, name := range kindNames {
			if strings.EqualFold(prefix, name) {
				if value == "" {
					return By{}, fmt.Errorf("locator %q has no value", s)
				}
				return By{kind: kind, value: value}, nil
			}
		}
	}
	return CSS(s), nil
}

var cssIdent = regexp.MustCompile(`^-?[A-Za-z_][-A-Za-z0-9_]*$`)

// CSSFor renders the locator as a pure CSS selector. Link text and XPath
// locators have no CSS equivalent.
func CSSFor(b By) (string, bool) {
	switch b.kind {
	case KindCSS, KindTagName:
		return b.value, b.value != ""
	case KindID:
		if cssIdent.MatchString(b.value) {
			return "#" + b.value, true
		}
		return `*[id=` + cssString(b.value) + `]`, true
	case KindName:
		return `*[name=` + cssString(b.value) + `]`, true
	case KindClassName:
		if !cssIdent.MatchString(b.value) {
			return "", false
		}
		return "." + b.value, true
	}
	return "", false
}

// XPathFor renders the locator as an XPath expression relative to the
// search context. CSS selectors have no XPath equivalent.
func XPathFor(b By) (string, bool) {
	switch b.kind {
	case KindXPath:
		return b.value, b.value != ""
	case KindID:
		return ".//*[@id=" + xpathLiteral(b.value) + "]", true
	case KindName:
		return ".//*[@name=" + xpathLiteral(b.value) + "]", true
	case KindClassName:
		if strings.ContainsAny(b.value, " \t\n") {
			return "", false
		}
		return ".//*[contains(concat(' ',normalize-space(@class),' ')," + xpathLiteral(" "+b.value+" ") + ")]", true
	case KindTagName:
		return ".//" + b.value, b.value != ""
	case KindLinkText:
		return ".//a[normalize-space(.)=" + xpathLiteral(b.value) + "]", true
	case KindPartialLinkText:
		return ".//a[contains(normalize-space(.)," + xpathLiteral(b.value) + ")]", true
	}
	return "", false
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}
