// Package script holds the lookup programs injected into the page to fetch
// the Nth match of a query.
//
// Both programs run with the search context bound to this (an element, or the
// global object for the page root) and return an element or null:
//
//	LocateByCSS(selector, index)
//	LocateByXPath(xpath)
//
// Version names that argument contract; it changes whenever an argument is
// added, removed or reordered.
package script

import (
	_ "embed"
)

const Version = "1"

//go:embed locate_by_css.js
var LocateByCSS string

//go:embed locate_by_xpath.js
var LocateByXPath string
