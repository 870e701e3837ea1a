// Package view renders the HTML served alongside the fixtures.
package view

import (
	"net/url"

	"github.com/a-h/templ"
)

// fixtureHref returns the link to the named fixture under /fixtures/.
func fixtureHref(name string) templ.SafeURL {
	return templ.URL("/fixtures/" + url.PathEscape(name))
}
