// Package browser is the navigation capability the scrapers drive: a rendered
// page that can be navigated, queried with XPath, clicked, typed into and scrolled.
package browser

import (
	"context"
	"errors"
	"strings"
)

// ErrElementNotFound is returned when an XPath matches nothing, lookups never wait
// for an element to appear.
var ErrElementNotFound = errors.New("element not found")

// Browser is a single browser session.
//
// note: fault injection point
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Maximize(ctx context.Context) error
	// Count returns the number of elements matching the XPath, 0 is not an error.
	Count(ctx context.Context, xpath string) (int, error)
	// Click clicks the first element matching the XPath.
	Click(ctx context.Context, xpath string) error
	// SendKeys types into the first element matching the XPath.
	SendKeys(ctx context.Context, xpath, keys string) error
	// Texts returns the rendered text of every element matching the XPath in document order.
	Texts(ctx context.Context, xpath string) ([]string, error)
	ScrollBy(ctx context.Context, dy int) error
	// HTML returns the serialized document as currently rendered.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Launcher starts a new browser session.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// ById is the XPath of the element with the given id.
func ById(id string) string {
	return `//*[@id="` + id + `"]`
}

// Within restricts a relative XPath (`//...`) to the subtree matched by scope.
func Within(scope, xpath string) string {
	if strings.HasPrefix(xpath, "/") {
		return scope + xpath
	}
	return scope + "//" + xpath
}
