package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrTimeout is returned when a wait on the page expires.
var ErrTimeout = errors.New("browser: timed out")

// Page is the part of a live browser page the tools work with.
type Page interface {
	Title() (string, error)
	Fill(selector, text string) error
	// WaitVisible blocks until selector is visible or returns ErrTimeout.
	WaitVisible(selector string, timeout time.Duration) error
	Click(selector string) error
	// Goto loads url and returns the HTTP status of the main response, or 0
	// when the navigation produced no response.
	Goto(url string) (int, error)
	// QueryAll returns the elements matching selector in document order.
	QueryAll(selector string) ([]Element, error)
}

// Element is a handle to a DOM element captured by QueryAll.
type Element interface {
	TagName() (string, error)
	Visible() (bool, error)
	Enabled() (bool, error)
	// CSSSelector returns "#id" when the element has an id, otherwise the tag
	// name followed by its class tokens.
	CSSSelector() (string, error)
	// Attribute returns nil when the attribute is not set.
	Attribute(name string) (*string, error)
}

// PageProvider resolves the page tools should act on.
type PageProvider interface {
	CurrentPage(ctx context.Context) (Page, error)
}

const cssSelectorScript = `el => {
	if (el.id) return '#' + el.id;
	let selector = el.tagName.toLowerCase();
	if (el.className && typeof el.className === 'string' && el.className.trim()) {
		selector += '.' + el.className.trim().replace(/\s+/g, '.');
	}
	return selector;
}`

const attributeScript = `(el, name) => el.getAttribute(name)`

type playwrightPage struct {
	page playwright.Page
}

// WrapPage adapts a Playwright page to Page.
func WrapPage(page playwright.Page) Page {
	return &playwrightPage{page: page}
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) Fill(selector, text string) error {
	return p.page.Locator(selector).Fill(text)
}

func (p *playwrightPage) WaitVisible(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return translate(err)
}

func (p *playwrightPage) Click(selector string) error {
	return translate(p.page.Click(selector))
}

func (p *playwrightPage) Goto(url string) (int, error) {
	resp, err := p.page.Goto(url)
	if err != nil {
		return 0, translate(err)
	}
	if resp == nil {
		return 0, nil
	}
	return resp.Status(), nil
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &playwrightElement{handle: h})
	}
	return elements, nil
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) TagName() (string, error) {
	prop, err := e.handle.GetProperty("tagName")
	if err != nil {
		return "", err
	}

	value, err := prop.JSONValue()
	if err != nil {
		return "", err
	}

	tag, _ := value.(string)
	return strings.ToLower(tag), nil
}

func (e *playwrightElement) Visible() (bool, error) {
	return e.handle.IsVisible()
}

func (e *playwrightElement) Enabled() (bool, error) {
	return e.handle.IsEnabled()
}

func (e *playwrightElement) CSSSelector() (string, error) {
	value, err := e.handle.Evaluate(cssSelectorScript)
	if err != nil {
		return "", err
	}

	selector, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected selector value %T", value)
	}
	return selector, nil
}

func (e *playwrightElement) Attribute(name string) (*string, error) {
	// GetAttribute cannot tell an absent attribute from an empty one.
	value, err := e.handle.Evaluate(attributeScript, name)
	if err != nil {
		return nil, err
	}

	attr, ok := value.(string)
	if !ok {
		return nil, nil
	}
	return &attr, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	return err
}
