package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/elements"
	"github.com/spigell/form-responder/internal/logger"
)

// ClickTimeout bounds the wait for an element to become visible before a click.
const ClickTimeout = 10 * time.Second

// ClickRequest are the arguments of click_element.
type ClickRequest struct {
	Selector string `json:"selector"`
}

func (r ClickRequest) validate() error { return requireField("selector", r.Selector) }

func (r ClickRequest) logFields() []zap.Field {
	return logger.ToolFields("", r.Selector, "")
}

// Click waits for an element to become visible and clicks it.
type Click struct {
	definition
	pages browser.PageProvider
}

func NewClick(pages browser.PageProvider, log *zap.Logger) *Click {
	return &Click{
		definition: definition{
			name: NameClick,
			desc: "Click on an element with the given CSS selector.",
			params: map[string]*schema.ParameterInfo{
				"selector": {Type: schema.String, Desc: "CSS selector for the element to click", Required: true},
			},
			logger: log,
		},
		pages: pages,
	}
}

func (c *Click) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	return invoke(ctx, c.definition, args, c.run)
}

func (c *Click) run(ctx context.Context, req ClickRequest) (Result, error) {
	page, failed, err := currentPage(ctx, c.pages)
	if page == nil {
		return failed, err
	}

	if err := page.WaitVisible(req.Selector, ClickTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return Failuref("Unable to click on element '%s'", req.Selector), nil
		}
		return Failuref("Unable to click on element '%s': %v", req.Selector, err), nil
	}

	if err := page.Click(req.Selector); err != nil {
		return Failuref("Unable to click on element '%s': %v", req.Selector, err), nil
	}

	return Success(fmt.Sprintf("Clicked element '%s'", req.Selector)), nil
}

// FillRequest are the arguments of fill_element. Text must be present but may
// be empty to clear a field.
type FillRequest struct {
	Selector string  `json:"selector"`
	Text     *string `json:"text"`
}

func (r FillRequest) validate() error {
	if err := requireField("selector", r.Selector); err != nil {
		return err
	}
	if r.Text == nil {
		return errors.New("text is required")
	}
	return nil
}

func (r FillRequest) logFields() []zap.Field {
	return logger.ToolFields("", r.Selector, "")
}

// Fill types text into an element.
type Fill struct {
	definition
	pages browser.PageProvider
}

func NewFill(pages browser.PageProvider, log *zap.Logger) *Fill {
	return &Fill{
		definition: definition{
			name: NameFill,
			desc: "Fill an input element with the given CSS selector with the provided text.",
			params: map[string]*schema.ParameterInfo{
				"selector": {Type: schema.String, Desc: "CSS selector for the element to fill", Required: true},
				"text":     {Type: schema.String, Desc: "Text to fill the element with", Required: true},
			},
			logger: log,
		},
		pages: pages,
	}
}

func (f *Fill) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	return invoke(ctx, f.definition, args, f.run)
}

func (f *Fill) run(ctx context.Context, req FillRequest) (Result, error) {
	page, failed, err := currentPage(ctx, f.pages)
	if page == nil {
		return failed, err
	}

	if err := page.Fill(req.Selector, *req.Text); err != nil {
		return Failuref("Exception occurred: %v", err), nil
	}

	return Success(fmt.Sprintf("Filled element %s with text %s", req.Selector, *req.Text)), nil
}

// NavigateRequest are the arguments of navigate_browser.
type NavigateRequest struct {
	URL string `json:"url"`
}

func (r NavigateRequest) validate() error {
	if err := requireField("url", r.URL); err != nil {
		return err
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url scheme must be 'http' or 'https'")
	}
	return nil
}

func (r NavigateRequest) logFields() []zap.Field {
	return logger.ToolFields("", "", r.URL)
}

// Navigate loads a URL in the current page.
type Navigate struct {
	definition
	pages browser.PageProvider
}

func NewNavigate(pages browser.PageProvider, log *zap.Logger) *Navigate {
	return &Navigate{
		definition: definition{
			name: NameNavigate,
			desc: "Navigate the browser to the specified URL.",
			params: map[string]*schema.ParameterInfo{
				"url": {Type: schema.String, Desc: "URL to navigate to", Required: true},
			},
			logger: log,
		},
		pages: pages,
	}
}

func (n *Navigate) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	return invoke(ctx, n.definition, args, n.run)
}

func (n *Navigate) run(ctx context.Context, req NavigateRequest) (Result, error) {
	page, failed, err := currentPage(ctx, n.pages)
	if page == nil {
		return failed, err
	}

	status, err := page.Goto(req.URL)
	if err != nil {
		return Failuref("Navigation to %s unsuccessful. Error: %v", req.URL, err), nil
	}

	switch status {
	case http.StatusOK:
		return Success("Navigation successful."), nil
	case 0:
		return Failuref("Navigation to %s unsuccessful. Status: unknown", req.URL), nil
	default:
		return Failuref("Navigation to %s unsuccessful. Status: %d", req.URL, status), nil
	}
}

// GetAllElementsRequest takes no arguments.
type GetAllElementsRequest struct{}

func (GetAllElementsRequest) validate() error { return nil }
func (GetAllElementsRequest) logFields() []zap.Field { return nil }

// PageSummary is the payload of get_all_elements.
type PageSummary struct {
	Title    string                `json:"Page Title"`
	Elements []elements.Descriptor `json:"Page Elements Summary"`
}

// GetAllElements summarizes the interactive elements of the current page.
type GetAllElements struct {
	definition
	pages browser.PageProvider
	cfg   elements.Config
}

func NewGetAllElements(pages browser.PageProvider, cfg elements.Config, log *zap.Logger) *GetAllElements {
	return &GetAllElements{
		definition: definition{
			name:   NameGetAllElements,
			desc:   "Retrieve all interactable elements on the current page, with their selectors, attributes and possible actions.",
			params: map[string]*schema.ParameterInfo{},
			logger: log,
		},
		pages: pages,
		cfg:   cfg.WithDefaults(),
	}
}

func (g *GetAllElements) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	return invoke(ctx, g.definition, args, g.run)
}

func (g *GetAllElements) run(ctx context.Context, _ GetAllElementsRequest) (Result, error) {
	page, failed, err := currentPage(ctx, g.pages)
	if page == nil {
		return failed, err
	}

	title, err := page.Title()
	if err != nil {
		return Failuref("Exception occurred: %v", err), nil
	}

	summary, err := elements.Summarize(ctx, page, g.cfg)
	if err != nil {
		return Failuref("Exception occurred: %v", err), nil
	}

	return Success(PageSummary{Title: title, Elements: summary}), nil
}
