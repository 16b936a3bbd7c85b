// Package elements summarizes the interactive elements of a page into
// descriptors an agent can act on.
package elements

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/form-responder/internal/browser"
)

const (
	ActionClick  = "click"
	ActionFill   = "fill"
	ActionToggle = "toggle"
	// ActionNone marks an element whose tag has no action rule.
	ActionNone = ""
)

// DefaultSelector matches the form controls an application form is filled with.
// Autocomplete comboboxes are left out since they need more than a plain fill.
const DefaultSelector = "input[type=text]:not([role=combobox]):not([aria-autocomplete=list]):not([aria-autocomplete=both])," +
	"input[type=email]," +
	"input[type=tel]," +
	"input[type=password]," +
	"input[type=number]," +
	"input[type=url]," +
	"input[type=search]," +
	"textarea," +
	"button"

// DefaultAttributes are reported for every element.
var DefaultAttributes = []string{"id", "aria-label", "type", "maxlength"}

var (
	fillableInputs  = []string{"text", "email", "number", "password", "search", "tel", "url"}
	toggleableInput = []string{"checkbox", "radio"}
	clickableRoles  = []string{"button", "link", "menuitem"}
)

// Config selects which elements are summarized and which attributes are kept.
type Config struct {
	Selector   string   `mapstructure:"selector"`
	Attributes []string `mapstructure:"attributes"`
}

// WithDefaults fills unset fields with DefaultSelector and DefaultAttributes.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Selector) == "" {
		c.Selector = DefaultSelector
	}
	if len(c.Attributes) == 0 {
		c.Attributes = slices.Clone(DefaultAttributes)
	}
	return c
}

// Descriptor describes one element and what the agent may do with it.
type Descriptor struct {
	Selector        string             `json:"selector"`
	Attributes      map[string]*string `json:"attributes"`
	PossibleActions []string           `json:"possible_actions"`
}

// Summarize describes every element of page matching cfg.Selector, in
// document order. The result is a snapshot of the page at call time.
func Summarize(ctx context.Context, page browser.Page, cfg Config) ([]Descriptor, error) {
	cfg = cfg.WithDefaults()

	found, err := page.QueryAll(cfg.Selector)
	if err != nil {
		return nil, fmt.Errorf("querying elements: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(found))
	for i, el := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d, err := describe(el, cfg.Attributes)
		if err != nil {
			return nil, fmt.Errorf("describing element %d: %w", i, err)
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

func describe(el browser.Element, attributes []string) (Descriptor, error) {
	tag, err := el.TagName()
	if err != nil {
		return Descriptor{}, fmt.Errorf("tag name: %w", err)
	}
	tag = strings.ToLower(tag)

	visible, err := el.Visible()
	if err != nil {
		return Descriptor{}, fmt.Errorf("visibility: %w", err)
	}

	enabled, err := el.Enabled()
	if err != nil {
		return Descriptor{}, fmt.Errorf("enabled state: %w", err)
	}

	selector, err := el.CSSSelector()
	if err != nil {
		return Descriptor{}, fmt.Errorf("css selector: %w", err)
	}

	attrs := make(map[string]*string, len(attributes))
	for _, name := range attributes {
		value, err := el.Attribute(name)
		if err != nil {
			return Descriptor{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		attrs[name] = value
	}

	var inputType *string
	if tag == "input" {
		if inputType, err = el.Attribute("type"); err != nil {
			return Descriptor{}, fmt.Errorf("attribute type: %w", err)
		}
	}

	role, err := el.Attribute("role")
	if err != nil {
		return Descriptor{}, fmt.Errorf("attribute role: %w", err)
	}

	return Descriptor{
		Selector:        selector,
		Attributes:      attrs,
		PossibleActions: InferActions(tag, inputType, role, visible, enabled),
	}, nil
}

// InferActions maps an element's tag, input type and ARIA role to the actions
// the agent may perform. Hidden or disabled elements get no actions. Tags
// without a rule contribute an ActionNone entry.
func InferActions(tag string, inputType, role *string, visible, enabled bool) []string {
	actions := make([]string, 0, 2)
	if !visible || !enabled {
		return actions
	}

	switch strings.ToLower(tag) {
	case "a", "button":
		actions = append(actions, ActionClick)
	case "input":
		kind := "text"
		if inputType != nil && *inputType != "" {
			kind = *inputType
		}
		switch {
		case slices.Contains(fillableInputs, kind):
			actions = append(actions, ActionFill)
		case slices.Contains(toggleableInput, kind):
			actions = append(actions, ActionToggle)
		}
	case "textarea":
		actions = append(actions, ActionFill)
	default:
		// TODO: drop the placeholder once agent prompts no longer rely on it.
		actions = append(actions, ActionNone)
	}

	if role != nil && slices.Contains(clickableRoles, *role) && !slices.Contains(actions, ActionClick) {
		actions = append(actions, ActionClick)
	}

	return actions
}
