// Package tools exposes browser and resume actions as agent tools. Every call
// answers with a JSON envelope of the form {"result": ...}.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/elements"
	"github.com/spigell/form-responder/internal/logger"
	"github.com/spigell/form-responder/internal/resume"
)

const (
	NameClick          = "click_element"
	NameFill           = "fill_element"
	NameGetAllElements = "get_all_elements"
	NameQueryResume    = "query_resume"
	NameNavigate       = "navigate_browser"
)

const maxLoggedArgs = 200

var errTrailingData = errors.New("unexpected data after the arguments object")

var (
	// ErrNoBrowser is returned by browser tools assembled without a session.
	ErrNoBrowser = errors.New("tools: no browser session configured")
	// ErrNoResume is returned by query_resume assembled without a resume.
	ErrNoResume = errors.New("tools: no resume configured")
)

// Tool is an agent tool with a statically known parameter set.
type Tool interface {
	tool.InvokableTool
	Name() string
	Description() string
	Params() map[string]*schema.ParameterInfo
}

// Options configures the assembled tool set.
type Options struct {
	Elements elements.Config
	Logger   *zap.Logger
}

// Assemble builds the tool set in the order agents are given it. pages may be
// nil, in which case browser tools fail with ErrNoBrowser when invoked.
func Assemble(pages browser.PageProvider, r *resume.Resume, opts Options) []Tool {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return []Tool{
		NewClick(pages, log),
		NewFill(pages, log),
		NewGetAllElements(pages, opts.Elements, log),
		NewQueryResume(r, log),
		NewNavigate(pages, log),
	}
}

// Find returns the tool called name.
func Find(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

type definition struct {
	name   string
	desc   string
	params map[string]*schema.ParameterInfo
	logger *zap.Logger
}

func (d definition) Name() string { return d.name }
func (d definition) Description() string { return d.desc }

func (d definition) Params() map[string]*schema.ParameterInfo {
	return d.params
}

func (d definition) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        d.name,
		Desc:        d.desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(d.params),
	}, nil
}

type request interface {
	validate() error
	logFields() []zap.Field
}

// invoke decodes and validates the arguments, runs the action and renders the
// envelope. Only configuration errors escape as Go errors.
func invoke[R request](ctx context.Context, d definition, args string, run func(context.Context, R) (Result, error)) (string, error) {
	log := logger.WithFields(d.logger, zap.String(logger.FieldTool, d.name))

	var req R
	repaired, err := decodeArgs(args, &req)
	if err != nil {
		log.Warn("invalid tool arguments", zap.String("args", logger.TruncateForLog(args, maxLoggedArgs)), zap.Error(err))
		return Failuref("Invalid arguments: %v", err).Envelope()
	}

	log = log.With(req.logFields()...)
	if repaired {
		log.Debug("repaired malformed tool arguments", zap.String("args", logger.TruncateForLog(args, maxLoggedArgs)))
	}
	if extra := unknownKeys(args, d.params); len(extra) > 0 {
		log.Debug("ignoring unknown tool arguments", zap.Strings("keys", extra))
	}

	result, err := run(ctx, req)
	if err != nil {
		log.Error("tool is not configured", zap.Error(err))
		return "", err
	}

	if result.Err() != nil {
		log.Warn("tool call failed", zap.Error(result.Err()))
	} else {
		log.Debug("tool call succeeded")
	}

	return result.Envelope()
}

// decodeArgs fills req from the JSON arguments. Unknown keys are ignored.
// Arguments that are not valid JSON, as models sometimes produce, get one
// repair attempt.
func decodeArgs[R request](args string, req *R) (bool, error) {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	repaired := false
	err := decodeObject(args, req)

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		fixed, repairErr := jsonrepair.JSONRepair(args)
		if repairErr == nil {
			var retry R
			if err = decodeObject(fixed, &retry); err == nil {
				*req = retry
				repaired = true
			}
		}
	}
	if err != nil {
		return false, err
	}

	return repaired, (*req).validate()
}

// decodeObject decodes exactly one JSON value from args.
func decodeObject(args string, v any) error {
	dec := json.NewDecoder(strings.NewReader(args))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func unknownKeys(args string, params map[string]*schema.ParameterInfo) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(args), &fields); err != nil {
		return nil
	}

	var extra []string
	for key := range fields {
		if _, ok := params[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return extra
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func currentPage(ctx context.Context, pages browser.PageProvider) (browser.Page, Result, error) {
	if pages == nil {
		return nil, Result{}, ErrNoBrowser
	}

	page, err := pages.CurrentPage(ctx)
	if err != nil {
		return nil, Failuref("Exception occurred: %v", err), nil
	}
	return page, Result{}, nil
}
