package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/form-responder/internal/ai"
	"github.com/spigell/form-responder/internal/logger"
	"github.com/spigell/form-responder/internal/tools"
)

//go:embed prompt.md
var systemPrompt string

const (
	defaultMaxSteps     = 30
	defaultMaxLogLength = 200
)

// ErrMaxSteps is returned when the model keeps calling tools past the step limit.
var ErrMaxSteps = errors.New("agent stopped after reaching the step limit")

type contentGenerator interface {
	Generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Model() string
}

// Options tunes the agent loop.
type Options struct {
	MaxSteps     int           `mapstructure:"max-steps"`
	StepDelay    time.Duration `mapstructure:"step-delay"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

// Driver lets Gemini work through a task by calling tools until it answers in
// plain text.
type Driver struct {
	generator contentGenerator
	tools     []tools.Tool
	config    *genai.GenerateContentConfig
	opts      Options
	logger    *zap.Logger
}

var _ ai.Agent = (*Driver)(nil)

func NewDriver(generator contentGenerator, ts []tools.Tool, opts Options, log *zap.Logger) (*Driver, error) {
	if generator == nil {
		return nil, errors.New("gemini generator is required")
	}
	if len(ts) == 0 {
		return nil, errors.New("at least one tool is required")
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(ts))
	for _, t := range ts {
		declarations = append(declarations, declare(t))
	}

	return &Driver{
		generator: generator,
		tools:     ts,
		config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			Tools:             []*genai.Tool{{FunctionDeclarations: declarations}},
		},
		opts:   opts,
		logger: logger.WithAgentFields(log, "gemini", generator.Model()),
	}, nil
}

// Run sends task to the model and executes the tool calls it asks for, feeding
// every envelope back, until the model replies without calling a tool.
func (d *Driver) Run(ctx context.Context, task string) (*ai.Outcome, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, errors.New("task must not be empty")
	}

	contents := []*genai.Content{{Role: string(genai.RoleUser), Parts: []*genai.Part{{Text: task}}}}
	outcome := &ai.Outcome{}

	for step := 1; step <= d.opts.MaxSteps; step++ {
		if step > 1 {
			if err := wait(ctx, d.opts.StepDelay); err != nil {
				return outcome, err
			}
		}

		outcome.Steps = step
		log := d.logger.With(zap.Int("step_number", step))

		resp, err := d.generator.Generate(ctx, contents, d.config)
		if err != nil {
			return outcome, err
		}

		reply, err := firstContent(resp)
		if err != nil {
			return outcome, err
		}
		contents = append(contents, reply)

		calls, text := split(reply)
		if text != "" {
			log.Info("model replied", zap.String("text", logger.TruncateForLog(text, d.opts.MaxLogLength)))
		}

		if len(calls) == 0 {
			if text == "" {
				return outcome, errors.New("gemini api returned empty response")
			}
			outcome.Answer = text
			return outcome, nil
		}

		responses := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			record, err := d.call(ctx, log, call)
			if err != nil {
				return outcome, err
			}
			outcome.Calls = append(outcome.Calls, record)

			response := map[string]any{}
			if err := json.Unmarshal([]byte(record.Envelope), &response); err != nil {
				return outcome, fmt.Errorf("decoding %s envelope: %w", call.Name, err)
			}

			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: response,
			}})
		}

		contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: responses})
	}

	return outcome, fmt.Errorf("%w (%d)", ErrMaxSteps, d.opts.MaxSteps)
}

func (d *Driver) call(ctx context.Context, log *zap.Logger, call *genai.FunctionCall) (ai.ToolCall, error) {
	args := "{}"
	if len(call.Args) > 0 {
		data, err := json.Marshal(call.Args)
		if err != nil {
			return ai.ToolCall{}, fmt.Errorf("encoding %s arguments: %w", call.Name, err)
		}
		args = string(data)
	}

	record := ai.ToolCall{Name: call.Name, Args: args}
	log = log.With(zap.String(logger.FieldTool, call.Name))
	log.Info("calling tool", zap.String("args", logger.TruncateForLog(args, d.opts.MaxLogLength)))

	t, ok := tools.Find(d.tools, call.Name)
	if !ok {
		envelope, err := tools.Failuref("Unknown tool %s", call.Name).Envelope()
		if err != nil {
			return ai.ToolCall{}, err
		}
		record.Envelope = envelope
		log.Warn("model called unknown tool")
		return record, nil
	}

	envelope, err := t.InvokableRun(ctx, args)
	if err != nil {
		return ai.ToolCall{}, fmt.Errorf("running %s: %w", call.Name, err)
	}
	record.Envelope = envelope

	log.Info("tool answered", zap.String("result", logger.TruncateForLog(envelope, d.opts.MaxLogLength)))
	return record, nil
}

func firstContent(resp *genai.GenerateContentResponse) (*genai.Content, error) {
	if resp == nil {
		return nil, errors.New("gemini api returned empty response")
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		content := candidate.Content
		if content.Role == "" {
			content.Role = string(genai.RoleModel)
		}
		return content, nil
	}
	return nil, errors.New("gemini api returned no candidates")
}

func split(content *genai.Content) ([]*genai.FunctionCall, string) {
	var calls []*genai.FunctionCall
	var builder strings.Builder
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
			continue
		}
		text := strings.TrimSpace(part.Text)
		if text == "" || part.Thought {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}
	return calls, builder.String()
}

func declare(t tools.Tool) *genai.FunctionDeclaration {
	decl := &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
	}

	params := t.Params()
	if len(params) == 0 {
		return decl
	}

	properties := make(map[string]*genai.Schema, len(params))
	var required []string
	for name, p := range params {
		properties[name] = &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Desc,
			Enum:        p.Enum,
		}
		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	decl.Parameters = &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
	return decl
}

func schemaType(t schema.DataType) genai.Type {
	switch t {
	case schema.Integer:
		return genai.TypeInteger
	case schema.Number:
		return genai.TypeNumber
	case schema.Boolean:
		return genai.TypeBoolean
	case schema.Array:
		return genai.TypeArray
	case schema.Object:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
