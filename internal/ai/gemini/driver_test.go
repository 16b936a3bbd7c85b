package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/spigell/form-responder/internal/tools"
)

type scriptedGenerator struct {
	replies  []*genai.GenerateContentResponse
	contents [][]*genai.Content
	configs  []*genai.GenerateContentConfig
}

func (s *scriptedGenerator) Generate(_ context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.contents = append(s.contents, contents)
	s.configs = append(s.configs, config)
	if len(s.replies) == 0 {
		return nil, errors.New("unexpected call")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedGenerator) Model() string { return "gemini-test" }

type fakeTool struct {
	name     string
	params   map[string]*schema.ParameterInfo
	envelope string
	err      error
	args     []string
}

func (f *fakeTool) Name() string { return f.name }
func (f *fakeTool) Description() string { return "fake " + f.name }
func (f *fakeTool) Params() map[string]*schema.ParameterInfo { return f.params }

func (f *fakeTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: f.name, Desc: f.Description(), ParamsOneOf: schema.NewParamsOneOfByParams(f.params)}, nil
}

func (f *fakeTool) InvokableRun(_ context.Context, args string, _ ...tool.Option) (string, error) {
	f.args = append(f.args, args)
	return f.envelope, f.err
}

func callResponse(calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, &genai.Part{FunctionCall: c})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: string(genai.RoleModel), Parts: parts}}},
	}
}

func fillTool() *fakeTool {
	return &fakeTool{
		name: tools.NameFill,
		params: map[string]*schema.ParameterInfo{
			"selector": {Type: schema.String, Desc: "selector", Required: true},
			"text":     {Type: schema.String, Desc: "text", Required: true},
		},
		envelope: `{"result":"Filled element #name with text Alex"}`,
	}
}

func TestDriverRunsToolsUntilAnswer(t *testing.T) {
	waited := stubWait(t)

	fill := fillTool()
	gen := &scriptedGenerator{replies: []*genai.GenerateContentResponse{
		callResponse(&genai.FunctionCall{ID: "call-1", Name: tools.NameFill, Args: map[string]any{"selector": "#name", "text": "Alex"}}),
		textResponse("Filled the name field."),
	}}

	core, observed := observer.New(zapcore.InfoLevel)
	d, err := NewDriver(gen, []tools.Tool{fill}, Options{StepDelay: time.Second}, zap.New(core))
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	outcome, err := d.Run(context.Background(), "Fill the form")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if outcome.Answer != "Filled the name field." || outcome.Steps != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if diff := cmp.Diff([]string{`{"selector":"#name","text":"Alex"}`}, fill.args); diff != "" {
		t.Fatalf("unexpected tool args (-want +got):\n%s", diff)
	}
	if len(outcome.Calls) != 1 || outcome.Calls[0].Envelope != fill.envelope {
		t.Fatalf("unexpected calls: %+v", outcome.Calls)
	}
	if diff := cmp.Diff([]time.Duration{time.Second}, *waited); diff != "" {
		t.Fatalf("unexpected step delays (-want +got):\n%s", diff)
	}

	second := gen.contents[1]
	if len(second) != 3 {
		t.Fatalf("expected task, call and response in history, got %d contents", len(second))
	}
	response := second[2].Parts[0].FunctionResponse
	if response == nil || response.ID != "call-1" || response.Name != tools.NameFill {
		t.Fatalf("unexpected function response: %+v", response)
	}
	if response.Response["result"] != "Filled element #name with text Alex" {
		t.Fatalf("unexpected response payload: %v", response.Response)
	}

	if n := len(observed.FilterMessage("calling tool").All()); n != 1 {
		t.Fatalf("expected 1 tool call log, got %d", n)
	}
	entry := observed.FilterMessage("calling tool").All()[0]
	if entry.ContextMap()["tool"] != tools.NameFill || entry.ContextMap()["ai_model"] != "gemini-test" {
		t.Fatalf("unexpected log fields: %v", entry.ContextMap())
	}
}

func TestDriverDeclaresTools(t *testing.T) {
	stubWait(t)

	noArgs := &fakeTool{name: tools.NameGetAllElements, params: map[string]*schema.ParameterInfo{}}
	gen := &scriptedGenerator{replies: []*genai.GenerateContentResponse{textResponse("done")}}

	d, err := NewDriver(gen, []tools.Tool{fillTool(), noArgs}, Options{}, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	if _, err := d.Run(context.Background(), "go"); err != nil {
		t.Fatalf("run: %v", err)
	}

	cfg := gen.configs[0]
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text == "" {
		t.Fatal("expected system instruction")
	}

	decls := cfg.Tools[0].FunctionDeclarations
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}

	fill := decls[0]
	if fill.Parameters == nil || fill.Parameters.Type != genai.TypeObject {
		t.Fatalf("expected object parameters, got %+v", fill.Parameters)
	}
	if diff := cmp.Diff([]string{"selector", "text"}, fill.Parameters.Required); diff != "" {
		t.Fatalf("unexpected required (-want +got):\n%s", diff)
	}
	if fill.Parameters.Properties["text"].Type != genai.TypeString {
		t.Fatalf("unexpected text type %v", fill.Parameters.Properties["text"].Type)
	}

	if decls[1].Parameters != nil {
		t.Fatalf("expected no parameters for argument-less tool, got %+v", decls[1].Parameters)
	}
}

func TestDriverUnknownTool(t *testing.T) {
	stubWait(t)

	gen := &scriptedGenerator{replies: []*genai.GenerateContentResponse{
		callResponse(&genai.FunctionCall{Name: "type_text"}),
		textResponse("gave up"),
	}}

	d, err := NewDriver(gen, []tools.Tool{fillTool()}, Options{}, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	outcome, err := d.Run(context.Background(), "go")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Calls[0].Envelope != `{"result":"Unknown tool type_text"}` {
		t.Fatalf("unexpected envelope %s", outcome.Calls[0].Envelope)
	}
}

func TestDriverStopsOnConfigurationError(t *testing.T) {
	stubWait(t)

	broken := fillTool()
	broken.err = tools.ErrNoBrowser
	gen := &scriptedGenerator{replies: []*genai.GenerateContentResponse{
		callResponse(&genai.FunctionCall{Name: tools.NameFill, Args: map[string]any{"selector": "#a", "text": "b"}}),
	}}

	d, err := NewDriver(gen, []tools.Tool{broken}, Options{}, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	if _, err := d.Run(context.Background(), "go"); !errors.Is(err, tools.ErrNoBrowser) {
		t.Fatalf("expected ErrNoBrowser, got %v", err)
	}
}

func TestDriverStepLimit(t *testing.T) {
	stubWait(t)

	call := &genai.FunctionCall{Name: tools.NameFill, Args: map[string]any{"selector": "#a", "text": "b"}}
	gen := &scriptedGenerator{replies: []*genai.GenerateContentResponse{callResponse(call), callResponse(call)}}

	d, err := NewDriver(gen, []tools.Tool{fillTool()}, Options{MaxSteps: 2}, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	outcome, err := d.Run(context.Background(), "go")
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
	if outcome.Steps != 2 || len(outcome.Calls) != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestDriverRejectsEmptyInput(t *testing.T) {
	if _, err := NewDriver(nil, []tools.Tool{fillTool()}, Options{}, nil); err == nil {
		t.Fatal("expected error without generator")
	}
	if _, err := NewDriver(&scriptedGenerator{}, nil, Options{}, nil); err == nil {
		t.Fatal("expected error without tools")
	}

	d, err := NewDriver(&scriptedGenerator{}, []tools.Tool{fillTool()}, Options{}, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	if _, err := d.Run(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty task")
	}
}

func TestDriverEmptyReply(t *testing.T) {
	stubWait(t)

	gen := &scriptedGenerator{replies: []*genai.GenerateContentResponse{{}}}
	d, err := NewDriver(gen, []tools.Tool{fillTool()}, Options{}, nil)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	if _, err := d.Run(context.Background(), "go"); err == nil {
		t.Fatal("expected error for reply without candidates")
	}
}
