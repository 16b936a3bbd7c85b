package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/elements"
	"github.com/spigell/form-responder/internal/resume"
)

type fakePage struct {
	title      string
	titleErr   error
	fillErr    error
	waitErr    error
	clickErr   error
	status     int
	gotoErr    error
	elements   []browser.Element
	filled     map[string]string
	clicked    []string
	visited    []string
	waitedFor  time.Duration
	queriedFor string
}

func (p *fakePage) Title() (string, error) { return p.title, p.titleErr }

func (p *fakePage) Fill(selector, text string) error {
	if p.fillErr != nil {
		return p.fillErr
	}
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[selector] = text
	return nil
}

func (p *fakePage) WaitVisible(_ string, timeout time.Duration) error {
	p.waitedFor = timeout
	return p.waitErr
}

func (p *fakePage) Click(selector string) error {
	if p.clickErr != nil {
		return p.clickErr
	}
	p.clicked = append(p.clicked, selector)
	return nil
}

func (p *fakePage) Goto(url string) (int, error) {
	p.visited = append(p.visited, url)
	return p.status, p.gotoErr
}

func (p *fakePage) QueryAll(selector string) ([]browser.Element, error) {
	p.queriedFor = selector
	return p.elements, nil
}

type fakeProvider struct {
	page *fakePage
	err  error
}

func (f *fakeProvider) CurrentPage(context.Context) (browser.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeElement struct {
	tag     string
	id      string
	visible bool
}

func (e *fakeElement) TagName() (string, error) { return e.tag, nil }
func (e *fakeElement) Visible() (bool, error) { return e.visible, nil }
func (e *fakeElement) Enabled() (bool, error) { return true, nil }
func (e *fakeElement) CSSSelector() (string, error) { return "#" + e.id, nil }

func (e *fakeElement) Attribute(name string) (*string, error) {
	if name == "id" {
		return &e.id, nil
	}
	return nil, nil
}

func loadResume(t *testing.T) *resume.Resume {
	t.Helper()
	r, err := resume.Load("../resume/testdata/resume.json")
	if err != nil {
		t.Fatalf("loading resume: %v", err)
	}
	return r
}

func run(t *testing.T, tl Tool, args string) string {
	t.Helper()
	out, err := tl.InvokableRun(context.Background(), args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", tl.Name(), err)
	}
	return out
}

func resultText(t *testing.T, envelope string) string {
	t.Helper()
	raw, err := ParseEnvelope(envelope)
	if err != nil {
		t.Fatalf("parse envelope %s: %v", envelope, err)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		t.Fatalf("result is not a string: %s", raw)
	}
	return text
}

func TestAssembleOrder(t *testing.T) {
	tools := Assemble(nil, nil, Options{})

	got := make([]string, 0, len(tools))
	for _, tl := range tools {
		got = append(got, tl.Name())
	}

	want := []string{NameClick, NameFill, NameGetAllElements, NameQueryResume, NameNavigate}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tool order (-want +got):\n%s", diff)
	}

	for _, tl := range tools {
		info, err := tl.Info(context.Background())
		if err != nil {
			t.Fatalf("%s info: %v", tl.Name(), err)
		}
		if info.Name != tl.Name() || info.Desc == "" || info.ParamsOneOf == nil {
			t.Fatalf("incomplete tool info for %s: %+v", tl.Name(), info)
		}
	}

	if _, ok := Find(tools, NameQueryResume); !ok {
		t.Fatal("expected to find query_resume")
	}
	if _, ok := Find(tools, "type_text"); ok {
		t.Fatal("unexpected tool found")
	}
}

func TestFill(t *testing.T) {
	page := &fakePage{}
	fill := NewFill(&fakeProvider{page: page}, nil)

	out := run(t, fill, `{"selector":"#email","text":"alex@example.com"}`)
	if got := resultText(t, out); got != "Filled element #email with text alex@example.com" {
		t.Fatalf("unexpected result %q", got)
	}
	if page.filled["#email"] != "alex@example.com" {
		t.Fatalf("field was not filled: %v", page.filled)
	}

	out = run(t, fill, `{"selector":"#email","text":""}`)
	if got := resultText(t, out); got != "Filled element #email with text " {
		t.Fatalf("unexpected result %q", got)
	}
	if text, ok := page.filled["#email"]; !ok || text != "" {
		t.Fatalf("field was not cleared: %v", page.filled)
	}

	page.fillErr = errors.New("element is not an <input>")
	out = run(t, fill, `{"selector":"#email","text":"x"}`)
	if got := resultText(t, out); got != "Exception occurred: element is not an <input>" {
		t.Fatalf("unexpected failure text %q", got)
	}
}

func TestClick(t *testing.T) {
	tests := []struct {
		name     string
		waitErr  error
		clickErr error
		want     string
	}{
		{name: "visible", want: "Clicked element 'button > span'"},
		{name: "timeout", waitErr: fmt.Errorf("%w: waiting 10000ms", browser.ErrTimeout), want: "Unable to click on element 'button > span'"},
		{name: "wait fails", waitErr: errors.New("detached"), want: "Unable to click on element 'button > span': detached"},
		{name: "click fails", clickErr: errors.New("intercepted"), want: "Unable to click on element 'button > span': intercepted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{waitErr: tt.waitErr, clickErr: tt.clickErr}
			click := NewClick(&fakeProvider{page: page}, nil)

			out := run(t, click, `{"selector":"button > span"}`)
			if got := resultText(t, out); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if page.waitedFor != ClickTimeout {
				t.Fatalf("expected wait of %v, got %v", ClickTimeout, page.waitedFor)
			}
		})
	}
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		gotoErr error
		want    string
	}{
		{name: "ok", status: 200, want: "Navigation successful."},
		{name: "not found", status: 404, want: "Navigation to https://example.com/apply unsuccessful. Status: 404"},
		{name: "redirect without final response", status: 0, want: "Navigation to https://example.com/apply unsuccessful. Status: unknown"},
		{name: "driver error", gotoErr: errors.New("net::ERR_NAME_NOT_RESOLVED"), want: "Navigation to https://example.com/apply unsuccessful. Error: net::ERR_NAME_NOT_RESOLVED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{status: tt.status, gotoErr: tt.gotoErr}
			nav := NewNavigate(&fakeProvider{page: page}, nil)

			out := run(t, nav, `{"url":"https://example.com/apply"}`)
			if got := resultText(t, out); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	page := &fakePage{status: 200}
	provider := &fakeProvider{page: page}

	tests := []struct {
		name string
		tool Tool
		args string
	}{
		{name: "malformed json", tool: NewClick(provider, nil), args: `{"selector":`},
		{name: "missing selector", tool: NewClick(provider, nil), args: `{}`},
		{name: "missing text", tool: NewFill(provider, nil), args: `{"selector":"#email"}`},
		{name: "null text", tool: NewFill(provider, nil), args: `{"selector":"#email","text":null}`},
		{name: "trailing data", tool: NewClick(provider, nil), args: `{"selector":"#a"} trailing`},
		{name: "second object", tool: NewClick(provider, nil), args: `{"selector":"#a"}{"selector":"#b"}`},
		{name: "wrong type", tool: NewFill(provider, nil), args: `{"selector":1,"text":"b"}`},
		{name: "non http url", tool: NewNavigate(provider, nil), args: `{"url":"file:///etc/passwd"}`},
		{name: "unknown topic", tool: NewQueryResume(&resume.Resume{}, nil), args: `{"query":"hobbies"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resultText(t, run(t, tt.tool, tt.args))
			if len(got) < len("Invalid arguments") || got[:len("Invalid arguments")] != "Invalid arguments" {
				t.Fatalf("expected invalid arguments failure, got %q", got)
			}
		})
	}

	if len(page.clicked) != 0 || len(page.visited) != 0 || len(page.filled) != 0 {
		t.Fatalf("page must not be touched on invalid arguments: %+v", page)
	}
}

func TestNoBrowser(t *testing.T) {
	for _, tl := range Assemble(nil, &resume.Resume{}, Options{}) {
		if tl.Name() == NameQueryResume {
			continue
		}

		args := `{"selector":"#a","text":"b"}`
		switch tl.Name() {
		case NameNavigate:
			args = `{"url":"https://example.com"}`
		case NameGetAllElements:
			args = `{}`
		case NameClick:
			args = `{"selector":"#a"}`
		}

		if _, err := tl.InvokableRun(context.Background(), args); !errors.Is(err, ErrNoBrowser) {
			t.Fatalf("%s: expected ErrNoBrowser, got %v", tl.Name(), err)
		}
	}
}

func TestPageUnavailable(t *testing.T) {
	click := NewClick(&fakeProvider{err: errors.New("browser has been closed")}, nil)

	got := resultText(t, run(t, click, `{"selector":"#a"}`))
	if got != "Exception occurred: browser has been closed" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestGetAllElements(t *testing.T) {
	page := &fakePage{
		title: "Apply & Join",
		elements: []browser.Element{
			&fakeElement{tag: "input", id: "email", visible: true},
			&fakeElement{tag: "button", id: "submit", visible: false},
		},
	}
	get := NewGetAllElements(&fakeProvider{page: page}, elements.Config{Attributes: []string{"id"}}, nil)

	out := run(t, get, "")
	want := `{"result":{"Page Title":"Apply & Join","Page Elements Summary":[` +
		`{"selector":"#email","attributes":{"id":"email"},"possible_actions":["fill"]},` +
		`{"selector":"#submit","attributes":{"id":"submit"},"possible_actions":[]}]}}`
	if out != want {
		t.Fatalf("unexpected envelope:\nwant %s\ngot  %s", want, out)
	}
	if page.queriedFor != elements.DefaultSelector {
		t.Fatalf("expected default selector, got %q", page.queriedFor)
	}

	page.titleErr = errors.New("target closed")
	if got := resultText(t, run(t, get, "{}")); got != "Exception occurred: target closed" {
		t.Fatalf("unexpected failure text %q", got)
	}
}

func TestQueryResume(t *testing.T) {
	query := NewQueryResume(loadResume(t), nil)

	out := run(t, query, `{"query":"objective"}`)

	raw, err := ParseEnvelope(out)
	if err != nil {
		t.Fatalf("parse envelope: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode payload %s: %v", raw, err)
	}
	if payload["Objective"] == "" {
		t.Fatalf("expected objective in payload, got %s", raw)
	}

	if _, err := NewQueryResume(nil, nil).InvokableRun(context.Background(), `{"query":"skills"}`); !errors.Is(err, ErrNoResume) {
		t.Fatalf("expected ErrNoResume, got %v", err)
	}
}

func TestQueryResumeSchemaEnum(t *testing.T) {
	p := NewQueryResume(nil, nil).Params()["query"]
	if diff := cmp.Diff(resume.Topics, p.Enum); diff != "" {
		t.Fatalf("unexpected enum (-want +got):\n%s", diff)
	}
}

func TestInvokeLogsFailures(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	page := &fakePage{status: 500}
	nav := NewNavigate(&fakeProvider{page: page}, zap.New(core))

	run(t, nav, `{"url":"https://example.com"}`)

	warnings := observed.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}

	ctx := warnings[0].ContextMap()
	if ctx["tool"] != NameNavigate || ctx["url"] != "https://example.com" {
		t.Fatalf("unexpected log fields: %v", ctx)
	}
}

func TestEnvelope(t *testing.T) {
	out, err := Success(map[string]any{"selector": "a > b"}).Envelope()
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if out != `{"result":{"selector":"a > b"}}` {
		t.Fatalf("unexpected envelope %s", out)
	}

	out, err = Failuref("Unable to click on element '%s'", "#a").Envelope()
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if out != `{"result":"Unable to click on element '#a'"}` {
		t.Fatalf("unexpected envelope %s", out)
	}

	if _, err := ParseEnvelope(`{"other":1}`); err == nil {
		t.Fatal("expected error for envelope without result")
	}
}

func TestIgnoresUnknownArguments(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	page := &fakePage{title: "Apply"}
	provider := &fakeProvider{page: page}

	get := NewGetAllElements(provider, elements.Config{}, zap.New(core))
	if got := run(t, get, `{"": ""}`); got != `{"result":{"Page Title":"Apply","Page Elements Summary":[]}}` {
		t.Fatalf("unexpected envelope %s", got)
	}

	fill := NewFill(provider, zap.New(core))
	out := run(t, fill, `{"selector":"#a","text":"b","delay":1}`)
	if got := resultText(t, out); got != "Filled element #a with text b" {
		t.Fatalf("unexpected result %q", got)
	}

	entries := observed.FilterMessage("ignoring unknown tool arguments").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 debug entries, got %d", len(entries))
	}
	var keys []string
	for _, e := range entries {
		for _, k := range e.ContextMap()["keys"].([]interface{}) {
			keys = append(keys, k.(string))
		}
	}
	if diff := cmp.Diff([]string{"", "delay"}, keys); diff != "" {
		t.Fatalf("unexpected ignored keys (-want +got):\n%s", diff)
	}
}

func TestRepairsMalformedArguments(t *testing.T) {
	page := &fakePage{}
	click := NewClick(&fakeProvider{page: page}, nil)

	out := run(t, click, `{"selector": "#submit"`)
	if got := resultText(t, out); got != "Clicked element '#submit'" {
		t.Fatalf("unexpected result %q", got)
	}
	if diff := cmp.Diff([]string{"#submit"}, page.clicked); diff != "" {
		t.Fatalf("unexpected clicks (-want +got):\n%s", diff)
	}
}
