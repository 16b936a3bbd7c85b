package ai

import "context"

// ToolCall records one tool invocation made while running a task.
type ToolCall struct {
	Name     string
	Args     string
	Envelope string
}

// Outcome is the result of running a task to completion.
type Outcome struct {
	Answer string
	Steps  int
	Calls  []ToolCall
}

// Agent works through a task using the tools it was built with.
type Agent interface {
	Run(ctx context.Context, task string) (*Outcome, error)
}
