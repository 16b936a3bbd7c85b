package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the outcome of a single tool call: either a payload or a failure
// description. It becomes the {"result": ...} envelope only when rendered.
type Result struct {
	payload any
	err     error
}

// Success wraps a payload.
func Success(payload any) Result {
	return Result{payload: payload}
}

// Failuref builds a failed result from a human readable description.
func Failuref(format string, args ...any) Result {
	return Result{err: fmt.Errorf(format, args...)}
}

// Err returns the failure, if any.
func (r Result) Err() error {
	return r.err
}

// Payload returns the success payload. It is nil for failed results.
func (r Result) Payload() any {
	return r.payload
}

// Envelope renders the result as {"result": <payload-or-error-text>}.
func (r Result) Envelope() (string, error) {
	var value any = r.payload
	if r.err != nil {
		value = r.err.Error()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Selectors like "a > b" must reach the agent as written.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any{"result": value}); err != nil {
		return "", fmt.Errorf("encoding result envelope: %w", err)
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// ParseEnvelope extracts the raw result value from an envelope.
func ParseEnvelope(envelope string) (json.RawMessage, error) {
	var decoded struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal([]byte(envelope), &decoded); err != nil {
		return nil, fmt.Errorf("decoding result envelope: %w", err)
	}
	if decoded.Result == nil {
		return nil, errors.New("result envelope has no result key")
	}
	return decoded.Result, nil
}
