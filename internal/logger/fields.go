package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldTool is the structured log field key for the tool being invoked.
	FieldTool = "tool"
	// FieldSelector is the structured log field key for a CSS selector.
	FieldSelector = "selector"
	// FieldURL is the structured log field key for a navigation target.
	FieldURL = "url"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ToolFields describes a single tool call. Empty selector or url are skipped.
func ToolFields(tool, selector, url string) []zap.Field {
	return StringFields(
		StringField{Key: FieldTool, Value: tool},
		StringField{Key: FieldSelector, Value: selector},
		StringField{Key: FieldURL, Value: url},
	)
}

// AgentFields describes the model driving the tools.
func AgentFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithAgentFields attaches the provider and model to logger.
func WithAgentFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, AgentFields(provider, model)...)
}
