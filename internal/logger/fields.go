package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldCaptureID = "capture_id"
	FieldPageURL   = "page_url"
	FieldContainer = "container"
)

// StringField is a key/value pair that is dropped when either side is blank.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts pairs to zap fields, trimming both sides and skipping
// blanks.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describes the model backend answering a request.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// CaptureFields describes one capture: its id, the page it came from and the
// container it was read from.
func CaptureFields(captureID, pageURL, container string) []zap.Field {
	return StringFields(
		StringField{Key: FieldCaptureID, Value: captureID},
		StringField{Key: FieldPageURL, Value: pageURL},
		StringField{Key: FieldContainer, Value: container},
	)
}

func WithCaptureFields(logger *zap.Logger, captureID, pageURL, container string) *zap.Logger {
	return WithFields(logger, CaptureFields(captureID, pageURL, container)...)
}
