package core

import (
	"context"
	"fmt"
	"strings"
)

func (m *Market) observeOperation(ctx context.Context, operation string, err error, fields map[string]any) {
	if m == nil {
		return
	}
	operation = strings.TrimSpace(strings.ToLower(operation))
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"name", "service_name", "request_id"} {
		if value := strings.TrimSpace(fmt.Sprint(contextFields[key])); value != "" && value != "<nil>" {
			tags[key] = value
		}
	}
	m.recordCounter(ctx, "market."+operation+".total", 1, tags)

	if err != nil {
		m.logError(ctx, operation+" failed", contextFields)
		return
	}
	m.logInfo(ctx, operation+" succeeded", contextFields)
}

func (m *Market) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if m == nil || m.metricsRecorder == nil {
		return
	}
	m.metricsRecorder.IncCounter(ctx, name, value, cloneTags(tags))
}

func (m *Market) logInfo(ctx context.Context, message string, fields map[string]any) {
	m.logWithLevel(ctx, "info", message, fields)
}

func (m *Market) logError(ctx context.Context, message string, fields map[string]any) {
	m.logWithLevel(ctx, "error", message, fields)
}

func (m *Market) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if m == nil || m.logger == nil {
		return
	}
	logger := m.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	switch level {
	case "error":
		logger.Error(message)
	case "warn":
		logger.Warn(message)
	default:
		logger.Info(message)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields)+4)
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}
