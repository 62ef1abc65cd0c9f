package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"burnish/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar, false))

	logger.Info("evaluated", String(FieldSubmissionID, "vid-1"), String(FieldVerdict, "accepted"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["msg"] != "evaluated" {
		t.Fatalf("unexpected msg field: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level field: %v", payload["level"])
	}
	if payload[FieldSubmissionID] != "vid-1" {
		t.Fatalf("unexpected submission id: %v", payload[FieldSubmissionID])
	}
}

func TestPrettyHandlerSubjectLine(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, levelVar, false))
	logger = NewComponentLogger(logger, "pipeline")

	logger.Info("stage started", String(FieldSubmissionID, "vid-7"), String(FieldStage, "generating"))

	line := buf.String()
	if !strings.Contains(line, "[pipeline]") {
		t.Fatalf("expected component brackets in %q", line)
	}
	if !strings.Contains(line, "vid-7 (generating)") {
		t.Fatalf("expected subject in %q", line)
	}
	if !strings.Contains(line, "stage started") {
		t.Fatalf("expected message in %q", line)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar, false))

	ctx := services.WithSubmissionID(context.Background(), "vid-9")
	ctx = services.WithRequestID(ctx, "req-1")
	WithContext(ctx, logger).Info("hello")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload[FieldSubmissionID] != "vid-9" {
		t.Fatalf("expected submission id field, got %v", payload)
	}
	if payload[FieldCorrelationID] != "req-1" {
		t.Fatalf("expected correlation id field, got %v", payload)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("dropped")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("noop logger must report disabled")
	}
}
