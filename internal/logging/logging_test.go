package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextFallbacks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&buf, nil))

	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatal("expected fallback logger for an empty context")
	}
	if got := FromContext(context.Background(), nil); got == nil {
		t.Fatal("expected a discard logger, got nil")
	}

	ctx := With(context.Background(), fallback, "session_id", "abc")
	FromContext(ctx, nil).Info("cart loaded")
	if !strings.Contains(buf.String(), "session_id=abc") {
		t.Fatalf("expected session attribute in %q", buf.String())
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	t.Parallel()

	var all, errorsOnly bytes.Buffer
	logger := slog.New(MultiHandler(
		slog.NewTextHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
		nil,
		slog.NewTextHandler(&errorsOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)).With("component", "checkout")

	logger.Info("order created")
	logger.Error("failed to persist order")

	if !strings.Contains(all.String(), "order created") || !strings.Contains(all.String(), "failed to persist order") {
		t.Fatalf("unexpected debug output %q", all.String())
	}
	if strings.Contains(errorsOnly.String(), "order created") {
		t.Fatal("info record reached the error handler")
	}
	if !strings.Contains(errorsOnly.String(), "component=checkout") {
		t.Fatalf("attributes were not propagated: %q", errorsOnly.String())
	}
}

func TestMultiHandlerWithoutHandlers(t *testing.T) {
	t.Parallel()

	handler := MultiHandler(nil)
	if handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected an empty multi handler to discard everything")
	}
}
