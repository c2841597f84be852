package voice

import (
	"context"
	"log/slog"
)

// Compile-time interface checks.
var (
	_ Recognizer  = NoOp{}
	_ Synthesizer = NoOp{}
)

// NoOp is a recognizer and synthesizer that does nothing. Recognition is
// reported as unsupported, which puts the widget in text-only mode.
type NoOp struct{}

func (NoOp) Supported() bool { return false }

func (NoOp) Start(context.Context, string, Sink) error { return ErrUnsupported }

func (NoOp) Stop() error { return nil }

func (NoOp) Speak(_ context.Context, phrase, locale string) error {
	slog.Debug("speech no-op", "phrase", phrase, "locale", locale)
	return nil
}

func (NoOp) Cancel() {}
