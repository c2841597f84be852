// Package voice wraps speech capture and speech playback behind small
// capability interfaces so the simulator can run against a browser, a
// terminal, or a test fake.
package voice

import (
	"context"
	"errors"
)

// DefaultLocale is the locale used for both recognition and playback.
const DefaultLocale = "es-AR"

// ErrUnsupported is returned when speech recognition is not available in
// the running environment.
var ErrUnsupported = errors.New("speech recognition not supported")

// Sink receives asynchronous recognition results.
type Sink interface {
	// OnUtterance is called with each finalized utterance.
	OnUtterance(text string)
	// OnError is called when capture fails mid-session.
	OnError(err error)
	// OnEnd is called when the recognizer stops on its own (for example a
	// continuous session timing out).
	OnEnd()
}

// Recognizer is a continuous speech-to-text capability.
type Recognizer interface {
	// Supported reports whether capture can be started at all.
	Supported() bool
	// Start begins capture; results are delivered to sink.
	Start(ctx context.Context, locale string, sink Sink) error
	// Stop ends capture. Stopping an idle recognizer is not an error.
	Stop() error
}

// Synthesizer is a text-to-speech capability.
type Synthesizer interface {
	// Speak starts playback of phrase and returns without waiting for it.
	Speak(ctx context.Context, phrase, locale string) error
	// Cancel stops any phrase still playing.
	Cancel()
}
