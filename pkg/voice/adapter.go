package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Status messages shown on the transcript surface.
const (
	StatusUnsupported = "El reconocimiento de voz no está disponible. Escribí el comando en el cuadro de texto."
	StatusListening   = "Escuchando..."
	StatusStopped     = "Micrófono apagado."
)

// RecognitionError is a capture failure reported by the recognizer, keyed by
// the Web Speech API error code ("not-allowed", "no-speech", ...).
type RecognitionError struct {
	Code    string
	Message string
}

func (e *RecognitionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("recognition error %s: %s", e.Code, e.Message)
	}
	return "recognition error " + e.Code
}

// StatusMessage turns a recognition failure into user-facing text.
func StatusMessage(err error) string {
	var re *RecognitionError
	if !errors.As(err, &re) {
		return "Error de reconocimiento de voz. Probá de nuevo."
	}
	switch re.Code {
	case "not-allowed", "service-not-allowed":
		return "Permiso de micrófono denegado. Habilitalo para usar comandos de voz."
	case "no-speech":
		return "No se detectó voz. Tocá el micrófono y probá de nuevo."
	case "audio-capture":
		return "No se encontró un micrófono."
	case "network":
		return "Error de red en el reconocimiento de voz."
	}
	return "Error de reconocimiento de voz (" + re.Code + "). Probá de nuevo."
}

// Handlers receive the adapter's asynchronous output. Any field may be nil.
type Handlers struct {
	OnUtterance func(text string)
	OnStatus    func(message string)
	OnListening func(on bool)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLocale sets the recognition and playback locale.
func WithLocale(locale string) Option {
	return func(a *Adapter) {
		a.locale = locale
	}
}

// WithSpeechEnabled sets the initial spoken-feedback flag.
func WithSpeechEnabled(on bool) Option {
	return func(a *Adapter) {
		a.enabled = on
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// Adapter layers listen/speak semantics over a Recognizer and a Synthesizer:
// unsupported capture is reported once, errors stop listening, the
// recognizer is re-armed only while listening, and a new phrase cancels
// the one in progress.
//
// Handlers are always invoked without the adapter lock held.
type Adapter struct {
	rec      Recognizer
	syn      Synthesizer
	handlers Handlers
	locale   string
	logger   *slog.Logger

	mu                  sync.Mutex
	ctx                 context.Context
	enabled             bool
	listening           bool
	unsupportedReported bool
}

// NewAdapter creates an adapter. Nil capabilities are replaced by NoOp.
func NewAdapter(rec Recognizer, syn Synthesizer, h Handlers, opts ...Option) *Adapter {
	if rec == nil {
		rec = NoOp{}
	}
	if syn == nil {
		syn = NoOp{}
	}
	a := &Adapter{
		rec:      rec,
		syn:      syn,
		handlers: h,
		locale:   DefaultLocale,
		enabled:  true,
		logger:   slog.Default(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Supported reports whether voice capture is available.
func (a *Adapter) Supported() bool {
	return a.rec.Supported()
}

// Listening reports whether capture is active.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// SpeechEnabled reports whether spoken feedback is on.
func (a *Adapter) SpeechEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Locale returns the configured locale.
func (a *Adapter) Locale() string {
	return a.locale
}

// CheckSupport reports the unsupported status once, if applicable. It
// returns whether capture is available.
func (a *Adapter) CheckSupport() bool {
	if a.rec.Supported() {
		return true
	}
	a.reportUnsupported()
	return false
}

// StartListening begins continuous capture. It returns ErrUnsupported when
// the environment has no recognizer; that is a fallback, not a failure.
func (a *Adapter) StartListening(ctx context.Context) error {
	if !a.rec.Supported() {
		a.reportUnsupported()
		return ErrUnsupported
	}

	a.mu.Lock()
	if a.listening {
		a.mu.Unlock()
		return nil
	}
	a.listening = true
	a.ctx = ctx
	a.mu.Unlock()

	if err := a.rec.Start(ctx, a.locale, sink{a}); err != nil {
		a.mu.Lock()
		a.listening = false
		a.mu.Unlock()
		a.logger.Warn("Recognizer start failed", "error", err)
		a.status(StatusMessage(err))
		return fmt.Errorf("start recognizer: %w", err)
	}

	a.logger.Info("Listening started", "locale", a.locale)
	a.setListening(true)
	a.status(StatusListening)
	return nil
}

// StopListening ends capture. In-flight movement is not affected.
func (a *Adapter) StopListening() {
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return
	}
	a.listening = false
	a.mu.Unlock()

	if err := a.rec.Stop(); err != nil {
		a.logger.Warn("Recognizer stop failed", "error", err)
	}
	a.logger.Info("Listening stopped")
	a.setListening(false)
	a.status(StatusStopped)
}

// Speak plays phrase if spoken feedback is enabled, cancelling whatever
// phrase is still playing. At most one phrase is active at a time.
func (a *Adapter) Speak(phrase string) {
	phrase = strings.TrimSpace(phrase)
	a.mu.Lock()
	enabled := a.enabled
	a.mu.Unlock()
	if !enabled || phrase == "" {
		return
	}

	a.syn.Cancel()
	if err := a.syn.Speak(context.Background(), phrase, a.locale); err != nil {
		a.logger.Warn("Speech playback failed", "error", err, "phrase", phrase)
	}
}

// SetSpeechEnabled toggles spoken feedback. Disabling cancels playback.
func (a *Adapter) SetSpeechEnabled(on bool) {
	a.mu.Lock()
	a.enabled = on
	a.mu.Unlock()
	if !on {
		a.syn.Cancel()
	}
	a.logger.Info("Spoken feedback toggled", "enabled", on)
}

func (a *Adapter) reportUnsupported() {
	a.mu.Lock()
	already := a.unsupportedReported
	a.unsupportedReported = true
	a.mu.Unlock()
	if already {
		return
	}
	a.logger.Info("Speech recognition unavailable, text-only mode")
	a.status(StatusUnsupported)
}

func (a *Adapter) status(msg string) {
	if a.handlers.OnStatus != nil {
		a.handlers.OnStatus(msg)
	}
}

func (a *Adapter) setListening(on bool) {
	if a.handlers.OnListening != nil {
		a.handlers.OnListening(on)
	}
}

// sink keeps the Sink methods off the Adapter's public surface.
type sink struct{ a *Adapter }

func (s sink) OnUtterance(text string) {
	a := s.a
	text = strings.TrimSpace(text)
	if text == "" || !a.Listening() {
		return
	}
	a.logger.Debug("Utterance recognized", "text", text)
	if a.handlers.OnUtterance != nil {
		a.handlers.OnUtterance(text)
	}
}

func (s sink) OnError(err error) {
	a := s.a
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return
	}
	a.listening = false
	a.mu.Unlock()

	a.logger.Warn("Recognition error, listening stopped", "error", err)
	if stopErr := a.rec.Stop(); stopErr != nil {
		a.logger.Debug("Recognizer stop after error failed", "error", stopErr)
	}
	a.setListening(false)
	a.status(StatusMessage(err))
}

func (s sink) OnEnd() {
	a := s.a
	a.mu.Lock()
	listening, ctx := a.listening, a.ctx
	a.mu.Unlock()
	if !listening {
		return
	}

	// continuous mode ended on its own; re-arm while still listening
	a.logger.Debug("Recognizer ended, re-arming")
	if err := a.rec.Start(ctx, a.locale, s); err != nil {
		s.OnError(err)
	}
}
