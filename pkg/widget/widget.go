// Package widget assembles the interactive demo: command interpreter,
// elevator engine and voice adapter, plus the transcript/status surface the
// page renders.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"voice-elevator-simulator/pkg/command"
	"voice-elevator-simulator/pkg/elevator"
	"voice-elevator-simulator/pkg/voice"
)

// NoticeType distinguishes transcript and status updates.
type NoticeType string

const (
	NoticeTranscript NoticeType = "transcript" // 마지막으로 받은 명령 텍스트
	NoticeStatus     NoticeType = "status"     // 안내/오류 메시지
)

// Notice is a change on the transcript/status surface.
type Notice struct {
	Type NoticeType `json:"type"`
	Text string     `json:"text"`
}

// Config configures a Widget.
type Config struct {
	Elevator      elevator.Config
	Locale        string
	SpeechEnabled bool
}

// Widget is one running demo instance. All inputs (typed text, speech,
// settings, emergency dismissal) go through its methods.
type Widget struct {
	elev   *elevator.Elevator
	voice  *voice.Adapter
	logger *slog.Logger

	mu         sync.Mutex
	transcript string
	status     string

	noticeCh chan Notice
}

// New creates a widget over the given speech capabilities. Nil
// capabilities fall back to text-only operation.
func New(cfg Config, rec voice.Recognizer, syn voice.Synthesizer) (*Widget, error) {
	w := &Widget{
		noticeCh: make(chan Notice, 100),
	}

	locale := cfg.Locale
	if locale == "" {
		locale = voice.DefaultLocale
	}

	elev, err := elevator.New(cfg.Elevator, elevator.AnnouncerFunc(w.announce))
	if err != nil {
		return nil, err
	}
	w.elev = elev
	w.logger = slog.Default().With("id", elev.Config.ID)

	w.voice = voice.NewAdapter(rec, syn, voice.Handlers{
		OnUtterance: func(text string) { w.Submit(text) },
		OnStatus:    w.setStatus,
		OnListening: elev.SetListening,
	},
		voice.WithLocale(locale),
		voice.WithSpeechEnabled(cfg.SpeechEnabled),
		voice.WithLogger(w.logger),
	)
	return w, nil
}

// Run drives the movement scheduler until ctx is cancelled.
func (w *Widget) Run(ctx context.Context) error {
	w.voice.CheckSupport()
	return w.elev.Run(ctx)
}

// Submit interprets one typed or spoken command and applies it. Typed text
// and finalized utterances take exactly the same path.
// Submit은 텍스트/음성 명령을 해석하여 상태 머신에 적용합니다.
func (w *Widget) Submit(text string) command.Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return command.Intent{Type: command.IntentUnrecognized}
	}
	w.setTranscript(text)

	in := command.Interpret(text, w.elev.MaxFloor())
	w.logger.Info("Command interpreted", "text", text, "intent", in)

	// Help and Unrecognized change nothing visible, so they are answered here.
	if reply := command.Reply(in); reply != "" {
		w.announce(reply)
	}
	w.elev.Apply(in)
	return in
}

// StartListening starts voice capture. Missing recognition support yields
// voice.ErrUnsupported; the widget keeps working with typed input.
func (w *Widget) StartListening(ctx context.Context) error {
	err := w.voice.StartListening(ctx)
	if err != nil && !errors.Is(err, voice.ErrUnsupported) {
		w.logger.Warn("Failed to start listening", "error", err)
	}
	return err
}

// StopListening stops voice capture without touching movement.
func (w *Widget) StopListening() {
	w.voice.StopListening()
}

// ToggleListening flips voice capture, like the microphone button.
func (w *Widget) ToggleListening(ctx context.Context) error {
	if w.voice.Listening() {
		w.StopListening()
		return nil
	}
	return w.StartListening(ctx)
}

// DismissEmergency is the UI-only emergency acknowledgement.
func (w *Widget) DismissEmergency() bool {
	return w.elev.DismissEmergency()
}

// SetMaxFloor changes the building height (clamped to 3-40).
func (w *Widget) SetMaxFloor(n int) int {
	return w.elev.SetMaxFloor(n)
}

// SetSpeechEnabled toggles spoken feedback.
func (w *Widget) SetSpeechEnabled(on bool) {
	w.voice.SetSpeechEnabled(on)
}

// SpeechEnabled reports whether spoken feedback is on.
func (w *Widget) SpeechEnabled() bool {
	return w.voice.SpeechEnabled()
}

// VoiceSupported reports whether speech capture is available.
func (w *Widget) VoiceSupported() bool {
	return w.voice.Supported()
}

// Reset puts the cab back on its initial floor.
func (w *Widget) Reset() {
	w.elev.Reset()
	w.setStatus("")
}

// Snapshot returns the current elevator state.
func (w *Widget) Snapshot() elevator.State {
	return w.elev.Snapshot()
}

// Events returns elevator state change notifications.
func (w *Widget) Events() <-chan elevator.Event {
	return w.elev.Events()
}

// Notices returns transcript/status changes.
func (w *Widget) Notices() <-chan Notice {
	return w.noticeCh
}

// Transcript returns the last submitted command text.
func (w *Widget) Transcript() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.transcript
}

// Status returns the last status line.
func (w *Widget) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// announce shows a phrase on the status line and speaks it.
func (w *Widget) announce(phrase string) {
	w.setStatus(phrase)
	w.voice.Speak(phrase)
}

func (w *Widget) setTranscript(text string) {
	w.mu.Lock()
	w.transcript = text
	w.mu.Unlock()
	w.publish(Notice{Type: NoticeTranscript, Text: text})
}

func (w *Widget) setStatus(text string) {
	w.mu.Lock()
	w.status = text
	w.mu.Unlock()
	w.publish(Notice{Type: NoticeStatus, Text: text})
}

func (w *Widget) publish(n Notice) {
	select {
	case w.noticeCh <- n:
	default:
		w.logger.Debug("Notice dropped", "type", n.Type)
	}
}
