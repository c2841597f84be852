package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type collected struct {
	mu         sync.Mutex
	utterances []string
	statuses   []string
	listening  []bool
}

func (c *collected) handlers() Handlers {
	return Handlers{
		OnUtterance: func(text string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.utterances = append(c.utterances, text)
		},
		OnStatus: func(msg string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.statuses = append(c.statuses, msg)
		},
		OnListening: func(on bool) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.listening = append(c.listening, on)
		},
	}
}

func TestAdapter_UnsupportedReportedOnce(t *testing.T) {
	c := &collected{}
	a := NewAdapter(NewRecorder(false), nil, c.handlers())

	for i := 0; i < 3; i++ {
		if err := a.StartListening(context.Background()); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Expected ErrUnsupported, got %v", err)
		}
	}
	if a.CheckSupport() {
		t.Error("CheckSupport must report false")
	}
	if len(c.statuses) != 1 || c.statuses[0] != StatusUnsupported {
		t.Errorf("Expected a single unsupported status, got %q", c.statuses)
	}
	if a.Listening() {
		t.Error("Must not be listening")
	}
}

func TestAdapter_ListenDeliversUtterances(t *testing.T) {
	c := &collected{}
	rec := NewRecorder(true)
	a := NewAdapter(rec, rec, c.handlers())

	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	// Second start is a no-op
	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening again: %v", err)
	}
	if rec.Starts() != 1 {
		t.Errorf("Expected one recognizer start, got %d", rec.Starts())
	}

	rec.Emit("  piso 5 ")
	rec.Emit("")
	if len(c.utterances) != 1 || c.utterances[0] != "piso 5" {
		t.Errorf("unexpected utterances %q", c.utterances)
	}

	a.StopListening()
	rec.Emit("subí")
	if len(c.utterances) != 1 {
		t.Errorf("Utterances after stop must be dropped, got %q", c.utterances)
	}
	if rec.Stops() != 1 {
		t.Errorf("Expected one recognizer stop, got %d", rec.Stops())
	}
	if len(c.listening) != 2 || !c.listening[0] || c.listening[1] {
		t.Errorf("unexpected listening transitions %v", c.listening)
	}
}

func TestAdapter_ErrorStopsListening(t *testing.T) {
	c := &collected{}
	rec := NewRecorder(true)
	a := NewAdapter(rec, rec, c.handlers())

	if err := a.StartListening(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.Fail(&RecognitionError{Code: "not-allowed"})

	if a.Listening() {
		t.Error("Error must stop listening")
	}
	last := c.statuses[len(c.statuses)-1]
	if last != StatusMessage(&RecognitionError{Code: "not-allowed"}) {
		t.Errorf("unexpected status %q", last)
	}

	// The browser's end event after an error must not re-arm
	rec.End()
	if rec.Starts() != 1 {
		t.Errorf("Recognizer re-armed after error: %d starts", rec.Starts())
	}
}

func TestAdapter_EndReArmsWhileListening(t *testing.T) {
	rec := NewRecorder(true)
	a := NewAdapter(rec, rec, Handlers{})

	if err := a.StartListening(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.End()
	rec.End()
	if rec.Starts() != 3 {
		t.Errorf("Expected re-arm on each end, got %d starts", rec.Starts())
	}

	rec.FailNextStart(&RecognitionError{Code: "network"})
	rec.End()
	if a.Listening() {
		t.Error("Failed re-arm must stop listening")
	}
}

func TestAdapter_StartFailure(t *testing.T) {
	c := &collected{}
	rec := NewRecorder(true)
	rec.FailNextStart(&RecognitionError{Code: "audio-capture"})
	a := NewAdapter(rec, rec, c.handlers())

	if err := a.StartListening(context.Background()); err == nil {
		t.Fatal("Expected start error")
	}
	if a.Listening() {
		t.Error("Must not be listening after failed start")
	}
	if len(c.statuses) != 1 || c.statuses[0] != "No se encontró un micrófono." {
		t.Errorf("unexpected statuses %q", c.statuses)
	}
}

func TestAdapter_SpeakCancelsPrevious(t *testing.T) {
	rec := NewRecorder(true)
	a := NewAdapter(nil, rec, Handlers{})

	a.Speak("Yendo al piso 3.")
	a.Speak("Viaje cancelado.")
	a.Speak("   ")

	if got := rec.Spoken(); len(got) != 2 || got[1] != "Viaje cancelado." {
		t.Errorf("unexpected spoken %q", got)
	}
	if rec.Cancels() != 2 {
		t.Errorf("Expected cancel before each phrase, got %d", rec.Cancels())
	}

	a.SetSpeechEnabled(false)
	a.Speak("Abriendo puertas.")
	if got := rec.Spoken(); len(got) != 2 {
		t.Errorf("Disabled speech must not play, got %q", got)
	}
	if a.SpeechEnabled() {
		t.Error("Expected speech disabled")
	}
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&RecognitionError{Code: "no-speech"}, "No se detectó voz. Tocá el micrófono y probá de nuevo."},
		{&RecognitionError{Code: "aborted"}, "Error de reconocimiento de voz (aborted). Probá de nuevo."},
		{errors.New("boom"), "Error de reconocimiento de voz. Probá de nuevo."},
	}
	for _, tt := range tests {
		if got := StatusMessage(tt.err); got != tt.want {
			t.Errorf("StatusMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
