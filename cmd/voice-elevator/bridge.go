package main

import (
	"context"
	"sync"

	"voice-elevator-simulator/pkg/voice"
)

// Capabilities is what the browser reported about its Web Speech support.
type Capabilities struct {
	Recognition bool `json:"recognition"`
	Synthesis   bool `json:"synthesis"`
}

// browserVoice forwards recognition and playback to the page over the
// websocket. Recognition results come back as client actions.
// browserVoice는 브라우저의 Web Speech API를 WebSocket 너머로 연결합니다.
type browserVoice struct {
	caps Capabilities
	send func(ServerMessage)

	mu   sync.Mutex
	sink voice.Sink // nil while not capturing
}

var (
	_ voice.Recognizer  = (*browserVoice)(nil)
	_ voice.Synthesizer = (*browserVoice)(nil)
)

func newBrowserVoice(caps Capabilities, send func(ServerMessage)) *browserVoice {
	return &browserVoice{caps: caps, send: send}
}

func (b *browserVoice) Supported() bool { return b.caps.Recognition }

func (b *browserVoice) Start(_ context.Context, locale string, sink voice.Sink) error {
	if !b.caps.Recognition {
		return voice.ErrUnsupported
	}
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
	b.send(ServerMessage{Type: MsgListen, Locale: locale})
	return nil
}

func (b *browserVoice) Stop() error {
	b.mu.Lock()
	b.sink = nil
	b.mu.Unlock()
	b.send(ServerMessage{Type: MsgStopListening})
	return nil
}

func (b *browserVoice) Speak(_ context.Context, phrase, locale string) error {
	if !b.caps.Synthesis {
		return nil
	}
	b.send(ServerMessage{Type: MsgSpeak, Text: phrase, Locale: locale})
	return nil
}

func (b *browserVoice) Cancel() {
	if !b.caps.Synthesis {
		return
	}
	b.send(ServerMessage{Type: MsgCancelSpeech})
}

// current returns the active sink; callbacks run without b.mu held.
func (b *browserVoice) current() voice.Sink {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sink
}

// utterance delivers a finalized transcript from the page.
func (b *browserVoice) utterance(text string) {
	if s := b.current(); s != nil {
		s.OnUtterance(text)
	}
}

// fail reports a SpeechRecognition error event.
func (b *browserVoice) fail(code, message string) {
	if s := b.current(); s != nil {
		s.OnError(&voice.RecognitionError{Code: code, Message: message})
	}
}

// end reports that the page's recognizer stopped on its own.
func (b *browserVoice) end() {
	if s := b.current(); s != nil {
		s.OnEnd()
	}
}
