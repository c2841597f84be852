package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voice-elevator-simulator/internal/config"
	"voice-elevator-simulator/pkg/elevator"
	"voice-elevator-simulator/pkg/voice"
	"voice-elevator-simulator/pkg/widget"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Server message types
// 서버 → 브라우저 메시지 타입
const (
	MsgState         = "state"
	MsgEvent         = "event"
	MsgNotice        = "notice"
	MsgSpeak         = "speak"
	MsgCancelSpeech  = "cancelSpeech"
	MsgListen        = "listen"
	MsgStopListening = "stopListening"
)

// ClientMessage is one action sent by the page.
// 브라우저 → 서버 메시지
type ClientMessage struct {
	Action        string        `json:"action"`
	MaxFloor      int           `json:"maxFloor,omitempty"`
	SpeechEnabled *bool         `json:"speechEnabled,omitempty"`
	Capabilities  *Capabilities `json:"capabilities,omitempty"`
	Text          string        `json:"text,omitempty"`
	Code          string        `json:"code,omitempty"` // SpeechRecognition error code
	Message       string        `json:"message,omitempty"`
}

// StateView is the full widget state rendered by the page.
type StateView struct {
	elevator.State
	Direction      string `json:"direction"`
	Transcript     string `json:"transcript"`
	Status         string `json:"status"`
	SpeechEnabled  bool   `json:"speechEnabled"`
	VoiceSupported bool   `json:"voiceSupported"`
}

type ServerMessage struct {
	Type       string     `json:"type"`
	EventType  string     `json:"eventType,omitempty"`
	Payload    any        `json:"payload,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
	State      *StateView `json:"state,omitempty"`
	NoticeType string     `json:"noticeType,omitempty"`
	Text       string     `json:"text,omitempty"`
	Locale     string     `json:"locale,omitempty"`
}

// ElevatorSession manages a WebSocket connection with one widget instance.
// ElevatorSession은 위젯 인스턴스와의 WebSocket 연결을 관리합니다.
type ElevatorSession struct {
	id     string
	conn   *websocket.Conn
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.Mutex // serializes client actions
	widget *widget.Widget
	bridge *browserVoice
	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	done    chan struct{}
}

func NewElevatorSession(conn *websocket.Conn, cfg *config.Config) *ElevatorSession {
	id := uuid.NewString()
	return &ElevatorSession{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		logger: slog.Default().With("session", id),
		done:   make(chan struct{}),
	}
}

func (s *ElevatorSession) HandleMessages() {
	s.logger.Info("Session started", "remote_addr", s.conn.RemoteAddr())
	defer func() {
		close(s.done)
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()
		_ = s.conn.Close()
		s.logger.Info("Session ended", "remote_addr", s.conn.RemoteAddr())
	}()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("WebSocket read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn("Failed to parse message", "error", err)
			continue
		}

		s.handleAction(msg)
	}
}

func (s *ElevatorSession) handleAction(msg ClientMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("Action received", "action", msg.Action, "payload", msg)

	if msg.Action == "init" {
		s.initWidget(msg)
		return
	}
	w := s.widget
	if w == nil {
		s.logger.Warn("Action before init", "action", msg.Action)
		return
	}

	switch msg.Action {
	case "command":
		w.Submit(msg.Text)
	case "utterance":
		s.bridge.utterance(msg.Text)
	case "recognitionError":
		s.bridge.fail(msg.Code, msg.Message)
	case "recognitionEnd":
		s.bridge.end()
	case "startListening":
		if err := w.StartListening(s.ctx); err != nil && !errors.Is(err, voice.ErrUnsupported) {
			s.logger.Warn("Failed to start listening via WS", "error", err)
		}
	case "stopListening":
		w.StopListening()
	case "toggleListening":
		_ = w.ToggleListening(s.ctx)
	case "dismissEmergency":
		w.DismissEmergency()
	case "setMaxFloor":
		w.SetMaxFloor(msg.MaxFloor)
	case "setSpeech":
		if msg.SpeechEnabled != nil {
			w.SetSpeechEnabled(*msg.SpeechEnabled)
		}
	case "reset":
		w.Reset()
	case "stop":
		s.cancel()
		s.widget = nil
		return
	case "getState":
	default:
		s.logger.Warn("Unknown action", "action", msg.Action)
		return
	}
	s.sendState(w)
}

func (s *ElevatorSession) initWidget(msg ClientMessage) {
	// Stop existing widget if any
	if s.cancel != nil {
		s.cancel()
	}

	caps := Capabilities{}
	if msg.Capabilities != nil {
		caps = *msg.Capabilities
	}
	wcfg := s.cfg.WidgetConfig(s.id)
	if msg.SpeechEnabled != nil {
		wcfg.SpeechEnabled = *msg.SpeechEnabled
	}

	bridge := newBrowserVoice(caps, s.writeJSON)
	w, err := widget.New(wcfg, bridge, bridge)
	if err != nil {
		s.logger.Error("Failed to initialize widget", "error", err)
		return
	}
	if msg.MaxFloor != 0 {
		w.SetMaxFloor(msg.MaxFloor)
	}
	s.widget = w
	s.bridge = bridge

	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel

	// Subscribe to events
	// 이벤트 구독
	go s.eventListener(ctx, w)

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Widget run error", "error", err)
		}
	}()

	s.logger.Info("Widget initialized", "max_floor", w.Snapshot().MaxFloor, "capabilities", caps)

	// Send initial state
	s.sendState(w)
}

func (s *ElevatorSession) eventListener(ctx context.Context, w *widget.Widget) {
	events := w.Events()
	notices := w.Notices()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case event := <-events:
			s.sendEvent(event)
			s.sendState(w)
		case n := <-notices:
			s.writeJSON(ServerMessage{Type: MsgNotice, NoticeType: string(n.Type), Text: n.Text})
		}
	}
}

func (s *ElevatorSession) sendState(w *widget.Widget) {
	st := w.Snapshot()
	s.writeJSON(ServerMessage{
		Type: MsgState,
		State: &StateView{
			State:          st,
			Direction:      string(st.Direction()),
			Transcript:     w.Transcript(),
			Status:         w.Status(),
			SpeechEnabled:  w.SpeechEnabled(),
			VoiceSupported: w.VoiceSupported(),
		},
	})
}

func (s *ElevatorSession) sendEvent(event elevator.Event) {
	s.writeJSON(ServerMessage{
		Type:      MsgEvent,
		EventType: string(event.Type),
		Payload:   event.Payload,
		Timestamp: event.Timestamp.Format("15:04:05"),
	})
}

// writeJSON is called from the read loop, the event listener and the
// elevator's tick goroutine.
func (s *ElevatorSession) writeJSON(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("Failed to write JSON message", "type", msg.Type, "error", err)
	}
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	session := NewElevatorSession(conn, s.cfg)
	session.HandleMessages()
}
