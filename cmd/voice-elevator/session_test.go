package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voice-elevator-simulator/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Elevator.StepIntervalMS = 10
	cfg.Elevator.SettleDelayMS = 5
	return cfg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := newHandler(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads server messages until match returns true or timeout.
func readUntil(t *testing.T, conn *websocket.Conn, timeout time.Duration, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		conn.SetReadDeadline(deadline)
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("no matching message before timeout: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func sendAction(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSession_TypedCommandMovesCab(t *testing.T) {
	conn := dial(t, newTestServer(t))

	sendAction(t, conn, ClientMessage{Action: "init", MaxFloor: 6, Capabilities: &Capabilities{Synthesis: true}})
	st := readUntil(t, conn, time.Second, func(m ServerMessage) bool { return m.Type == MsgState })
	if st.State.MaxFloor != 6 || st.State.CurrentFloor != 0 {
		t.Fatalf("initial state = %+v", st.State)
	}

	sendAction(t, conn, ClientMessage{Action: "command", Text: "ir al piso 3"})
	readUntil(t, conn, time.Second, func(m ServerMessage) bool {
		return m.Type == MsgSpeak && m.Text == "Yendo al piso 3." && m.Locale == "es-AR"
	})
	readUntil(t, conn, 2*time.Second, func(m ServerMessage) bool {
		return m.Type == MsgSpeak && m.Text == "Llegamos al piso 3. Puertas abriéndose."
	})
	final := readUntil(t, conn, time.Second, func(m ServerMessage) bool {
		return m.Type == MsgState && m.State.DoorsOpen
	})
	if final.State.CurrentFloor != 3 || final.State.TargetFloor != nil || final.State.Transcript != "ir al piso 3" {
		t.Errorf("final state = %+v", final.State)
	}
}

func TestSession_VoiceBridge(t *testing.T) {
	conn := dial(t, newTestServer(t))

	sendAction(t, conn, ClientMessage{Action: "init", Capabilities: &Capabilities{Recognition: true, Synthesis: true}})
	sendAction(t, conn, ClientMessage{Action: "toggleListening"})
	readUntil(t, conn, time.Second, func(m ServerMessage) bool { return m.Type == MsgListen })

	sendAction(t, conn, ClientMessage{Action: "utterance", Text: "emergencia"})
	readUntil(t, conn, time.Second, func(m ServerMessage) bool {
		return m.Type == MsgState && m.State.Emergency && m.State.Listening
	})

	// Recognizer ended on its own while listening: re-armed.
	sendAction(t, conn, ClientMessage{Action: "recognitionEnd"})
	readUntil(t, conn, time.Second, func(m ServerMessage) bool { return m.Type == MsgListen })

	sendAction(t, conn, ClientMessage{Action: "recognitionError", Code: "not-allowed"})
	readUntil(t, conn, time.Second, func(m ServerMessage) bool { return m.Type == MsgStopListening })
	readUntil(t, conn, time.Second, func(m ServerMessage) bool {
		return m.Type == MsgState && !m.State.Listening && strings.Contains(m.State.Status, "Permiso")
	})

	sendAction(t, conn, ClientMessage{Action: "dismissEmergency"})
	readUntil(t, conn, time.Second, func(m ServerMessage) bool {
		return m.Type == MsgState && !m.State.Emergency
	})
}

func TestSession_NoRecognition(t *testing.T) {
	conn := dial(t, newTestServer(t))

	sendAction(t, conn, ClientMessage{Action: "init", Capabilities: &Capabilities{}})
	sendAction(t, conn, ClientMessage{Action: "startListening"})
	msg := readUntil(t, conn, time.Second, func(m ServerMessage) bool {
		return m.Type == MsgState && m.State.Status != ""
	})
	if msg.State.VoiceSupported || msg.State.Listening {
		t.Errorf("state = %+v, want text-only", msg.State)
	}
}

func TestHealthAndContactDisabled(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		t.Errorf("healthz = %d %+v", resp.StatusCode, health)
	}

	body := `{"nombre":"Ana","email":"ana@example.com","empresa":"X","mensaje":"hola"}`
	resp, err = http.Post(srv.URL+"/api/contact", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("contact status = %d, want 503 without EmailJS config", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(page), "Ascensor por voz") {
		t.Error("index page not served")
	}
}
