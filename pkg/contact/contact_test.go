package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func validMessage() Message {
	return Message{
		Nombre:  "Ana Pérez",
		Email:   "ana@example.com",
		Empresa: "Ascensores del Sur",
		Mensaje: "Queremos una demo para nuestro edificio.",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Message)
		fields []string
	}{
		{"valid", func(*Message) {}, nil},
		{"blank name", func(m *Message) { m.Nombre = "   " }, []string{"nombre"}},
		{"bad email", func(m *Message) { m.Email = "ana-at-example" }, []string{"email"}},
		{"all empty", func(m *Message) { *m = Message{} }, []string{"nombre", "email", "empresa", "mensaje"}},
		{"long message", func(m *Message) { m.Mensaje = strings.Repeat("a", 5001) }, []string{"mensaje"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMessage()
			tt.modify(&m)
			err := Validate(m)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if verr.Fields[f] == "" {
					t.Errorf("missing message for field %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestNewEmailJS_NotConfigured(t *testing.T) {
	if _, err := NewEmailJS(EmailJSConfig{ServiceID: "svc"}, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewEmailJS() error = %v, want ErrNotConfigured", err)
	}
}

func TestEmailJS_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != emailJSSendPath {
			t.Errorf("path = %q, want %q", r.URL.Path, emailJSSendPath)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	s, err := NewEmailJS(EmailJSConfig{
		ServiceID:  "service_x",
		TemplateID: "template_x",
		PublicKey:  "user_x",
		ToEmail:    "ventas@example.com",
		BaseURL:    srv.URL + "/",
	}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	m := validMessage()
	m.Nombre = "  Ana Pérez  "
	if err := s.Send(context.Background(), m); err != nil {
		t.Fatalf("Send() = %v", err)
	}

	if got.ServiceID != "service_x" || got.TemplateID != "template_x" || got.UserID != "user_x" {
		t.Errorf("unexpected identifiers %+v", got)
	}
	want := map[string]string{
		"to_email":   "ventas@example.com",
		"from_name":  "Ana Pérez",
		"from_email": "ana@example.com",
		"empresa":    "Ascensores del Sur",
		"message":    "Queremos una demo para nuestro edificio.",
		"reply_to":   "ana@example.com",
	}
	for k, v := range want {
		if got.TemplateParams[k] != v {
			t.Errorf("template_params[%s] = %q, want %q", k, got.TemplateParams[k], v)
		}
	}
}

func TestEmailJS_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The Public Key is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	s, err := NewEmailJS(EmailJSConfig{ServiceID: "s", TemplateID: "t", PublicKey: "bad", BaseURL: srv.URL}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	err = s.Send(context.Background(), validMessage())
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Send() = %v, want *DeliveryError", err)
	}
	if derr.StatusCode != http.StatusBadRequest || derr.Body != "The Public Key is invalid" {
		t.Errorf("unexpected delivery error %+v", derr)
	}
}

type senderFunc func(ctx context.Context, m Message) error

func (f senderFunc) Send(ctx context.Context, m Message) error { return f(ctx, m) }

func TestHandler(t *testing.T) {
	okSender := senderFunc(func(context.Context, Message) error { return nil })
	failSender := senderFunc(func(context.Context, Message) error { return errors.New("boom") })

	valid, _ := json.Marshal(validMessage())
	invalid, _ := json.Marshal(Message{Nombre: "Ana"})

	tests := []struct {
		name   string
		sender Sender
		method string
		body   string
		status int
	}{
		{"ok", okSender, http.MethodPost, string(valid), http.StatusOK},
		{"wrong method", okSender, http.MethodGet, "", http.StatusMethodNotAllowed},
		{"not configured", nil, http.MethodPost, string(valid), http.StatusServiceUnavailable},
		{"bad json", okSender, http.MethodPost, "{", http.StatusBadRequest},
		{"invalid fields", okSender, http.MethodPost, string(invalid), http.StatusBadRequest},
		{"delivery failure", failSender, http.MethodPost, string(valid), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/contact", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			Handler(tt.sender).ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body.String())
			}
		})
	}
}
