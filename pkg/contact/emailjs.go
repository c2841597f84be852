package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSURL is the EmailJS REST endpoint host.
const DefaultEmailJSURL = "https://api.emailjs.com"

const emailJSSendPath = "/api/v1.0/email/send"

// EmailJSConfig holds the EmailJS account settings.
type EmailJSConfig struct {
	ServiceID  string `yaml:"service_id"`
	TemplateID string `yaml:"template_id"`
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key,omitempty"`
	ToEmail    string `yaml:"to_email"`
	BaseURL    string `yaml:"base_url,omitempty"`
}

// Configured reports whether the required identifiers are present.
func (c EmailJSConfig) Configured() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// DeliveryError is a non-success answer from the delivery service.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("emailjs: status %d: %s", e.StatusCode, e.Body)
}

// EmailJS sends contact messages through the EmailJS REST API.
type EmailJS struct {
	cfg    EmailJSConfig
	client *http.Client
}

var _ Sender = (*EmailJS)(nil)

// NewEmailJS creates a sender. It returns ErrNotConfigured when the service,
// template or public key is missing.
func NewEmailJS(cfg EmailJSConfig, client *http.Client) (*EmailJS, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultEmailJSURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &EmailJS{cfg: cfg, client: client}, nil
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send validates m and posts it to EmailJS.
func (s *EmailJS) Send(ctx context.Context, m Message) error {
	if err := Validate(m); err != nil {
		return err
	}
	m = m.Trimmed()

	body, err := json.Marshal(sendRequest{
		ServiceID:   s.cfg.ServiceID,
		TemplateID:  s.cfg.TemplateID,
		UserID:      s.cfg.PublicKey,
		AccessToken: s.cfg.PrivateKey,
		TemplateParams: map[string]string{
			"to_email":   s.cfg.ToEmail,
			"from_name":  m.Nombre,
			"from_email": m.Email,
			"empresa":    m.Empresa,
			"message":    m.Mensaje,
			"reply_to":   m.Email,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+emailJSSendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	slog.Info("Contact message delivered", "from", m.Email, "empresa", m.Empresa)
	return nil
}
