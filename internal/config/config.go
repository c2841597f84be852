// Package config loads the simulator configuration from an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"voice-elevator-simulator/pkg/contact"
	"voice-elevator-simulator/pkg/elevator"
	"voice-elevator-simulator/pkg/voice"
	"voice-elevator-simulator/pkg/widget"
)

// Config is the application configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Elevator Elevator `yaml:"elevator"`
	Voice    Voice    `yaml:"voice"`
	Contact  Contact  `yaml:"contact"`
}

// Server holds HTTP settings.
type Server struct {
	Port string `yaml:"port" validate:"required,numeric"`
}

// Elevator holds the simulator defaults applied to every new session.
type Elevator struct {
	MaxFloor       int `yaml:"max_floor" validate:"min=3,max=40"`
	InitialFloor   int `yaml:"initial_floor" validate:"min=0,ltefield=MaxFloor"`
	StepIntervalMS int `yaml:"step_interval_ms" validate:"min=1"`
	SettleDelayMS  int `yaml:"settle_delay_ms" validate:"min=0"`
}

// Voice holds speech settings.
type Voice struct {
	Locale        string `yaml:"locale" validate:"required,bcp47_language_tag"`
	SpeechEnabled bool   `yaml:"speech_enabled"`
}

// Contact holds the contact-form delivery settings.
type Contact struct {
	EmailJS contact.EmailJSConfig `yaml:"emailjs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{Port: "8080"},
		Elevator: Elevator{
			MaxFloor:       10,
			InitialFloor:   0,
			StepIntervalMS: 1000,
			SettleDelayMS:  500,
		},
		Voice: Voice{
			Locale:        voice.DefaultLocale,
			SpeechEnabled: true,
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies PORT and EMAILJS_* overrides.
func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if v := os.Getenv("ELEVATOR_MAX_FLOOR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ELEVATOR_MAX_FLOOR %q: %w", v, err)
		}
		c.Elevator.MaxFloor = n
	}

	ej := &c.Contact.EmailJS
	for env, dst := range map[string]*string{
		"EMAILJS_SERVICE_ID":  &ej.ServiceID,
		"EMAILJS_TEMPLATE_ID": &ej.TemplateID,
		"EMAILJS_PUBLIC_KEY":  &ej.PublicKey,
		"EMAILJS_PRIVATE_KEY": &ej.PrivateKey,
		"EMAILJS_TO_EMAIL":    &ej.ToEmail,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// ElevatorConfig converts the settings for elevator.New; id may be empty.
func (c *Config) ElevatorConfig(id string) elevator.Config {
	return elevator.Config{
		ID:           id,
		MaxFloor:     c.Elevator.MaxFloor,
		InitialFloor: c.Elevator.InitialFloor,
		StepInterval: time.Duration(c.Elevator.StepIntervalMS) * time.Millisecond,
		SettleDelay:  time.Duration(c.Elevator.SettleDelayMS) * time.Millisecond,
	}
}

// WidgetConfig builds the per-session widget configuration.
func (c *Config) WidgetConfig(id string) widget.Config {
	return widget.Config{
		Elevator:      c.ElevatorConfig(id),
		Locale:        c.Voice.Locale,
		SpeechEnabled: c.Voice.SpeechEnabled,
	}
}
