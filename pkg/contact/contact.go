// Package contact validates contact-form submissions and hands them to an
// email delivery service.
package contact

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotConfigured is returned when no delivery credentials are set.
var ErrNotConfigured = errors.New("contact delivery not configured")

// Message is one contact-form submission. All four fields are required.
type Message struct {
	Nombre  string `json:"nombre" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Empresa string `json:"empresa" validate:"required,max=200"`
	Mensaje string `json:"mensaje" validate:"required,max=5000"`
}

// Trimmed returns a copy with surrounding whitespace removed.
func (m Message) Trimmed() Message {
	return Message{
		Nombre:  strings.TrimSpace(m.Nombre),
		Email:   strings.TrimSpace(m.Email),
		Empresa: strings.TrimSpace(m.Empresa),
		Mensaje: strings.TrimSpace(m.Mensaje),
	}
}

// Sender delivers a validated message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ValidationError lists the invalid fields of a message, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid contact message: " + strings.Join(names, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the trimmed message and returns a *ValidationError when
// any field is missing or malformed.
func Validate(m Message) error {
	err := validate.Struct(m.Trimmed())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate contact message: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio."
	case "email":
		return "Ingresá un email válido."
	case "max":
		return "El texto es demasiado largo."
	}
	return "Valor inválido."
}
