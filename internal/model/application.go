package model

import (
	"fmt"
	"strings"
)

// Application is a contact-form submission from the public site.
type Application struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Service string `json:"service,omitempty"`
	Message string `json:"message"`
}

// Validate checks the required application fields.
func (a Application) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("model: application name is required")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("model: application phone is required")
	}
	if strings.TrimSpace(a.Message) == "" {
		return fmt.Errorf("model: application message is required")
	}
	return nil
}
