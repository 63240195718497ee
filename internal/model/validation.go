package model

import "fmt"

// ValidationError describes a single data-quality violation.
type ValidationError struct {
	Check       string
	Subject     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Check, e.Subject, e.Description)
}
