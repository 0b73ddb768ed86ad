package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/skyport/pkg/helpers"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = helpers.ErrInvalidToken
	// ErrUnknownConfirmation means the token was genuine but no account holds its email.
	ErrUnknownConfirmation = errors.New("no account for confirmation token")
	ErrNotConfirmed        = errors.New("email not confirmed")
	ErrAlreadyConfirmed    = errors.New("email already confirmed")
)

// ValidationError names the first form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DeliveryError wraps a failed confirmation email send.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver confirmation to %s: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
