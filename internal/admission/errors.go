package admission

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistrationNotOpen is returned when a number is submitted outside
	// the admission window. No network call is made.
	ErrRegistrationNotOpen = errors.New("registration not open yet")

	// ErrAlreadyUsed means the number is valid but has already been consumed.
	ErrAlreadyUsed = errors.New("registration number already used")

	// ErrValidationInFlight rejects a submit while another is pending.
	ErrValidationInFlight = errors.New("validation already in progress")

	// ErrAlreadyAdmitted rejects a submit after the hand-off has started.
	ErrAlreadyAdmitted = errors.New("candidate already admitted")
)

const genericInvalidMessage = "invalid registration number"

// InvalidRegistrationError is a rejected registration number. Message is the
// backend's text when it supplied one.
type InvalidRegistrationError struct {
	Message string
	Err     error
}

func (e *InvalidRegistrationError) Error() string {
	if e.Message == "" {
		return genericInvalidMessage
	}
	return e.Message
}

func (e *InvalidRegistrationError) Unwrap() error { return e.Err }

// AdmissionError is a failed start-exam call. The registration is rolled back
// and the candidate has to validate again.
type AdmissionError struct {
	RegistrationNumber string
	Err                error
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("start exam for %s: %v", e.RegistrationNumber, e.Err)
}

func (e *AdmissionError) Unwrap() error { return e.Err }
