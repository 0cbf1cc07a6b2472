package forms

import "errors"

var (
	// ErrUnknownStep is returned for a step name outside the application flow.
	ErrUnknownStep = errors.New("forms: unknown application step")

	// ErrStepOutOfOrder is returned when a later step is posted before the earlier ones.
	ErrStepOutOfOrder = errors.New("forms: complete the previous steps first")

	// ErrApplicationIncomplete is returned when submitting before every step is done.
	ErrApplicationIncomplete = errors.New("forms: application is incomplete")
)
