package response

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validator checks cleaned model output and returns the text to hand back.
type Validator interface {
	Validate(cleaned string) (string, error)
}

// NopValidator passes text through unchanged.
type NopValidator struct{}

func (NopValidator) Validate(cleaned string) (string, error) {
	return cleaned, nil
}

// Validation error kinds.
const (
	KindParse  = "parse"
	KindSchema = "schema"
)

// ValidationError reports model output that is not a usable QueryList.
type ValidationError struct {
	Kind string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid model output (%s): %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Check runs v over cleaned. Any validation failure is logged and replaced
// by the fallback payload, so Check always yields usable text.
func Check(v Validator, cleaned string, log logrus.FieldLogger) string {
	if v == nil {
		v = NopValidator{}
	}
	out, err := v.Validate(cleaned)
	if err == nil {
		return out
	}
	if log != nil {
		kind := "unknown"
		var verr *ValidationError
		if errors.As(err, &verr) {
			kind = verr.Kind
		}
		log.WithError(err).
			WithField("kind", kind).
			WithField("cleaned", cleaned).
			Error("model output failed validation, returning fallback")
	}
	return Fallback()
}
