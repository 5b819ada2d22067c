package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration before any backend is started.
// Missing broker credentials are reported as ErrMissingCredentials.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var msgs []string
	missing := false
	for _, e := range verrs {
		if e.Tag() == "required_if" {
			missing = true
		}
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Field(), formatValidationError(e)))
	}

	detail := strings.Join(msgs, "; ")
	if missing {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, detail)
	}
	return fmt.Errorf("invalid browser config: %s", detail)
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", strings.Replace(e.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "url":
		return "must be a valid URL"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
