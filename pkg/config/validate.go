package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/modoterra/logkeep/pkg/registry"
)

var validate = validator.New()

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fieldError(fe))
			}
		} else {
			errs = append(errs, err)
		}
	}

	reg := registry.New()
	if strings.TrimSpace(c.LogPaths) != "" {
		parsed, err := registry.Parse(c.LogPaths)
		if err != nil {
			errs = append(errs, fmt.Errorf("log_paths is not a JSON object of name/path pairs: %w", err))
		} else {
			reg = parsed
		}
	}
	for _, e := range reg.All() {
		if e.Path == "" {
			errs = append(errs, fmt.Errorf("log %q: path is empty", e.Name))
		}
	}

	return errs
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "eq":
		return fmt.Errorf("%s must be %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of %s; got %q", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Errorf("%s must be >= %s, got %v", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s: failed %q check", fe.Namespace(), fe.Tag())
	}
}
