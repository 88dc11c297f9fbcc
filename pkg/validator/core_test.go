package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formrules/pkg/validator"
)

func sampleErrors() validator.ValidationErrors {
	var errs validator.ValidationErrors
	errs.Add(validator.ValidationError{Field: "email", Rule: "required", Message: "The email field is required."})
	errs.Add(validator.ValidationError{Field: "rows.0.qty", Rule: "min", Message: "The qty field must be at least 1."})
	errs.Add(validator.ValidationError{Field: "email", Rule: "email", Message: "The email field must be a valid email address."})
	return errs
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	t.Run("error text", func(t *testing.T) {
		var empty validator.ValidationErrors
		assert.Equal(t, "validation failed", empty.Error())
		assert.True(t, empty.IsEmpty())

		errs := sampleErrors()
		assert.Equal(t,
			"validation failed: email: The email field is required.; rows.0.qty: The qty field must be at least 1.; email: The email field must be a valid email address.",
			errs.Error(),
		)
	})

	t.Run("lookup by field", func(t *testing.T) {
		errs := sampleErrors()
		assert.Equal(t, []string{"The email field is required.", "The email field must be a valid email address."}, errs.Get("email"))
		assert.Nil(t, errs.Get("missing"))
		assert.Equal(t, []string{"email", "rows.0.qty"}, errs.Fields())
	})

	t.Run("extract from wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("submit: %w", sampleErrors())
		assert.True(t, validator.IsValidationError(wrapped))
		assert.Len(t, validator.ExtractValidationErrors(wrapped), 3)

		assert.False(t, validator.IsValidationError(errors.New("boom")))
		assert.False(t, validator.IsValidationError(nil))
		assert.Nil(t, validator.ExtractValidationErrors(nil))
		assert.Nil(t, validator.ExtractValidationErrors(errors.New("boom")))
	})
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := error(&validator.ConfigError{Path: "age", Rule: "between", Err: validator.ErrMissingAttribute})
	assert.ErrorIs(t, err, validator.ErrMissingAttribute)
	assert.Equal(t, `field "age", rule "between": validator: missing rule attribute`, err.Error())

	var cfgErr *validator.ConfigError
	require.ErrorAs(t, fmt.Errorf("build: %w", err), &cfgErr)
	assert.Equal(t, "age", cfgErr.Path)

	noRule := &validator.ConfigError{Path: "age", Err: validator.ErrInvalidRule}
	assert.Equal(t, `field "age": validator: invalid rule definition`, noRule.Error())
}
