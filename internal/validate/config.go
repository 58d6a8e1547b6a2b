// Package validate provides configuration validation utilities for plaza components.
//
// This file implements common validation patterns used across the daemon config
// packages to ensure consistency and reduce duplication. All functions leverage
// the go-playground/validator library for standardized validation behavior.
//
// VALIDATION UTILITIES:
//   - Port validation: Standard port range checking (1-65535)
//   - String validation: Required field and non-empty string checking
//   - Timeout validation: Positive duration validation for timeouts
//   - Count validation: Positive integer validation for sizes and limits
//
// These utilities replace manual validation code scattered across config packages
// with centralized, consistent validation using the validator library's built-in
// tags and error handling.
package validate

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
	// Using built-in validators: min, max, required - no custom registration needed
}

// ValidateField validates individual values against specified validation rules
// using the go-playground/validator library. Provides flexible validation for
// single fields without requiring struct definitions.
//
// Supports all built-in validation tags including numeric ranges, string
// patterns, and required field validation.
//
// Example: ValidateField(8080, "required,min=1,max=65535")
func ValidateField(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

// ValidateStruct validates a struct against its `validate` tags. Used by config
// types that annotate their fields rather than validating each one manually.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidatePortRange validates that a port number is within the valid range (1-65535).
// Uses the validator library for consistent error handling and messaging.
//
// Rejects port 0 (OS-assigned) since the daemon's API address must be
// predictable for CLI tools and downstream consumers.
func ValidatePortRange(port int) error {
	return ValidateField(port, "required,min=1,max=65535")
}

// ValidateRequiredString validates that a string field is not empty.
// Uses the validator library for consistent error handling across config validation.
//
// Critical for ensuring required configuration fields like database DSNs and
// bind addresses are properly specified before service initialization.
func ValidateRequiredString(value, fieldName string) error {
	if err := ValidateField(value, "required"); err != nil {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidatePositiveTimeout validates that a timeout duration is positive (> 0).
// Essential for ensuring timeout configurations don't cause infinite waits or
// immediate failures.
//
// Used for store statement timeouts, flush intervals, and retry delays to
// ensure proper timing behavior in the write-behind pipeline.
func ValidatePositiveTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

// ValidatePositiveCount validates that an integer count or size is positive (> 0).
// Used for queue capacities, batch sizes, and retry limits where zero or
// negative values would disable the pipeline in surprising ways.
func ValidatePositiveCount(value int, name string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, value)
	}
	return nil
}
