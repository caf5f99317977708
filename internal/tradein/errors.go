package tradein

import "fmt"

// ValidationError describes the first structural problem found in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BusinessRuleViolation is returned for well-formed input that breaks a
// business constraint, such as the trade-in credit ceiling.
type BusinessRuleViolation struct {
	Rule    string
	Message string
}

func (e *BusinessRuleViolation) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

const (
	RuleCreditCeiling = "credit_ceiling"
	RuleLinesLocked   = "lines_locked"
)
